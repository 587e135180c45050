package domain

import (
	"fmt"
	"strings"
)

// ControlTarget - какой движок переключает сигнал оператора
type ControlTarget string

const (
	TargetFeed   ControlTarget = "feed"
	TargetHealth ControlTarget = "health"
)

// ControlSignal приходит из Redis в формате "feed:off" / "health:on"
type ControlSignal struct {
	Target ControlTarget
	On     bool
}

func (s ControlSignal) String() string {
	state := "off"
	if s.On {
		state = "on"
	}
	return string(s.Target) + ":" + state
}

// ParseControlSignal разбирает payload сигнала. Допускаются on/off и true/false.
func ParseControlSignal(payload string) (ControlSignal, error) {
	parts := strings.Split(strings.TrimSpace(payload), ":")
	if len(parts) != 2 {
		return ControlSignal{}, fmt.Errorf("invalid control signal %q", payload)
	}

	target := ControlTarget(strings.ToLower(parts[0]))
	if target != TargetFeed && target != TargetHealth {
		return ControlSignal{}, fmt.Errorf("unknown control target %q", parts[0])
	}

	switch strings.ToLower(parts[1]) {
	case "on", "true":
		return ControlSignal{Target: target, On: true}, nil
	case "off", "false":
		return ControlSignal{Target: target, On: false}, nil
	default:
		return ControlSignal{}, fmt.Errorf("invalid control state %q", parts[1])
	}
}
