package engine

import (
	"errors"
	"time"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrUnknownFilter   = errors.New("unknown activity filter")
	ErrInvalidInterval = errors.New("refresh interval must be positive")
	ErrEngineClosed    = errors.New("engine is closed")
)

// Notifier получает результаты тиков. Вызывается вне лока движка и не должен блокировать.
type Notifier interface {
	ActivityAdded(scope string, ev domain.ActivityEvent)
	HealthUpdated(scope string, snap domain.HealthSnapshot)
}

type nopNotifier struct{}

func (nopNotifier) ActivityAdded(string, domain.ActivityEvent)  {}
func (nopNotifier) HealthUpdated(string, domain.HealthSnapshot) {}

type multiNotifier []Notifier

func (m multiNotifier) ActivityAdded(scope string, ev domain.ActivityEvent) {
	for _, n := range m {
		n.ActivityAdded(scope, ev)
	}
}

func (m multiNotifier) HealthUpdated(scope string, snap domain.HealthSnapshot) {
	for _, n := range m {
		n.HealthUpdated(scope, snap.Clone())
	}
}

// Notifiers склеивает несколько получателей, nil пропускаются
func Notifiers(ns ...Notifier) Notifier {
	out := make(multiNotifier, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Runtime - внешние возможности, которые движок получает при создании.
// Каждая открытая вьюха строит свой Runtime со своим Scope.
type Runtime struct {
	Scope     string // ID вьюхи, попадает в логи и уведомления
	Scheduler Scheduler
	Clock     Clock
	Random    RandomSource
	Notifier  Notifier
	Metrics   *Metrics
	Logger    *zap.Logger
}

// withDefaults - Null Object для всего, что не передали
func (rt Runtime) withDefaults() Runtime {
	if rt.Scheduler == nil {
		rt.Scheduler = NewTickerScheduler()
	}
	if rt.Clock == nil {
		rt.Clock = SystemClock{}
	}
	if rt.Random == nil {
		rt.Random = NewMathRandom()
	}
	if rt.Notifier == nil {
		rt.Notifier = nopNotifier{}
	}
	if rt.Metrics == nil {
		rt.Metrics = NewMetrics(nil)
	}
	if rt.Logger == nil {
		rt.Logger = zap.NewNop()
	}
	return rt
}

// periodic - общий для движков «таймер + поколение».
// Все методы вызываются под локом владельца. Возвращаемую старую задачу
// владелец останавливает уже после Unlock: Stop ждет текущий callback,
// а тот может ждать тот же лок.
type periodic struct {
	sched Scheduler
	task  Task
	gen   uint64
}

// arm заводит задачу заново; fire получает поколение, с которым был заведен
func (p *periodic) arm(period time.Duration, fire func(gen uint64)) Task {
	old := p.task
	p.gen++
	gen := p.gen
	p.task = p.sched.Every(period, func() { fire(gen) })
	return old
}

func (p *periodic) disarm() Task {
	old := p.task
	p.task = nil
	p.gen++
	return old
}

// current отсекает срабатывания задач, которые уже заменены или остановлены
func (p *periodic) current(gen uint64) bool {
	return p.task != nil && p.gen == gen
}

func (p *periodic) armed() bool { return p.task != nil }

func stopTask(t Task) {
	if t != nil {
		t.Stop()
	}
}
