package engine

import (
	"sync"
	"time"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// scriptedRandom отдает значения по кругу
type scriptedRandom struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

func newScriptedRandom(values ...float64) *scriptedRandom {
	return &scriptedRandom{values: values}
}

func (r *scriptedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.values[r.pos%len(r.values)]
	r.pos++
	return v
}

type recordingNotifier struct {
	mu       sync.Mutex
	activity []domain.ActivityEvent
	health   []domain.HealthSnapshot
}

func (n *recordingNotifier) ActivityAdded(_ string, ev domain.ActivityEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.activity = append(n.activity, ev)
}

func (n *recordingNotifier) HealthUpdated(_ string, snap domain.HealthSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.health = append(n.health, snap)
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.activity), len(n.health)
}

func virtualRuntime(rnd RandomSource) (Runtime, *VirtualScheduler) {
	sched := NewVirtualScheduler(testEpoch)
	return Runtime{
		Scope:     "test-view",
		Scheduler: sched,
		Clock:     sched,
		Random:    rnd,
	}, sched
}
