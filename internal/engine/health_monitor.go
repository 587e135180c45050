package engine

import (
	"sync"
	"time"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"go.uber.org/zap"
)

const DefaultRefreshInterval = 30 * time.Second

// Границы симуляции перенесены буквально, бизнес-смысла у них нет
type jitterRule struct {
	width  float64 // дельта равномерна в [-width/2, +width/2]
	lo, hi float64
}

var (
	cpuJitter          = jitterRule{width: 10, lo: 20, hi: 80}
	memoryJitter       = jitterRule{width: 10, lo: 30, hi: 90}
	responseTimeJitter = jitterRule{width: 20, lo: 50, hi: 300}
	rpmJitter          = jitterRule{width: 50, lo: 200, hi: 500}
)

func (j jitterRule) apply(current float64, r RandomSource) float64 {
	return applyJitter(current, (r.Float64()-0.5)*j.width, j.lo, j.hi)
}

func applyJitter(current, delta, lo, hi float64) float64 {
	return max(lo, min(hi, current+delta))
}

type HealthConfig struct {
	Interval time.Duration
}

// HealthMonitor держит снимок здоровья и каденцию его «дрожания».
type HealthMonitor struct {
	rt     Runtime
	logger *zap.Logger

	mu          sync.Mutex
	snap        domain.HealthSnapshot
	autoRefresh bool
	interval    time.Duration
	timer       periodic
	closed      bool
}

func NewHealthMonitor(rt Runtime, cfg HealthConfig) *HealthMonitor {
	rt = rt.withDefaults()
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefreshInterval
	}

	return &HealthMonitor{
		rt:          rt,
		logger:      rt.Logger.With(zap.String("mod", "health-monitor"), zap.String("scope", rt.Scope)),
		snap:        SeedHealth(rt.Clock.Now()),
		autoRefresh: true,
		interval:    cfg.Interval,
		timer:       periodic{sched: rt.Scheduler},
	}
}

func (m *HealthMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrEngineClosed
	}
	if m.autoRefresh && !m.timer.armed() {
		m.timer.arm(m.interval, m.scheduledTick)
	}
	return nil
}

func (m *HealthMonitor) ToggleAutoRefresh() bool {
	m.mu.Lock()
	on := !m.autoRefresh
	old := m.setAutoRefreshLocked(on)
	m.mu.Unlock()

	stopTask(old)
	m.logger.Info("auto refresh changed", zap.Bool("auto_refresh", on))
	return on
}

// SetAutoRefresh останавливает/запускает таймер. Выключение синхронное:
// после возврата ни один тик снимок не изменит.
func (m *HealthMonitor) SetAutoRefresh(on bool) {
	m.mu.Lock()
	if m.autoRefresh == on {
		m.mu.Unlock()
		return
	}
	old := m.setAutoRefreshLocked(on)
	m.mu.Unlock()

	stopTask(old)
	m.logger.Info("auto refresh changed", zap.Bool("auto_refresh", on))
}

func (m *HealthMonitor) setAutoRefreshLocked(on bool) Task {
	m.autoRefresh = on
	switch {
	case m.closed:
		return nil
	case on:
		return m.timer.arm(m.interval, m.scheduledTick)
	default:
		return m.timer.disarm()
	}
}

func (m *HealthMonitor) AutoRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoRefresh
}

// SetRefreshInterval меняет каденцию для последующих тиков.
// Текущее ожидание не досчитывается: задача перезаводится с новым периодом.
func (m *HealthMonitor) SetRefreshInterval(seconds int) error {
	if seconds <= 0 {
		return ErrInvalidInterval
	}

	m.mu.Lock()
	m.interval = time.Duration(seconds) * time.Second
	var old Task
	if m.timer.armed() && !m.closed {
		old = m.timer.arm(m.interval, m.scheduledTick)
	}
	m.mu.Unlock()

	stopTask(old)
	m.logger.Info("refresh interval changed", zap.Int("seconds", seconds))
	return nil
}

func (m *HealthMonitor) RefreshInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Tick - один шаг jitter. Диск, БД и интеграции не меняются.
func (m *HealthMonitor) Tick() domain.HealthSnapshot {
	m.mu.Lock()
	snap := m.jitterLocked()
	m.mu.Unlock()

	m.publish(snap)
	return snap
}

func (m *HealthMonitor) scheduledTick(gen uint64) {
	m.mu.Lock()
	if !m.autoRefresh || m.closed || !m.timer.current(gen) {
		m.mu.Unlock()
		return
	}
	snap := m.jitterLocked()
	m.mu.Unlock()

	m.publish(snap)
}

func (m *HealthMonitor) jitterLocked() domain.HealthSnapshot {
	r := m.rt.Random

	m.snap.Server.CPUPercent = cpuJitter.apply(m.snap.Server.CPUPercent, r)
	m.snap.Server.MemoryPercent = memoryJitter.apply(m.snap.Server.MemoryPercent, r)
	m.snap.Server.LastCheckedAt = m.rt.Clock.Now()
	m.snap.API.ResponseTimeMs = responseTimeJitter.apply(m.snap.API.ResponseTimeMs, r)
	m.snap.API.RequestsPerMinute = rpmJitter.apply(m.snap.API.RequestsPerMinute, r)

	return m.snap.Clone()
}

func (m *HealthMonitor) publish(snap domain.HealthSnapshot) {
	m.rt.Metrics.HealthTicksTotal.Inc()
	m.rt.Metrics.HealthGauge.WithLabelValues("cpu_percent").Set(snap.Server.CPUPercent)
	m.rt.Metrics.HealthGauge.WithLabelValues("memory_percent").Set(snap.Server.MemoryPercent)
	m.rt.Metrics.HealthGauge.WithLabelValues("response_time_ms").Set(snap.API.ResponseTimeMs)
	m.rt.Metrics.HealthGauge.WithLabelValues("requests_per_minute").Set(snap.API.RequestsPerMinute)

	m.rt.Notifier.HealthUpdated(m.rt.Scope, snap)
}

// Snapshot - глубокая копия текущего снимка
func (m *HealthMonitor) Snapshot() domain.HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone()
}

func (m *HealthMonitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	old := m.timer.disarm()
	m.mu.Unlock()

	stopTask(old)
}
