package engine

import (
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultFeedInterval = 30 * time.Second
	DefaultFeedCapacity = 20

	syntheticTitle       = "New activity detected"
	syntheticDescription = "Automated activity captured by the real-time monitor"
	syntheticActor       = "System"
)

// syntheticCategories - из чего выбирается категория нового события (alert сюда не входит)
var syntheticCategories = []domain.Category{
	domain.CategoryProject,
	domain.CategoryClient,
	domain.CategoryPayment,
	domain.CategorySystem,
}

type FeedConfig struct {
	Interval time.Duration
	Capacity int
}

func (c FeedConfig) withDefaults() FeedConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultFeedInterval
	}
	if c.Capacity <= 0 {
		c.Capacity = DefaultFeedCapacity
	}
	// больше 20 событий лента не держит
	c.Capacity = min(c.Capacity, DefaultFeedCapacity)
	return c
}

// ActivityFeed держит ограниченный лог событий (newest-first) и его live-каденцию.
// Пока лента live, раз в Interval в голову добавляется синтетическое событие.
type ActivityFeed struct {
	rt     Runtime
	cfg    FeedConfig
	logger *zap.Logger

	mu     sync.Mutex
	events []domain.ActivityEvent
	nextID int64
	live   bool
	filter domain.ActivityFilter
	timer  periodic
	closed bool
}

// NewActivityFeed заполняет ленту сидом. Таймер заводится только в Start.
func NewActivityFeed(rt Runtime, cfg FeedConfig) *ActivityFeed {
	rt = rt.withDefaults()
	cfg = cfg.withDefaults()

	seed := SeedActivity(rt.Clock.Now())
	var maxID int64
	for _, ev := range seed {
		maxID = max(maxID, ev.ID)
	}
	if len(seed) > cfg.Capacity {
		seed = seed[:cfg.Capacity]
	}

	return &ActivityFeed{
		rt:     rt,
		cfg:    cfg,
		logger: rt.Logger.With(zap.String("mod", "activity-feed"), zap.String("scope", rt.Scope)),
		events: seed,
		nextID: maxID + 1,
		live:   true,
		filter: domain.FilterAll,
		timer:  periodic{sched: rt.Scheduler},
	}
}

// Start заводит таймер, если лента в режиме live
func (f *ActivityFeed) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrEngineClosed
	}
	if f.live && !f.timer.armed() {
		f.armLocked()
	}
	return nil
}

// ToggleLive переключает режим и возвращает новое значение
func (f *ActivityFeed) ToggleLive() bool {
	f.mu.Lock()
	on := !f.live
	old := f.setLiveLocked(on)
	f.mu.Unlock()

	stopTask(old)
	f.logger.Info("live mode changed", zap.Bool("live", on))
	return on
}

// SetLive включает/выключает live. При выключении таймер останавливается синхронно,
// пропущенные тики не накапливаются.
func (f *ActivityFeed) SetLive(on bool) {
	f.mu.Lock()
	if f.live == on {
		f.mu.Unlock()
		return
	}
	old := f.setLiveLocked(on)
	f.mu.Unlock()

	stopTask(old)
	f.logger.Info("live mode changed", zap.Bool("live", on))
}

// setLiveLocked меняет флаг и таймер под локом; старую задачу вызывающий гасит после Unlock
func (f *ActivityFeed) setLiveLocked(on bool) Task {
	f.live = on
	switch {
	case f.closed:
		return nil
	case on:
		return f.armLocked()
	default:
		return f.disarmLocked()
	}
}

func (f *ActivityFeed) IsLive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

// SetFilter меняет только фильтр, сами события не трогает.
// Неизвестная вкладка отклоняется, текущий фильтр остается.
func (f *ActivityFeed) SetFilter(filter domain.ActivityFilter) error {
	if _, ok := domain.ParseFilter(string(filter)); !ok {
		return ErrUnknownFilter
	}

	f.mu.Lock()
	f.filter = filter
	f.mu.Unlock()
	return nil
}

func (f *ActivityFeed) Filter() domain.ActivityFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

// Tick - один шаг мутации: синтезирует событие, кладет в голову и обрезает хвост.
// Планировщик вызывает его только пока лента live.
func (f *ActivityFeed) Tick() domain.ActivityEvent {
	f.mu.Lock()
	ev := f.appendLocked()
	f.mu.Unlock()

	f.rt.Metrics.FeedEventsTotal.WithLabelValues(string(ev.Category)).Inc()
	f.rt.Notifier.ActivityAdded(f.rt.Scope, ev)
	f.logger.Debug("synthetic activity appended", zap.Int64("id", ev.ID), zap.String("category", string(ev.Category)))
	return ev
}

func (f *ActivityFeed) scheduledTick(gen uint64) {
	f.mu.Lock()
	if !f.live || f.closed || !f.timer.current(gen) {
		f.mu.Unlock()
		return
	}
	ev := f.appendLocked()
	f.mu.Unlock()

	f.rt.Metrics.FeedEventsTotal.WithLabelValues(string(ev.Category)).Inc()
	f.rt.Notifier.ActivityAdded(f.rt.Scope, ev)
}

func (f *ActivityFeed) appendLocked() domain.ActivityEvent {
	at := f.rt.Clock.Now()
	// Лента строго newest-first даже при замороженных часах
	if len(f.events) > 0 && !at.After(f.events[0].OccurredAt) {
		at = f.events[0].OccurredAt.Add(time.Nanosecond)
	}

	ev := domain.ActivityEvent{
		ID:          f.nextID,
		Category:    pickCategory(f.rt.Random),
		Title:       syntheticTitle,
		Description: syntheticDescription,
		Actor:       syntheticActor,
		OccurredAt:  at,
		Priority:    domain.PriorityNormal,
	}
	f.nextID++

	keep := min(len(f.events), f.cfg.Capacity-1)
	events := make([]domain.ActivityEvent, 0, keep+1)
	events = append(events, ev)
	events = append(events, f.events[:keep]...)
	f.events = events

	return ev
}

func pickCategory(r RandomSource) domain.Category {
	idx := int(r.Float64() * float64(len(syntheticCategories)))
	idx = max(0, min(idx, len(syntheticCategories)-1))
	return syntheticCategories[idx]
}

// VisibleEvents - ленивая последовательность событий под текущий фильтр.
// Каждый проход заново снимает копию ленты, поэтому последовательность можно перезапускать.
func (f *ActivityFeed) VisibleEvents() iter.Seq[domain.ActivityEvent] {
	return func(yield func(domain.ActivityEvent) bool) {
		f.mu.Lock()
		events := slices.Clone(f.events)
		filter := f.filter
		f.mu.Unlock()

		for _, ev := range events {
			if !filter.Matches(ev.Category) {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// State отдает копию состояния ленты
func (f *ActivityFeed) State() domain.ActivityFeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.ActivityFeedState{
		Events:       slices.Clone(f.events),
		IsLive:       f.live,
		ActiveFilter: f.filter,
	}
}

func (f *ActivityFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// Summary считает события по категориям и приоритетам для плиток
func (f *ActivityFeed) Summary() domain.ActivitySummary {
	f.mu.Lock()
	defer f.mu.Unlock()

	sum := domain.ActivitySummary{
		Total:      len(f.events),
		ByCategory: make(map[domain.Category]int),
		ByPriority: make(map[domain.Priority]int),
	}
	for _, ev := range f.events {
		sum.ByCategory[ev.Category]++
		sum.ByPriority[ev.Priority]++
		if f.filter.Matches(ev.Category) {
			sum.Visible++
		}
	}
	return sum
}

// Close останавливает таймер. Повторный вызов безопасен, после Close лента больше не тикает.
func (f *ActivityFeed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	old := f.disarmLocked()
	f.mu.Unlock()

	stopTask(old)
}

func (f *ActivityFeed) armLocked() Task {
	if !f.timer.armed() {
		f.rt.Metrics.FeedLiveViews.Inc()
	}
	return f.timer.arm(f.cfg.Interval, f.scheduledTick)
}

func (f *ActivityFeed) disarmLocked() Task {
	if f.timer.armed() {
		f.rt.Metrics.FeedLiveViews.Dec()
	}
	return f.timer.disarm()
}
