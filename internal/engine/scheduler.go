package engine

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Clock - источник текущего времени, подменяется в тестах
type Clock interface {
	Now() time.Time
}

// RandomSource отдает равномерное число в [0,1)
type RandomSource interface {
	Float64() float64
}

// Task - зарегистрированный повторяющийся вызов.
// Stop синхронный: после возврата callback больше не выполняется и не выполняется прямо сейчас.
type Task interface {
	Stop()
}

// Scheduler регистрирует callback с периодом. Вызовы одной задачи никогда не пересекаются.
type Scheduler interface {
	Every(period time.Duration, fn func()) Task
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type mathRandom struct{}

func (mathRandom) Float64() float64 { return rand.Float64() }

// NewMathRandom - продовый источник случайности (math/rand/v2)
func NewMathRandom() RandomSource { return mathRandom{} }

// TickerScheduler - продовая реализация: одна горутина с time.Ticker на задачу
type TickerScheduler struct{}

func NewTickerScheduler() *TickerScheduler { return &TickerScheduler{} }

func (s *TickerScheduler) Every(period time.Duration, fn func()) Task {
	t := &tickerTask{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(period, fn)
	return t
}

type tickerTask struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (t *tickerTask) run(period time.Duration, fn func()) {
	defer close(t.done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			// Stop мог прийти одновременно с тиком - select выбирает случайно
			select {
			case <-t.stop:
				return
			default:
			}
			fn()
		}
	}
}

// Stop нельзя звать из самого callback - дождется сам себя
func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}

// VirtualScheduler - симулированное время. Задачи срабатывают только внутри Advance,
// строго по порядку времени. Одновременно служит Clock для движков.
type VirtualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks map[uint64]*virtualTask
}

type virtualTask struct {
	s      *VirtualScheduler
	id     uint64
	period time.Duration
	next   time.Time
	fn     func()
}

func NewVirtualScheduler(start time.Time) *VirtualScheduler {
	return &VirtualScheduler{
		now:   start,
		tasks: make(map[uint64]*virtualTask),
	}
}

func (s *VirtualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *VirtualScheduler) Every(period time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &virtualTask{s: s, id: s.seq, period: period, next: s.now.Add(period), fn: fn}
	s.tasks[t.id] = t
	return t
}

func (t *virtualTask) Stop() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	delete(t.s.tasks, t.id)
}

// Pending - количество активных задач (для проверки отсутствия утечек)
func (s *VirtualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Advance двигает часы на d, по дороге вызывая все задачи, чей срок наступил.
// Callback вызывается без лока, поэтому он может останавливать и заводить задачи.
func (s *VirtualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		due := s.nextDueLocked(target)
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = due.next
		due.next = due.next.Add(due.period)
		fn := due.fn
		s.mu.Unlock()

		fn()
	}
}

func (s *VirtualScheduler) nextDueLocked(target time.Time) *virtualTask {
	var due *virtualTask
	for _, t := range s.tasks {
		if t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.id < due.id) {
			due = t
		}
	}
	return due
}
