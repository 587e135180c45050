package broadcast

/*
Broadcaster доставляет результаты тиков движков внешним подписчикам.

- Non-blocking: тик движка только кладет сообщение в буферизированный канал.
  Если буфер полон - сообщение сбрасывается (Load Shedding), тик не ждет.
- Batching: воркер копит сообщения и отдает их Publisher пачкой
  по таймеру или при достижении BatchSize.
- Drain: Stop закрывает вход и ждет, пока воркер вычитает остатки и сделает финальный flush.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
	"go.uber.org/zap"
)

// Publisher определяет, куда физически уходят сообщения
type Publisher interface {
	// PublishBatch отправляет пачку сообщений за один раз
	PublishBatch(ctx context.Context, batch []Message) error
}

type Config struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 1000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 500 * time.Millisecond
	}
	return c
}

type Broadcaster struct {
	ch      chan Message
	pub     Publisher
	cfg     Config
	metrics *engine.Metrics
	logger  *zap.Logger
	wg      sync.WaitGroup

	// closeMu защищает канал от отправки после close
	closeMu sync.RWMutex
	closed  bool
}

func NewBroadcaster(pub Publisher, cfg Config, metrics *engine.Metrics, logger *zap.Logger) *Broadcaster {
	cfg = cfg.withDefaults()
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	return &Broadcaster{
		ch:      make(chan Message, cfg.BufferSize),
		pub:     pub,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With(zap.String("mod", "broadcast")),
	}
}

func (b *Broadcaster) Start() {
	b.wg.Add(1)
	go b.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (b *Broadcaster) Stop() {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return
	}
	b.closed = true
	b.logger.Info("stopping broadcaster: closing channel and flushing buffer...")
	close(b.ch)
	b.closeMu.Unlock()

	b.wg.Wait()
	b.logger.Info("broadcaster stopped gracefully")
}

func (b *Broadcaster) ActivityAdded(scope string, ev domain.ActivityEvent) {
	b.enqueue(Message{Scope: scope, Kind: KindActivity, Activity: &ev})
}

func (b *Broadcaster) HealthUpdated(scope string, snap domain.HealthSnapshot) {
	b.enqueue(Message{Scope: scope, Kind: KindHealth, Health: &snap})
}

func (b *Broadcaster) enqueue(msg Message) {
	msg.ID = uuid.New().String()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	b.closeMu.RLock()
	defer b.closeMu.RUnlock()

	if b.closed {
		b.metrics.BroadcastDropped.Inc()
		b.logger.Warn("broadcast message dropped: broadcaster is stopped", zap.String("scope", msg.Scope))
		return
	}

	select {
	case b.ch <- msg:
		b.metrics.BroadcastBufferFill.Set(float64(len(b.ch)))
	default:
		b.metrics.BroadcastDropped.Inc()
		b.logger.Error("broadcast_buffer_overflow",
			zap.String("scope", msg.Scope),
			zap.String("kind", string(msg.Kind)),
		)
	}
}

func (b *Broadcaster) worker() {
	defer b.wg.Done()

	batch := make([]Message, 0, b.cfg.BatchSize)
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: на остановке контекст приложения уже отменен
		if err := b.pub.PublishBatch(context.Background(), batch); err != nil {
			b.logger.Error("broadcast flush failed", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
		b.metrics.BroadcastBufferFill.Set(float64(len(b.ch)))
	}

	for {
		select {
		case msg, ok := <-b.ch:
			if !ok {
				// Канал закрыт в Stop: всё из очереди уже вычитано, сбрасываем остаток и выходим
				flush()
				b.logger.Info("broadcast worker finished")
				return
			}
			batch = append(batch, msg)
			if len(batch) >= b.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
