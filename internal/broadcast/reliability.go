package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
	"go.uber.org/zap"
)

type ReliabilityConfig struct {
	Attempts    uint
	Timeout     time.Duration // на одну попытку
	MaxFailures uint32        // подряд, после чего CB размыкается
	OpenTimeout time.Duration // через сколько CB попробует "закрыться"
}

func (c ReliabilityConfig) withDefaults() ReliabilityConfig {
	if c.Attempts == 0 {
		c.Attempts = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Second
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	return c
}

// ReliablePublisher оборачивает любой Publisher в Circuit Breaker + Retries
type ReliablePublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker
	cfg  ReliabilityConfig
}

func NewReliablePublisher(next Publisher, cfg ReliabilityConfig, metrics *engine.Metrics, logger *zap.Logger) *ReliablePublisher {
	cfg = cfg.withDefaults()
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	logger = logger.Named("reliable-publisher")

	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "broadcast-publisher",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &ReliablePublisher{next: next, cb: cb, cfg: cfg}
}

func (p *ReliablePublisher) PublishBatch(ctx context.Context, batch []Message) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(p.cfg.Attempts),
			// Экспоненциальный бэкофф между попытками
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				return retry.BackOffDelay(n, err, config)
			}),
		)

		return nil, r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
			defer cancel()
			return p.next.PublishBatch(tCtx, batch)
		})
	})
	if err != nil {
		return fmt.Errorf("publish batch of %d: %w", len(batch), err)
	}
	return nil
}

// State - текущее состояние предохранителя
func (p *ReliablePublisher) State() gobreaker.State {
	return p.cb.State()
}
