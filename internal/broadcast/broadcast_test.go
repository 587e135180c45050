package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
)

type collectingPublisher struct {
	mu      sync.Mutex
	batches [][]Message
}

func (p *collectingPublisher) PublishBatch(_ context.Context, batch []Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, append([]Message(nil), batch...))
	return nil
}

func (p *collectingPublisher) all() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Message
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

// MockPublisher mocks the Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBatch(ctx context.Context, batch []Message) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func TestBroadcaster_FlushesOnStop(t *testing.T) {
	pub := &collectingPublisher{}
	b := NewBroadcaster(pub, Config{FlushInterval: time.Hour}, nil, zaptest.NewLogger(t))
	b.Start()

	b.ActivityAdded("view-1", domain.ActivityEvent{ID: 9, Category: domain.CategoryClient})
	b.HealthUpdated("view-1", domain.HealthSnapshot{API: domain.APIHealth{ResponseTimeMs: 150}})
	b.Stop()

	msgs := pub.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, KindActivity, msgs[0].Kind)
	assert.Equal(t, int64(9), msgs[0].Activity.ID)
	assert.Equal(t, KindHealth, msgs[1].Kind)
	assert.Equal(t, 150.0, msgs[1].Health.API.ResponseTimeMs)
	assert.NotEmpty(t, msgs[0].ID)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
	assert.Equal(t, "view-1", msgs[1].Scope)
}

func TestBroadcaster_FlushesByBatchSize(t *testing.T) {
	pub := &collectingPublisher{}
	b := NewBroadcaster(pub, Config{BatchSize: 2, FlushInterval: time.Hour}, nil, zaptest.NewLogger(t))
	b.Start()
	defer b.Stop()

	b.ActivityAdded("v", domain.ActivityEvent{ID: 1})
	b.ActivityAdded("v", domain.ActivityEvent{ID: 2})

	require.Eventually(t, func() bool { return len(pub.all()) == 2 }, time.Second, time.Millisecond)
}

func TestBroadcaster_FlushesByInterval(t *testing.T) {
	pub := &collectingPublisher{}
	b := NewBroadcaster(pub, Config{FlushInterval: 5 * time.Millisecond}, nil, zaptest.NewLogger(t))
	b.Start()
	defer b.Stop()

	b.ActivityAdded("v", domain.ActivityEvent{ID: 1})

	require.Eventually(t, func() bool { return len(pub.all()) == 1 }, time.Second, time.Millisecond)
}

func TestBroadcaster_DropsAfterStopAndOnOverflow(t *testing.T) {
	metrics := engine.NewMetrics(nil)
	pub := &collectingPublisher{}
	b := NewBroadcaster(pub, Config{BufferSize: 1, FlushInterval: time.Hour}, metrics, zaptest.NewLogger(t))

	// воркер не запущен: второй вызов упирается в полный буфер
	b.ActivityAdded("v", domain.ActivityEvent{ID: 1})
	b.ActivityAdded("v", domain.ActivityEvent{ID: 2})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BroadcastDropped))

	b.Start()
	b.Stop()
	b.Stop()
	b.ActivityAdded("v", domain.ActivityEvent{ID: 3})

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.BroadcastDropped))
	require.Len(t, pub.all(), 1)
	assert.Equal(t, int64(1), pub.all()[0].Activity.ID)
}

func TestBroadcaster_ReceivesEngineTicks(t *testing.T) {
	pub := &collectingPublisher{}
	b := NewBroadcaster(pub, Config{FlushInterval: time.Hour}, nil, zaptest.NewLogger(t))
	b.Start()

	sched := engine.NewVirtualScheduler(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	rt := engine.Runtime{Scope: "view-7", Scheduler: sched, Clock: sched, Notifier: b}
	feed := engine.NewActivityFeed(rt, engine.FeedConfig{})
	health := engine.NewHealthMonitor(rt, engine.HealthConfig{})
	require.NoError(t, feed.Start())
	require.NoError(t, health.Start())

	sched.Advance(engine.DefaultFeedInterval)
	feed.Close()
	health.Close()
	b.Stop()

	msgs := pub.all()
	require.Len(t, msgs, 2)
	kinds := []Kind{msgs[0].Kind, msgs[1].Kind}
	assert.ElementsMatch(t, []Kind{KindActivity, KindHealth}, kinds)
	assert.Equal(t, "view-7", msgs[0].Scope)
}

func TestReliablePublisher_RetriesThenSucceeds(t *testing.T) {
	next := &MockPublisher{}
	next.On("PublishBatch", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	next.On("PublishBatch", mock.Anything, mock.Anything).Return(nil).Once()

	p := NewReliablePublisher(next, ReliabilityConfig{Attempts: 3}, nil, zaptest.NewLogger(t))
	err := p.PublishBatch(context.Background(), []Message{{ID: "m1", Kind: KindActivity}})

	require.NoError(t, err)
	next.AssertNumberOfCalls(t, "PublishBatch", 2)
}

func TestReliablePublisher_CircuitOpens(t *testing.T) {
	metrics := engine.NewMetrics(nil)
	next := &MockPublisher{}
	next.On("PublishBatch", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	p := NewReliablePublisher(next, ReliabilityConfig{Attempts: 1, MaxFailures: 2, OpenTimeout: time.Hour}, metrics, zaptest.NewLogger(t))
	batch := []Message{{ID: "m1", Kind: KindHealth}}

	assert.Error(t, p.PublishBatch(context.Background(), batch))
	assert.Error(t, p.PublishBatch(context.Background(), batch))
	err := p.PublishBatch(context.Background(), batch)

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, p.State())
	next.AssertNumberOfCalls(t, "PublishBatch", 2)
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("broadcast-publisher")))
}

func TestRedisPublisher_EmptyBatchIsNoop(t *testing.T) {
	// клиент на заведомо пустой адрес: пустая пачка не должна идти в сеть
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	p := NewRedisPublisher(rdb, time.Minute)
	assert.NoError(t, p.PublishBatch(context.Background(), nil))
}

func TestRedisPublisher_RejectsUnknownKind(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	p := NewRedisPublisher(rdb, time.Minute)
	err := p.PublishBatch(context.Background(), []Message{{ID: "x", Kind: "chart"}})
	assert.ErrorContains(t, err, "unknown message kind")
}

func TestConsume_ParsesSignalsAndSkipsGarbage(t *testing.T) {
	ch := make(chan *redis.Message, 3)
	ch <- &redis.Message{Payload: "feed:off"}
	ch <- &redis.Message{Payload: "garbage"}
	ch <- &redis.Message{Payload: "health:on"}
	close(ch)

	var got []domain.ControlSignal
	consume(context.Background(), ch, zaptest.NewLogger(t), func(s domain.ControlSignal) { got = append(got, s) })

	assert.Equal(t, []domain.ControlSignal{
		{Target: domain.TargetFeed, On: false},
		{Target: domain.TargetHealth, On: true},
	}, got)
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))
}
