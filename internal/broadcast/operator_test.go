package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
)

// MockOperatorClient mocks the Redis client used by the operator tool
type MockOperatorClient struct {
	mock.Mock
}

func (m *MockOperatorClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	args := m.Called(ctx, channel, message)
	return args.Get(0).(*redis.IntCmd)
}

func (m *MockOperatorClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func TestSendSignal(t *testing.T) {
	rdb := &MockOperatorClient{}
	rdb.On("Publish", mock.Anything, "dashboard:control", "feed:off").Return(redis.NewIntResult(2, nil))

	n, err := SendSignal(context.Background(), rdb, domain.ControlSignal{Target: domain.TargetFeed, On: false})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	rdb.AssertExpectations(t)
}

func TestSendSignal_Error(t *testing.T) {
	rdb := &MockOperatorClient{}
	rdb.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(redis.NewIntResult(0, errors.New("conn refused")))

	_, err := SendSignal(context.Background(), rdb, domain.ControlSignal{Target: domain.TargetHealth, On: true})
	assert.ErrorContains(t, err, "publish health:on")
}

func TestLatestHealth(t *testing.T) {
	snap := engine.SeedHealth(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	data, err := json.Marshal(Message{ID: "m-1", Scope: "view-1", Kind: KindHealth, Health: &snap})
	require.NoError(t, err)

	rdb := &MockOperatorClient{}
	rdb.On("Get", mock.Anything, "dashboard:health:latest:view-1").Return(redis.NewStringResult(string(data), nil))

	msg, err := LatestHealth(context.Background(), rdb, "view-1")
	require.NoError(t, err)
	require.NotNil(t, msg.Health)
	assert.Equal(t, 145.0, msg.Health.API.ResponseTimeMs)
	assert.Equal(t, domain.StatusWarning, msg.Health.Overall())
}

func TestLatestHealth_Missing(t *testing.T) {
	rdb := &MockOperatorClient{}
	rdb.On("Get", mock.Anything, mock.Anything).Return(redis.NewStringResult("", redis.Nil))

	_, err := LatestHealth(context.Background(), rdb, "gone")
	assert.ErrorIs(t, err, ErrNoHealthSnapshot)
}

func TestLatestHealth_WrongKind(t *testing.T) {
	data, err := json.Marshal(Message{ID: "m-2", Kind: KindActivity, Activity: &domain.ActivityEvent{ID: 1}})
	require.NoError(t, err)

	rdb := &MockOperatorClient{}
	rdb.On("Get", mock.Anything, mock.Anything).Return(redis.NewStringResult(string(data), nil))

	_, err = LatestHealth(context.Background(), rdb, "view-1")
	assert.ErrorContains(t, err, "unexpected message kind")
}
