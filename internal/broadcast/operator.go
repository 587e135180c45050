package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"github.com/xela07ax/dashboard-live-prototype/internal/infra"
)

var ErrNoHealthSnapshot = errors.New("no health snapshot for scope")

// OperatorClient - то, что нужно операторской утилите от Redis. redis.Cmdable подходит.
type OperatorClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// SendSignal публикует сигнал оператора и возвращает число процессов-подписчиков
func SendSignal(ctx context.Context, rdb OperatorClient, sig domain.ControlSignal) (int64, error) {
	n, err := rdb.Publish(ctx, infra.RedisChanControl, sig.String()).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", sig, err)
	}
	return n, nil
}

// LatestHealth читает последний опубликованный снимок вьюхи
func LatestHealth(ctx context.Context, rdb OperatorClient, scope string) (Message, error) {
	data, err := rdb.Get(ctx, infra.RedisKeyHealthLatest(scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Message{}, fmt.Errorf("%w %q", ErrNoHealthSnapshot, scope)
	}
	if err != nil {
		return Message{}, fmt.Errorf("get latest health: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode latest health: %w", err)
	}
	if msg.Kind != KindHealth || msg.Health == nil {
		return Message{}, fmt.Errorf("unexpected message kind %q under health key", msg.Kind)
	}
	return msg, nil
}
