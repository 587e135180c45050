package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/dashboard-live-prototype/internal/infra"
)

// RedisPublisher раскладывает пачку по каналам Pub/Sub одним pipeline.
// Для снимков здоровья дополнительно обновляет ключ "latest" с TTL,
// чтобы новый подписчик мог сразу нарисовать панель.
type RedisPublisher struct {
	rdb       redis.Cmdable
	healthTTL time.Duration
}

func NewRedisPublisher(rdb redis.Cmdable, healthTTL time.Duration) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, healthTTL: healthTTL}
}

func (p *RedisPublisher) PublishBatch(ctx context.Context, batch []Message) error {
	if len(batch) == 0 {
		return nil
	}

	pipe := p.rdb.Pipeline()
	for _, msg := range batch {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal message %s: %w", msg.ID, err)
		}

		switch msg.Kind {
		case KindActivity:
			pipe.Publish(ctx, infra.RedisChanActivity, data)
		case KindHealth:
			pipe.Publish(ctx, infra.RedisChanHealth, data)
			pipe.Set(ctx, infra.RedisKeyHealthLatest(msg.Scope), data, p.healthTTL)
		default:
			return fmt.Errorf("unknown message kind %q", msg.Kind)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}
