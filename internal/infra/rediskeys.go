package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных дашборда в Redis
	RedisNamespace = "dashboard"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanActivity - новые события ленты всех вьюх
	RedisChanActivity = RedisNamespace + ":activity"
	// RedisChanHealth - снимки здоровья после каждого шага jitter
	RedisChanHealth = RedisNamespace + ":health"
	// RedisChanControl - сигналы оператора "feed:off", "health:on"
	RedisChanControl = RedisNamespace + ":control"
)

// RedisKeyHealthLatest Ключ последнего снимка конкретной вьюхи (живет TTL)
func RedisKeyHealthLatest(scope string) string {
	return fmt.Sprintf("%s:health:latest:%s", RedisNamespace, scope)
}
