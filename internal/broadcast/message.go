package broadcast

import (
	"time"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
)

type Kind string

const (
	KindActivity Kind = "activity"
	KindHealth   Kind = "health"
)

// Message - конверт, который уходит подписчикам дашборда
type Message struct {
	ID        string                 `json:"id"`    // UUID сообщения
	Scope     string                 `json:"scope"` // ID вьюхи-источника
	Kind      Kind                   `json:"kind"`
	Activity  *domain.ActivityEvent  `json:"activity,omitempty"`
	Health    *domain.HealthSnapshot `json:"health,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
