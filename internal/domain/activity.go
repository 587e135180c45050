package domain

import (
	"fmt"
	"time"
)

// Category - источник события в ленте активности
type Category string

const (
	CategoryProject Category = "project"
	CategoryClient  Category = "client"
	CategoryPayment Category = "payment"
	CategorySystem  Category = "system"
	CategoryAlert   Category = "alert"
)

// Priority - важность события для подсветки в UI
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ActivityFilter - выбранная в UI вкладка ленты.
// Обратите внимание: "system" вкладкой не является, системные события видны только в "all".
type ActivityFilter string

const (
	FilterAll     ActivityFilter = "all"
	FilterProject ActivityFilter = ActivityFilter(CategoryProject)
	FilterClient  ActivityFilter = ActivityFilter(CategoryClient)
	FilterPayment ActivityFilter = ActivityFilter(CategoryPayment)
	FilterAlert   ActivityFilter = ActivityFilter(CategoryAlert)
)

// ParseFilter возвращает false для всего, чего нет среди вкладок
func ParseFilter(s string) (ActivityFilter, bool) {
	switch f := ActivityFilter(s); f {
	case FilterAll, FilterProject, FilterClient, FilterPayment, FilterAlert:
		return f, true
	default:
		return "", false
	}
}

// Matches проверяет, попадает ли категория под фильтр
func (f ActivityFilter) Matches(c Category) bool {
	return f == FilterAll || string(f) == string(c)
}

// ActivityEvent неизменяем после создания
type ActivityEvent struct {
	ID          int64     `json:"id"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Actor       string    `json:"actor"`
	OccurredAt  time.Time `json:"occurred_at"`
	Priority    Priority  `json:"priority"`
}

// ActivityFeedState - срез состояния ленты для отдачи наружу
type ActivityFeedState struct {
	Events       []ActivityEvent `json:"events"` // newest-first
	IsLive       bool            `json:"is_live"`
	ActiveFilter ActivityFilter  `json:"active_filter"`
}

// ActivitySummary питает плитки-счетчики над лентой
type ActivitySummary struct {
	Total      int              `json:"total"`
	Visible    int              `json:"visible"`
	ByCategory map[Category]int `json:"by_category"`
	ByPriority map[Priority]int `json:"by_priority"`
}

// RelativeAge форматирует возраст события: "3d ago", "2h ago", "5m ago" или "Just now".
// Берется крупнейшая единица, деление с отбрасыванием остатка.
func RelativeAge(ev ActivityEvent, now time.Time) string {
	seconds := int64(now.Sub(ev.OccurredAt) / time.Second)

	switch {
	case seconds >= 86400:
		return fmt.Sprintf("%dd ago", seconds/86400)
	case seconds >= 3600:
		return fmt.Sprintf("%dh ago", seconds/3600)
	case seconds >= 60:
		return fmt.Sprintf("%dm ago", seconds/60)
	default:
		return "Just now"
	}
}
