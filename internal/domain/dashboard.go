package domain

import "time"

// DashboardOverview - сводка для верхней панели дашборда
type DashboardOverview struct {
	ViewID      string          `json:"view_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Activity    ActivitySummary `json:"activity"` // Плитки ленты
	Health      HealthOverview  `json:"health"`   // Светофор подсистем
}

type HealthOverview struct {
	Overall      Status             `json:"overall"`
	Presentation StatusPresentation `json:"presentation"`
	Warnings     int                `json:"warnings"`
	Errors       int                `json:"errors"`
	AutoRefresh  bool               `json:"auto_refresh"`
	Interval     int                `json:"refresh_interval_seconds"`
}

// CountStatuses считает предупреждения и ошибки по всем подсистемам и интеграциям
func CountStatuses(h HealthSnapshot) (warnings, errors int) {
	count := func(s Status) {
		switch s {
		case StatusHealthy:
		case StatusWarning:
			warnings++
		default:
			errors++
		}
	}

	count(h.Server.Status)
	count(h.Database.Status)
	count(h.API.Status)
	for _, in := range h.Integrations {
		count(in.Status)
	}
	return warnings, errors
}
