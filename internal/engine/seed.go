package engine

import (
	"time"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
)

// SeedActivity - стартовый набор из 8 событий, от самого свежего к самому старому
func SeedActivity(now time.Time) []domain.ActivityEvent {
	return []domain.ActivityEvent{
		{
			ID: 1, Category: domain.CategoryProject, Priority: domain.PriorityNormal,
			Title:       "Project milestone completed",
			Description: "Website redesign phase 2 delivered to the client",
			Actor:       "Sarah Johnson",
			OccurredAt:  now.Add(-5 * time.Minute),
		},
		{
			ID: 2, Category: domain.CategoryPayment, Priority: domain.PriorityHigh,
			Title:       "Payment received",
			Description: "Invoice #1042 paid in full ($12,500)",
			Actor:       "Finance System",
			OccurredAt:  now.Add(-15 * time.Minute),
		},
		{
			ID: 3, Category: domain.CategoryClient, Priority: domain.PriorityNormal,
			Title:       "New client onboarded",
			Description: "Acme Corp signed the annual service agreement",
			Actor:       "Mike Chen",
			OccurredAt:  now.Add(-30 * time.Minute),
		},
		{
			ID: 4, Category: domain.CategorySystem, Priority: domain.PriorityLow,
			Title:       "System backup completed",
			Description: "Nightly database backup finished successfully",
			Actor:       "System",
			OccurredAt:  now.Add(-1 * time.Hour),
		},
		{
			ID: 5, Category: domain.CategoryAlert, Priority: domain.PriorityCritical,
			Title:       "High server load detected",
			Description: "CPU usage exceeded 90% on app-server-2",
			Actor:       "Monitoring",
			OccurredAt:  now.Add(-2 * time.Hour),
		},
		{
			ID: 6, Category: domain.CategoryProject, Priority: domain.PriorityHigh,
			Title:       "Project deadline approaching",
			Description: "Mobile app MVP is due in 3 days",
			Actor:       "Project Manager",
			OccurredAt:  now.Add(-3 * time.Hour),
		},
		{
			ID: 7, Category: domain.CategoryClient, Priority: domain.PriorityNormal,
			Title:       "Client meeting scheduled",
			Description: "Quarterly review with Globex Inc. set for Friday",
			Actor:       "Emma Davis",
			OccurredAt:  now.Add(-5 * time.Hour),
		},
		{
			ID: 8, Category: domain.CategorySystem, Priority: domain.PriorityNormal,
			Title:       "Security update installed",
			Description: "Patched OpenSSL on all production nodes",
			Actor:       "System",
			OccurredAt:  now.Add(-24 * time.Hour),
		},
	}
}

// SeedHealth - стартовый снимок панели здоровья
func SeedHealth(now time.Time) domain.HealthSnapshot {
	return domain.HealthSnapshot{
		Server: domain.ServerHealth{
			Status:        domain.StatusHealthy,
			CPUPercent:    45,
			MemoryPercent: 62,
			DiskPercent:   78,
			Uptime:        "15 days, 4 hours",
			LastCheckedAt: now,
		},
		Database: domain.DatabaseHealth{
			Status:            domain.StatusHealthy,
			ActiveConnections: 23,
			MaxConnections:    100,
			AvgQueryTimeMs:    12,
			Size:              "2.4 GB",
			LastBackupAt:      now.Add(-2 * time.Hour),
		},
		API: domain.APIHealth{
			Status:            domain.StatusHealthy,
			ResponseTimeMs:    145,
			RequestsPerMinute: 342,
			ErrorRate:         0.02,
			EndpointCount:     24,
		},
		Integrations: map[string]domain.IntegrationHealth{
			"email":     {Status: domain.StatusHealthy, DisplayName: "Email Service"},
			"payment":   {Status: domain.StatusHealthy, DisplayName: "Payment Gateway"},
			"storage":   {Status: domain.StatusWarning, DisplayName: "Cloud Storage"},
			"analytics": {Status: domain.StatusHealthy, DisplayName: "Analytics Platform"},
		},
	}
}
