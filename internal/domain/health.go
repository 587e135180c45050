package domain

import (
	"maps"
	"time"
)

type Status string

const (
	StatusHealthy Status = "healthy"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// ServerHealth - нагрузка хоста. Проценты всегда в [0,100].
type ServerHealth struct {
	Status        Status    `json:"status"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	DiskPercent   float64   `json:"disk_percent"`
	Uptime        string    `json:"uptime"`
	LastCheckedAt time.Time `json:"last_checked_at"`
}

type DatabaseHealth struct {
	Status            Status    `json:"status"`
	ActiveConnections int       `json:"active_connections"`
	MaxConnections    int       `json:"max_connections"`
	AvgQueryTimeMs    float64   `json:"avg_query_time_ms"`
	Size              string    `json:"size"`
	LastBackupAt      time.Time `json:"last_backup_at"`
}

type APIHealth struct {
	Status            Status  `json:"status"`
	ResponseTimeMs    float64 `json:"response_time_ms"`
	RequestsPerMinute float64 `json:"requests_per_minute"`
	ErrorRate         float64 `json:"error_rate"` // доля в [0,1]
	EndpointCount     int     `json:"endpoint_count"`
}

type IntegrationHealth struct {
	Status      Status `json:"status"`
	DisplayName string `json:"display_name"`
}

// HealthSnapshot - текущее (симулированное) состояние подсистем.
// Мутируется на месте, не версионируется.
type HealthSnapshot struct {
	Server       ServerHealth                 `json:"server"`
	Database     DatabaseHealth               `json:"database"`
	API          APIHealth                    `json:"api"`
	Integrations map[string]IntegrationHealth `json:"integrations"`
}

// Clone отдает копию, которую можно безопасно читать вне лока движка
func (h HealthSnapshot) Clone() HealthSnapshot {
	h.Integrations = maps.Clone(h.Integrations)
	return h
}

// Overall - худший из статусов всех подсистем
func (h HealthSnapshot) Overall() Status {
	worst := StatusHealthy
	consider := func(s Status) {
		if severity(s) > severity(worst) {
			worst = s
		}
	}

	consider(h.Server.Status)
	consider(h.Database.Status)
	consider(h.API.Status)
	for _, in := range h.Integrations {
		consider(in.Status)
	}
	return worst
}

func severity(s Status) int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusWarning:
		return 1
	default:
		return 2 // неизвестный статус считаем ошибкой
	}
}

// Tone - смысловой оттенок бейджа
type Tone string

const (
	ToneAffirmative Tone = "affirmative"
	ToneCaution     Tone = "caution"
	ToneCritical    Tone = "critical"
	ToneNeutral     Tone = "neutral"
)

// StatusPresentation - как фронтенд рисует бейдж статуса
type StatusPresentation struct {
	Icon       string `json:"icon"`
	ColorClass string `json:"color_class"`
	Tone       Tone   `json:"tone"`
}

var statusPresentations = map[Status]StatusPresentation{
	StatusHealthy: {Icon: "check-circle", ColorClass: "text-green-500", Tone: ToneAffirmative},
	StatusWarning: {Icon: "alert-triangle", ColorClass: "text-yellow-500", Tone: ToneCaution},
	StatusError:   {Icon: "x-circle", ColorClass: "text-red-500", Tone: ToneCritical},
}

var neutralPresentation = StatusPresentation{Icon: "activity", ColorClass: "text-gray-500", Tone: ToneNeutral}

// PresentStatus - чистый lookup, неизвестный статус получает нейтральный бейдж
func PresentStatus(s Status) StatusPresentation {
	if p, ok := statusPresentations[s]; ok {
		return p
	}
	return neutralPresentation
}
