package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Feed: сколько событий синтезировано, по категориям
	FeedEventsTotal *prometheus.CounterVec

	// Feed: текущий режим live по всем вьюхам (сколько включено)
	FeedLiveViews prometheus.Gauge

	// Health: количество применённых шагов jitter
	HealthTicksTotal prometheus.Counter

	// Health: последнее значение симулированных датчиков (cpu, memory, response_time, rpm)
	HealthGauge *prometheus.GaugeVec

	// Views: сколько вьюх сейчас открыто
	OpenViews prometheus.Gauge

	// Broadcast: сброшенные при перегрузке сообщения
	BroadcastDropped prometheus.Counter

	// Broadcast: заполненность буфера (backpressure)
	BroadcastBufferFill prometheus.Gauge

	// Broadcast: состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	// Control: принятые сигналы оператора
	ControlSignals *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// без реестра движки все равно получают рабочие метрики, просто их никто не собирает
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		FeedEventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_feed_events_total",
			Help: "Total number of synthesized activity events.",
		}, []string{"category"}),

		FeedLiveViews: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_feed_live_views",
			Help: "Number of views whose activity feed is in live mode.",
		}),

		HealthTicksTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dashboard_health_ticks_total",
			Help: "Total number of applied health jitter steps.",
		}),

		HealthGauge: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_health_gauge",
			Help: "Last simulated value of a health gauge.",
		}, []string{"field"}),

		OpenViews: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_open_views",
			Help: "Number of currently mounted dashboard views.",
		}),

		BroadcastDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dashboard_broadcast_dropped_total",
			Help: "Messages dropped because the broadcast buffer was full or stopped.",
		}),

		BroadcastBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_broadcast_buffer_utilization",
			Help: "Current number of messages in broadcast buffer.",
		}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),

		ControlSignals: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_control_signals_total",
			Help: "Operator control signals applied to open views.",
		}, []string{"target", "state"}),
	}
}
