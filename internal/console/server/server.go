package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/dashboard-live-prototype/internal/console/handler"
)

type DashboardServer struct {
	router   *chi.Mux
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	limiter  *rate.Limiter

	// Обработчики
	viewHandler     *handler.ViewHandler      // /api/v1/views
	dashHandler     *handler.DashboardHandler // /api/v1/views/{id}/overview
	activityHandler *handler.ActivityHandler  // /api/v1/views/{id}/activity
	healthHandler   *handler.HealthHandler    // /api/v1/views/{id}/health
}

// Options - все, что нужно серверу кроме хендлеров
type Options struct {
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer // nil - без /metrics
	Limiter  *rate.Limiter       // nil - без лимита на мутирующие ручки
}

// NewDashboardServer собирает роутер дашборда со всеми зависимостями
func NewDashboardServer(
	opts Options,
	viewH *handler.ViewHandler,
	dashH *handler.DashboardHandler,
	activityH *handler.ActivityHandler,
	healthH *handler.HealthHandler,
) *DashboardServer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	s := &DashboardServer{
		router:          chi.NewRouter(),
		logger:          logger.Named("dashboard-api"),
		gatherer:        opts.Gatherer,
		limiter:         limiter,
		viewHandler:     viewH,
		dashHandler:     dashH,
		activityHandler: activityH,
		healthHandler:   healthH,
	}

	s.routes()
	return s
}

func (s *DashboardServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TracingMiddleware)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// --- 2. Служебные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// --- 3. API дашборда ---
	r.Route("/api/v1/views", func(r chi.Router) {
		r.With(RateLimit(s.limiter)).Post("/", s.viewHandler.Open)

		r.Route("/{viewID}", func(r chi.Router) {
			// Чтение: без лимита, фронт поллит часто
			r.Get("/overview", s.dashHandler.GetOverview)
			r.Get("/activity", s.activityHandler.List)
			r.Get("/activity/summary", s.activityHandler.Summary)
			r.Get("/health", s.healthHandler.Get)

			// Мутации: toggle/filter/interval
			r.Group(func(r chi.Router) {
				r.Use(RateLimit(s.limiter))
				r.Delete("/", s.viewHandler.Close)
				r.Post("/activity/live", s.activityHandler.ToggleLive)
				r.Put("/activity/filter", s.activityHandler.SetFilter)
				r.Post("/health/auto-refresh", s.healthHandler.ToggleAutoRefresh)
				r.Put("/health/interval", s.healthHandler.SetInterval)
			})
		})
	})
}

// ServeHTTP позволяет использовать DashboardServer как стандартный http.Handler
func (s *DashboardServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
