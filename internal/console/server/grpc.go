package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
)

// Имена сервисов в grpc.health.v1
const (
	ServiceServer   = "dashboard.server"
	ServiceDatabase = "dashboard.database"
	ServiceAPI      = "dashboard.api"
)

// HealthReporter переводит снимки эталонного монитора в статусы grpc.health.v1.
// Реализует engine.Notifier; события ленты игнорирует.
type HealthReporter struct {
	srv    *health.Server
	scope  string
	logger *zap.Logger
}

func NewHealthReporter(srv *health.Server, scope string, logger *zap.Logger) *HealthReporter {
	return &HealthReporter{srv: srv, scope: scope, logger: logger.Named("grpc-health")}
}

func (h *HealthReporter) ActivityAdded(string, domain.ActivityEvent) {}

func (h *HealthReporter) HealthUpdated(scope string, snap domain.HealthSnapshot) {
	if scope != h.scope {
		return
	}

	h.srv.SetServingStatus(ServiceServer, servingStatus(snap.Server.Status))
	h.srv.SetServingStatus(ServiceDatabase, servingStatus(snap.Database.Status))
	h.srv.SetServingStatus(ServiceAPI, servingStatus(snap.API.Status))
	// пустое имя - общий статус процесса
	h.srv.SetServingStatus("", servingStatus(snap.Overall()))
}

// servingStatus: warning еще обслуживает, error - нет
func servingStatus(s domain.Status) healthpb.HealthCheckResponse_ServingStatus {
	switch s {
	case domain.StatusHealthy, domain.StatusWarning:
		return healthpb.HealthCheckResponse_SERVING
	case domain.StatusError:
		return healthpb.HealthCheckResponse_NOT_SERVING
	default:
		return healthpb.HealthCheckResponse_UNKNOWN
	}
}

// NewGRPCServer поднимает gRPC с health-сервисом и логированием вызовов
func NewGRPCServer(healthSrv *health.Server, logger *zap.Logger) *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLoggingInterceptor(logger)))
	healthpb.RegisterHealthServer(srv, healthSrv)
	return srv
}

// UnaryLoggingInterceptor пишет метод, код и длительность каждого вызова
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	logger = logger.Named("grpc")
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		logger.Debug("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}
