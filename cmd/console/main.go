package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/xela07ax/dashboard-live-prototype/internal/broadcast"
	"github.com/xela07ax/dashboard-live-prototype/internal/console/handler"
	"github.com/xela07ax/dashboard-live-prototype/internal/console/server"
	"github.com/xela07ax/dashboard-live-prototype/internal/console/service"
	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
	"github.com/xela07ax/dashboard-live-prototype/internal/infra"
)

// scope эталонного монитора, который кормит grpc.health.v1
const referenceScope = "reference"

func main() {
	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// Контекст для фоновых горутин: SIGTERM -> cancel() остановит слушателей
	appCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := engine.NewMetrics(reg)

	// 3. Трансляция в Redis (опционально)
	var (
		notifiers []engine.Notifier
		rdb       *redis.Client
		caster    *broadcast.Broadcaster
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pub := broadcast.NewReliablePublisher(
			broadcast.NewRedisPublisher(rdb, cfg.Broadcast.HealthTTL),
			broadcast.ReliabilityConfig{
				Attempts:    cfg.Broadcast.Attempts,
				MaxFailures: cfg.Broadcast.CBMaxFailures,
				OpenTimeout: cfg.Broadcast.CBTimeout,
			},
			metrics, logger,
		)
		caster = broadcast.NewBroadcaster(pub, broadcast.Config{
			BufferSize:    cfg.Broadcast.BufferSize,
			BatchSize:     cfg.Broadcast.BatchSize,
			FlushInterval: cfg.Broadcast.FlushInterval,
		}, metrics, logger)
		caster.Start()
		notifiers = append(notifiers, caster)
		logger.Info("redis broadcast enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// 4. Вьюхи дашборда
	clock := engine.SystemClock{}
	base := engine.Runtime{
		Scheduler: engine.NewTickerScheduler(),
		Clock:     clock,
		Random:    engine.NewMathRandom(),
		Notifier:  engine.Notifiers(notifiers...),
		Metrics:   metrics,
		Logger:    logger,
	}
	views := service.NewViewService(base,
		engine.FeedConfig{Interval: cfg.Dashboard.FeedInterval, Capacity: cfg.Dashboard.FeedCapacity},
		engine.HealthConfig{Interval: cfg.Dashboard.HealthInterval},
		cfg.Dashboard.MaxViews, logger,
	)

	// Сигналы оператора: feed:off, health:on ...
	if rdb != nil {
		go broadcast.ListenControl(appCtx, rdb, logger, infra.RedisChanControl,
			func() error { return rdb.Ping(appCtx).Err() },
			views.ApplySignal,
		)
	}

	// 5. gRPC health: эталонный монитор, не привязанный к вьюхам
	var (
		grpcSrv   *grpc.Server
		healthSrv *health.Server
		reference *engine.HealthMonitor
	)
	if cfg.GRPC.Addr != "" {
		healthSrv = health.NewServer()
		reporter := server.NewHealthReporter(healthSrv, referenceScope, logger)

		refRT := base
		refRT.Scope = referenceScope
		refRT.Logger = logger.With(zap.String("view_id", referenceScope))
		refRT.Notifier = engine.Notifiers(base.Notifier, reporter)
		reference = engine.NewHealthMonitor(refRT, engine.HealthConfig{Interval: cfg.Dashboard.HealthInterval})
		reporter.HealthUpdated(referenceScope, reference.Snapshot())
		if err := reference.Start(); err != nil {
			logger.Fatal("failed to start reference health monitor", zap.Error(err))
		}

		grpcSrv = server.NewGRPCServer(healthSrv, logger)
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			logger.Fatal("failed to listen gRPC", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
		}
		go func() {
			logger.Info("gRPC health server started", zap.String("addr", cfg.GRPC.Addr))
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error("gRPC server stopped", zap.Error(err))
			}
		}()
	}

	// 6. HTTP
	router := server.NewDashboardServer(
		server.Options{
			Logger:   logger,
			Gatherer: reg,
			Limiter:  rate.NewLimiter(rate.Limit(cfg.Dashboard.ControlRate), cfg.Dashboard.ControlBurst),
		},
		handler.NewViewHandler(views, logger),
		handler.NewDashboardHandler(views, clock),
		handler.NewActivityHandler(views, clock),
		handler.NewHealthHandler(views),
	)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("dashboard API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// 7. Graceful Shutdown
	<-appCtx.Done()
	logger.Info("dashboard stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	// Сначала гасим таймеры, потом сливаем буфер трансляции
	views.CloseAll()
	if reference != nil {
		reference.Close()
	}
	if grpcSrv != nil {
		healthSrv.Shutdown()
		grpcSrv.GracefulStop()
	}
	if caster != nil {
		caster.Stop()
	}
	logger.Info("dashboard exited properly")
}
