package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
	"go.uber.org/zap"
)

var (
	ErrViewNotFound = errors.New("view not found")
	ErrTooManyViews = errors.New("too many open views")
)

// View - одна смонтированная страница дашборда со своими движками
type View struct {
	ID       string
	OpenedAt time.Time
	Feed     *engine.ActivityFeed
	Health   *engine.HealthMonitor
}

// Close освобождает таймеры обоих движков
func (v *View) Close() {
	v.Feed.Close()
	v.Health.Close()
}

// Overview собирает сводку для верхней панели
func (v *View) Overview(now time.Time) domain.DashboardOverview {
	snap := v.Health.Snapshot()
	overall := snap.Overall()
	warnings, errs := domain.CountStatuses(snap)

	return domain.DashboardOverview{
		ViewID:      v.ID,
		GeneratedAt: now,
		Activity:    v.Feed.Summary(),
		Health: domain.HealthOverview{
			Overall:      overall,
			Presentation: domain.PresentStatus(overall),
			Warnings:     warnings,
			Errors:       errs,
			AutoRefresh:  v.Health.AutoRefresh(),
			Interval:     int(v.Health.RefreshInterval() / time.Second),
		},
	}
}

// ViewService владеет всеми открытыми вьюхами. Вьюхи друг от друга независимы:
// у каждой свои движки и свои таймеры.
type ViewService struct {
	mu    sync.RWMutex
	views map[string]*View

	base      engine.Runtime
	feedCfg   engine.FeedConfig
	healthCfg engine.HealthConfig
	maxViews  int
	logger    *zap.Logger
}

func NewViewService(base engine.Runtime, feedCfg engine.FeedConfig, healthCfg engine.HealthConfig, maxViews int, logger *zap.Logger) *ViewService {
	if base.Metrics == nil {
		base.Metrics = engine.NewMetrics(nil)
	}
	if base.Clock == nil {
		base.Clock = engine.SystemClock{}
	}
	return &ViewService{
		views:     make(map[string]*View),
		base:      base,
		feedCfg:   feedCfg,
		healthCfg: healthCfg,
		maxViews:  maxViews,
		logger:    logger.Named("view-service"),
	}
}

// Open монтирует новую вьюху и запускает её таймеры
func (s *ViewService) Open(ctx context.Context) (*View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxViews > 0 && len(s.views) >= s.maxViews {
		s.logger.Warn("view limit reached", zap.Int("max_views", s.maxViews))
		return nil, ErrTooManyViews
	}

	id := uuid.New().String()
	rt := s.base
	rt.Scope = id
	rt.Logger = s.logger.With(zap.String("view_id", id))

	v := &View{
		ID:       id,
		OpenedAt: rt.Clock.Now(),
		Feed:     engine.NewActivityFeed(rt, s.feedCfg),
		Health:   engine.NewHealthMonitor(rt, s.healthCfg),
	}
	if err := v.Feed.Start(); err != nil {
		return nil, fmt.Errorf("start activity feed: %w", err)
	}
	if err := v.Health.Start(); err != nil {
		v.Feed.Close()
		return nil, fmt.Errorf("start health monitor: %w", err)
	}

	s.views[id] = v
	s.base.Metrics.OpenViews.Set(float64(len(s.views)))
	s.logger.Info("view opened", zap.String("view_id", id), zap.Int("open_views", len(s.views)))
	return v, nil
}

func (s *ViewService) Get(id string) (*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	return v, nil
}

// Close отмонтирует вьюху; таймеры останавливаются до возврата
func (s *ViewService) Close(id string) error {
	s.mu.Lock()
	v, ok := s.views[id]
	if ok {
		delete(s.views, id)
		s.base.Metrics.OpenViews.Set(float64(len(s.views)))
	}
	s.mu.Unlock()

	if !ok {
		return ErrViewNotFound
	}
	v.Close()
	s.logger.Info("view closed", zap.String("view_id", id))
	return nil
}

// CloseAll - для graceful shutdown
func (s *ViewService) CloseAll() {
	s.mu.Lock()
	views := s.views
	s.views = make(map[string]*View)
	s.base.Metrics.OpenViews.Set(0)
	s.mu.Unlock()

	for _, v := range views {
		v.Close()
	}
	s.logger.Info("all views closed", zap.Int("count", len(views)))
}

func (s *ViewService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// ApplySignal применяет сигнал оператора ко всем открытым вьюхам
func (s *ViewService) ApplySignal(sig domain.ControlSignal) {
	s.mu.RLock()
	views := make([]*View, 0, len(s.views))
	for _, v := range s.views {
		views = append(views, v)
	}
	s.mu.RUnlock()

	for _, v := range views {
		switch sig.Target {
		case domain.TargetFeed:
			v.Feed.SetLive(sig.On)
		case domain.TargetHealth:
			v.Health.SetAutoRefresh(sig.On)
		}
	}

	state := "off"
	if sig.On {
		state = "on"
	}
	s.base.Metrics.ControlSignals.WithLabelValues(string(sig.Target), state).Inc()
	s.logger.Info("control signal applied", zap.Stringer("signal", sig), zap.Int("views", len(views)))
}
