package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xela07ax/dashboard-live-prototype/internal/console/service"
	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
)

type constRandom float64

func (r constRandom) Float64() float64 { return float64(r) }

type fixture struct {
	router http.Handler
	svc    *service.ViewService
	sched  *engine.VirtualScheduler
}

func newFixture(t *testing.T, maxViews int) *fixture {
	t.Helper()
	return newFixtureWith(t, maxViews, engine.FeedConfig{})
}

func newFixtureWith(t *testing.T, maxViews int, feedCfg engine.FeedConfig) *fixture {
	t.Helper()
	sched := engine.NewVirtualScheduler(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	logger := zaptest.NewLogger(t)
	rt := engine.Runtime{Scheduler: sched, Clock: sched, Random: constRandom(0.5), Metrics: engine.NewMetrics(nil)}
	svc := service.NewViewService(rt, feedCfg, engine.HealthConfig{}, maxViews, logger)
	t.Cleanup(svc.CloseAll)

	views := NewViewHandler(svc, logger)
	activity := NewActivityHandler(svc, sched)
	health := NewHealthHandler(svc)
	dash := NewDashboardHandler(svc, sched)

	r := chi.NewRouter()
	r.Post("/views", views.Open)
	r.Route("/views/{viewID}", func(r chi.Router) {
		r.Delete("/", views.Close)
		r.Get("/overview", dash.GetOverview)
		r.Get("/activity", activity.List)
		r.Post("/activity/live", activity.ToggleLive)
		r.Put("/activity/filter", activity.SetFilter)
		r.Get("/activity/summary", activity.Summary)
		r.Get("/health", health.Get)
		r.Post("/health/auto-refresh", health.ToggleAutoRefresh)
		r.Put("/health/interval", health.SetInterval)
	})

	return &fixture{router: r, svc: svc, sched: sched}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) open(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/views", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp openViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestViews_OpenAndClose(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)
	assert.Equal(t, 1, f.svc.Count())

	rec := f.do(t, http.MethodDelete, "/views/"+id+"/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.svc.Count())
	assert.Zero(t, f.sched.Pending())

	rec = f.do(t, http.MethodDelete, "/views/"+id+"/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViews_LimitReturns429(t *testing.T) {
	f := newFixture(t, 1)
	f.open(t)

	rec := f.do(t, http.MethodPost, "/views", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many open views")
}

func TestActivity_ListSeed(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)

	rec := f.do(t, http.MethodGet, "/views/"+id+"/activity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[activityResponse](t, rec)
	assert.True(t, resp.IsLive)
	assert.Equal(t, domain.FilterAll, resp.ActiveFilter)
	assert.Equal(t, 8, resp.Total)
	require.Len(t, resp.Events, 8)
	assert.Equal(t, "5m ago", resp.Events[0].Age)
	assert.Equal(t, "1d ago", resp.Events[7].Age)
}

func TestActivity_UnknownViewIs404(t *testing.T) {
	f := newFixture(t, 10)

	rec := f.do(t, http.MethodGet, "/views/nope/activity", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"view not found"}`, rec.Body.String())
}

func TestActivity_Filter(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)

	rec := f.do(t, http.MethodPut, "/views/"+id+"/activity/filter", `{"filter":"payment"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active_filter":"payment"}`, rec.Body.String())

	resp := decode[activityResponse](t, f.do(t, http.MethodGet, "/views/"+id+"/activity", ""))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Payment received", resp.Events[0].Title)

}

func TestActivity_EmptyTabIsArray(t *testing.T) {
	// в ленте остается только самое свежее событие (project)
	f := newFixtureWith(t, 10, engine.FeedConfig{Capacity: 1})
	id := f.open(t)

	rec := f.do(t, http.MethodPut, "/views/"+id+"/activity/filter", `{"filter":"payment"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/views/"+id+"/activity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"events":[]`)
}

func TestActivity_InvalidFilter(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)

	rec := f.do(t, http.MethodPut, "/views/"+id+"/activity/filter", `{"filter":"system"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/views/"+id+"/activity/filter", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[activityResponse](t, f.do(t, http.MethodGet, "/views/"+id+"/activity", ""))
	assert.Equal(t, domain.FilterAll, resp.ActiveFilter, "filter stays unchanged")
}

func TestActivity_ToggleLive(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)

	rec := f.do(t, http.MethodPost, "/views/"+id+"/activity/live", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"is_live":false}`, rec.Body.String())

	f.sched.Advance(engine.DefaultFeedInterval)
	resp := decode[activityResponse](t, f.do(t, http.MethodGet, "/views/"+id+"/activity", ""))
	assert.Equal(t, 8, resp.Total, "paused feed does not grow")

	rec = f.do(t, http.MethodPost, "/views/"+id+"/activity/live", "")
	assert.JSONEq(t, `{"is_live":true}`, rec.Body.String())

	f.sched.Advance(engine.DefaultFeedInterval)
	resp = decode[activityResponse](t, f.do(t, http.MethodGet, "/views/"+id+"/activity", ""))
	assert.Equal(t, 9, resp.Total)
	assert.Equal(t, "Just now", resp.Events[0].Age)
}

func TestActivity_Summary(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)

	rec := f.do(t, http.MethodGet, "/views/"+id+"/activity/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	sum := decode[domain.ActivitySummary](t, rec)
	assert.Equal(t, 8, sum.Total)
	assert.Equal(t, 8, sum.Visible)
	assert.Equal(t, 1, sum.ByCategory[domain.CategoryPayment])
}

func TestHealth_Get(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)

	rec := f.do(t, http.MethodGet, "/views/"+id+"/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[healthResponse](t, rec)
	assert.True(t, resp.AutoRefresh)
	assert.Equal(t, 30, resp.IntervalSeconds)
	assert.Equal(t, 45.0, resp.Snapshot.Server.CPUPercent)
	assert.Equal(t, "check-circle", resp.Presentation.Server.Icon)
	assert.Equal(t, "alert-triangle", resp.Presentation.Integrations["storage"].Icon)
	assert.Equal(t, "text-yellow-500", resp.Presentation.Integrations["storage"].ColorClass)
}

func TestHealth_ToggleAndInterval(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)

	rec := f.do(t, http.MethodPost, "/views/"+id+"/health/auto-refresh", "")
	assert.JSONEq(t, `{"auto_refresh":false}`, rec.Body.String())

	rec = f.do(t, http.MethodPut, "/views/"+id+"/health/interval", `{"seconds":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"refresh_interval_seconds":10}`, rec.Body.String())

	resp := decode[healthResponse](t, f.do(t, http.MethodGet, "/views/"+id+"/health", ""))
	assert.Equal(t, 10, resp.IntervalSeconds)
	assert.False(t, resp.AutoRefresh)
}

func TestHealth_IntervalRejectsNonPositive(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)

	for _, body := range []string{`{"seconds":0}`, `{"seconds":-5}`, `{}`, `oops`} {
		rec := f.do(t, http.MethodPut, "/views/"+id+"/health/interval", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	resp := decode[healthResponse](t, f.do(t, http.MethodGet, "/views/"+id+"/health", ""))
	assert.Equal(t, 30, resp.IntervalSeconds)
}

func TestDashboard_Overview(t *testing.T) {
	f := newFixture(t, 10)
	id := f.open(t)

	rec := f.do(t, http.MethodGet, "/views/"+id+"/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)

	ov := decode[domain.DashboardOverview](t, rec)
	assert.Equal(t, id, ov.ViewID)
	assert.Equal(t, domain.StatusWarning, ov.Health.Overall)
	assert.Equal(t, 1, ov.Health.Warnings)
	assert.Equal(t, 8, ov.Activity.Total)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(service.ErrViewNotFound))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(service.ErrTooManyViews))
	assert.Equal(t, http.StatusBadRequest, statusFor(engine.ErrUnknownFilter))
	assert.Equal(t, http.StatusBadRequest, statusFor(engine.ErrInvalidInterval))
	assert.Equal(t, http.StatusConflict, statusFor(engine.ErrEngineClosed))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
