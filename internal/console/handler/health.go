package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
)

type HealthHandler struct {
	store ViewStore
}

func NewHealthHandler(store ViewStore) *HealthHandler {
	return &HealthHandler{store: store}
}

type healthPresentation struct {
	Server       domain.StatusPresentation            `json:"server"`
	Database     domain.StatusPresentation            `json:"database"`
	API          domain.StatusPresentation            `json:"api"`
	Integrations map[string]domain.StatusPresentation `json:"integrations"`
}

type healthResponse struct {
	Snapshot        domain.HealthSnapshot `json:"snapshot"`
	Presentation    healthPresentation    `json:"presentation"`
	AutoRefresh     bool                  `json:"auto_refresh"`
	IntervalSeconds int                   `json:"refresh_interval_seconds"`
}

// Get отдает снимок здоровья вместе с бейджами статусов
// GET /api/v1/views/{viewID}/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(w, r, h.store)
	if !ok {
		return
	}

	snap := v.Health.Snapshot()
	pres := healthPresentation{
		Server:       domain.PresentStatus(snap.Server.Status),
		Database:     domain.PresentStatus(snap.Database.Status),
		API:          domain.PresentStatus(snap.API.Status),
		Integrations: make(map[string]domain.StatusPresentation, len(snap.Integrations)),
	}
	for key, in := range snap.Integrations {
		pres.Integrations[key] = domain.PresentStatus(in.Status)
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Snapshot:        snap,
		Presentation:    pres,
		AutoRefresh:     v.Health.AutoRefresh(),
		IntervalSeconds: int(v.Health.RefreshInterval() / time.Second),
	})
}

// ToggleAutoRefresh - переключатель авто-обновления
// POST /api/v1/views/{viewID}/health/auto-refresh
func (h *HealthHandler) ToggleAutoRefresh(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(w, r, h.store)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"auto_refresh": v.Health.ToggleAutoRefresh()})
}

type setIntervalRequest struct {
	Seconds int `json:"seconds"`
}

// SetInterval меняет каденцию; неположительное значение отсекаем здесь, до движка
// PUT /api/v1/views/{viewID}/health/interval
func (h *HealthHandler) SetInterval(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(w, r, h.store)
	if !ok {
		return
	}

	var req setIntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Seconds <= 0 {
		writeError(w, http.StatusBadRequest, "seconds must be positive")
		return
	}

	if err := v.Health.SetRefreshInterval(req.Seconds); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"refresh_interval_seconds": req.Seconds})
}
