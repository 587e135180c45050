package handler

import (
	"net/http"

	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
)

type DashboardHandler struct {
	store ViewStore
	clock engine.Clock
}

func NewDashboardHandler(store ViewStore, clock engine.Clock) *DashboardHandler {
	return &DashboardHandler{store: store, clock: clock}
}

// GetOverview - плитки ленты + светофор здоровья одной вьюхи
// GET /api/v1/views/{viewID}/overview
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(w, r, h.store)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, v.Overview(h.clock.Now()))
}
