package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
)

type ActivityHandler struct {
	store ViewStore
	clock engine.Clock
}

func NewActivityHandler(store ViewStore, clock engine.Clock) *ActivityHandler {
	return &ActivityHandler{store: store, clock: clock}
}

// activityItem - событие плюс готовая подпись возраста для UI
type activityItem struct {
	domain.ActivityEvent
	Age string `json:"age"`
}

type activityResponse struct {
	IsLive       bool                  `json:"is_live"`
	ActiveFilter domain.ActivityFilter `json:"active_filter"`
	Total        int                   `json:"total"`
	Events       []activityItem        `json:"events"`
}

// List возвращает видимые под текущим фильтром события
// GET /api/v1/views/{viewID}/activity
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(w, r, h.store)
	if !ok {
		return
	}

	now := h.clock.Now()
	// фронтенд получит пустой массив [], а не null
	items := make([]activityItem, 0, engine.DefaultFeedCapacity)
	for ev := range v.Feed.VisibleEvents() {
		items = append(items, activityItem{ActivityEvent: ev, Age: domain.RelativeAge(ev, now)})
	}

	writeJSON(w, http.StatusOK, activityResponse{
		IsLive:       v.Feed.IsLive(),
		ActiveFilter: v.Feed.Filter(),
		Total:        v.Feed.Len(),
		Events:       items,
	})
}

// ToggleLive - кнопка Live/Pause
// POST /api/v1/views/{viewID}/activity/live
func (h *ActivityHandler) ToggleLive(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(w, r, h.store)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"is_live": v.Feed.ToggleLive()})
}

type setFilterRequest struct {
	Filter string `json:"filter"`
}

// SetFilter переключает вкладку ленты
// PUT /api/v1/views/{viewID}/activity/filter
func (h *ActivityHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(w, r, h.store)
	if !ok {
		return
	}

	var req setFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	filter, valid := domain.ParseFilter(req.Filter)
	if !valid {
		writeError(w, http.StatusBadRequest, "unknown filter: "+req.Filter)
		return
	}
	if err := v.Feed.SetFilter(filter); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]domain.ActivityFilter{"active_filter": filter})
}

// Summary - счетчики для плиток над лентой
// GET /api/v1/views/{viewID}/activity/summary
func (h *ActivityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(w, r, h.store)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, v.Feed.Summary())
}
