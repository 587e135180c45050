package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ViewHandler struct {
	store  ViewStore
	logger *zap.Logger
}

func NewViewHandler(store ViewStore, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{store: store, logger: logger.Named("view-handler")}
}

type openViewResponse struct {
	ID       string    `json:"id"`
	OpenedAt time.Time `json:"opened_at"`
}

// Open монтирует новую вьюху
// POST /api/v1/views
func (h *ViewHandler) Open(w http.ResponseWriter, r *http.Request) {
	v, err := h.store.Open(r.Context())
	if err != nil {
		h.logger.Warn("failed to open view", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, openViewResponse{ID: v.ID, OpenedAt: v.OpenedAt})
}

// Close отмонтирует вьюху и гасит её таймеры
// DELETE /api/v1/views/{viewID}
func (h *ViewHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "viewID")
	if err := h.store.Close(id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
