package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/dashboard-live-prototype/internal/console/service"
	"github.com/xela07ax/dashboard-live-prototype/internal/engine"
)

// ViewStore Описываем, что нам нужно от сервиса вьюх
type ViewStore interface {
	Open(ctx context.Context) (*service.View, error)
	Get(id string) (*service.View, error)
	Close(id string) error
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor - разводим доменные ошибки по HTTP-кодам
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrViewNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTooManyViews):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrUnknownFilter), errors.Is(err, engine.ErrInvalidInterval):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrEngineClosed):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// lookupView достает вьюху по {viewID}; при ошибке ответ уже записан
func lookupView(w http.ResponseWriter, r *http.Request, store ViewStore) (*service.View, bool) {
	id := chi.URLParam(r, "viewID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "view id is required")
		return nil, false
	}

	v, err := store.Get(id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return v, true
}
