package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dom/task-tracker/internal/api/response"
	"github.com/dom/task-tracker/internal/repository"
)

type HealthHandler struct {
	db repository.Pinger
}

func NewHealthHandler(db repository.Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("API is running..."))
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		slog.WarnContext(r.Context(), "readiness check failed", "error", err)
		response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
