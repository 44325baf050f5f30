package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SessionCounter reports how many notification sessions are open.
type SessionCounter interface {
	Open() int
}

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	sessions SessionCounter
}

func NewHealthHandler(sessions SessionCounter) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

type healthStatus struct {
	Message  string `json:"message"`
	Sessions int    `json:"sessions"`
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "status":
		open := 0
		if h.sessions != nil {
			open = h.sessions.Open()
		}
		writeJSON(w, http.StatusOK, healthStatus{Message: "ok", Sessions: open})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
