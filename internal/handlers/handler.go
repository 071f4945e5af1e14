package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/mips-autograder.net/internal/handlers/response"
)

// HealthHandler answers liveness probes
type HealthHandler struct {
	serviceName string
	startedAt   time.Time
}

func NewHealthHandler(serviceName string) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, startedAt: time.Now()}
}

func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/health", h.Health).Methods("GET")
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, map[string]interface{}{
		"status":  "ok",
		"service": h.serviceName,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	})
}
