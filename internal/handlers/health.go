package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler provides health check endpoint
type HealthHandler struct {
	backend string
	check   func(ctx context.Context) error
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler. check probes the store; a
// nil check always reports healthy.
func NewHealthHandler(backend string, check func(ctx context.Context) error, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		check:   check,
		logger:  logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Error     string    `json:"error,omitempty"`
}

// ServeHTTP handles health check requests
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Store:     h.backend,
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
	}
	status := http.StatusOK

	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			h.logger.Error("health check failed", "store", h.backend, "error", err)
			response.Status = "unhealthy"
			response.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	WriteJSON(w, status, response, h.logger)
}
