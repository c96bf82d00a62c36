package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/version"
)

// HealthHandler provides health check endpoint
type HealthHandler struct {
	service string
	logger  *slog.Logger
}

// NewHealthHandler creates a health handler reporting as service
func NewHealthHandler(service string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// ServeHTTP handles health check requests
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Service:   h.service,
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
	}

	WriteJSON(w, http.StatusOK, response, h.logger)
}
