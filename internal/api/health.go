package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yeoul-ai/debate-server/internal/config"
	"github.com/yeoul-ai/debate-server/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo store.Repository
	cfg  *config.Config
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository, cfg *config.Config) *HealthHandler {
	return &HealthHandler{repo: repo, cfg: cfg}
}

// RegisterRoutes registers the health endpoint.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/health", h.Health)
}

// Health reports service status and database reachability.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	env := "production"
	if h.cfg.IsDevelopment() {
		env = "development"
	}

	if err := h.repo.Ping(r.Context()); err != nil {
		JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":      "degraded",
			"version":     "1.0.0",
			"environment": env,
			"database":    "unreachable",
		})
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"version":     "1.0.0",
		"environment": env,
	})
}
