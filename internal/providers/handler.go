package providers

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/agent-forge/pkg/handlers"
	"github.com/JaimeStill/agent-forge/pkg/routes"
)

// Handler provides HTTP handlers for provider discovery.
type Handler struct {
	registry *Registry
	logger   *slog.Logger
}

// NewHandler creates a new providers HTTP handler.
func NewHandler(registry *Registry, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger,
	}
}

// Routes returns the route group configuration for provider endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/providers",
		Tags:        []string{"Providers"},
		Description: "Configured model providers",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{name}", Handler: h.Find},
		},
	}
}

// List handles GET /api/providers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.registry.List())
}

// Find handles GET /api/providers/{name}.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.Get(r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}
