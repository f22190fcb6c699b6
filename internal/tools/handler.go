package tools

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/agent-forge/pkg/handlers"
	"github.com/JaimeStill/agent-forge/pkg/routes"
)

// ActivationRequest toggles a tool's availability.
type ActivationRequest struct {
	IsActive bool `json:"is_active"`
}

// Handler provides HTTP handlers for the tool catalog.
type Handler struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewHandler creates a new tools HTTP handler.
func NewHandler(catalog *Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		logger:  logger,
	}
}

// Routes returns the route group configuration for tool endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/tools",
		Tags:        []string{"Tools"},
		Description: "Tool catalog",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{name}", Handler: h.Find},
			{Method: "PUT", Pattern: "/{name}/active", Handler: h.SetActive},
		},
	}
}

// List handles GET /api/tools.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.catalog.ListActive())
}

// Find handles GET /api/tools/{name}.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.Lookup(r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// SetActive handles PUT /api/tools/{name}/active.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req ActivationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	d, err := h.catalog.SetActive(r.Context(), r.PathValue("name"), req.IsActive)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}
