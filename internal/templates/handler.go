package templates

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/agent-forge/internal/agents"
	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/pkg/handlers"
	"github.com/JaimeStill/agent-forge/pkg/routes"
)

// RecommendRequest describes the agent a caller wants.
type RecommendRequest struct {
	Description string `json:"description"`
}

// RecommendResponse names the suggested template. Slug is empty when no
// keyword matched.
type RecommendResponse struct {
	Slug    string `json:"slug"`
	Matched bool   `json:"matched"`
}

// Handler provides HTTP handlers for domain templates.
type Handler struct {
	catalog   *Catalog
	validator *specs.Validator
	agents    agents.System
	logger    *slog.Logger
	maxSize   int64
}

// NewHandler creates a new templates HTTP handler. Instantiated
// specifications pass through validator before agents sees them.
func NewHandler(catalog *Catalog, validator *specs.Validator, sys agents.System, logger *slog.Logger, maxSize int64) *Handler {
	return &Handler{
		catalog:   catalog,
		validator: validator,
		agents:    sys,
		logger:    logger,
		maxSize:   maxSize,
	}
}

// Routes returns the route group configuration for template endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/templates",
		Tags:        []string{"Templates"},
		Description: "Domain templates for agent specifications",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{slug}", Handler: h.Find},
			{Method: "POST", Pattern: "/recommend", Handler: h.Recommend},
			{Method: "POST", Pattern: "/{slug}/specification", Handler: h.Specification},
			{Method: "POST", Pattern: "/{slug}/agents", Handler: h.CreateAgent},
		},
	}
}

// List handles GET /api/templates.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.catalog.List())
}

// Find handles GET /api/templates/{slug}.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	t, err := h.catalog.Get(r.PathValue("slug"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// Recommend handles POST /api/templates/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	body, err := handlers.ReadBody(r, h.maxSize)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	var req RecommendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("description is required"))
		return
	}

	slug, ok := h.catalog.Recommend(req.Description)
	handlers.RespondJSON(w, http.StatusOK, RecommendResponse{Slug: slug, Matched: ok})
}

// Specification handles POST /api/templates/{slug}/specification. The body
// holds optional customizations; the response is the validated result.
func (h *Handler) Specification(w http.ResponseWriter, r *http.Request) {
	v, ok := h.instantiate(w, r)
	if !ok {
		return
	}

	handlers.RespondJSON(w, http.StatusOK, specs.ValidationResponse{Result: v.Result, Specification: v.Document})
}

// CreateAgent handles POST /api/templates/{slug}/agents.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	v, ok := h.instantiate(w, r)
	if !ok {
		return
	}

	if !v.Result.Valid {
		handlers.RespondJSON(w, http.StatusUnprocessableEntity, specs.ValidationResponse{Result: v.Result, Specification: v.Document})
		return
	}

	a, err := h.agents.Create(r.Context(), v)
	if err != nil {
		var verr *agents.ValidationError
		if errors.As(err, &verr) {
			handlers.RespondJSON(w, http.StatusUnprocessableEntity, specs.ValidationResponse{Result: verr.Result})
			return
		}
		handlers.RespondError(w, h.logger, agents.MapHTTPStatus(err), err)
		return
	}

	h.logger.Info("agent created from template", "template", r.PathValue("slug"), "slug", a.Slug)
	handlers.RespondJSON(w, http.StatusCreated, agents.CreateResponse{Agent: a, Validation: v.Result})
}

func (h *Handler) instantiate(w http.ResponseWriter, r *http.Request) (specs.Validated, bool) {
	body, err := handlers.ReadBody(r, h.maxSize)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return specs.Validated{}, false
	}

	var custom Customizations
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&custom); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return specs.Validated{}, false
		}
	}

	spec, err := h.catalog.Instantiate(r.PathValue("slug"), custom)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return specs.Validated{}, false
	}

	return h.validator.Accept(specs.Decode(spec)), true
}
