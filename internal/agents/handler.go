package agents

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/pkg/handlers"
	"github.com/JaimeStill/agent-forge/pkg/pagination"
	"github.com/JaimeStill/agent-forge/pkg/routes"
	"github.com/google/uuid"
)

// CreateResponse is a new agent with the validation result that admitted it.
type CreateResponse struct {
	Agent      *Agent       `json:"agent"`
	Validation specs.Result `json:"validation"`
}

// Handler provides HTTP handlers for the agent registry.
type Handler struct {
	sys        System
	validator  *specs.Validator
	logger     *slog.Logger
	pagination pagination.Config
	maxSize    int64
}

// NewHandler creates a new agents HTTP handler.
func NewHandler(sys System, validator *specs.Validator, logger *slog.Logger, pagination pagination.Config, maxSize int64) *Handler {
	return &Handler{
		sys:        sys,
		validator:  validator,
		logger:     logger,
		pagination: pagination,
		maxSize:    maxSize,
	}
}

// Routes returns the route group configuration for agent endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/agents",
		Tags:        []string{"Agents"},
		Description: "Dynamic agent registry",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "POST", Pattern: "/{id}/chat", Handler: h.Chat},
			{Method: "POST", Pattern: "/{id}/usage", Handler: h.RecordUsage},
		},
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		h.logger.Warn("specification rejected", "score", verr.Result.Score, "errors", len(verr.Result.Errors))
		handlers.RespondJSON(w, http.StatusUnprocessableEntity, specs.ValidationResponse{Result: verr.Result})
		return
	}
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

// List handles GET /api/agents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	window := pagination.WindowFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), filters, window)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create handles POST /api/agents. The body is the agent specification.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := handlers.ReadBody(r, h.maxSize)
	if err != nil {
		handlers.RespondError(w, h.logger, specs.MapHTTPStatus(err), err)
		return
	}

	result, doc := h.validator.ValidateRaw(body)
	if doc == nil || !result.Valid {
		h.respondError(w, &ValidationError{Result: result})
		return
	}

	a, err := h.sys.Create(r.Context(), specs.Validated{Document: doc, Result: result})
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, CreateResponse{Agent: a, Validation: result})
}

// Find handles GET /api/agents/{id}.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	a, err := h.sys.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

// Update handles PUT /api/agents/{id}. Fields outside UpdateCommand are rejected.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	body, err := handlers.ReadBody(r, h.maxSize)
	if err != nil {
		handlers.RespondError(w, h.logger, specs.MapHTTPStatus(err), err)
		return
	}

	var cmd UpdateCommand
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	a, err := h.sys.Update(r.Context(), id, cmd)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/agents/{id}. The record is deactivated, not removed.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.SoftDelete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Chat handles POST /api/agents/{id}/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd ChatCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Chat(r.Context(), id, cmd)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// RecordUsage handles POST /api/agents/{id}/usage for runs executed elsewhere.
func (h *Handler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var u Usage
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	a, err := h.sys.RecordUsage(r.Context(), id, u)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a.Metrics)
}
