package specs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/agent-forge/pkg/handlers"
	"github.com/JaimeStill/agent-forge/pkg/routes"
)

// ParseRequest carries raw meta-agent output.
type ParseRequest struct {
	ResponseText string `json:"response_text"`
}

// ValidationResponse is a validation result with the decoded specification
// in canonical form. Specification is nil when nothing could be parsed.
type ValidationResponse struct {
	Result
	Specification *Document `json:"specification,omitempty"`
}

// Handler provides HTTP handlers for specification validation.
type Handler struct {
	validator *Validator
	logger    *slog.Logger
	maxSize   int64
}

// NewHandler creates a new specifications HTTP handler. Request bodies larger
// than maxSize bytes are rejected.
func NewHandler(validator *Validator, logger *slog.Logger, maxSize int64) *Handler {
	return &Handler{
		validator: validator,
		logger:    logger,
		maxSize:   maxSize,
	}
}

// Routes returns the route group configuration for specification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/specifications",
		Tags:        []string{"Specifications"},
		Description: "Agent specification parsing and validation",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/parse", Handler: h.Parse},
			{Method: "POST", Pattern: "/validate", Handler: h.Validate},
		},
	}
}

// Parse handles POST /api/specifications/parse.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	body, err := handlers.ReadBody(r, h.maxSize)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	var req ParseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.ResponseText) == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("response_text is required"))
		return
	}

	result, doc := h.validator.ValidateText(req.ResponseText)
	handlers.RespondJSON(w, http.StatusOK, ValidationResponse{Result: result, Specification: doc})
}

// Validate handles POST /api/specifications/validate. The body is the
// specification itself.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	body, err := handlers.ReadBody(r, h.maxSize)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, doc := h.validator.ValidateRaw(body)
	handlers.RespondJSON(w, http.StatusOK, ValidationResponse{Result: result, Specification: doc})
}
