package specs

import (
	"fmt"
	"maps"
	"slices"

	"github.com/JaimeStill/agent-forge/internal/tools"
)

// Issue codes.
const (
	CodeParse              = "parse_error"
	CodeMissingSection     = "missing_section"
	CodeMissingRequired    = "missing_required"
	CodeMissingRecommended = "missing_recommended"
	CodeInvalidType        = "invalid_type"
	CodeTemperatureRange   = "temperature_out_of_range"
	CodeMaxTokens          = "invalid_max_tokens"
	CodeUnknownTool        = "unknown_tool"
	CodeInactiveTool       = "inactive_tool"
	CodeUnnamedTool        = "unnamed_tool"
	CodeDuplicateTool      = "duplicate_tool"
	CodeKnowledgeSource    = "knowledge_without_source"
	CodeUnexpectedConfig   = "unexpected_tool_config"
	CodeInvalidConfig      = "invalid_tool_config"
	CodeMissingOptional    = "missing_optional"
	CodeSlugNormalized     = "slug_normalized"
	CodeUnknownProvider    = "unknown_provider"
	CodeUnsupportedModel   = "unsupported_model"
)

// DefaultAcceptanceThreshold is the minimum score a valid specification needs.
const DefaultAcceptanceThreshold = 60

// Issue is a single validation finding. Deduction is the number of points it
// removed from the score.
type Issue struct {
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message"`
	Deduction int    `json:"deduction,omitempty"`
}

// Result is the outcome of validating one document. Slug is the declared slug
// or, when absent, one derived from the name with a random suffix, so two
// validations of the same document may differ in Slug and nothing else.
type Result struct {
	Score       int     `json:"score"`
	Valid       bool    `json:"is_valid"`
	Errors      []Issue `json:"errors"`
	Warnings    []Issue `json:"warnings"`
	Suggestions []Issue `json:"suggestions"`
	Slug        string  `json:"slug,omitempty"`
}

// Validated pairs a document with the result that accepted or rejected it.
type Validated struct {
	Document *Document
	Result   Result
}

// Catalog resolves tool names to descriptors.
type Catalog interface {
	Lookup(name string) (tools.Descriptor, error)
}

// Providers reports the model providers this service can build agents for.
// Models returns the models offered by provider; an empty list accepts any
// model id.
type Providers interface {
	Models(provider string) ([]string, bool)
}

// Weights are the points deducted per finding class.
type Weights struct {
	Error   int `toml:"error"`
	Warning int `toml:"warning"`
	Tool    int `toml:"tool"`
}

// DefaultWeights returns the standard deductions.
func DefaultWeights() Weights {
	return Weights{Error: 20, Warning: 5, Tool: 3}
}

// Option configures a Validator.
type Option func(*Validator)

// WithWeights overrides the default deductions.
func WithWeights(w Weights) Option {
	return func(v *Validator) { v.weights = w }
}

// WithProviders checks model_config against the configured providers.
func WithProviders(p Providers) Option {
	return func(v *Validator) { v.providers = p }
}

// WithSlugSuffix replaces the random slug suffix source.
func WithSlugSuffix(fn func() string) Option {
	return func(v *Validator) { v.suffix = fn }
}

// Validator scores specifications against the tool catalog. It holds no
// mutable state and is safe for concurrent use.
type Validator struct {
	catalog   Catalog
	providers Providers
	threshold int
	weights   Weights
	suffix    func() string
}

// NewValidator creates a Validator. A non-positive threshold selects
// DefaultAcceptanceThreshold.
func NewValidator(catalog Catalog, threshold int, opts ...Option) *Validator {
	if threshold <= 0 {
		threshold = DefaultAcceptanceThreshold
	}

	v := &Validator{
		catalog:   catalog,
		threshold: threshold,
		weights:   DefaultWeights(),
		suffix:    RandomSuffix,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Threshold returns the acceptance threshold.
func (v *Validator) Threshold() int {
	return v.threshold
}

// ValidateRaw parses data and validates the result. Parse failures produce a
// zero-score result and a nil document.
func (v *Validator) ValidateRaw(data []byte) (Result, *Document) {
	doc, err := Parse(data)
	if err != nil {
		return parseFailure(err), nil
	}
	return v.Validate(doc), doc
}

// ValidateText extracts a specification from meta-agent output and validates it.
func (v *Validator) ValidateText(text string) (Result, *Document) {
	doc, err := ParseText(text)
	if err != nil {
		return parseFailure(err), nil
	}
	return v.Validate(doc), doc
}

// Accept validates doc and bundles the result for compilation.
func (v *Validator) Accept(doc *Document) Validated {
	return Validated{Document: doc, Result: v.Validate(doc)}
}

func parseFailure(err error) Result {
	return Result{
		Score:       0,
		Valid:       false,
		Errors:      []Issue{{Code: CodeParse, Message: err.Error()}},
		Warnings:    []Issue{},
		Suggestions: []Issue{},
	}
}

var requiredPaths = map[string]bool{
	"agent_config":                true,
	"agent_config.name":           true,
	"model_config":                true,
	"model_config.provider":       true,
	"model_config.model_id":       true,
	"instructions":                true,
	"instructions.system_message": true,
}

type check struct {
	doc    *Document
	w      Weights
	result Result
}

func (c *check) fail(code, field, format string, args ...any) {
	c.result.Errors = append(c.result.Errors, Issue{
		Code: code, Field: field, Message: fmt.Sprintf(format, args...), Deduction: c.w.Error,
	})
}

func (c *check) warn(points int, code, field, format string, args ...any) {
	c.result.Warnings = append(c.result.Warnings, Issue{
		Code: code, Field: field, Message: fmt.Sprintf(format, args...), Deduction: points,
	})
}

func (c *check) suggest(code, field, format string, args ...any) {
	c.result.Suggestions = append(c.result.Suggestions, Issue{
		Code: code, Field: field, Message: fmt.Sprintf(format, args...),
	})
}

func (c *check) required(path, value string) {
	if value != "" {
		return
	}
	if c.doc.isInvalid(path) {
		c.fail(CodeMissingRequired, path, "%s must be a non-empty %s", path, c.doc.invalid[path])
		return
	}
	c.fail(CodeMissingRequired, path, "%s is required", path)
}

func (c *check) section(path string, present bool) bool {
	if present {
		return true
	}
	if c.doc.isInvalid(path) {
		c.fail(CodeMissingSection, path, "%s must be an object", path)
		return false
	}
	c.fail(CodeMissingSection, path, "%s section is required", path)
	return false
}

// Validate scores doc. It never fails: every defect becomes an Issue.
func (v *Validator) Validate(doc *Document) Result {
	c := &check{
		doc: doc,
		w:   v.weights,
		result: Result{
			Errors:      []Issue{},
			Warnings:    []Issue{},
			Suggestions: []Issue{},
		},
	}

	v.checkAgent(c)
	v.checkModel(c)
	v.checkTools(c)
	v.checkInstructions(c)
	v.checkFeatures(c)
	v.checkTypes(c)

	score := 100
	for _, e := range c.result.Errors {
		score -= e.Deduction
	}
	for _, w := range c.result.Warnings {
		score -= w.Deduction
	}
	c.result.Score = max(score, 0)
	c.result.Valid = len(c.result.Errors) == 0 && c.result.Score >= v.threshold

	return c.result
}

func (v *Validator) checkAgent(c *check) {
	ac := c.doc.AgentConfig
	if !c.section("agent_config", ac != nil) {
		return
	}

	c.required("agent_config.name", ac.Name)

	switch {
	case ac.Slug != "":
		slug := Slugify(ac.Slug)
		if slug == "" {
			slug = DeriveSlug(ac.Name, v.suffix())
		}
		if slug != ac.Slug {
			c.suggest(CodeSlugNormalized, "agent_config.slug", "slug %q normalized to %q", ac.Slug, slug)
		}
		c.result.Slug = slug
	case ac.Name != "":
		c.result.Slug = DeriveSlug(ac.Name, v.suffix())
	}

	for _, f := range []struct{ path, value string }{
		{"agent_config.description", ac.Description},
		{"agent_config.role", ac.Role},
		{"agent_config.specialization", ac.Specialization},
	} {
		if f.value == "" && !c.doc.isInvalid(f.path) {
			c.suggest(CodeMissingOptional, f.path, "consider adding %s", f.path)
		}
	}
}

func (v *Validator) checkModel(c *check) {
	mc := c.doc.ModelConfig
	if !c.section("model_config", mc != nil) {
		return
	}

	c.required("model_config.provider", mc.Provider)
	c.required("model_config.model_id", mc.ModelID)

	if mc.MaxTokens != nil && *mc.MaxTokens <= 0 {
		c.warn(c.w.Warning, CodeMaxTokens, "model_config.max_tokens", "max_tokens must be positive, got %d", *mc.MaxTokens)
	}
	if mc.Temperature != nil && (*mc.Temperature < 0 || *mc.Temperature > 1) {
		c.warn(c.w.Warning, CodeTemperatureRange, "model_config.temperature", "temperature %.2f is outside 0.0-1.0", *mc.Temperature)
	}

	if v.providers == nil || mc.Provider == "" {
		return
	}
	models, ok := v.providers.Models(mc.Provider)
	if !ok {
		c.warn(c.w.Warning, CodeUnknownProvider, "model_config.provider", "provider %q is not configured", mc.Provider)
		return
	}
	if mc.ModelID != "" && len(models) > 0 && !slices.Contains(models, mc.ModelID) {
		c.warn(c.w.Warning, CodeUnsupportedModel, "model_config.model_id", "model %q is not offered by provider %q (have %v)", mc.ModelID, mc.Provider, models)
	}
}

func (v *Validator) checkTools(c *check) {
	if c.doc.ToolsConfig == nil {
		if !c.doc.isInvalid("tools_config") {
			c.warn(c.w.Warning, CodeMissingRecommended, "tools_config", "tools_config section is recommended")
		}
		return
	}

	seen := make(map[string]bool)
	for i, t := range c.doc.ToolsConfig {
		path := fmt.Sprintf("tools_config[%d]", i)

		if t.Name == "" {
			if !c.doc.isInvalid(path + ".name") {
				c.warn(c.w.Tool, CodeUnnamedTool, path+".name", "tool entry %d has no name", i)
			}
			continue
		}
		if !t.Enabled {
			continue
		}

		if seen[t.Name] {
			c.warn(c.w.Tool, CodeDuplicateTool, path+".name", "tool %s is enabled more than once", t.Name)
			continue
		}
		seen[t.Name] = true

		d, err := v.catalog.Lookup(t.Name)
		if err != nil {
			c.warn(c.w.Tool, CodeUnknownTool, path+".name", "tool %s is not in the catalog", t.Name)
			continue
		}
		if !d.IsActive {
			c.warn(c.w.Tool, CodeInactiveTool, path+".name", "tool %s is inactive", t.Name)
			continue
		}

		for _, key := range slices.Sorted(maps.Keys(t.Config)) {
			param, ok := d.ConfigSchema[key]
			if !ok {
				c.suggest(CodeUnexpectedConfig, path+".config."+key, "%s does not accept config key %q; it will be ignored", t.Name, key)
				continue
			}
			if !param.Type.Accepts(t.Config[key]) {
				c.suggest(CodeInvalidConfig, path+".config."+key, "%s.%s expects %s; the default will be used", t.Name, key, param.Type)
			}
		}
	}
}

func (v *Validator) checkInstructions(c *check) {
	in := c.doc.Instructions
	if !c.section("instructions", in != nil) {
		return
	}

	c.required("instructions.system_message", in.SystemMessage)

	if len(in.Guidelines) == 0 && !c.doc.isInvalid("instructions.guidelines") {
		c.suggest(CodeMissingOptional, "instructions.guidelines", "consider adding guidelines")
	}
}

func (v *Validator) checkFeatures(c *check) {
	if c.doc.Features == nil && !c.doc.isInvalid("features") {
		c.warn(c.w.Warning, CodeMissingRecommended, "features", "features section is recommended")
	}

	if c.doc.KnowledgeEnabled() && !c.doc.HasKnowledgeSource() {
		c.warn(c.w.Warning, CodeKnowledgeSource, "features.knowledge_enabled", "knowledge is enabled but knowledge_base declares no sources")
	}
}

func (v *Validator) checkTypes(c *check) {
	for _, path := range slices.Sorted(maps.Keys(c.doc.invalid)) {
		if requiredPaths[path] {
			continue
		}
		c.warn(c.w.Warning, CodeInvalidType, path, "%s must be %s", path, c.doc.invalid[path])
	}
}
