// Package agents is the registry of dynamic agents: persisted records built
// from accepted specifications, and the live instances constructed from them.
package agents

import (
	"encoding/json"
	"time"

	"github.com/JaimeStill/agent-forge/internal/compiler"
	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/google/uuid"
)

// Status is the lifecycle state of an agent record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusError    Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusError:
		return true
	}
	return false
}

// Metrics are the running usage counters of an agent.
type Metrics struct {
	TotalSessions     int64      `json:"total_sessions"`
	TotalRuns         int64      `json:"total_runs"`
	SuccessfulRuns    int64      `json:"successful_runs"`
	AvgResponseTimeMs float64    `json:"avg_response_time_ms"`
	SuccessRate       float64    `json:"success_rate"`
	LastUsedAt        *time.Time `json:"last_used_at"`
}

// Apply folds u into m. The average response time and success rate are
// running values over all recorded runs.
func (m *Metrics) Apply(u Usage, now time.Time) {
	prev := float64(m.TotalRuns)

	m.TotalSessions += int64(u.SessionDelta)
	m.TotalRuns++
	if u.Success {
		m.SuccessfulRuns++
	}
	m.AvgResponseTimeMs = (m.AvgResponseTimeMs*prev + u.LatencyMs) / float64(m.TotalRuns)
	m.SuccessRate = float64(m.SuccessfulRuns) / float64(m.TotalRuns)
	m.LastUsedAt = &now
}

// Agent is a persisted dynamic agent. The specification sections are kept
// as accepted; Config is their compilation and ConfigHash its fingerprint.
type Agent struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	Slug            string               `json:"slug"`
	Status          Status               `json:"status"`
	Description     string               `json:"description"`
	Role            string               `json:"role"`
	Specialization  string               `json:"specialization"`
	ModelConfig     *specs.ModelConfig   `json:"model_config"`
	ToolsConfig     []specs.ToolConfig   `json:"tools_config"`
	Instructions    *specs.Instructions  `json:"instructions"`
	Features        *specs.Features      `json:"features"`
	KnowledgeBase   *specs.KnowledgeBase `json:"knowledge_base,omitempty"`
	Config          *compiler.Config     `json:"config"`
	ConfigHash      string               `json:"config_hash"`
	SpecificationID *uuid.UUID           `json:"specification_id,omitempty"`
	Metrics
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document reconstructs the specification the record was built from.
func (a *Agent) Document() *specs.Document {
	doc := &specs.Document{
		AgentConfig: &specs.AgentConfig{
			Name:           a.Name,
			Slug:           a.Slug,
			Description:    a.Description,
			Role:           a.Role,
			Specialization: a.Specialization,
		},
		ModelConfig:   a.ModelConfig,
		ToolsConfig:   a.ToolsConfig,
		Instructions:  a.Instructions,
		Features:      a.Features,
		KnowledgeBase: a.KnowledgeBase,
	}
	return doc.Clone()
}

// Specification is the audit row written alongside an agent on creation.
type Specification struct {
	ID             uuid.UUID       `json:"id"`
	Specification  json.RawMessage `json:"specification"`
	Status         string          `json:"status"`
	Score          int             `json:"score"`
	Warnings       []specs.Issue   `json:"warnings"`
	CreatedAgentID uuid.UUID       `json:"created_agent_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

// UpdateCommand holds the mutable fields of an agent. Absent fields are left
// unchanged. Specification sections are raw JSON and decode as tolerantly as
// a new specification does.
type UpdateCommand struct {
	Description  *string         `json:"description,omitempty"`
	Role         *string         `json:"role,omitempty"`
	ModelConfig  json.RawMessage `json:"model_config,omitempty"`
	ToolsConfig  json.RawMessage `json:"tools_config,omitempty"`
	Instructions json.RawMessage `json:"instructions,omitempty"`
	Features     json.RawMessage `json:"features,omitempty"`
	Status       *Status         `json:"status,omitempty"`
}

func (c UpdateCommand) changesSpecification() bool {
	return c.Description != nil || c.Role != nil ||
		len(c.ModelConfig) > 0 || len(c.ToolsConfig) > 0 ||
		len(c.Instructions) > 0 || len(c.Features) > 0
}

// Usage is one observation reported against an agent.
type Usage struct {
	SessionDelta int     `json:"session_delta"`
	LatencyMs    float64 `json:"latency_ms"`
	Success      bool    `json:"success"`
}

// ChatCommand is a prompt sent to an agent's live instance. An empty
// SessionID starts a new session.
type ChatCommand struct {
	Prompt    string         `json:"prompt"`
	SessionID string         `json:"session_id,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// ChatResult is the reply of a live instance.
type ChatResult struct {
	AgentID   uuid.UUID `json:"agent_id"`
	SessionID string    `json:"session_id"`
	Content   string    `json:"content"`
	LatencyMs float64   `json:"latency_ms"`
}
