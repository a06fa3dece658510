package dto

import (
	"time"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
)

// ProcessTicketRequest tunes a processing run.
type ProcessTicketRequest struct {
	Priority domain.TicketPriority `json:"priority,omitempty"`
}

// PipelineStepDTO reports one step of a processing run.
type PipelineStepDTO struct {
	Name        string    `json:"name"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// ProcessTicketResponse summarizes a completed processing run.
type ProcessTicketResponse struct {
	TicketID     string            `json:"ticket_id"`
	TraceID      string            `json:"trace_id"`
	Success      bool              `json:"success"`
	ElapsedMS    int64             `json:"elapsed_ms"`
	Action       *ActionDTO        `json:"action,omitempty"`
	ActionResult *ActionResultDTO  `json:"action_result,omitempty"`
	Steps        []PipelineStepDTO `json:"steps"`
}

// ActionDTO describes the routing decision.
type ActionDTO struct {
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Reasoning  []string `json:"reasoning"`
}

// ActionResultDTO describes the outcome of executing the action.
type ActionResultDTO struct {
	Action       string         `json:"action"`
	Success      bool           `json:"success"`
	AutoResolved bool           `json:"auto_resolved"`
	AssignedTo   *string        `json:"assigned_to,omitempty"`
	Status       string         `json:"status,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// ProcessingStatusResponse reports the latest suggestion for a ticket.
type ProcessingStatusResponse struct {
	Status         string     `json:"status"`
	SuggestionID   string     `json:"suggestion_id,omitempty"`
	TraceID        string     `json:"trace_id,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
	Calibrated     *float64   `json:"calibrated_confidence,omitempty"`
	AutoResolve    bool       `json:"auto_resolve"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// SuggestionResponse exposes a full suggestion record for agents.
type SuggestionResponse struct {
	ID                string                   `json:"id"`
	TicketID          string                   `json:"ticket_id"`
	TraceID           string                   `json:"trace_id"`
	Type              string                   `json:"type"`
	Status            domain.SuggestionStatus  `json:"status"`
	Classification    *domain.Classification   `json:"classification,omitempty"`
	KnowledgeMatches  []domain.KnowledgeMatch  `json:"knowledge_matches,omitempty"`
	DraftedResponse   *domain.DraftedResponse  `json:"drafted_response,omitempty"`
	Confidence        *domain.Confidence       `json:"confidence,omitempty"`
	AutoResolve       bool                     `json:"auto_resolve"`
	AutoResolveReason string                   `json:"auto_resolve_reason,omitempty"`
	AuditTrail        []domain.AuditEntry      `json:"audit_trail"`
	Errors            []string                 `json:"errors,omitempty"`
	ProcessingTimeMS  int64                    `json:"processing_time_ms"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}
