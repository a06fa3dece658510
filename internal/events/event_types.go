package events

import (
	"time"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketAutoResolved    EventType = "ticket_auto_resolved"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketQueued          EventType = "ticket_queued"
	EventTicketEscalated       EventType = "ticket_escalated"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketCommentAdded    EventType = "ticket_comment_added"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventSuggestionFailed      EventType = "suggestion_failed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	AgentID *string            `json:"agent_id,omitempty"`
}

// SystemActor marks events emitted by the workflow itself.
func SystemActor() Actor {
	return Actor{Type: "SYSTEM"}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	TraceID   string      `json:"trace_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject  string                `json:"subject"`
	Category string                `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketAutoResolvedPayload payload.
type TicketAutoResolvedPayload struct {
	SuggestionID    string  `json:"suggestion_id"`
	ResponseContent string  `json:"response_content"`
	Confidence      float64 `json:"confidence"`
	NotifyCustomer  bool    `json:"notify_customer"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeAgentID *string `json:"assignee_agent_id,omitempty"`
	Queue           string  `json:"queue,omitempty"`
}

// TicketQueuedPayload payload for tickets parked without an assignee.
type TicketQueuedPayload struct {
	Queue    string                `json:"queue"`
	Priority domain.TicketPriority `json:"priority"`
	Reason   string                `json:"reason"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Level  string `json:"level"`
	Reason string `json:"reason"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string                   `json:"comment_id"`
	CommentType domain.TicketCommentType `json:"comment_type"`
	AuthorType  domain.CommentAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id,omitempty"`
	BodyPreview string                   `json:"body_preview"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// SuggestionFailedPayload payload.
type SuggestionFailedPayload struct {
	SuggestionID string `json:"suggestion_id"`
	ErrorCode    string `json:"error_code"`
	Error        string `json:"error"`
}
