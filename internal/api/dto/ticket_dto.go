package dto

import (
	"time"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Tags        []string              `json:"tags"`
	Attachments []AttachmentRequest   `json:"attachments"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string                `json:"id"`
	ExternalKey string                `json:"external_key"`
	Subject     string                `json:"subject"`
	Category    string                `json:"category"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	AssigneeID  *string               `json:"assignee_id,omitempty"`
	Tags        []string              `json:"tags"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID          string                   `json:"id"`
	ExternalKey string                   `json:"external_key"`
	Subject     string                   `json:"subject"`
	Description string                   `json:"description"`
	Category    string                   `json:"category"`
	Status      domain.TicketStatus      `json:"status"`
	Priority    domain.TicketPriority    `json:"priority"`
	AssigneeID  *string                  `json:"assignee_id,omitempty"`
	Resolution  *TicketResolutionDTO     `json:"resolution,omitempty"`
	Tags        []string                 `json:"tags"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	ClosedAt    *time.Time               `json:"closed_at"`
	Comments    []TicketCommentResponse  `json:"comments"`
	History     []TicketHistoryResponse  `json:"history,omitempty"`
}

// TicketResolutionDTO reports how the ticket was resolved.
type TicketResolutionDTO struct {
	Type       domain.ResolutionType `json:"type"`
	Content    string                `json:"content"`
	ResolverID *string               `json:"resolver_id,omitempty"`
	ResolvedAt time.Time             `json:"resolved_at"`
}

// TicketCommentResponse represents one thread entry.
type TicketCommentResponse struct {
	ID          string                   `json:"id"`
	CommentType domain.TicketCommentType `json:"comment_type"`
	AuthorType  domain.CommentAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id"`
	Body        string                   `json:"body"`
	CreatedAt   time.Time                `json:"created_at"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body        string                    `json:"body"`
	CommentType *domain.TicketCommentType `json:"comment_type,omitempty"`
}

// TicketHistoryResponse reports a ticket-side audit entry.
type TicketHistoryResponse struct {
	ID            string                   `json:"id"`
	ChangeType    domain.TicketChangeType  `json:"change_type"`
	ChangedByType domain.CommentAuthorType `json:"changed_by_type"`
	ChangedByID   *string                  `json:"changed_by_id,omitempty"`
	OldValue      map[string]any           `json:"old_value"`
	NewValue      map[string]any           `json:"new_value"`
	CreatedAt     time.Time                `json:"created_at"`
}
