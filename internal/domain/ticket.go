package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusTriaged         TicketStatus = "TRIAGED"
	TicketStatusWaitingHuman    TicketStatus = "WAITING_HUMAN"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingCustomer TicketStatus = "WAITING_CUSTOMER"
	TicketStatusEscalated       TicketStatus = "ESCALATED"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// ResolutionType records how a ticket reached RESOLVED.
type ResolutionType string

const (
	ResolutionTypeAIAutoResolved ResolutionType = "AI_AUTO_RESOLVED"
	ResolutionTypeAgentResolved  ResolutionType = "AGENT_RESOLVED"
)

// TicketResolution captures the final answer attached to a resolved ticket.
// ResolverID is nil when the workflow resolved the ticket without a human.
type TicketResolution struct {
	Type       ResolutionType `json:"type"`
	Content    string         `json:"content"`
	ResolverID *string        `json:"resolver_id,omitempty"`
	ResolvedAt time.Time      `json:"resolved_at"`
}

// TicketAttachment stores metadata for files attached at creation time.
type TicketAttachment struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	ExternalKey string
	RequesterID string
	Subject     string
	Description string
	Category    string
	Tags        []string
	Status      TicketStatus
	Priority    TicketPriority
	AssigneeID  *string
	Resolution  *TicketResolution
	Attachments []TicketAttachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}
