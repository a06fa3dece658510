package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus     TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee   TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority   TicketChangeType = "PRIORITY_CHANGE"
	ChangeTypeResolution TicketChangeType = "RESOLUTION_CHANGE"
	ChangeTypeEscalation TicketChangeType = "ESCALATION"
)

// TicketHistory is an immutable audit trail entry for ticket-side mutations,
// including those performed by the auto-resolution workflow.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByType CommentAuthorType
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
