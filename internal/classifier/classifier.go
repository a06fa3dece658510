// Package classifier defines the narrow contract with the external
// classification/knowledge/response capability. The capability owns its own
// models, thresholds and confidence calibration; this core only submits jobs
// and polls for their outcome.
package classifier

import (
	"context"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
)

// JobHandle identifies one submitted classification job.
type JobHandle string

// JobState reflects where a submitted job is in the capability's queue.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// SubmitRequest carries the ticket fields the capability classifies on.
type SubmitRequest struct {
	TicketID     string                `json:"ticket_id"`
	Subject      string                `json:"subject"`
	Description  string                `json:"description"`
	Category     string                `json:"category"`
	PriorityHint domain.TicketPriority `json:"priority_hint,omitempty"`
}

// Result is the capability's full answer for one job.
type Result struct {
	Classification    domain.Classification   `json:"classification"`
	KnowledgeMatches  []domain.KnowledgeMatch `json:"knowledge_matches"`
	SuggestedResponse domain.DraftedResponse  `json:"suggested_response"`
	Confidence        domain.Confidence       `json:"confidence"`
	AutoResolve       bool                    `json:"auto_resolve"`
	ProcessingTimeMS  int64                   `json:"processing_time_ms"`
}

// Status is one poll observation of a job.
type Status struct {
	State         JobState `json:"state"`
	Result        *Result  `json:"result,omitempty"`
	FailureReason string   `json:"failure_reason,omitempty"`
}

// Client is the transport-agnostic interface to the capability.
type Client interface {
	Submit(ctx context.Context, queue string, req SubmitRequest) (JobHandle, error)
	PollStatus(ctx context.Context, queue string, handle JobHandle) (*Status, error)
}
