package domain

import (
	"fmt"
	"time"
)

// SuggestionStatus enumerates the lifecycle of one AI processing attempt.
// Transitions are forward-only: PROCESSING is the only non-terminal state,
// COMPLETED may advance to AUTO_APPLIED, FAILED and AUTO_APPLIED are terminal.
type SuggestionStatus string

const (
	SuggestionStatusProcessing  SuggestionStatus = "PROCESSING"
	SuggestionStatusCompleted   SuggestionStatus = "COMPLETED"
	SuggestionStatusFailed      SuggestionStatus = "FAILED"
	SuggestionStatusAutoApplied SuggestionStatus = "AUTO_APPLIED"
)

// SuggestionTypeFullProcessing marks a full classification+response attempt.
const SuggestionTypeFullProcessing = "full_processing"

// Recommendation is the routing verdict produced by the external confidence
// calibration engine. Values are the capability's wire contract, so they stay
// lowercase; anything unrecognized routes to human review.
type Recommendation string

const (
	RecommendationAutoResolve Recommendation = "auto_resolve"
	RecommendationAgentReview Recommendation = "agent_review"
	RecommendationHumanReview Recommendation = "human_review"
	RecommendationEscalate    Recommendation = "escalate"
)

// Classification is the category/priority verdict for a ticket.
type Classification struct {
	Category   string         `json:"category"`
	Priority   TicketPriority `json:"priority"`
	Confidence float64        `json:"confidence"`
}

// KnowledgeMatch is one ranked knowledge-base candidate.
type KnowledgeMatch struct {
	ArticleID string  `json:"article_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
}

// DraftedResponse is the AI-drafted reply for a ticket.
type DraftedResponse struct {
	Content    string  `json:"content"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Confidence bundles the raw model signal with the calibrated score and the
// resulting routing recommendation.
type Confidence struct {
	Raw            float64        `json:"raw"`
	Calibrated     float64        `json:"calibrated"`
	Recommendation Recommendation `json:"recommendation"`
}

// AuditEntry is one timestamped line in a suggestion's audit trail.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     *string   `json:"actor,omitempty"`
	Detail    string    `json:"detail"`
}

// TicketSnapshot freezes the ticket fields the workflow saw at pipeline start.
type TicketSnapshot struct {
	Subject     string             `json:"subject"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Attachments []TicketAttachment `json:"attachments,omitempty"`
}

// Suggestion is the durable record of one AI-assisted processing attempt.
// Records are never deleted; failed attempts are immutable history, and a
// re-processed ticket gets a fresh record.
type Suggestion struct {
	ID                string
	TicketID          string
	TraceID           string
	Type              string
	Status            SuggestionStatus
	Snapshot          TicketSnapshot
	Classification    *Classification
	KnowledgeMatches  []KnowledgeMatch
	DraftedResponse   *DraftedResponse
	Confidence        *Confidence
	AutoResolve       bool
	AutoResolveReason string
	AuditTrail        []AuditEntry
	Errors            []string
	ProcessingTimeMS  int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

var suggestionTransitions = map[SuggestionStatus][]SuggestionStatus{
	SuggestionStatusProcessing:  {SuggestionStatusCompleted, SuggestionStatusFailed},
	SuggestionStatusCompleted:   {SuggestionStatusAutoApplied},
	SuggestionStatusFailed:      {},
	SuggestionStatusAutoApplied: {},
}

// SetStatus advances the suggestion status, rejecting any regression.
// Audit entries may still be appended after a terminal status.
func (s *Suggestion) SetStatus(next SuggestionStatus) error {
	for _, candidate := range suggestionTransitions[s.Status] {
		if candidate == next {
			s.Status = next
			return nil
		}
	}
	return fmt.Errorf("invalid suggestion transition %s -> %s", s.Status, next)
}

// AppendAudit adds an entry to the ordered audit trail.
func (s *Suggestion) AppendAudit(actor *string, detail string) {
	s.AuditTrail = append(s.AuditTrail, AuditEntry{
		Timestamp: time.Now(),
		Actor:     actor,
		Detail:    detail,
	})
}

// RecordError appends to the error list without touching status.
func (s *Suggestion) RecordError(err error) {
	if err == nil {
		return
	}
	s.Errors = append(s.Errors, err.Error())
}
