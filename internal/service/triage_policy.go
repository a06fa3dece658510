package service

import (
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
)

// ActionType enumerates the dispositions the workflow can choose.
type ActionType string

const (
	ActionAutoResolve ActionType = "AUTO_RESOLVE"
	ActionAgentReview ActionType = "AGENT_REVIEW"
	ActionHumanReview ActionType = "HUMAN_REVIEW"
	ActionEscalate    ActionType = "ESCALATE"
)

// Queue and escalation identifiers recorded with routing decisions.
const (
	QueueAIReview         = "ai_review"
	QueueHumanReview      = "human_review"
	EscalationLevelSenior = "senior"
)

// AutoResolveParams closes the ticket with the drafted response.
type AutoResolveParams struct {
	ResponseContent string `json:"response_content"`
	CloseTicket     bool   `json:"close_ticket"`
	NotifyCustomer  bool   `json:"notify_customer"`
}

// AgentReviewParams routes the ticket to the agent review queue.
type AgentReviewParams struct {
	Queue    string                `json:"queue"`
	Priority domain.TicketPriority `json:"priority"`
}

// HumanReviewParams routes the ticket to manual human review.
type HumanReviewParams struct {
	Queue    string                `json:"queue"`
	Priority domain.TicketPriority `json:"priority"`
}

// EscalateParams raises the ticket to a senior agent.
type EscalateParams struct {
	Level    string                `json:"level"`
	Priority domain.TicketPriority `json:"priority"`
}

// Action is the workflow's routing decision. Exactly one parameter field is
// set, matching Type; parameters are typed per action so a missing or foreign
// field is a compile-time error rather than a runtime surprise.
type Action struct {
	Type        ActionType         `json:"type"`
	Confidence  float64            `json:"confidence"`
	Reasoning   []string           `json:"reasoning"`
	AutoResolve *AutoResolveParams `json:"auto_resolve,omitempty"`
	AgentReview *AgentReviewParams `json:"agent_review,omitempty"`
	HumanReview *HumanReviewParams `json:"human_review,omitempty"`
	Escalate    *EscalateParams    `json:"escalate,omitempty"`
}

// DetermineNextAction maps the suggestion's confidence recommendation to the
// next action. The mapping is total: every input yields an action, and an
// unrecognized recommendation routes to human review rather than ever
// silently auto-resolving.
func DetermineNextAction(sug *domain.Suggestion) *Action {
	var recommendation domain.Recommendation
	var calibrated float64
	if sug.Confidence != nil {
		recommendation = sug.Confidence.Recommendation
		calibrated = sug.Confidence.Calibrated
	}

	switch recommendation {
	case domain.RecommendationAutoResolve:
		content := ""
		if sug.DraftedResponse != nil {
			content = sug.DraftedResponse.Content
		}
		return &Action{
			Type:       ActionAutoResolve,
			Confidence: calibrated,
			Reasoning:  []string{"High confidence AI resolution"},
			AutoResolve: &AutoResolveParams{
				ResponseContent: content,
				CloseTicket:     true,
				NotifyCustomer:  true,
			},
		}
	case domain.RecommendationAgentReview:
		return &Action{
			Type:       ActionAgentReview,
			Confidence: calibrated,
			Reasoning:  []string{"Medium confidence - requires agent review"},
			AgentReview: &AgentReviewParams{
				Queue:    QueueAIReview,
				Priority: domain.TicketPriorityNormal,
			},
		}
	case domain.RecommendationHumanReview:
		return &Action{
			Type:       ActionHumanReview,
			Confidence: calibrated,
			Reasoning:  []string{"Low confidence - requires human review"},
			HumanReview: &HumanReviewParams{
				Queue:    QueueHumanReview,
				Priority: domain.TicketPriorityHigh,
			},
		}
	case domain.RecommendationEscalate:
		return &Action{
			Type:       ActionEscalate,
			Confidence: calibrated,
			Reasoning:  []string{"Very low confidence - escalate to senior agent"},
			Escalate: &EscalateParams{
				Level:    EscalationLevelSenior,
				Priority: domain.TicketPriorityUrgent,
			},
		}
	default:
		return &Action{
			Type:       ActionHumanReview,
			Confidence: calibrated,
			Reasoning:  []string{"Unknown recommendation - defaulting to human review"},
			HumanReview: &HumanReviewParams{
				Queue:    QueueHumanReview,
				Priority: domain.TicketPriorityHigh,
			},
		}
	}
}
