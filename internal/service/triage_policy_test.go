package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
)

func suggestionWith(rec domain.Recommendation, calibrated float64) *domain.Suggestion {
	return &domain.Suggestion{
		Status: domain.SuggestionStatusCompleted,
		Confidence: &domain.Confidence{
			Raw:            calibrated + 0.05,
			Calibrated:     calibrated,
			Recommendation: rec,
		},
		DraftedResponse: &domain.DraftedResponse{
			Content: "Please reset your password from the account page.",
			Type:    "resolution",
		},
	}
}

func TestDetermineNextActionAutoResolve(t *testing.T) {
	action := DetermineNextAction(suggestionWith(domain.RecommendationAutoResolve, 0.93))

	require.Equal(t, ActionAutoResolve, action.Type)
	require.Equal(t, 0.93, action.Confidence)
	require.NotNil(t, action.AutoResolve)
	require.Nil(t, action.AgentReview)
	require.Nil(t, action.HumanReview)
	require.Nil(t, action.Escalate)
	require.True(t, action.AutoResolve.CloseTicket)
	require.True(t, action.AutoResolve.NotifyCustomer)
	require.Equal(t, "Please reset your password from the account page.", action.AutoResolve.ResponseContent)
}

func TestDetermineNextActionAgentReview(t *testing.T) {
	action := DetermineNextAction(suggestionWith(domain.RecommendationAgentReview, 0.74))

	require.Equal(t, ActionAgentReview, action.Type)
	require.NotNil(t, action.AgentReview)
	require.Nil(t, action.AutoResolve)
	require.Equal(t, QueueAIReview, action.AgentReview.Queue)
	require.Equal(t, domain.TicketPriorityNormal, action.AgentReview.Priority)
}

func TestDetermineNextActionHumanReview(t *testing.T) {
	action := DetermineNextAction(suggestionWith(domain.RecommendationHumanReview, 0.41))

	require.Equal(t, ActionHumanReview, action.Type)
	require.NotNil(t, action.HumanReview)
	require.Equal(t, QueueHumanReview, action.HumanReview.Queue)
	require.Equal(t, domain.TicketPriorityHigh, action.HumanReview.Priority)
}

func TestDetermineNextActionEscalate(t *testing.T) {
	action := DetermineNextAction(suggestionWith(domain.RecommendationEscalate, 0.12))

	require.Equal(t, ActionEscalate, action.Type)
	require.NotNil(t, action.Escalate)
	require.Equal(t, EscalationLevelSenior, action.Escalate.Level)
	require.Equal(t, domain.TicketPriorityUrgent, action.Escalate.Priority)
}

func TestDetermineNextActionUnknownRecommendation(t *testing.T) {
	action := DetermineNextAction(suggestionWith(domain.Recommendation("defer_to_wizard"), 0.5))

	require.Equal(t, ActionHumanReview, action.Type)
	require.NotNil(t, action.HumanReview)
	require.Nil(t, action.AutoResolve)
	require.Contains(t, action.Reasoning[0], "Unknown recommendation")
}

func TestDetermineNextActionMissingConfidence(t *testing.T) {
	action := DetermineNextAction(&domain.Suggestion{Status: domain.SuggestionStatusCompleted})

	require.Equal(t, ActionHumanReview, action.Type)
	require.Zero(t, action.Confidence)
}

func TestDetermineNextActionAutoResolveWithoutDraft(t *testing.T) {
	sug := suggestionWith(domain.RecommendationAutoResolve, 0.95)
	sug.DraftedResponse = nil
	action := DetermineNextAction(sug)

	require.Equal(t, ActionAutoResolve, action.Type)
	require.Empty(t, action.AutoResolve.ResponseContent)
}
