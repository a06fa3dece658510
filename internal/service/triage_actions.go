package service

import (
	"context"
	"fmt"
	"time"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/events"
	apperrors "github.com/akash-d122/agentic-helpdesk-sub002/pkg/util"
)

// ActionResult reports what an action executor actually did.
type ActionResult struct {
	Action       ActionType     `json:"action"`
	Success      bool           `json:"success"`
	AutoResolved bool           `json:"auto_resolved"`
	AssignedTo   *string        `json:"assigned_to,omitempty"`
	Status       string         `json:"status,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

func (s *TriageService) executeAction(ctx context.Context, ticket *domain.Ticket, sug *domain.Suggestion, action *Action) (*ActionResult, error) {
	switch action.Type {
	case ActionAutoResolve:
		return s.executeAutoResolve(ctx, ticket, sug, action)
	case ActionAgentReview:
		return s.executeAgentReview(ctx, ticket, sug, action)
	case ActionHumanReview:
		return s.executeHumanReview(ctx, ticket, sug, action)
	case ActionEscalate:
		return s.executeEscalate(ctx, ticket, sug, action)
	default:
		return nil, apperrors.NewActionFailure(fmt.Sprintf("no executor for action %s", action.Type), nil)
	}
}

// executeAutoResolve posts the drafted response as a public reply, resolves
// the ticket with an AI resolution record, and marks the suggestion applied.
func (s *TriageService) executeAutoResolve(ctx context.Context, ticket *domain.Ticket, sug *domain.Suggestion, action *Action) (*ActionResult, error) {
	params := action.AutoResolve

	comment := &domain.TicketComment{
		TicketID:    ticket.ID,
		AuthorType:  domain.AuthorTypeSystem,
		CommentType: domain.CommentTypePublicReply,
		Body:        params.ResponseContent,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.NewActionFailure("failed to post auto-resolution response", err)
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusResolved
	ticket.Resolution = &domain.TicketResolution{
		Type:       domain.ResolutionTypeAIAutoResolved,
		Content:    params.ResponseContent,
		ResolvedAt: time.Now(),
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewActionFailure("failed to resolve ticket", err)
	}

	if err := s.recordStatusChange(ctx, ticket.ID, oldStatus, ticket.Status); err != nil {
		return nil, err
	}
	if err := s.history.Create(ctx, &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: domain.AuthorTypeSystem,
		ChangeType:    domain.ChangeTypeResolution,
		OldValue:      map[string]any{"resolution": nil},
		NewValue:      map[string]any{"resolution": "AI_AUTO_RESOLVED"},
	}); err != nil {
		return nil, apperrors.NewActionFailure("failed to record resolution history", err)
	}

	if err := sug.SetStatus(domain.SuggestionStatusAutoApplied); err != nil {
		return nil, apperrors.NewActionFailure("suggestion not in applicable state", err)
	}
	sug.AppendAudit(nil, "Auto-resolved ticket with drafted response")
	if err := s.suggestions.Update(ctx, sug); err != nil {
		return nil, apperrors.NewActionFailure("failed to mark suggestion applied", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAutoResolved,
		TicketID: ticket.ID,
		TraceID:  sug.TraceID,
		Actor:    events.SystemActor(),
		Payload: events.TicketAutoResolvedPayload{
			SuggestionID:    sug.ID,
			ResponseContent: params.ResponseContent,
			Confidence:      action.Confidence,
			NotifyCustomer:  params.NotifyCustomer,
		},
	})

	return &ActionResult{
		Action:       ActionAutoResolve,
		Success:      true,
		AutoResolved: true,
		Status:       string(ticket.Status),
		Details:      map[string]any{"notify_customer": params.NotifyCustomer},
	}, nil
}

// executeAgentReview assigns the ticket to the least-loaded active agent. With
// no agent available the ticket is parked unassigned in the review queue; that
// is a successful outcome, not a failure.
func (s *TriageService) executeAgentReview(ctx context.Context, ticket *domain.Ticket, sug *domain.Suggestion, action *Action) (*ActionResult, error) {
	params := action.AgentReview

	candidates, err := s.agents.ListAvailable(ctx, domain.AgentRoleAgent, 1)
	if err != nil {
		return nil, apperrors.NewActionFailure("failed to query available agents", err)
	}

	oldStatus := ticket.Status
	if len(candidates) == 0 {
		ticket.Status = domain.TicketStatusTriaged
		ticket.Priority = params.Priority
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.NewActionFailure("failed to queue ticket for agent review", err)
		}
		if err := s.recordStatusChange(ctx, ticket.ID, oldStatus, ticket.Status); err != nil {
			return nil, err
		}
		sug.AppendAudit(nil, fmt.Sprintf("No agent available, ticket queued in %s", params.Queue))
		if err := s.suggestions.Update(ctx, sug); err != nil {
			return nil, apperrors.NewActionFailure("failed to update suggestion", err)
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketQueued,
			TicketID: ticket.ID,
			TraceID:  sug.TraceID,
			Actor:    events.SystemActor(),
			Payload: events.TicketQueuedPayload{
				Queue:    params.Queue,
				Priority: params.Priority,
				Reason:   "no agent available",
			},
		})
		return &ActionResult{
			Action:  ActionAgentReview,
			Success: true,
			Status:  "queued",
			Details: map[string]any{"queue": params.Queue},
		}, nil
	}

	assignee := candidates[0]
	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = &assignee.ID
	ticket.Status = domain.TicketStatusInProgress
	ticket.Priority = params.Priority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewActionFailure("failed to assign ticket", err)
	}
	if err := s.recordStatusChange(ctx, ticket.ID, oldStatus, ticket.Status); err != nil {
		return nil, err
	}
	if err := s.recordAssigneeChange(ctx, ticket.ID, oldAssignee, ticket.AssigneeID); err != nil {
		return nil, err
	}
	sug.AppendAudit(nil, fmt.Sprintf("Assigned to agent %s for review (%d open tickets)", assignee.ID, assignee.OpenTickets))
	if err := s.suggestions.Update(ctx, sug); err != nil {
		return nil, apperrors.NewActionFailure("failed to update suggestion", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		TraceID:  sug.TraceID,
		Actor:    events.SystemActor(),
		Payload: events.TicketAssignedPayload{
			AssigneeAgentID: ticket.AssigneeID,
			Queue:           params.Queue,
		},
	})

	return &ActionResult{
		Action:     ActionAgentReview,
		Success:    true,
		AssignedTo: ticket.AssigneeID,
		Status:     string(ticket.Status),
	}, nil
}

// executeHumanReview parks the ticket triaged and unassigned at the
// recommended priority for manual pickup.
func (s *TriageService) executeHumanReview(ctx context.Context, ticket *domain.Ticket, sug *domain.Suggestion, action *Action) (*ActionResult, error) {
	params := action.HumanReview

	oldStatus := ticket.Status
	oldPriority := ticket.Priority
	ticket.Status = domain.TicketStatusTriaged
	ticket.Priority = params.Priority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewActionFailure("failed to route ticket to human review", err)
	}
	if err := s.recordStatusChange(ctx, ticket.ID, oldStatus, ticket.Status); err != nil {
		return nil, err
	}
	if oldPriority != ticket.Priority {
		if err := s.recordPriorityChange(ctx, ticket.ID, oldPriority, ticket.Priority); err != nil {
			return nil, err
		}
	}
	sug.AppendAudit(nil, "Queued for human review, low AI confidence")
	if err := s.suggestions.Update(ctx, sug); err != nil {
		return nil, apperrors.NewActionFailure("failed to update suggestion", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketQueued,
		TicketID: ticket.ID,
		TraceID:  sug.TraceID,
		Actor:    events.SystemActor(),
		Payload: events.TicketQueuedPayload{
			Queue:    params.Queue,
			Priority: params.Priority,
			Reason:   "low AI confidence",
		},
	})

	return &ActionResult{
		Action:  ActionHumanReview,
		Success: true,
		Status:  string(ticket.Status),
		Details: map[string]any{"queue": params.Queue},
	}, nil
}

// executeEscalate raises the ticket to urgent and marks it escalated for a
// senior agent.
func (s *TriageService) executeEscalate(ctx context.Context, ticket *domain.Ticket, sug *domain.Suggestion, action *Action) (*ActionResult, error) {
	params := action.Escalate

	oldStatus := ticket.Status
	oldPriority := ticket.Priority
	ticket.Status = domain.TicketStatusEscalated
	ticket.Priority = params.Priority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewActionFailure("failed to escalate ticket", err)
	}
	if err := s.recordStatusChange(ctx, ticket.ID, oldStatus, ticket.Status); err != nil {
		return nil, err
	}
	if oldPriority != ticket.Priority {
		if err := s.recordPriorityChange(ctx, ticket.ID, oldPriority, ticket.Priority); err != nil {
			return nil, err
		}
	}
	if err := s.history.Create(ctx, &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: domain.AuthorTypeSystem,
		ChangeType:    domain.ChangeTypeEscalation,
		OldValue:      map[string]any{"level": nil},
		NewValue:      map[string]any{"level": params.Level, "reason": "very low AI confidence"},
	}); err != nil {
		return nil, apperrors.NewActionFailure("failed to record escalation history", err)
	}
	sug.AppendAudit(nil, fmt.Sprintf("Escalated to %s, very low AI confidence", params.Level))
	if err := s.suggestions.Update(ctx, sug); err != nil {
		return nil, apperrors.NewActionFailure("failed to update suggestion", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticket.ID,
		TraceID:  sug.TraceID,
		Actor:    events.SystemActor(),
		Payload: events.TicketEscalatedPayload{
			Level:  params.Level,
			Reason: "very low AI confidence",
		},
	})

	return &ActionResult{
		Action:  ActionEscalate,
		Success: true,
		Status:  string(ticket.Status),
		Details: map[string]any{"level": params.Level},
	}, nil
}

func (s *TriageService) recordStatusChange(ctx context.Context, ticketID string, from, to domain.TicketStatus) error {
	if from == to {
		return nil
	}
	if err := s.history.Create(ctx, &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.AuthorTypeSystem,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": string(from)},
		NewValue:      map[string]any{"status": string(to)},
	}); err != nil {
		return apperrors.NewActionFailure("failed to record status history", err)
	}
	return nil
}

func (s *TriageService) recordAssigneeChange(ctx context.Context, ticketID string, from, to *string) error {
	oldVal := map[string]any{"assignee_agent_id": nil}
	if from != nil {
		oldVal["assignee_agent_id"] = *from
	}
	newVal := map[string]any{"assignee_agent_id": nil}
	if to != nil {
		newVal["assignee_agent_id"] = *to
	}
	if err := s.history.Create(ctx, &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.AuthorTypeSystem,
		ChangeType:    domain.ChangeTypeAssignee,
		OldValue:      oldVal,
		NewValue:      newVal,
	}); err != nil {
		return apperrors.NewActionFailure("failed to record assignee history", err)
	}
	return nil
}

func (s *TriageService) recordPriorityChange(ctx context.Context, ticketID string, from, to domain.TicketPriority) error {
	if err := s.history.Create(ctx, &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.AuthorTypeSystem,
		ChangeType:    domain.ChangeTypePriority,
		OldValue:      map[string]any{"priority": string(from)},
		NewValue:      map[string]any{"priority": string(to)},
	}); err != nil {
		return apperrors.NewActionFailure("failed to record priority history", err)
	}
	return nil
}
