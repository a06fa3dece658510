package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/events"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/repository"
	apperrors "github.com/akash-d122/agentic-helpdesk-sub002/pkg/util"
)

// AgentPoolService exposes the agent side of the review queues: who is
// available for assignment, what is waiting, and claiming tickets.
type AgentPoolService struct {
	tickets    repository.TicketRepository
	agents     repository.AgentRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
}

// AgentPoolDependencies bundles repositories.
type AgentPoolDependencies struct {
	TicketRepo  repository.TicketRepository
	AgentRepo   repository.AgentRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
}

// NewAgentPoolService creates the service.
func NewAgentPoolService(deps AgentPoolDependencies) *AgentPoolService {
	return &AgentPoolService{
		tickets:    deps.TicketRepo,
		agents:     deps.AgentRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// FindAvailableAgents lists active agents of the given role ordered by
// ascending open workload.
func (s *AgentPoolService) FindAvailableAgents(ctx context.Context, role domain.AgentRole, limit int) ([]domain.AgentWithWorkload, error) {
	agents, err := s.agents.ListAvailable(ctx, role, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// ReviewQueue lists unassigned tickets parked by the workflow, oldest
// updates last.
func (s *AgentPoolService) ReviewQueue(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Unassigned: true,
		Statuses: []domain.TicketStatus{
			domain.TicketStatusTriaged,
			domain.TicketStatusWaitingHuman,
			domain.TicketStatusEscalated,
		},
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ClaimTicket assigns a queued ticket to the calling agent and moves it to
// in-progress.
func (s *AgentPoolService) ClaimTicket(ctx context.Context, agent *domain.Agent, ticketID string) (*domain.Ticket, error) {
	if agent == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	if !agent.Active {
		return nil, apperrors.NewForbidden("inactive agents cannot claim tickets")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.AssigneeID != nil && *ticket.AssigneeID != agent.ID {
		return nil, apperrors.NewConflict("ticket already assigned", map[string]any{"ticket_id": ticketID})
	}

	oldAssignee := ticket.AssigneeID
	oldStatus := ticket.Status
	ticket.AssigneeID = &agent.ID
	ticket.Status = domain.TicketStatusInProgress
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.history.Create(ctx, &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: domain.AuthorTypeAgent,
		ChangedByID:   &agent.ID,
		ChangeType:    domain.ChangeTypeAssignee,
		OldValue:      map[string]any{"assignee_agent_id": oldAssignee},
		NewValue:      map[string]any{"assignee_agent_id": ticket.AssigneeID},
	}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if oldStatus != ticket.Status {
		if err := s.history.Create(ctx, &domain.TicketHistory{
			TicketID:      ticket.ID,
			ChangedByType: domain.AuthorTypeAgent,
			ChangedByID:   &agent.ID,
			ChangeType:    domain.ChangeTypeStatus,
			OldValue:      map[string]any{"status": oldStatus},
			NewValue:      map[string]any{"status": ticket.Status, "comment": "agent_claimed"},
		}); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	s.publishAssignment(ctx, agent.ID, ticket)
	return ticket, nil
}

func (s *AgentPoolService) publishAssignment(ctx context.Context, agentID string, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		Actor:     agentActor(agentID),
		Timestamp: time.Now(),
		Payload: events.TicketAssignedPayload{
			AssigneeAgentID: ticket.AssigneeID,
		},
	})
}
