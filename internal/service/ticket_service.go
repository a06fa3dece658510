package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/events"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/repository"
)

// TicketService coordinates ticket workflows outside the AI pipeline.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.TicketCommentRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	Category    string
	Priority    domain.TicketPriority
	Tags        []string
	Attachments []domain.TicketAttachment
}

// TicketUserFilter describes end-user listing filters.
type TicketUserFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket creates a ticket for a user and announces it. The processing
// worker listens for the created event and triggers auto-triage when enabled.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, errors.New("subject is required")
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		RequesterID: userID,
		Subject:     subject,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Tags:        input.Tags,
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		Attachments: input.Attachments,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityNormal
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketCreatedPayload{
			Subject:  ticket.Subject,
			Category: ticket.Category,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// ListUserTickets returns paginated tickets for a requester.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, filter TicketUserFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		RequesterID: &userID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
}

// GetTicketForUser fetches a ticket ensuring ownership. Internal notes are
// filtered from the returned thread.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, []domain.TicketComment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.RequesterID != userID {
		return nil, nil, errors.New("access denied")
	}
	comments, err := s.visibleCommentsForUser(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, comments, nil
}

// GetTicketForAgent fetches a ticket with its full thread, internal notes
// included.
func (s *TicketService) GetTicketForAgent(ctx context.Context, agent *domain.Agent, ticketID string) (*domain.Ticket, []domain.TicketComment, error) {
	if agent == nil {
		return nil, nil, errors.New("agent required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, comments, nil
}

// AddComment appends a comment to a ticket thread.
func (s *TicketService) AddComment(ctx context.Context, actor domain.SubjectType, actorID string, agent *domain.Agent, ticketID string, commentType domain.TicketCommentType, body string) (*domain.TicketComment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	switch actor {
	case domain.SubjectTypeUser:
		if ticket.RequesterID != actorID {
			return nil, errors.New("access denied")
		}
		if commentType != domain.CommentTypePublicReply {
			return nil, errors.New("users can only post public replies")
		}
	case domain.SubjectTypeAgent:
		if agent == nil {
			return nil, errors.New("agent context required")
		}
		if commentType != domain.CommentTypePublicReply && commentType != domain.CommentTypeInternalNote {
			return nil, errors.New("invalid comment type for agent")
		}
	default:
		return nil, errors.New("unknown actor")
	}

	comment := &domain.TicketComment{
		TicketID:    ticket.ID,
		CommentType: commentType,
		Body:        strings.TrimSpace(body),
	}
	if actor == domain.SubjectTypeUser {
		comment.AuthorType = domain.AuthorTypeUser
		authorID := ticket.RequesterID
		comment.AuthorID = &authorID
	} else {
		comment.AuthorType = domain.AuthorTypeAgent
		comment.AuthorID = &agent.ID
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		Actor:    actorFromSubject(actor, actorID),
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			CommentType: comment.CommentType,
			AuthorType:  comment.AuthorType,
			AuthorID:    comment.AuthorID,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// CloseTicketAsUser closes a ticket from a closeable state.
func (s *TicketService) CloseTicketAsUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, errors.New("access denied")
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusWaitingCustomer {
		return nil, errors.New("ticket cannot be closed in current status")
	}
	now := time.Now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordStatusChange(ctx, domain.AuthorTypeUser, &userID, ticket.ID, oldStatus, ticket.Status, "user_closed"); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   "user_closed",
		},
	})
	return ticket, nil
}

// UpdateStatus updates ticket status by an agent. Resolving records an
// agent resolution with the closing comment as its content.
func (s *TicketService) UpdateStatus(ctx context.Context, agent *domain.Agent, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if agent == nil {
		return nil, errors.New("agent required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, errors.New("invalid status transition")
	}
	oldStatus := ticket.Status
	switch newStatus {
	case domain.TicketStatusClosed:
		now := time.Now()
		ticket.ClosedAt = &now
	case domain.TicketStatusResolved:
		ticket.Resolution = &domain.TicketResolution{
			Type:       domain.ResolutionTypeAgentResolved,
			Content:    comment,
			ResolverID: &agent.ID,
			ResolvedAt: time.Now(),
		}
	default:
		ticket.ClosedAt = nil
	}
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordStatusChange(ctx, domain.AuthorTypeAgent, &agent.ID, ticket.ID, oldStatus, newStatus, comment); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    agentActor(agent.ID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// UpdatePriority changes ticket priority by an agent.
func (s *TicketService) UpdatePriority(ctx context.Context, agent *domain.Agent, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if agent == nil {
		return nil, errors.New("agent required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	entry := &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: domain.AuthorTypeAgent,
		ChangedByID:   &agent.ID,
		ChangeType:    domain.ChangeTypePriority,
		OldValue:      map[string]any{"priority": oldPriority},
		NewValue:      map[string]any{"priority": newPriority},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    agentActor(agent.ID),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return ticket, nil
}

// ListHistoryForUser returns user-safe history entries for an owned ticket.
func (s *TicketService) ListHistoryForUser(ctx context.Context, userID, ticketID string) ([]domain.TicketHistory, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, errors.New("access denied")
	}
	return s.history.ListByTicketOfTypes(ctx, ticketID, []domain.TicketChangeType{
		domain.ChangeTypeStatus,
		domain.ChangeTypeResolution,
	})
}

// ListHistoryForAgent returns the full audit trail for a ticket.
func (s *TicketService) ListHistoryForAgent(ctx context.Context, agent *domain.Agent, ticketID string) ([]domain.TicketHistory, error) {
	if agent == nil {
		return nil, errors.New("agent required")
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID)
}

func (s *TicketService) visibleCommentsForUser(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.TicketComment, 0, len(comments))
	for _, comment := range comments {
		if comment.CommentType == domain.CommentTypeInternalNote {
			continue
		}
		filtered = append(filtered, comment)
	}
	return filtered, nil
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.SubjectTypeUser,
		UserID: &userID,
	}
}

func agentActor(agentID string) events.Actor {
	return events.Actor{
		Type:    domain.SubjectTypeAgent,
		AgentID: &agentID,
	}
}

func actorFromSubject(subject domain.SubjectType, id string) events.Actor {
	switch subject {
	case domain.SubjectTypeAgent:
		return agentActor(id)
	default:
		return userActor(id)
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:            {domain.TicketStatusTriaged, domain.TicketStatusInProgress},
	domain.TicketStatusTriaged:         {domain.TicketStatusInProgress, domain.TicketStatusWaitingHuman, domain.TicketStatusEscalated},
	domain.TicketStatusWaitingHuman:    {domain.TicketStatusInProgress, domain.TicketStatusEscalated},
	domain.TicketStatusInProgress:      {domain.TicketStatusWaitingCustomer, domain.TicketStatusResolved, domain.TicketStatusEscalated},
	domain.TicketStatusWaitingCustomer: {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusEscalated:       {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusResolved:        {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:          {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *TicketService) recordStatusChange(ctx context.Context, actorType domain.CommentAuthorType, actorID *string, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string) error {
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status":  newStatus,
			"comment": comment,
		},
	}
	return s.history.Create(ctx, entry)
}
