package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/events"
)

type ticketFixture struct {
	service  *TicketService
	tickets  *fakeTicketRepo
	comments *fakeCommentRepo
	history  *fakeHistoryRepo
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	f := &ticketFixture{
		tickets:  newFakeTicketRepo(),
		comments: &fakeCommentRepo{},
		history:  &fakeHistoryRepo{},
	}
	f.service = NewTicketService(TicketDependencies{
		TicketRepo:  f.tickets,
		CommentRepo: f.comments,
		HistoryRepo: f.history,
		Dispatcher:  events.NewInMemoryDispatcher(zap.NewNop()),
	})
	return f
}

func testAgent() *domain.Agent {
	return &domain.Agent{ID: uuid.NewString(), Name: "Dana", Role: domain.AgentRoleAgent, Active: true}
}

func (f *ticketFixture) seedWithStatus(t *testing.T, userID string, status domain.TicketStatus) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ExternalKey: "TCK-" + strings.ToUpper(uuid.NewString()[:8]),
		RequesterID: userID,
		Subject:     "VPN keeps disconnecting",
		Status:      status,
		Priority:    domain.TicketPriorityNormal,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	return ticket
}

func TestCreateTicketDefaults(t *testing.T) {
	f := newTicketFixture(t)
	userID := uuid.NewString()

	var created int
	f.service.dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		created++
		return nil
	})

	ticket, err := f.service.CreateTicket(context.Background(), userID, TicketCreateInput{
		Subject:     "  Printer jam on floor 3  ",
		Description: "Paper tray 2 keeps jamming.",
		Category:    "hardware",
	})
	require.NoError(t, err)
	require.Equal(t, "Printer jam on floor 3", ticket.Subject)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.Equal(t, domain.TicketPriorityNormal, ticket.Priority)
	require.Regexp(t, `^TCK-[0-9A-F]{8}$`, ticket.ExternalKey)
	require.Equal(t, 1, created)
}

func TestCreateTicketRequiresSubject(t *testing.T) {
	f := newTicketFixture(t)
	_, err := f.service.CreateTicket(context.Background(), uuid.NewString(), TicketCreateInput{Subject: "   "})
	require.Error(t, err)
}

func TestGetTicketForUserHidesInternalNotes(t *testing.T) {
	f := newTicketFixture(t)
	userID := uuid.NewString()
	ticket := f.seedWithStatus(t, userID, domain.TicketStatusInProgress)
	agent := testAgent()

	_, err := f.service.AddComment(context.Background(), domain.SubjectTypeUser, userID, nil, ticket.ID, domain.CommentTypePublicReply, "Any update?")
	require.NoError(t, err)
	_, err = f.service.AddComment(context.Background(), domain.SubjectTypeAgent, agent.ID, agent, ticket.ID, domain.CommentTypeInternalNote, "Checking with networking team")
	require.NoError(t, err)

	_, userThread, err := f.service.GetTicketForUser(context.Background(), userID, ticket.ID)
	require.NoError(t, err)
	require.Len(t, userThread, 1)
	require.Equal(t, domain.CommentTypePublicReply, userThread[0].CommentType)

	_, agentThread, err := f.service.GetTicketForAgent(context.Background(), agent, ticket.ID)
	require.NoError(t, err)
	require.Len(t, agentThread, 2)
}

func TestGetTicketForUserEnforcesOwnership(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.seedWithStatus(t, uuid.NewString(), domain.TicketStatusOpen)

	_, _, err := f.service.GetTicketForUser(context.Background(), uuid.NewString(), ticket.ID)
	require.Error(t, err)
}

func TestAddCommentRejectsUserInternalNote(t *testing.T) {
	f := newTicketFixture(t)
	userID := uuid.NewString()
	ticket := f.seedWithStatus(t, userID, domain.TicketStatusOpen)

	_, err := f.service.AddComment(context.Background(), domain.SubjectTypeUser, userID, nil, ticket.ID, domain.CommentTypeInternalNote, "sneaky")
	require.Error(t, err)
}

func TestCloseTicketAsUser(t *testing.T) {
	f := newTicketFixture(t)
	userID := uuid.NewString()

	resolved := f.seedWithStatus(t, userID, domain.TicketStatusResolved)
	closed, err := f.service.CloseTicketAsUser(context.Background(), userID, resolved.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.Len(t, f.history.byChangeType(domain.ChangeTypeStatus), 1)

	open := f.seedWithStatus(t, userID, domain.TicketStatusOpen)
	_, err = f.service.CloseTicketAsUser(context.Background(), userID, open.ID)
	require.Error(t, err)
}

func TestUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		from  domain.TicketStatus
		to    domain.TicketStatus
		valid bool
	}{
		{domain.TicketStatusOpen, domain.TicketStatusTriaged, true},
		{domain.TicketStatusOpen, domain.TicketStatusResolved, false},
		{domain.TicketStatusTriaged, domain.TicketStatusInProgress, true},
		{domain.TicketStatusInProgress, domain.TicketStatusResolved, true},
		{domain.TicketStatusWaitingCustomer, domain.TicketStatusInProgress, true},
		{domain.TicketStatusEscalated, domain.TicketStatusResolved, true},
		{domain.TicketStatusResolved, domain.TicketStatusInProgress, true},
		{domain.TicketStatusClosed, domain.TicketStatusInProgress, false},
		{domain.TicketStatusClosed, domain.TicketStatusOpen, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			f := newTicketFixture(t)
			ticket := f.seedWithStatus(t, uuid.NewString(), tc.from)

			updated, err := f.service.UpdateStatus(context.Background(), testAgent(), ticket.ID, tc.to, "moving along")
			if tc.valid {
				require.NoError(t, err)
				require.Equal(t, tc.to, updated.Status)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestUpdateStatusResolveRecordsAgentResolution(t *testing.T) {
	f := newTicketFixture(t)
	agent := testAgent()
	ticket := f.seedWithStatus(t, uuid.NewString(), domain.TicketStatusInProgress)

	updated, err := f.service.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusResolved, "replaced the cable")
	require.NoError(t, err)
	require.NotNil(t, updated.Resolution)
	require.Equal(t, domain.ResolutionTypeAgentResolved, updated.Resolution.Type)
	require.Equal(t, "replaced the cable", updated.Resolution.Content)
	require.Equal(t, agent.ID, *updated.Resolution.ResolverID)
}

func TestListHistoryForUserFiltersEntries(t *testing.T) {
	f := newTicketFixture(t)
	userID := uuid.NewString()
	agent := testAgent()
	ticket := f.seedWithStatus(t, userID, domain.TicketStatusInProgress)

	_, err := f.service.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusResolved, "fixed")
	require.NoError(t, err)
	_, err = f.service.UpdatePriority(context.Background(), agent, ticket.ID, domain.TicketPriorityLow)
	require.NoError(t, err)

	userHistory, err := f.service.ListHistoryForUser(context.Background(), userID, ticket.ID)
	require.NoError(t, err)
	require.Len(t, userHistory, 1)
	require.Equal(t, domain.ChangeTypeStatus, userHistory[0].ChangeType)

	agentHistory, err := f.service.ListHistoryForAgent(context.Background(), agent, ticket.ID)
	require.NoError(t, err)
	require.Len(t, agentHistory, 2)
}
