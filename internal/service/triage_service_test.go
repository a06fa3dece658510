package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/classifier"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/config"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/events"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/observability"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/repository"
	apperrors "github.com/akash-d122/agentic-helpdesk-sub002/pkg/util"
)

// ---- in-memory fakes ----

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := ticket
	return &copy, nil
}

func (r *fakeTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.ExternalKey == key {
			copy := ticket
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.Unassigned && ticket.AssigneeID != nil {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

type fakeSuggestionRepo struct {
	mu          sync.Mutex
	suggestions map[string]domain.Suggestion
	order       []string
}

func newFakeSuggestionRepo() *fakeSuggestionRepo {
	return &fakeSuggestionRepo{suggestions: make(map[string]domain.Suggestion)}
}

func (r *fakeSuggestionRepo) Create(_ context.Context, sug *domain.Suggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sug.ID = uuid.NewString()
	sug.CreatedAt = time.Now()
	sug.UpdatedAt = time.Now()
	r.suggestions[sug.ID] = *sug
	r.order = append(r.order, sug.ID)
	return nil
}

func (r *fakeSuggestionRepo) Update(_ context.Context, sug *domain.Suggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suggestions[sug.ID]; !ok {
		return pgx.ErrNoRows
	}
	sug.UpdatedAt = time.Now()
	r.suggestions[sug.ID] = *sug
	return nil
}

func (r *fakeSuggestionRepo) AppendAudit(_ context.Context, id string, entry domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sug, ok := r.suggestions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	sug.AuditTrail = append(sug.AuditTrail, entry)
	r.suggestions[id] = sug
	return nil
}

func (r *fakeSuggestionRepo) GetByID(_ context.Context, id string) (*domain.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sug, ok := r.suggestions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := sug
	return &copy, nil
}

func (r *fakeSuggestionRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Suggestion
	for _, id := range r.order {
		if r.suggestions[id].TicketID == ticketID {
			result = append(result, r.suggestions[id])
		}
	}
	return result, nil
}

func (r *fakeSuggestionRepo) LatestByTicket(ctx context.Context, ticketID string) (*domain.Suggestion, error) {
	list, _ := r.ListByTicket(ctx, ticketID)
	if len(list) == 0 {
		return nil, pgx.ErrNoRows
	}
	latest := list[len(list)-1]
	return &latest, nil
}

func (r *fakeSuggestionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.suggestions)
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []domain.TicketComment
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketComment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = time.Now()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) ListByTicketOfTypes(_ context.Context, ticketID string, types []domain.TicketChangeType) ([]domain.TicketHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID != ticketID {
			continue
		}
		for _, changeType := range types {
			if entry.ChangeType == changeType {
				result = append(result, entry)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) byChangeType(changeType domain.TicketChangeType) []domain.TicketHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.ChangeType == changeType {
			result = append(result, entry)
		}
	}
	return result
}

type fakeAgentRepo struct {
	available []domain.AgentWithWorkload
	err       error
}

func (r *fakeAgentRepo) Create(context.Context, *domain.Agent) error { return nil }
func (r *fakeAgentRepo) Update(context.Context, *domain.Agent) error { return nil }
func (r *fakeAgentRepo) GetByID(context.Context, string) (*domain.Agent, error) {
	return nil, pgx.ErrNoRows
}
func (r *fakeAgentRepo) GetByEmail(context.Context, string) (*domain.Agent, error) {
	return nil, pgx.ErrNoRows
}
func (r *fakeAgentRepo) List(context.Context, repository.AgentFilter) ([]domain.Agent, error) {
	return nil, nil
}
func (r *fakeAgentRepo) ListAvailable(_ context.Context, _ domain.AgentRole, limit int) ([]domain.AgentWithWorkload, error) {
	if r.err != nil {
		return nil, r.err
	}
	if limit < len(r.available) {
		return r.available[:limit], nil
	}
	return r.available, nil
}

type fakeClassifier struct {
	mu        sync.Mutex
	submits   int
	submitErr error
	pollErr   error
	status    classifier.Status
	gate      chan struct{}
}

func (c *fakeClassifier) Submit(_ context.Context, _ string, _ classifier.SubmitRequest) (classifier.JobHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitErr != nil {
		return "", c.submitErr
	}
	c.submits++
	return classifier.JobHandle(uuid.NewString()), nil
}

func (c *fakeClassifier) PollStatus(_ context.Context, _ string, _ classifier.JobHandle) (*classifier.Status, error) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pollErr != nil {
		return nil, c.pollErr
	}
	status := c.status
	return &status, nil
}

func (c *fakeClassifier) submitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submits
}

// ---- fixture ----

type triageFixture struct {
	service     *TriageService
	tickets     *fakeTicketRepo
	suggestions *fakeSuggestionRepo
	comments    *fakeCommentRepo
	history     *fakeHistoryRepo
	agents      *fakeAgentRepo
	capability  *fakeClassifier
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
}

func completedStatus(rec domain.Recommendation, calibrated float64, autoResolve bool) classifier.Status {
	return classifier.Status{
		State: classifier.JobStateCompleted,
		Result: &classifier.Result{
			Classification: domain.Classification{
				Category:   "billing",
				Priority:   domain.TicketPriorityNormal,
				Confidence: calibrated,
			},
			KnowledgeMatches: []domain.KnowledgeMatch{
				{ArticleID: "kb-42", Title: "Refund policy", Score: 0.88},
			},
			SuggestedResponse: domain.DraftedResponse{
				Content:    "Your refund was issued; allow 3-5 business days.",
				Type:       "resolution",
				Confidence: calibrated,
			},
			Confidence: domain.Confidence{
				Raw:            calibrated + 0.02,
				Calibrated:     calibrated,
				Recommendation: rec,
			},
			AutoResolve:      autoResolve,
			ProcessingTimeMS: 120,
		},
	}
}

func newTriageFixture(t *testing.T, capability *fakeClassifier) *triageFixture {
	t.Helper()
	f := &triageFixture{
		tickets:     newFakeTicketRepo(),
		suggestions: newFakeSuggestionRepo(),
		comments:    &fakeCommentRepo{},
		history:     &fakeHistoryRepo{},
		agents:      &fakeAgentRepo{},
		capability:  capability,
		dispatcher:  events.NewInMemoryDispatcher(zap.NewNop()),
		metrics:     observability.NewMetrics(),
	}
	cfg := config.TriageConfig{
		QueueName:        "test-queue",
		PollIntervalMS:   5,
		MaxWaitMS:        500,
		WaitAuditSeconds: 1,
	}
	f.service = NewTriageService(cfg, TriageDependencies{
		TicketRepo:     f.tickets,
		SuggestionRepo: f.suggestions,
		CommentRepo:    f.comments,
		HistoryRepo:    f.history,
		AgentRepo:      f.agents,
		Classifier:     f.capability,
		Dispatcher:     f.dispatcher,
		Logger:         zap.NewNop(),
		Metrics:        f.metrics,
	})
	return f
}

func (f *triageFixture) seedTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ExternalKey: "TCK-TEST0001",
		RequesterID: uuid.NewString(),
		Subject:     "Refund for duplicate charge",
		Description: "I was charged twice for my subscription.",
		Category:    "billing",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityNormal,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	return ticket
}

// ---- tests ----

func TestProcessTicketAutoResolve(t *testing.T) {
	capability := &fakeClassifier{status: completedStatus(domain.RecommendationAutoResolve, 0.94, true)}
	f := newTriageFixture(t, capability)
	ticket := f.seedTicket(t)

	var autoResolvedEvents int
	f.dispatcher.Subscribe(events.EventTicketAutoResolved, func(context.Context, events.Event) error {
		autoResolvedEvents++
		return nil
	})

	result, err := f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, ActionAutoResolve, result.Action.Type)
	require.True(t, result.ActionResult.AutoResolved)
	require.Len(t, result.Steps, 8)
	for _, step := range result.Steps {
		require.True(t, step.Success, step.Name)
	}

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusResolved, stored.Status)
	require.NotNil(t, stored.Resolution)
	require.Equal(t, domain.ResolutionTypeAIAutoResolved, stored.Resolution.Type)
	require.Nil(t, stored.Resolution.ResolverID)

	comments, err := f.comments.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, domain.AuthorTypeSystem, comments[0].AuthorType)
	require.Equal(t, domain.CommentTypePublicReply, comments[0].CommentType)

	sug, err := f.suggestions.LatestByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SuggestionStatusAutoApplied, sug.Status)
	require.True(t, sug.AutoResolve)
	require.NotEmpty(t, sug.AuditTrail)

	require.Len(t, f.history.byChangeType(domain.ChangeTypeStatus), 1)
	require.Len(t, f.history.byChangeType(domain.ChangeTypeResolution), 1)
	require.Equal(t, 1, autoResolvedEvents)
	require.Equal(t, int64(1), f.metrics.PipelineCount(string(ActionAutoResolve), true))
}

func TestProcessTicketAgentReviewAssigns(t *testing.T) {
	capability := &fakeClassifier{status: completedStatus(domain.RecommendationAgentReview, 0.72, false)}
	f := newTriageFixture(t, capability)
	agentID := uuid.NewString()
	f.agents.available = []domain.AgentWithWorkload{
		{Agent: domain.Agent{ID: agentID, Name: "Sam", Role: domain.AgentRoleAgent, Active: true}, OpenTickets: 2},
	}
	ticket := f.seedTicket(t)

	result, err := f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.NoError(t, err)
	require.Equal(t, ActionAgentReview, result.Action.Type)
	require.Equal(t, agentID, *result.ActionResult.AssignedTo)

	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	require.Equal(t, domain.TicketStatusInProgress, stored.Status)
	require.Equal(t, agentID, *stored.AssigneeID)
	require.Len(t, f.history.byChangeType(domain.ChangeTypeAssignee), 1)
}

func TestProcessTicketAgentReviewQueuesWhenNoAgents(t *testing.T) {
	capability := &fakeClassifier{status: completedStatus(domain.RecommendationAgentReview, 0.68, false)}
	f := newTriageFixture(t, capability)
	ticket := f.seedTicket(t)

	result, err := f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "queued", result.ActionResult.Status)
	require.Nil(t, result.ActionResult.AssignedTo)

	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	require.Equal(t, domain.TicketStatusTriaged, stored.Status)
	require.Nil(t, stored.AssigneeID)
}

func TestProcessTicketHumanReview(t *testing.T) {
	capability := &fakeClassifier{status: completedStatus(domain.RecommendationHumanReview, 0.40, false)}
	f := newTriageFixture(t, capability)
	ticket := f.seedTicket(t)

	result, err := f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.NoError(t, err)
	require.Equal(t, ActionHumanReview, result.Action.Type)

	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	require.Equal(t, domain.TicketStatusTriaged, stored.Status)
	require.Equal(t, domain.TicketPriorityHigh, stored.Priority)
}

func TestProcessTicketEscalate(t *testing.T) {
	capability := &fakeClassifier{status: completedStatus(domain.RecommendationEscalate, 0.10, false)}
	f := newTriageFixture(t, capability)
	ticket := f.seedTicket(t)

	result, err := f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.NoError(t, err)
	require.Equal(t, ActionEscalate, result.Action.Type)

	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	require.Equal(t, domain.TicketStatusEscalated, stored.Status)
	require.Equal(t, domain.TicketPriorityUrgent, stored.Priority)
	require.Len(t, f.history.byChangeType(domain.ChangeTypeEscalation), 1)
}

func TestProcessTicketNotFoundPersistsNothing(t *testing.T) {
	capability := &fakeClassifier{status: completedStatus(domain.RecommendationAutoResolve, 0.95, true)}
	f := newTriageFixture(t, capability)

	_, err := f.service.ProcessTicket(context.Background(), uuid.NewString(), ProcessOptions{})
	require.Error(t, err)
	require.Equal(t, "NOT_FOUND", apperrors.Code(err))
	require.Zero(t, f.suggestions.count())
	require.Zero(t, capability.submitCount())
}

func TestProcessTicketCapabilityFailure(t *testing.T) {
	capability := &fakeClassifier{status: classifier.Status{
		State:         classifier.JobStateFailed,
		FailureReason: "model backend unavailable",
	}}
	f := newTriageFixture(t, capability)
	ticket := f.seedTicket(t)

	_, err := f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.Error(t, err)
	require.Equal(t, "CAPABILITY_FAILURE", apperrors.Code(err))

	sug, err := f.suggestions.LatestByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SuggestionStatusFailed, sug.Status)
	require.NotEmpty(t, sug.Errors)

	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	require.Equal(t, domain.TicketStatusOpen, stored.Status)
}

func TestProcessTicketTimeout(t *testing.T) {
	capability := &fakeClassifier{status: classifier.Status{State: classifier.JobStatePending}}
	f := newTriageFixture(t, capability)
	f.service.cfg.MaxWaitMS = 30
	ticket := f.seedTicket(t)

	_, err := f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.Error(t, err)
	require.Equal(t, "TIMEOUT", apperrors.Code(err))

	sug, err := f.suggestions.LatestByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SuggestionStatusFailed, sug.Status)
}

func TestProcessTicketConcurrentCallsShareOneRun(t *testing.T) {
	capability := &fakeClassifier{
		status: completedStatus(domain.RecommendationHumanReview, 0.45, false),
		gate:   make(chan struct{}),
	}
	f := newTriageFixture(t, capability)
	ticket := f.seedTicket(t)

	const callers = 5
	var wg, started sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		started.Add(1)
		go func(idx int) {
			defer wg.Done()
			started.Done()
			_, errs[idx] = f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
		}(i)
	}

	started.Wait()
	require.Eventually(t, func() bool {
		return capability.submitCount() == 1
	}, time.Second, time.Millisecond)
	close(capability.gate)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, capability.submitCount())
	require.Equal(t, 1, f.suggestions.count())
}

func TestProcessTicketRerunCreatesFreshSuggestion(t *testing.T) {
	capability := &fakeClassifier{status: completedStatus(domain.RecommendationHumanReview, 0.45, false)}
	f := newTriageFixture(t, capability)
	ticket := f.seedTicket(t)

	_, err := f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.NoError(t, err)
	_, err = f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.NoError(t, err)

	list, err := f.suggestions.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotEqual(t, list[0].TraceID, list[1].TraceID)
}

func TestGetProcessingStatus(t *testing.T) {
	capability := &fakeClassifier{status: completedStatus(domain.RecommendationAutoResolve, 0.91, true)}
	f := newTriageFixture(t, capability)
	ticket := f.seedTicket(t)

	status, err := f.service.GetProcessingStatus(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, StatusNotProcessed, status.Status)

	_, err = f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.NoError(t, err)

	status, err = f.service.GetProcessingStatus(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, string(domain.SuggestionStatusAutoApplied), status.Status)
	require.Equal(t, domain.RecommendationAutoResolve, status.Recommendation)
	require.True(t, status.AutoResolve)
	require.NotEmpty(t, status.TraceID)
}

func TestProcessTicketSubmitFailureFailsSuggestion(t *testing.T) {
	capability := &fakeClassifier{submitErr: errors.New("queue unreachable")}
	f := newTriageFixture(t, capability)
	ticket := f.seedTicket(t)

	_, err := f.service.ProcessTicket(context.Background(), ticket.ID, ProcessOptions{})
	require.Error(t, err)
	require.Equal(t, "CAPABILITY_FAILURE", apperrors.Code(err))

	sug, err := f.suggestions.LatestByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SuggestionStatusFailed, sug.Status)
	require.Contains(t, sug.AuditTrail[len(sug.AuditTrail)-1].Detail, "Processing failed")
}
