package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/classifier"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/config"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/events"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/observability"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/repository"
	apperrors "github.com/akash-d122/agentic-helpdesk-sub002/pkg/util"
)

// TriageService runs the confidence-gated auto-resolution workflow: it
// classifies a new ticket, drafts a response, and routes the ticket to one of
// four dispositions based on the calibrated confidence recommendation. Every
// run leaves a durable suggestion record whose audit trail reconstructs the
// pipeline step by step.
type TriageService struct {
	tickets     repository.TicketRepository
	suggestions repository.SuggestionRepository
	comments    repository.TicketCommentRepository
	history     repository.TicketHistoryRepository
	agents      repository.AgentRepository
	classifier  classifier.Client
	dispatcher  events.Dispatcher
	registry    *ProcessingRegistry
	logger      *zap.Logger
	metrics     *observability.Metrics
	cfg         config.TriageConfig
}

// TriageDependencies bundles collaborators for the triage service.
type TriageDependencies struct {
	TicketRepo     repository.TicketRepository
	SuggestionRepo repository.SuggestionRepository
	CommentRepo    repository.TicketCommentRepository
	HistoryRepo    repository.TicketHistoryRepository
	AgentRepo      repository.AgentRepository
	Classifier     classifier.Client
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// ProcessOptions tunes a single processing request.
type ProcessOptions struct {
	Priority domain.TicketPriority
}

// ProcessingStatus is the read-only answer to "what happened to this ticket".
type ProcessingStatus struct {
	Status         string                 `json:"status"`
	SuggestionID   string                 `json:"suggestion_id,omitempty"`
	TraceID        string                 `json:"trace_id,omitempty"`
	Confidence     *domain.Confidence     `json:"confidence,omitempty"`
	Recommendation domain.Recommendation  `json:"recommendation,omitempty"`
	AutoResolve    bool                   `json:"auto_resolve"`
	CreatedAt      *time.Time             `json:"created_at,omitempty"`
}

// StatusNotProcessed is reported when a ticket has no suggestion records.
const StatusNotProcessed = "not_processed"

// NewTriageService constructs the service.
func NewTriageService(cfg config.TriageConfig, deps TriageDependencies) *TriageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriageService{
		tickets:     deps.TicketRepo,
		suggestions: deps.SuggestionRepo,
		comments:    deps.CommentRepo,
		history:     deps.HistoryRepo,
		agents:      deps.AgentRepo,
		classifier:  deps.Classifier,
		dispatcher:  deps.Dispatcher,
		registry:    NewProcessingRegistry(),
		logger:      logger,
		metrics:     deps.Metrics,
		cfg:         cfg,
	}
}

// Registry exposes the in-flight guard, mainly for status introspection.
func (s *TriageService) Registry() *ProcessingRegistry {
	return s.registry
}

// ProcessTicket runs the pipeline for one ticket. Concurrent calls for the
// same ticket id join the in-flight run and observe its result; the slot is
// released when the run finishes, so a later call starts a fresh attempt with
// a fresh suggestion record.
func (s *TriageService) ProcessTicket(ctx context.Context, ticketID string, opts ProcessOptions) (*PipelineResult, error) {
	result, shared, err := s.registry.Submit(ticketID, func() (*PipelineResult, error) {
		return s.runPipeline(ctx, ticketID, opts)
	})
	if shared {
		s.logger.Debug("joined in-flight processing run", zap.String("ticket_id", ticketID))
	}
	return result, err
}

// GetProcessingStatus reports the latest suggestion for a ticket. It never
// triggers processing.
func (s *TriageService) GetProcessingStatus(ctx context.Context, ticketID string) (*ProcessingStatus, error) {
	sug, err := s.suggestions.LatestByTicket(ctx, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &ProcessingStatus{Status: StatusNotProcessed}, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	status := &ProcessingStatus{
		Status:       string(sug.Status),
		SuggestionID: sug.ID,
		TraceID:      sug.TraceID,
		AutoResolve:  sug.AutoResolve,
		CreatedAt:    &sug.CreatedAt,
	}
	if sug.Confidence != nil {
		status.Confidence = sug.Confidence
		status.Recommendation = sug.Confidence.Recommendation
	}
	return status, nil
}

func (s *TriageService) runPipeline(ctx context.Context, ticketID string, opts ProcessOptions) (*PipelineResult, error) {
	started := time.Now()
	result := &PipelineResult{TicketID: ticketID, TraceID: uuid.NewString()}

	var ticket *domain.Ticket
	if err := result.runStep(stepLoadTicket, func() error {
		loaded, err := s.tickets.GetByID(ctx, ticketID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		if err != nil {
			return apperrors.MapError(err)
		}
		ticket = loaded
		return nil
	}); err != nil {
		// nothing persisted yet; the ticket was never ours to touch
		return s.finish(result, started, err)
	}

	var sug *domain.Suggestion
	if err := result.runStep(stepCreateSuggestion, func() error {
		sug = &domain.Suggestion{
			TicketID: ticket.ID,
			TraceID:  result.TraceID,
			Type:     domain.SuggestionTypeFullProcessing,
			Status:   domain.SuggestionStatusProcessing,
			Snapshot: domain.TicketSnapshot{
				Subject:     ticket.Subject,
				Description: ticket.Description,
				Category:    ticket.Category,
				Attachments: ticket.Attachments,
			},
		}
		sug.AppendAudit(nil, "Processing started")
		if err := s.suggestions.Create(ctx, sug); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	}); err != nil {
		return s.finish(result, started, err)
	}

	var handle classifier.JobHandle
	if err := result.runStep(stepSubmitClassification, func() error {
		priorityHint := opts.Priority
		if priorityHint == "" {
			priorityHint = ticket.Priority
		}
		h, err := s.classifier.Submit(ctx, s.cfg.QueueName, classifier.SubmitRequest{
			TicketID:     ticket.ID,
			Subject:      ticket.Subject,
			Description:  ticket.Description,
			Category:     ticket.Category,
			PriorityHint: priorityHint,
		})
		if err != nil {
			return apperrors.NewCapabilityFailure("classification submit failed", map[string]any{"error": err.Error()})
		}
		handle = h
		sug.AppendAudit(nil, fmt.Sprintf("Submitted for classification on queue %q", s.cfg.QueueName))
		return nil
	}); err != nil {
		s.failSuggestion(ctx, sug, err)
		return s.finish(result, started, err)
	}

	var capResult *classifier.Result
	if err := result.runStep(stepWaitForCompletion, func() error {
		res, err := s.waitForCompletion(ctx, sug, handle)
		if err != nil {
			return err
		}
		capResult = res
		return nil
	}); err != nil {
		s.failSuggestion(ctx, sug, err)
		return s.finish(result, started, err)
	}

	if err := result.runStep(stepUpdateSuggestion, func() error {
		classification := capResult.Classification
		response := capResult.SuggestedResponse
		confidence := capResult.Confidence
		sug.Classification = &classification
		sug.KnowledgeMatches = capResult.KnowledgeMatches
		sug.DraftedResponse = &response
		sug.Confidence = &confidence
		sug.AutoResolve = capResult.AutoResolve
		if capResult.AutoResolve {
			sug.AutoResolveReason = fmt.Sprintf("calibrated confidence %.2f meets auto-resolve bar", confidence.Calibrated)
		}
		sug.ProcessingTimeMS = capResult.ProcessingTimeMS
		if err := sug.SetStatus(domain.SuggestionStatusCompleted); err != nil {
			return apperrors.NewInternalError(err)
		}
		sug.AppendAudit(nil, fmt.Sprintf("Classification completed: category=%s recommendation=%s calibrated=%.2f",
			classification.Category, confidence.Recommendation, confidence.Calibrated))
		if err := s.suggestions.Update(ctx, sug); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	}); err != nil {
		s.failSuggestion(ctx, sug, err)
		return s.finish(result, started, err)
	}

	var action *Action
	_ = result.runStep(stepDetermineAction, func() error {
		action = DetermineNextAction(sug)
		result.Action = action
		return nil
	})

	if err := result.runStep(stepExecuteAction, func() error {
		actionResult, err := s.executeAction(ctx, ticket, sug, action)
		if err != nil {
			return err
		}
		result.ActionResult = actionResult
		return nil
	}); err != nil {
		s.failSuggestion(ctx, sug, err)
		return s.finish(result, started, err)
	}

	_ = result.runStep(stepRecordAudit, func() error {
		elapsed := time.Since(started)
		s.metrics.RecordPipeline(string(action.Type), true, elapsed)
		s.logger.Info("ticket processing complete",
			zap.String("ticket_id", ticket.ID),
			zap.String("trace_id", result.TraceID),
			zap.String("action", string(action.Type)),
			zap.Bool("auto_resolved", result.ActionResult != nil && result.ActionResult.AutoResolved),
			zap.Duration("elapsed", elapsed))
		if err := s.suggestions.AppendAudit(ctx, sug.ID, domain.AuditEntry{
			Timestamp: time.Now(),
			Detail:    fmt.Sprintf("Pipeline finished in %dms with action %s", elapsed.Milliseconds(), action.Type),
		}); err != nil {
			s.logger.Warn("failed to append final audit entry", zap.String("suggestion_id", sug.ID), zap.Error(err))
		}
		return nil
	})

	result.Success = true
	result.ElapsedMS = time.Since(started).Milliseconds()
	return result, nil
}

// waitForCompletion polls the job handle on a fixed interval up to the
// configured bound, appending lightweight audit entries as it waits. A
// capability-reported failure propagates as CapabilityFailure; expiry of the
// bound yields Timeout.
func (s *TriageService) waitForCompletion(ctx context.Context, sug *domain.Suggestion, handle classifier.JobHandle) (*classifier.Result, error) {
	deadline := time.Now().Add(s.cfg.MaxWait())
	ticker := time.NewTicker(s.cfg.PollInterval())
	defer ticker.Stop()
	waitStarted := time.Now()
	lastAudit := waitStarted

	for {
		status, err := s.classifier.PollStatus(ctx, s.cfg.QueueName, handle)
		if err != nil {
			return nil, apperrors.NewCapabilityFailure("classification poll failed", map[string]any{"error": err.Error()})
		}
		switch status.State {
		case classifier.JobStateCompleted:
			if status.Result == nil {
				return nil, apperrors.NewCapabilityFailure("classification completed without result", nil)
			}
			return status.Result, nil
		case classifier.JobStateFailed:
			return nil, apperrors.NewCapabilityFailure(status.FailureReason, map[string]any{"job_id": string(handle)})
		}

		if time.Now().After(deadline) {
			return nil, apperrors.NewTimeout("classification did not complete within bound", map[string]any{
				"job_id":      string(handle),
				"max_wait_ms": s.cfg.MaxWait().Milliseconds(),
			})
		}

		if time.Since(lastAudit) >= s.cfg.WaitAuditInterval() {
			entry := domain.AuditEntry{
				Timestamp: time.Now(),
				Detail:    fmt.Sprintf("Still waiting for classification after %ds", int(time.Since(waitStarted).Seconds())),
			}
			if err := s.suggestions.AppendAudit(ctx, sug.ID, entry); err != nil {
				s.logger.Warn("failed to append wait audit entry", zap.String("suggestion_id", sug.ID), zap.Error(err))
			}
			lastAudit = time.Now()
		}

		select {
		case <-ctx.Done():
			return nil, apperrors.NewTimeout("processing cancelled while waiting for classification", map[string]any{
				"job_id": string(handle),
				"cause":  ctx.Err().Error(),
			})
		case <-ticker.C:
		}
	}
}

// failSuggestion records the failure on the suggestion so every run stays
// introspectable, then leaves re-raising to the caller. Action failures land
// here after the record is already terminal; in that case the status is kept
// and only the error and audit entry are appended.
func (s *TriageService) failSuggestion(ctx context.Context, sug *domain.Suggestion, cause error) {
	sug.RecordError(cause)
	if err := sug.SetStatus(domain.SuggestionStatusFailed); err != nil {
		s.logger.Debug("suggestion already terminal; recording failure without status change",
			zap.String("suggestion_id", sug.ID), zap.String("status", string(sug.Status)))
	}
	sug.AppendAudit(nil, "Processing failed: "+cause.Error())
	if err := s.suggestions.Update(ctx, sug); err != nil {
		s.logger.Error("failed to persist suggestion failure",
			zap.String("suggestion_id", sug.ID), zap.Error(err))
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSuggestionFailed,
		TicketID: sug.TicketID,
		TraceID:  sug.TraceID,
		Actor:    events.SystemActor(),
		Payload: events.SuggestionFailedPayload{
			SuggestionID: sug.ID,
			ErrorCode:    apperrors.Code(cause),
			Error:        cause.Error(),
		},
	})
}

func (s *TriageService) finish(result *PipelineResult, started time.Time, err error) (*PipelineResult, error) {
	result.ElapsedMS = time.Since(started).Milliseconds()
	result.Success = err == nil
	if err != nil {
		action := "none"
		if result.Action != nil {
			action = string(result.Action.Type)
		}
		s.metrics.RecordPipeline(action, false, time.Since(started))
		s.logger.Error("ticket processing failed",
			zap.String("ticket_id", result.TicketID),
			zap.String("trace_id", result.TraceID),
			zap.String("action", action),
			zap.Error(err))
	}
	return result, err
}

func (s *TriageService) publishEvent(ctx context.Context, event events.Event) {
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
