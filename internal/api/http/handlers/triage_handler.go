package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/api/dto"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/repository"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/service"
	apperrors "github.com/akash-d122/agentic-helpdesk-sub002/pkg/util"
)

// TriageHandler exposes the auto-resolution workflow over HTTP.
type TriageHandler struct {
	triage      *service.TriageService
	suggestions repository.SuggestionRepository
}

// NewTriageHandler constructs handler.
func NewTriageHandler(triageService *service.TriageService, suggestionRepo repository.SuggestionRepository) *TriageHandler {
	return &TriageHandler{triage: triageService, suggestions: suggestionRepo}
}

// ProcessTicket handles POST /triage/tickets/:id/process. Concurrent requests
// for the same ticket share one run and one response.
func (h *TriageHandler) ProcessTicket(c *fiber.Ctx) error {
	var req dto.ProcessTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	result, err := h.triage.ProcessTicket(c.Context(), c.Params("id"), service.ProcessOptions{
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": processResponse(result)})
}

// GetStatus handles GET /triage/tickets/:id/status.
func (h *TriageHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.triage.GetProcessingStatus(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.ProcessingStatusResponse{
		Status:       status.Status,
		SuggestionID: status.SuggestionID,
		TraceID:      status.TraceID,
		AutoResolve:  status.AutoResolve,
		CreatedAt:    status.CreatedAt,
	}
	if status.Confidence != nil {
		calibrated := status.Confidence.Calibrated
		resp.Calibrated = &calibrated
		resp.Recommendation = string(status.Recommendation)
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListSuggestions handles GET /triage/tickets/:id/suggestions. Every
// processing attempt for the ticket is returned, failed ones included.
func (h *TriageHandler) ListSuggestions(c *fiber.Ctx) error {
	suggestions, err := h.suggestions.ListByTicket(c.Context(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	resp := make([]dto.SuggestionResponse, 0, len(suggestions))
	for i := range suggestions {
		sug := &suggestions[i]
		resp = append(resp, dto.SuggestionResponse{
			ID:                sug.ID,
			TicketID:          sug.TicketID,
			TraceID:           sug.TraceID,
			Type:              sug.Type,
			Status:            sug.Status,
			Classification:    sug.Classification,
			KnowledgeMatches:  sug.KnowledgeMatches,
			DraftedResponse:   sug.DraftedResponse,
			Confidence:        sug.Confidence,
			AutoResolve:       sug.AutoResolve,
			AutoResolveReason: sug.AutoResolveReason,
			AuditTrail:        sug.AuditTrail,
			Errors:            sug.Errors,
			ProcessingTimeMS:  sug.ProcessingTimeMS,
			CreatedAt:         sug.CreatedAt,
			UpdatedAt:         sug.UpdatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

func processResponse(result *service.PipelineResult) dto.ProcessTicketResponse {
	resp := dto.ProcessTicketResponse{
		TicketID:  result.TicketID,
		TraceID:   result.TraceID,
		Success:   result.Success,
		ElapsedMS: result.ElapsedMS,
	}
	for _, step := range result.Steps {
		resp.Steps = append(resp.Steps, dto.PipelineStepDTO{
			Name:        step.Name,
			StartedAt:   step.StartedAt,
			CompletedAt: step.CompletedAt,
			Success:     step.Success,
			Error:       step.Error,
		})
	}
	if result.Action != nil {
		resp.Action = &dto.ActionDTO{
			Type:       string(result.Action.Type),
			Confidence: result.Action.Confidence,
			Reasoning:  result.Action.Reasoning,
		}
	}
	if result.ActionResult != nil {
		resp.ActionResult = &dto.ActionResultDTO{
			Action:       string(result.ActionResult.Action),
			Success:      result.ActionResult.Success,
			AutoResolved: result.ActionResult.AutoResolved,
			AssignedTo:   result.ActionResult.AssignedTo,
			Status:       result.ActionResult.Status,
			Details:      result.ActionResult.Details,
		}
	}
	return resp
}
