package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/api/dto"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/auth"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/service"
	apperrors "github.com/akash-d122/agentic-helpdesk-sub002/pkg/util"
)

// AgentsHandler exposes agent auth and workqueue endpoints.
type AgentsHandler struct {
	authService   *service.AuthService
	ticketService *service.TicketService
	pool          *service.AgentPoolService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(authService *service.AuthService, ticketService *service.TicketService, pool *service.AgentPoolService) *AgentsHandler {
	return &AgentsHandler{authService: authService, ticketService: ticketService, pool: pool}
}

// Login handles POST /auth/agents/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.AgentLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	agent, token, exp, err := h.authService.LoginAgent(c.Context(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"agent": agentResponse(agent),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// ListAvailable handles GET /agents/available.
func (h *AgentsHandler) ListAvailable(c *fiber.Ctx) error {
	role := domain.AgentRoleAgent
	if val := c.Query("role"); val != "" {
		role = domain.AgentRole(strings.ToUpper(val))
	}
	limit := parseInt(c.Query("limit"), 10)

	agents, err := h.pool.FindAvailableAgents(c.Context(), role, limit)
	if err != nil {
		return err
	}
	resp := make([]dto.AgentAvailabilityResponse, 0, len(agents))
	for i := range agents {
		resp = append(resp, dto.AgentAvailabilityResponse{
			AgentResponse: agentResponse(&agents[i].Agent),
			OpenTickets:   agents[i].OpenTickets,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ReviewQueue handles GET /agents/queue.
func (h *AgentsHandler) ReviewQueue(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	tickets, err := h.pool.ReviewQueue(c.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ClaimTicket handles POST /agents/tickets/:id/claim.
func (h *AgentsHandler) ClaimTicket(c *fiber.Ctx) error {
	agent, err := requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.pool.ClaimTicket(c.Context(), agent, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// GetTicket handles GET /agents/tickets/:id with the full thread.
func (h *AgentsHandler) GetTicket(c *fiber.Ctx) error {
	agent, err := requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	ticket, comments, err := h.ticketService.GetTicketForAgent(c.Context(), agent, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.ticketService.ListHistoryForAgent(c.Context(), agent, ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments, history)})
}

// AddComment handles POST /agents/tickets/:id/comments.
func (h *AgentsHandler) AddComment(c *fiber.Ctx) error {
	agent, err := requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	commentType := domain.CommentTypePublicReply
	if req.CommentType != nil {
		commentType = *req.CommentType
	}
	comment, err := h.ticketService.AddComment(c.Context(), domain.SubjectTypeAgent, agent.ID, agent, c.Params("id"), commentType, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketCommentResponse(comment)})
}

// UpdateStatus handles PATCH /agents/tickets/:id/status.
func (h *AgentsHandler) UpdateStatus(c *fiber.Ctx) error {
	agent, err := requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	ticket, err := h.ticketService.UpdateStatus(c.Context(), agent, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// UpdatePriority handles PATCH /agents/tickets/:id/priority.
func (h *AgentsHandler) UpdatePriority(c *fiber.Ctx) error {
	agent, err := requireAgentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Priority == "" {
		return apperrors.NewValidationError("priority required", nil)
	}
	ticket, err := h.ticketService.UpdatePriority(c.Context(), agent, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func requireAgentPrincipal(c *fiber.Ctx) (*domain.Agent, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return nil, fiber.NewError(http.StatusUnauthorized, "agent required")
	}
	return principal.Agent, nil
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:     agent.ID,
		Name:   agent.Name,
		Email:  agent.Email,
		Role:   agent.Role,
		Active: agent.Active,
	}
}
