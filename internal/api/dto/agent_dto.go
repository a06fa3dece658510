package dto

import "github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"

// AgentLoginRequest payload for agent login.
type AgentLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AgentResponse describes an agent account.
type AgentResponse struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Email  string           `json:"email"`
	Role   domain.AgentRole `json:"role"`
	Active bool             `json:"active"`
}

// AgentAvailabilityResponse pairs an agent with current workload.
type AgentAvailabilityResponse struct {
	AgentResponse
	OpenTickets int `json:"open_tickets"`
}

// UpdateStatusRequest payload for agent-side status changes.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// UpdatePriorityRequest payload for agent-side priority changes.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}
