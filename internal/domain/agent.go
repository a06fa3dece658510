package domain

import "time"

// AgentRole enumerates internal operator roles.
type AgentRole string

const (
	AgentRoleAgent  AgentRole = "AGENT"
	AgentRoleSenior AgentRole = "SENIOR"
	AgentRoleAdmin  AgentRole = "ADMIN"
)

// Agent models a support agent or administrator.
type Agent struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AgentRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AgentWithWorkload pairs an agent with the number of tickets currently
// assigned to them that are not yet resolved or closed.
type AgentWithWorkload struct {
	Agent
	OpenTickets int
}
