package domain

import "time"

// SubjectType differentiates end-user vs agent tokens.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeAgent SubjectType = "AGENT"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *AgentRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
