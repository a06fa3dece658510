package domain

import "time"

// UserStatus is the account lifecycle state of a requester.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is a requester account. Users open tickets, follow their threads and
// close resolved tickets; they never see internal notes or agent-only history.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Suspended reports whether the account is blocked from authenticating.
func (u *User) Suspended() bool {
	return u.Status == UserStatusSuspended
}
