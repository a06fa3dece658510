package domain

import "time"

// CommentAuthorType indicates who authored a ticket comment.
type CommentAuthorType string

const (
	AuthorTypeUser   CommentAuthorType = "USER"
	AuthorTypeAgent  CommentAuthorType = "AGENT"
	AuthorTypeSystem CommentAuthorType = "SYSTEM"
)

// TicketCommentType differentiates between replies and notes.
type TicketCommentType string

const (
	CommentTypePublicReply  TicketCommentType = "PUBLIC_REPLY"
	CommentTypeInternalNote TicketCommentType = "INTERNAL_NOTE"
)

// TicketComment captures communications in a ticket thread. AI-drafted
// responses posted by the auto-resolution workflow carry AuthorTypeSystem.
type TicketComment struct {
	ID          string
	TicketID    string
	AuthorType  CommentAuthorType
	AuthorID    *string
	CommentType TicketCommentType
	Body        string
	CreatedAt   time.Time
}
