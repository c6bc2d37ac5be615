// Package events names the commands and notifications flowing through the
// mediator, plus the payloads that cross the broker bridge. Both processes
// (api and email worker) import it, so wire shapes live here and nowhere else.
package events

import "github.com/matchapp/user-service/internal/domain/entity"

// Mediator dispatch names.
const (
	CommandCreateUser = "users.create"

	// Domain notification: published only after the create transaction commits.
	NoteUserCreated = "users.created"

	// Integration notifications: relayed through the broker bridge.
	NoteVerificationEmailRequested = "users.verification-email.requested"
	NoteVerificationEmailSent      = "users.verification-email.sent"
)

// Broker queue names.
const (
	QueueVerificationEmail     = "user_verification_token_email"
	QueueVerificationEmailSent = "user_is_verification_email_sent"
	QueueGetUserByIdentifier   = "user_get_by_identifier"
)

// UserCreated reports that the aggregate is committed and the verification
// email can be requested.
type UserCreated struct {
	Identifier             string `json:"identifier"`
	Email                  string `json:"email"`
	FullName               string `json:"fullName"`
	EmailVerificationToken string `json:"emailVerificationToken"`
}

// VerificationEmailRequest is the payload the email worker consumes.
type VerificationEmailRequest struct {
	UserID                 string `json:"userId"`
	Email                  string `json:"email"`
	FullName               string `json:"fullName"`
	EmailVerificationToken string `json:"emailVerificationToken"`
}

// VerificationEmailSent is the out-of-band mutation signal: the worker sent
// the email, the api process must flip the flag and repair the cache.
type VerificationEmailSent struct {
	Identifier string `json:"identifier"`
}

// GetUserRequest travels over the request/reply bridge.
type GetUserRequest struct {
	Identifier string        `json:"identifier"`
	Status     entity.Status `json:"status"`
}

// GetUserReply carries the aggregate snapshot back to the requester.
type GetUserReply struct {
	Found bool                  `json:"found"`
	Error string                `json:"error,omitempty"`
	User  *entity.UserAggregate `json:"user,omitempty"`
}
