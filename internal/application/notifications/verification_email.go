// Package notifications wires the post-commit side effects of user creation:
// the in-process domain handler, the integration relay onto the broker, and
// the inbound bridge registrations the api process consumes.
package notifications

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/matchapp/user-service/internal/application/events"
	"github.com/matchapp/user-service/internal/broker"
	"github.com/matchapp/user-service/internal/mediator"
	"github.com/matchapp/user-service/pkg/apperr"
	"github.com/matchapp/user-service/pkg/validation"
)

// UserCreatedHandler reacts to the committed create by raising the
// verification-email integration notification.
type UserCreatedHandler struct {
	Mediator *mediator.Mediator
	Logger   *logrus.Logger
}

func (h *UserCreatedHandler) Handle(ctx context.Context, note any) error {
	created, ok := note.(*events.UserCreated)
	if !ok || created == nil {
		return apperr.BadRequest("invalid notification")
	}

	req := &events.VerificationEmailRequest{
		UserID:                 created.Identifier,
		Email:                  created.Email,
		FullName:               created.FullName,
		EmailVerificationToken: created.EmailVerificationToken,
	}
	if err := h.Mediator.Publish(ctx, events.NoteVerificationEmailRequested, req); err != nil {
		h.Logger.WithError(err).WithField("identifier", created.Identifier).Error("verification email request failed")
		return err
	}
	return nil
}

// emailRequestRules revalidates the integration payload before it leaves the
// process; the worker trusts what it consumes.
type emailRequestRules struct {
	UserID                 string `json:"userId" validate:"required,uuid4"`
	Email                  string `json:"email" validate:"required,email"`
	FullName               string `json:"fullName" validate:"required"`
	EmailVerificationToken string `json:"emailVerificationToken" validate:"required,uuid4"`
}

// VerificationEmailRelay forwards the integration notification onto the
// broker queue the email worker consumes.
type VerificationEmailRelay struct {
	Conn   *broker.Conn
	Logger *logrus.Logger
}

func (r *VerificationEmailRelay) Handle(ctx context.Context, note any) error {
	req, ok := note.(*events.VerificationEmailRequest)
	if !ok || req == nil {
		return apperr.BadRequest("invalid notification")
	}
	rules := emailRequestRules(*req)
	if err := validation.Struct(&rules); err != nil {
		return apperr.Wrap(http.StatusBadRequest, "verification email request validation failed", err)
	}

	if err := r.Conn.Publish(ctx, events.QueueVerificationEmail, req); err != nil {
		r.Logger.WithError(err).WithField("identifier", req.UserID).Error("publish verification email request failed")
		return apperr.Internal(err)
	}
	r.Logger.WithFields(logrus.Fields{
		"identifier": req.UserID,
		"queue":      events.QueueVerificationEmail,
	}).Info("verification email request relayed")
	return nil
}
