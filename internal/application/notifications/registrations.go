package notifications

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/matchapp/user-service/internal/application/events"
	"github.com/matchapp/user-service/internal/application/users"
	"github.com/matchapp/user-service/internal/broker"
	"github.com/matchapp/user-service/internal/mediator"
	"github.com/matchapp/user-service/pkg/apperr"
)

// BridgeRegistration binds the api process's inbound queues: the email-sent
// signal from the worker, and the request/reply aggregate lookup. It runs in
// the registration phase, before consumption starts.
func BridgeRegistration(m *mediator.Mediator, getUser *users.GetUserService, logger *logrus.Logger) broker.RegistrationFunc {
	return func(r *broker.Registry) error {
		r.Register(events.QueueVerificationEmailSent, func(ctx context.Context, queue string, body []byte) error {
			sent := &events.VerificationEmailSent{}
			if err := json.Unmarshal(body, sent); err != nil {
				logger.WithError(err).WithField("queue", queue).Error("bad email-sent message")
				return err
			}
			return m.Publish(ctx, events.NoteVerificationEmailSent, sent)
		})

		r.RegisterRequestReply(events.QueueGetUserByIdentifier, func(ctx context.Context, body []byte) (any, error) {
			req := &events.GetUserRequest{}
			if err := json.Unmarshal(body, req); err != nil {
				return &events.GetUserReply{Error: "bad request payload"}, nil
			}
			agg, err := getUser.Get(ctx, req.Identifier, req.Status)
			if err != nil {
				var ae *apperr.Error
				if errors.As(err, &ae) {
					return &events.GetUserReply{Error: ae.Message}, nil
				}
				return &events.GetUserReply{Error: "lookup failed"}, nil
			}
			return &events.GetUserReply{Found: true, User: agg}, nil
		})

		return nil
	}
}

// MediatorRegistration builds the in-process dispatch table for the api
// process. Exactly one handler per command, ordered handlers per notification.
func MediatorRegistration(
	m *mediator.Mediator,
	create *users.CreateUserHandler,
	sent *users.VerificationEmailSentHandler,
	relay *VerificationEmailRelay,
	logger *logrus.Logger,
) error {
	if err := m.RegisterCommand(events.CommandCreateUser, create.Handle); err != nil {
		return err
	}

	userCreated := &UserCreatedHandler{Mediator: m, Logger: logger}
	if err := m.RegisterNotification(events.NoteUserCreated, userCreated.Handle); err != nil {
		return err
	}
	if err := m.RegisterNotification(events.NoteVerificationEmailRequested, relay.Handle); err != nil {
		return err
	}
	if err := m.RegisterNotification(events.NoteVerificationEmailSent, sent.Handle); err != nil {
		return err
	}
	return nil
}

