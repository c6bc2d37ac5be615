package users

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/matchapp/user-service/internal/application/events"
	"github.com/matchapp/user-service/internal/application/usercache"
	"github.com/matchapp/user-service/internal/domain/entity"
	"github.com/matchapp/user-service/internal/domain/repository"
	"github.com/matchapp/user-service/pkg/apperr"
)

// VerificationEmailSentHandler applies the out-of-band mutation reported by
// the email worker: flip is_verification_email_sent, bump the root version in
// the same transaction, and repair the cache so the next read sees the flag.
// This handler is an authoritative write path, so failures roll back its own
// transaction and propagate to the publisher.
type VerificationEmailSentHandler struct {
	NewUoW repository.UnitOfWorkFactory
	Store  repository.UserAggregateStore
	Cache  *usercache.Service
	Logger *logrus.Logger
}

// Handle implements the mediator notification contract for
// events.NoteVerificationEmailSent.
func (h *VerificationEmailSentHandler) Handle(ctx context.Context, note any) error {
	sent, ok := note.(*events.VerificationEmailSent)
	if !ok || sent == nil {
		return apperr.BadRequest("invalid notification")
	}
	if sent.Identifier == "" {
		return apperr.BadRequest("invalid identifier")
	}

	uow := h.NewUoW()
	defer uow.Release()
	if err := uow.Begin(ctx); err != nil {
		return apperr.Internal(err)
	}

	// Current aggregate, through the cache so a fresh snapshot is available
	// for the settings row being rewritten.
	current, err := h.Cache.GetOrRefresh(ctx, uow, sent.Identifier, entity.StatusInactive)
	if err != nil {
		_ = uow.Rollback(ctx)
		return err
	}

	settings := current.Snapshot.Settings
	settings.IsVerificationEmailSent = entity.FlagYes

	if err := h.Store.UpdateSettings(ctx, uow, &settings); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}
	if err := h.Store.BumpVersion(ctx, uow, sent.Identifier, entity.StatusInactive); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}

	// The bump made every cached snapshot stale; repair before commit so the
	// write-through carries the new version and flag.
	if _, err := h.Cache.GetOrRefresh(ctx, uow, sent.Identifier, entity.StatusInactive); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}

	h.Logger.WithField("identifier", sent.Identifier).Info("verification email flag updated")
	return nil
}
