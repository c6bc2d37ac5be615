package repository

import (
	"context"

	"github.com/matchapp/user-service/internal/domain/entity"
)

// UnitOfWork is a transaction handle threaded through a multi-step write. The
// handler that opened it owns the lifecycle; collaborators only enlist their
// statements and never commit or roll back a transaction they did not open.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Active() bool
	Release()
}

// UnitOfWorkFactory produces a fresh unit of work per command execution.
type UnitOfWorkFactory func() UnitOfWork

// UserAggregateStore owns persistence of the user aggregate and its version
// bookkeeping. Every mutation method must be paired with BumpVersion inside
// the same unit of work.
type UserAggregateStore interface {
	// WriteAll persists all five sub-entities inside the caller's transaction.
	// Failure at any step leaves no partial rows visible outside it.
	WriteAll(ctx context.Context, uow UnitOfWork, agg *entity.UserAggregate) error

	// GetByIdentifier joins the full aggregate plus the current version.
	GetByIdentifier(ctx context.Context, uow UnitOfWork, identifier string, status entity.Status) (*entity.UserAggregate, error)

	// GetVersion is the cheap version-only probe used by the cache validator.
	GetVersion(ctx context.Context, uow UnitOfWork, identifier string, status entity.Status) (int64, error)

	// UpdateSettings rewrites the settings row for its user.
	UpdateSettings(ctx context.Context, uow UnitOfWork, settings *entity.UserSettings) error

	// BumpVersion increments the root version and refreshes modified_date.
	BumpVersion(ctx context.Context, uow UnitOfWork, identifier string, status entity.Status) error
}
