package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchapp/user-service/internal/domain/repository"
)

var (
	errTxNotActive     = errors.New("transaction not active")
	errTxAlreadyActive = errors.New("transaction already active")
)

// UnitOfWork wraps a pgx transaction on the shared pool. One instance serves
// exactly one command execution.
type UnitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// NewUnitOfWorkFactory adapts the pool to the repository factory contract.
func NewUnitOfWorkFactory(pool *pgxpool.Pool) repository.UnitOfWorkFactory {
	return func() repository.UnitOfWork { return NewUnitOfWork(pool) }
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errTxAlreadyActive
	}
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return errTxNotActive
	}
	err := u.tx.Commit(ctx)
	u.tx = nil
	return err
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return errTxNotActive
	}
	err := u.tx.Rollback(ctx)
	u.tx = nil
	return err
}

func (u *UnitOfWork) Active() bool { return u.tx != nil }

// Release is a no-op for pool-backed transactions; pgx returns the connection
// on commit/rollback. Kept so handlers can defer it unconditionally.
func (u *UnitOfWork) Release() {}

// querier returns the active transaction, or the pool for reads outside one.
func (u *UnitOfWork) querier() querier {
	if u.tx != nil {
		return u.tx
	}
	return u.pool
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
