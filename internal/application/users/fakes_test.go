package users

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matchapp/user-service/internal/domain/entity"
	"github.com/matchapp/user-service/internal/domain/repository"
	"github.com/matchapp/user-service/pkg/helpers"
)

type fakeUoW struct {
	active     bool
	began      bool
	committed  bool
	rolledBack bool
	released   bool
	beginErr   error
	commitErr  error
}

func (f *fakeUoW) Begin(ctx context.Context) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.began = true
	f.active = true
	return nil
}

func (f *fakeUoW) Commit(ctx context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	f.active = false
	return nil
}

func (f *fakeUoW) Rollback(ctx context.Context) error {
	f.rolledBack = true
	f.active = false
	return nil
}

func (f *fakeUoW) Active() bool { return f.active }
func (f *fakeUoW) Release()     { f.released = true }

func uowFactory(uow *fakeUoW) repository.UnitOfWorkFactory {
	return func() repository.UnitOfWork { return uow }
}

// fakeStore keeps one aggregate in memory and mimics the version bookkeeping
// the real store does.
type fakeStore struct {
	mu        sync.Mutex
	agg       *entity.UserAggregate
	version   int64
	writeErr  error
	updateErr error
	getErr    error

	updatedSettings *entity.UserSettings
	bumpCalls       int
}

func (f *fakeStore) WriteAll(ctx context.Context, uow repository.UnitOfWork, agg *entity.UserAggregate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	agg.User.Version = 1
	f.agg = agg
	f.version = 1
	return nil
}

func (f *fakeStore) GetByIdentifier(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) (*entity.UserAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	snap := *f.agg
	snap.User.Version = f.version
	if f.updatedSettings != nil {
		snap.Settings = *f.updatedSettings
	}
	return &snap, nil
}

func (f *fakeStore) GetVersion(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, nil
}

func (f *fakeStore) UpdateSettings(ctx context.Context, uow repository.UnitOfWork, settings *entity.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	s := *settings
	f.updatedSettings = &s
	return nil
}

func (f *fakeStore) BumpVersion(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumpCalls++
	f.version++
	return nil
}

type fakeConn struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
}

func newFakeConn() *fakeConn { return &fakeConn{data: make(map[string]string)} }

func (f *fakeConn) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeConn) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeConn) Close() error { return nil }

func dialerFor(conn helpers.CacheConn) helpers.CacheDialer {
	return func(ctx context.Context) (helpers.CacheConn, error) { return conn, nil }
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
