package usercache

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/matchapp/user-service/internal/domain/entity"
	"github.com/matchapp/user-service/internal/domain/repository"
	"github.com/matchapp/user-service/pkg/apperr"
	"github.com/matchapp/user-service/pkg/helpers"
)

type fakeUoW struct{ active bool }

func (f *fakeUoW) Begin(ctx context.Context) error    { f.active = true; return nil }
func (f *fakeUoW) Commit(ctx context.Context) error   { f.active = false; return nil }
func (f *fakeUoW) Rollback(ctx context.Context) error { f.active = false; return nil }
func (f *fakeUoW) Active() bool                       { return f.active }
func (f *fakeUoW) Release()                           {}

type fakeStore struct {
	mu           sync.Mutex
	agg          *entity.UserAggregate
	version      int64
	getErr       error
	versionErr   error
	getCalls     int
	versionCalls int
}

func (f *fakeStore) WriteAll(ctx context.Context, uow repository.UnitOfWork, agg *entity.UserAggregate) error {
	return nil
}

func (f *fakeStore) GetByIdentifier(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) (*entity.UserAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	snap := *f.agg
	snap.User.Version = f.version
	return &snap, nil
}

func (f *fakeStore) GetVersion(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versionCalls++
	if f.versionErr != nil {
		return 0, f.versionErr
	}
	return f.version, nil
}

func (f *fakeStore) UpdateSettings(ctx context.Context, uow repository.UnitOfWork, settings *entity.UserSettings) error {
	return nil
}

func (f *fakeStore) BumpVersion(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version++
	return nil
}

type fakeConn struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	closed bool
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

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func dialerFor(conn helpers.CacheConn) helpers.CacheDialer {
	return func(ctx context.Context) (helpers.CacheConn, error) { return conn, nil }
}

func testAggregate(version int64) *entity.UserAggregate {
	return &entity.UserAggregate{
		User: entity.User{
			Identifier: "id-1",
			ClientID:   "client-1",
			Version:    version,
			Status:     entity.StatusActive,
		},
		Communication: entity.UserCommunication{Email: "ada@example.com", UserID: "id-1"},
		Settings:      entity.UserSettings{UserID: "id-1"},
	}
}

func TestGetOrRefreshMissRepairsAllThreeKeys(t *testing.T) {
	store := &fakeStore{agg: testAggregate(1), version: 1}
	conn := newFakeConn()
	svc := NewService(dialerFor(conn), store, time.Hour, nil)

	res, err := svc.GetOrRefresh(context.Background(), &fakeUoW{}, "id-1", entity.StatusActive)
	if err != nil {
		t.Fatalf("get or refresh: %v", err)
	}
	if !res.Refreshed {
		t.Fatal("expected a cache miss to report Refreshed")
	}
	if res.Snapshot.User.Identifier != "id-1" {
		t.Fatalf("unexpected snapshot %+v", res.Snapshot.User)
	}

	keys := []string{
		KeyByIdentifier("id-1"),
		KeyByClientID("client-1"),
		KeyByEmail("ada@example.com"),
	}
	var first string
	for i, key := range keys {
		v, ok := conn.data[key]
		if !ok {
			t.Fatalf("expected key %q to be written", key)
		}
		if i == 0 {
			first = v
		} else if v != first {
			t.Fatalf("derived keys diverge: %q vs %q", first, v)
		}
	}
	if !conn.closed {
		t.Fatal("connection must be closed when the call returns")
	}
}

func TestGetOrRefreshFreshHitSkipsStore(t *testing.T) {
	store := &fakeStore{agg: testAggregate(3), version: 3}
	conn := newFakeConn()
	raw, _ := json.Marshal(testAggregate(3))
	conn.data[KeyByIdentifier("id-1")] = string(raw)
	svc := NewService(dialerFor(conn), store, time.Hour, nil)

	res, err := svc.GetOrRefresh(context.Background(), &fakeUoW{}, "id-1", entity.StatusActive)
	if err != nil {
		t.Fatalf("get or refresh: %v", err)
	}
	if res.Refreshed {
		t.Fatal("matching versions must not refresh")
	}
	if store.getCalls != 0 {
		t.Fatalf("fresh hit must not re-read the aggregate, got %d reads", store.getCalls)
	}
	if store.versionCalls != 1 {
		t.Fatalf("expected exactly one version probe, got %d", store.versionCalls)
	}
}

func TestGetOrRefreshStaleSnapshotRefreshes(t *testing.T) {
	store := &fakeStore{agg: testAggregate(2), version: 2}
	conn := newFakeConn()
	raw, _ := json.Marshal(testAggregate(1)) // older than the store
	conn.data[KeyByIdentifier("id-1")] = string(raw)
	svc := NewService(dialerFor(conn), store, time.Hour, nil)

	res, err := svc.GetOrRefresh(context.Background(), &fakeUoW{}, "id-1", entity.StatusActive)
	if err != nil {
		t.Fatalf("get or refresh: %v", err)
	}
	if !res.Refreshed {
		t.Fatal("version mismatch must refresh")
	}
	if res.Snapshot.User.Version != 2 {
		t.Fatalf("expected refreshed version 2, got %d", res.Snapshot.User.Version)
	}

	var cached entity.UserAggregate
	if err := json.Unmarshal([]byte(conn.data[KeyByIdentifier("id-1")]), &cached); err != nil {
		t.Fatalf("unmarshal rewritten snapshot: %v", err)
	}
	if cached.User.Version != 2 {
		t.Fatalf("rewritten snapshot still stale: %d", cached.User.Version)
	}
}

func TestGetOrRefreshDialFailureIsUnavailable(t *testing.T) {
	store := &fakeStore{agg: testAggregate(1), version: 1}
	dial := func(ctx context.Context) (helpers.CacheConn, error) {
		return nil, errors.New("connection refused")
	}
	svc := NewService(dial, store, time.Hour, nil)

	_, err := svc.GetOrRefresh(context.Background(), &fakeUoW{}, "id-1", entity.StatusActive)
	if apperr.StatusOf(err) != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (%v)", apperr.StatusOf(err), err)
	}
	if store.getCalls != 0 || store.versionCalls != 0 {
		t.Fatal("cache outage must not fall back to the store")
	}
}

func TestGetOrRefreshSetFailureIsUnavailable(t *testing.T) {
	store := &fakeStore{agg: testAggregate(1), version: 1}
	conn := newFakeConn()
	conn.setErr = errors.New("write refused")
	svc := NewService(dialerFor(conn), store, time.Hour, nil)

	_, err := svc.GetOrRefresh(context.Background(), &fakeUoW{}, "id-1", entity.StatusActive)
	if apperr.StatusOf(err) != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (%v)", apperr.StatusOf(err), err)
	}
}

func TestGetOrRefreshCorruptSnapshotIsInternal(t *testing.T) {
	store := &fakeStore{agg: testAggregate(1), version: 1}
	conn := newFakeConn()
	conn.data[KeyByIdentifier("id-1")] = "{not json"
	svc := NewService(dialerFor(conn), store, time.Hour, nil)

	_, err := svc.GetOrRefresh(context.Background(), &fakeUoW{}, "id-1", entity.StatusActive)
	if apperr.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d (%v)", apperr.StatusOf(err), err)
	}
}

func TestGetOrRefreshMissingUserPropagatesNotFound(t *testing.T) {
	store := &fakeStore{agg: testAggregate(1), version: 1, getErr: apperr.NotFound("user not found")}
	conn := newFakeConn()
	svc := NewService(dialerFor(conn), store, time.Hour, nil)

	_, err := svc.GetOrRefresh(context.Background(), &fakeUoW{}, "id-1", entity.StatusActive)
	if apperr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%v)", apperr.StatusOf(err), err)
	}
}

func TestGetOrRefreshRejectsEmptyIdentifier(t *testing.T) {
	svc := NewService(dialerFor(newFakeConn()), &fakeStore{agg: testAggregate(1), version: 1}, time.Hour, nil)
	_, err := svc.GetOrRefresh(context.Background(), &fakeUoW{}, "", entity.StatusActive)
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%v)", apperr.StatusOf(err), err)
	}
}

func TestConcurrentStaleRepairsConverge(t *testing.T) {
	store := &fakeStore{agg: testAggregate(5), version: 5}
	conn := newFakeConn()
	raw, _ := json.Marshal(testAggregate(1))
	conn.data[KeyByIdentifier("id-1")] = string(raw)
	svc := NewService(dialerFor(conn), store, time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetOrRefresh(context.Background(), &fakeUoW{}, "id-1", entity.StatusActive); err != nil {
				t.Errorf("get or refresh: %v", err)
			}
		}()
	}
	wg.Wait()

	var cached entity.UserAggregate
	if err := json.Unmarshal([]byte(conn.data[KeyByIdentifier("id-1")]), &cached); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cached.User.Version != 5 {
		t.Fatalf("expected converged version 5, got %d", cached.User.Version)
	}
}
