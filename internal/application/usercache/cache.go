// Package usercache is the single read entry point for the user aggregate. It
// reconciles the redis snapshot with the authoritative store using the root
// row version: cache miss and version mismatch both trigger a full re-read and
// a write-through of every derived key.
package usercache

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matchapp/user-service/internal/domain/entity"
	"github.com/matchapp/user-service/internal/domain/repository"
	"github.com/matchapp/user-service/pkg/apperr"
	"github.com/matchapp/user-service/pkg/helpers"
)

// The three keys are a derived index over one snapshot, never three sources of
// truth: every write-through rewrites all of them.
func KeyByIdentifier(identifier string) string { return "users_" + identifier }
func KeyByClientID(clientID string) string     { return "users_clientId_" + clientID }
func KeyByEmail(email string) string           { return "users_email_" + email }

type Service struct {
	dial   helpers.CacheDialer
	store  repository.UserAggregateStore
	ttl    time.Duration
	logger *logrus.Logger
}

func NewService(dial helpers.CacheDialer, store repository.UserAggregateStore, ttl time.Duration, logger *logrus.Logger) *Service {
	return &Service{dial: dial, store: store, ttl: ttl, logger: logger}
}

// Result reports the snapshot and whether this call had to repair the cache.
type Result struct {
	Snapshot  *entity.UserAggregate
	Refreshed bool
}

// GetOrRefresh returns the current aggregate for identifier in the given
// status. Cache backend failures surface as ServiceUnavailable so callers can
// tell an outage apart from stale data; there is no silent store-only
// fallback. The cache connection lives only for the duration of this call.
//
// Two concurrent stale repairs for one identifier may both re-read and both
// write through; the overwrite is idempotent with equal-or-newer data, so no
// single-flight guard is taken.
func (s *Service) GetOrRefresh(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) (*Result, error) {
	if identifier == "" {
		return nil, apperr.BadRequest("invalid identifier")
	}
	if uow == nil {
		return nil, apperr.BadRequest("invalid unit of work")
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return nil, apperr.Wrap(http.StatusServiceUnavailable, "cache backend unavailable", err)
	}
	defer func() { _ = conn.Close() }()

	cached, found, err := conn.Get(ctx, KeyByIdentifier(identifier))
	if err != nil {
		return nil, apperr.Wrap(http.StatusServiceUnavailable, "cache backend unavailable", err)
	}

	if !found {
		snapshot, err := s.writeThrough(ctx, conn, uow, identifier, status)
		if err != nil {
			return nil, err
		}
		return &Result{Snapshot: snapshot, Refreshed: true}, nil
	}

	snapshot := &entity.UserAggregate{}
	if err := json.Unmarshal([]byte(cached), snapshot); err != nil {
		return nil, apperr.Wrap(http.StatusInternalServerError, "corrupt cache snapshot", err)
	}

	version, err := s.store.GetVersion(ctx, uow, identifier, status)
	if err != nil {
		return nil, err
	}

	if version != snapshot.User.Version {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"identifier": identifier,
				"cached":     snapshot.User.Version,
				"current":    version,
			}).Info("stale user snapshot, refreshing")
		}
		snapshot, err = s.writeThrough(ctx, conn, uow, identifier, status)
		if err != nil {
			return nil, err
		}
		return &Result{Snapshot: snapshot, Refreshed: true}, nil
	}

	return &Result{Snapshot: snapshot, Refreshed: false}, nil
}

// writeThrough re-reads the aggregate from the store and rewrites the three
// derived keys with the same serialized snapshot.
func (s *Service) writeThrough(ctx context.Context, conn helpers.CacheConn, uow repository.UnitOfWork, identifier string, status entity.Status) (*entity.UserAggregate, error) {
	agg, err := s.store.GetByIdentifier(ctx, uow, identifier, status)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(agg)
	if err != nil {
		return nil, apperr.Wrap(http.StatusInternalServerError, "serialize user snapshot failed", err)
	}
	value := string(raw)

	keys := []string{
		KeyByIdentifier(agg.User.Identifier),
		KeyByClientID(agg.User.ClientID),
		KeyByEmail(agg.Communication.Email),
	}
	for _, key := range keys {
		if err := conn.Set(ctx, key, value, s.ttl); err != nil {
			return nil, apperr.Wrap(http.StatusServiceUnavailable, "cache backend unavailable", err)
		}
	}

	return agg, nil
}
