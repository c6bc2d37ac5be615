package users

import (
	"context"

	"github.com/matchapp/user-service/internal/application/usercache"
	"github.com/matchapp/user-service/internal/domain/entity"
	"github.com/matchapp/user-service/internal/domain/repository"
	"github.com/matchapp/user-service/pkg/apperr"
)

// GetUserService is the read path: every lookup goes through the cache-aside
// service, never straight to the store.
type GetUserService struct {
	NewUoW repository.UnitOfWorkFactory
	Cache  *usercache.Service
}

// Get returns the current aggregate snapshot for identifier. Reads run outside
// a transaction; the unit of work only scopes the version probe and any repair
// read to one connection.
func (s *GetUserService) Get(ctx context.Context, identifier string, status entity.Status) (*entity.UserAggregate, error) {
	if identifier == "" {
		return nil, apperr.BadRequest("invalid identifier")
	}
	uow := s.NewUoW()
	defer uow.Release()

	res, err := s.Cache.GetOrRefresh(ctx, uow, identifier, status)
	if err != nil {
		return nil, err
	}
	return res.Snapshot, nil
}
