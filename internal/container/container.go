// Package container assembles the process-wide singletons once at startup and
// hands them down explicitly. There is no ambient registry: everything a
// module needs arrives through this struct.
package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/matchapp/user-service/config"
	"github.com/matchapp/user-service/internal/application/notifications"
	"github.com/matchapp/user-service/internal/application/usercache"
	"github.com/matchapp/user-service/internal/application/users"
	"github.com/matchapp/user-service/internal/broker"
	"github.com/matchapp/user-service/internal/domain/repository"
	pginfra "github.com/matchapp/user-service/internal/infrastructure/postgres"
	"github.com/matchapp/user-service/internal/mediator"
	"github.com/matchapp/user-service/pkg/crypto"
	"github.com/matchapp/user-service/pkg/helpers"
)

type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	Pool   *pgxpool.Pool
	Broker *broker.Conn

	Store    repository.UserAggregateStore
	NewUoW   repository.UnitOfWorkFactory
	Cache    *usercache.Service
	Mediator *mediator.Mediator

	CreateUser *users.CreateUserHandler
	GetUser    *users.GetUserService
}

// Build wires the full object graph for the api process and registers the
// mediator dispatch table. The bridge registration is applied by the caller
// once it owns a consumer.
func Build(cfg *config.Config, logger *logrus.Logger, pool *pgxpool.Pool, brokerConn *broker.Conn) (*Container, error) {
	cipher, err := crypto.NewBodyCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	store := pginfra.NewUserStore()
	newUoW := pginfra.NewUnitOfWorkFactory(pool)
	dial := helpers.NewRedisDialer(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	cache := usercache.NewService(dial, store, cfg.CacheTTL, logger)
	med := mediator.New(logger)
	jwtManager := helpers.NewJWTManager(cfg.JWTRefreshSecret, cfg.RefreshTTL)

	createUser := &users.CreateUserHandler{
		Cipher:   cipher,
		NewUoW:   newUoW,
		Store:    store,
		Cache:    cache,
		Mediator: med,
		JWT:      jwtManager,
		Logger:   logger,
	}
	getUser := &users.GetUserService{NewUoW: newUoW, Cache: cache}
	sentHandler := &users.VerificationEmailSentHandler{
		NewUoW: newUoW,
		Store:  store,
		Cache:  cache,
		Logger: logger,
	}
	relay := &notifications.VerificationEmailRelay{Conn: brokerConn, Logger: logger}

	if err := notifications.MediatorRegistration(med, createUser, sentHandler, relay, logger); err != nil {
		return nil, err
	}
	med.Freeze()

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Pool:       pool,
		Broker:     brokerConn,
		Store:      store,
		NewUoW:     newUoW,
		Cache:      cache,
		Mediator:   med,
		CreateUser: createUser,
		GetUser:    getUser,
	}, nil
}
