package users

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/matchapp/user-service/internal/application/events"
	"github.com/matchapp/user-service/internal/application/usercache"
	"github.com/matchapp/user-service/internal/domain/entity"
	"github.com/matchapp/user-service/internal/domain/repository"
	"github.com/matchapp/user-service/internal/mediator"
	"github.com/matchapp/user-service/pkg/apperr"
	"github.com/matchapp/user-service/pkg/crypto"
	"github.com/matchapp/user-service/pkg/helpers"
	"github.com/matchapp/user-service/pkg/validation"
)

// CreateUserHandler runs the create pipeline: decrypt, validate, hash the
// password, generate key material, map the aggregate, persist all five
// entities in one transaction, seed the cache inside that transaction, commit,
// then publish the domain notification. Any step failure before commit rolls
// back and nothing is visible.
type CreateUserHandler struct {
	Cipher   *crypto.BodyCipher
	NewUoW   repository.UnitOfWorkFactory
	Store    repository.UserAggregateStore
	Cache    *usercache.Service
	Mediator *mediator.Mediator
	JWT      *helpers.JWTManager
	Logger   *logrus.Logger
}

// Handle implements the mediator command contract for events.CommandCreateUser.
func (h *CreateUserHandler) Handle(ctx context.Context, cmd any) (any, error) {
	command, ok := cmd.(*CreateUserCommand)
	if !ok || command == nil {
		return nil, apperr.BadRequest("invalid command")
	}
	if command.Body == "" {
		return nil, apperr.BadRequest("invalid request body")
	}

	// Decrypt
	plain, err := h.Cipher.Decrypt(command.Body)
	if err != nil {
		return nil, apperr.Wrap(http.StatusBadRequest, "request body decryption failed", err)
	}
	req := &CreateUserRequest{}
	if err := json.Unmarshal([]byte(plain), req); err != nil {
		return nil, apperr.Wrap(http.StatusBadRequest, "request body is not valid json", err)
	}

	// Validate
	if err := validation.Struct(req); err != nil {
		return nil, apperr.Wrap(http.StatusBadRequest, "request validation failed", err)
	}

	// Hash password
	hashed, err := helpers.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	// Map the aggregate
	agg, err := h.mapAggregate(req, hashed)
	if err != nil {
		return nil, err
	}

	// Persist + seed cache, all-or-nothing
	uow := h.NewUoW()
	defer uow.Release()
	if err := uow.Begin(ctx); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := h.Store.WriteAll(ctx, uow, agg); err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}

	resp := &CreateUserResponse{Identifier: agg.User.Identifier, ClientID: agg.User.ClientID}
	rawResp, err := json.Marshal(resp)
	if err != nil {
		_ = uow.Rollback(ctx)
		return nil, apperr.Internal(err)
	}
	encrypted, err := h.Cipher.Encrypt(string(rawResp))
	if err != nil {
		_ = uow.Rollback(ctx)
		return nil, apperr.Internal(err)
	}

	// Seed the cache through the same transaction so the snapshot reflects the
	// rows being committed.
	if _, err := h.Cache.GetOrRefresh(ctx, uow, agg.User.Identifier, entity.StatusInactive); err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, apperr.Internal(err)
	}

	// Domain notification, strictly after commit. Downstream failures are
	// logged, not surfaced: the user exists either way.
	note := &events.UserCreated{
		Identifier:             agg.User.Identifier,
		Email:                  agg.Communication.Email,
		FullName:               agg.User.FirstName + " " + agg.User.LastName,
		EmailVerificationToken: agg.Settings.EmailVerificationToken,
	}
	if err := h.Mediator.Publish(ctx, events.NoteUserCreated, note); err != nil {
		h.Logger.WithError(err).WithField("identifier", agg.User.Identifier).Error("user created notification failed")
	}

	return &CreateUserResult{
		EncryptedBody: encrypted,
		Identifier:    agg.User.Identifier,
		ClientID:      agg.User.ClientID,
	}, nil
}

func (h *CreateUserHandler) mapAggregate(req *CreateUserRequest, hashed helpers.HashedPassword) (*entity.UserAggregate, error) {
	userID := uuid.NewString()

	refreshToken, refreshExp, err := h.JWT.GenerateRefreshToken(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	agg := &entity.UserAggregate{
		User: entity.User{
			Identifier: userID,
			ClientID:   uuid.NewString(),
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Status:     entity.StatusInactive,
		},
		Communication: entity.UserCommunication{
			Identifier: uuid.NewString(),
			Email:      req.Email,
			MobileNo:   req.MobileNo,
			UserID:     userID,
			Status:     entity.StatusInactive,
		},
		Credentials: entity.UserCredentials{
			Identifier: uuid.NewString(),
			Username:   req.Email,
			Salt:       hashed.Salt,
			Hash:       hashed.Hash,
			UserID:     userID,
			Status:     entity.StatusInactive,
		},
		Keys: entity.UserKeys{
			Identifier:            uuid.NewString(),
			AesSecretKey:          uuid.NewString(),
			HmacSecretKey:         uuid.NewString(),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: &refreshExp,
			UserID:                userID,
			Status:                entity.StatusInactive,
		},
		Settings: entity.UserSettings{
			Identifier:              uuid.NewString(),
			EmailVerificationToken:  uuid.NewString(),
			IsEmailVerified:         entity.FlagNo,
			IsVerificationEmailSent: entity.FlagNo,
			IsWelcomeEmailSent:      entity.FlagNo,
			UserID:                  userID,
			Status:                  entity.StatusInactive,
		},
	}
	return agg, nil
}
