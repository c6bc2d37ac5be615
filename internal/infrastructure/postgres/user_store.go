package postgres

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/matchapp/user-service/internal/domain/entity"
	"github.com/matchapp/user-service/internal/domain/repository"
	"github.com/matchapp/user-service/pkg/apperr"
)

// UserStore persists the five-table user aggregate with a monotonic version on
// the root row.
type UserStore struct{}

func NewUserStore() *UserStore { return &UserStore{} }

func (s *UserStore) q(uow repository.UnitOfWork) (querier, error) {
	pu, ok := uow.(*UnitOfWork)
	if !ok || pu == nil {
		return nil, apperr.BadRequest("invalid unit of work")
	}
	return pu.querier(), nil
}

// WriteAll inserts in the fixed order users, keys, settings, communication,
// credentials. The caller's transaction makes the five inserts atomic.
func (s *UserStore) WriteAll(ctx context.Context, uow repository.UnitOfWork, agg *entity.UserAggregate) error {
	if agg == nil {
		return apperr.BadRequest("invalid aggregate")
	}
	q, err := s.q(uow)
	if err != nil {
		return err
	}
	if !uow.Active() {
		return apperr.BadRequest("unit of work has no open transaction")
	}

	u := &agg.User
	if _, err := q.Exec(ctx, `
		INSERT INTO users (identifier, client_id, first_name, last_name, status, version, created_date, modified_date)
		VALUES ($1, $2, $3, $4, $5, 1, now(), now())
	`, u.Identifier, u.ClientID, u.FirstName, u.LastName, u.Status); err != nil {
		return apperr.Wrap(http.StatusInternalServerError, "insert user failed", err)
	}
	u.Version = 1

	k := &agg.Keys
	if _, err := q.Exec(ctx, `
		INSERT INTO user_keys (identifier, aes_secret_key, hmac_secret_key, refresh_token, refresh_token_expires_at, user_id, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
	`, k.Identifier, k.AesSecretKey, k.HmacSecretKey, k.RefreshToken, k.RefreshTokenExpiresAt, k.UserID, k.Status); err != nil {
		return apperr.Wrap(http.StatusInternalServerError, "insert user keys failed", err)
	}

	st := &agg.Settings
	if _, err := q.Exec(ctx, `
		INSERT INTO user_settings (identifier, email_verification_token, is_email_verified, is_verification_email_sent, is_welcome_email_sent, user_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, st.Identifier, st.EmailVerificationToken, st.IsEmailVerified, st.IsVerificationEmailSent, st.IsWelcomeEmailSent, st.UserID, st.Status); err != nil {
		return apperr.Wrap(http.StatusInternalServerError, "insert user settings failed", err)
	}

	c := &agg.Communication
	if _, err := q.Exec(ctx, `
		INSERT INTO user_communications (identifier, email, mobile_no, user_id, status)
		VALUES ($1, $2, $3, $4, $5)
	`, c.Identifier, c.Email, c.MobileNo, c.UserID, c.Status); err != nil {
		return apperr.Wrap(http.StatusInternalServerError, "insert user communication failed", err)
	}

	cr := &agg.Credentials
	if _, err := q.Exec(ctx, `
		INSERT INTO user_credentials (identifier, username, salt, hash, user_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, cr.Identifier, cr.Username, cr.Salt, cr.Hash, cr.UserID, cr.Status); err != nil {
		return apperr.Wrap(http.StatusInternalServerError, "insert user credentials failed", err)
	}

	return nil
}

func (s *UserStore) GetByIdentifier(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) (*entity.UserAggregate, error) {
	if identifier == "" {
		return nil, apperr.BadRequest("invalid identifier")
	}
	q, err := s.q(uow)
	if err != nil {
		return nil, err
	}

	agg := &entity.UserAggregate{}
	row := q.QueryRow(ctx, `
		SELECT u.identifier, u.client_id, u.first_name, u.last_name, u.status, u.version, u.created_date, u.modified_date,
		       c.identifier, c.email, c.mobile_no, c.status,
		       cr.identifier, cr.username, cr.salt, cr.hash, cr.status,
		       k.identifier, k.aes_secret_key, k.hmac_secret_key, COALESCE(k.refresh_token, ''), k.refresh_token_expires_at, k.status,
		       st.identifier, st.email_verification_token, st.is_email_verified, st.is_verification_email_sent, st.is_welcome_email_sent, st.status
		FROM users u
		JOIN user_communications c ON c.user_id = u.identifier
		JOIN user_credentials cr ON cr.user_id = u.identifier
		JOIN user_keys k ON k.user_id = u.identifier
		JOIN user_settings st ON st.user_id = u.identifier
		WHERE u.identifier = $1 AND u.status = $2
	`, identifier, status)

	u, c, cr, k, st := &agg.User, &agg.Communication, &agg.Credentials, &agg.Keys, &agg.Settings
	if err := row.Scan(
		&u.Identifier, &u.ClientID, &u.FirstName, &u.LastName, &u.Status, &u.Version, &u.CreatedAt, &u.ModifiedAt,
		&c.Identifier, &c.Email, &c.MobileNo, &c.Status,
		&cr.Identifier, &cr.Username, &cr.Salt, &cr.Hash, &cr.Status,
		&k.Identifier, &k.AesSecretKey, &k.HmacSecretKey, &k.RefreshToken, &k.RefreshTokenExpiresAt, &k.Status,
		&st.Identifier, &st.EmailVerificationToken, &st.IsEmailVerified, &st.IsVerificationEmailSent, &st.IsWelcomeEmailSent, &st.Status,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Wrap(http.StatusInternalServerError, "read user aggregate failed", err)
	}
	for _, uid := range []*string{&c.UserID, &cr.UserID, &k.UserID, &st.UserID} {
		*uid = u.Identifier
	}
	return agg, nil
}

func (s *UserStore) GetVersion(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) (int64, error) {
	if identifier == "" {
		return 0, apperr.BadRequest("invalid identifier")
	}
	q, err := s.q(uow)
	if err != nil {
		return 0, err
	}
	var version int64
	row := q.QueryRow(ctx, `SELECT version FROM users WHERE identifier = $1 AND status = $2`, identifier, status)
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound("user not found")
		}
		return 0, apperr.Wrap(http.StatusInternalServerError, "read user version failed", err)
	}
	return version, nil
}

func (s *UserStore) UpdateSettings(ctx context.Context, uow repository.UnitOfWork, settings *entity.UserSettings) error {
	if settings == nil || settings.UserID == "" {
		return apperr.BadRequest("invalid settings")
	}
	q, err := s.q(uow)
	if err != nil {
		return err
	}
	if !uow.Active() {
		return apperr.BadRequest("unit of work has no open transaction")
	}
	tag, err := q.Exec(ctx, `
		UPDATE user_settings
		SET email_verification_token = $1, is_email_verified = $2, is_verification_email_sent = $3, is_welcome_email_sent = $4
		WHERE user_id = $5 AND status = $6
	`, settings.EmailVerificationToken, settings.IsEmailVerified, settings.IsVerificationEmailSent, settings.IsWelcomeEmailSent, settings.UserID, settings.Status)
	if err != nil {
		return apperr.Wrap(http.StatusInternalServerError, "update user settings failed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user settings not found")
	}
	return nil
}

// BumpVersion must run in the same unit of work as the mutation it accounts
// for: version changes iff a successful write committed.
func (s *UserStore) BumpVersion(ctx context.Context, uow repository.UnitOfWork, identifier string, status entity.Status) error {
	if identifier == "" {
		return apperr.BadRequest("invalid identifier")
	}
	q, err := s.q(uow)
	if err != nil {
		return err
	}
	if !uow.Active() {
		return apperr.BadRequest("unit of work has no open transaction")
	}
	tag, err := q.Exec(ctx, `
		UPDATE users SET version = version + 1, modified_date = $1 WHERE identifier = $2 AND status = $3
	`, time.Now().UTC(), identifier, status)
	if err != nil {
		return apperr.Wrap(http.StatusInternalServerError, "bump user version failed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

var _ repository.UserAggregateStore = (*UserStore)(nil)
