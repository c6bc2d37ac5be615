package entity

import "time"

// Status is the lifecycle flag shared by the root and every sub-entity.
type Status int16

const (
	StatusInactive Status = 0
	StatusActive   Status = 1
)

// BoolFlag mirrors the YES/NO settings columns.
type BoolFlag int16

const (
	FlagNo  BoolFlag = 0
	FlagYes BoolFlag = 1
)

// User is the aggregate root. Version is the monotonic counter bumped on every
// committed mutation to any sub-entity; it is what the cache layer validates
// snapshots against.
type User struct {
	Identifier string    `json:"identifier"`
	ClientID   string    `json:"clientId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Status     Status    `json:"status"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"createdDate"`
	ModifiedAt time.Time `json:"modifiedDate"`
}

type UserCommunication struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	MobileNo   string `json:"mobileNo"`
	UserID     string `json:"userId"`
	Status     Status `json:"status"`
}

type UserCredentials struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Salt       string `json:"salt"`
	Hash       string `json:"hash"`
	UserID     string `json:"userId"`
	Status     Status `json:"status"`
}

type UserKeys struct {
	Identifier            string     `json:"identifier"`
	AesSecretKey          string     `json:"aesSecretKey"`
	HmacSecretKey         string     `json:"hmacSecretKey"`
	RefreshToken          string     `json:"refreshToken,omitempty"`
	RefreshTokenExpiresAt *time.Time `json:"refreshTokenExpiresAt,omitempty"`
	UserID                string     `json:"userId"`
	Status                Status     `json:"status"`
}

type UserSettings struct {
	Identifier              string   `json:"identifier"`
	EmailVerificationToken  string   `json:"emailVerificationToken"`
	IsEmailVerified         BoolFlag `json:"isEmailVerified"`
	IsVerificationEmailSent BoolFlag `json:"isVerificationEmailSent"`
	IsWelcomeEmailSent      BoolFlag `json:"isWelcomeEmailSent"`
	UserID                  string   `json:"userId"`
	Status                  Status   `json:"status"`
}

// UserAggregate bundles the root and its four owned sub-entities; they are
// created and updated as one consistency unit.
type UserAggregate struct {
	User          User              `json:"user"`
	Communication UserCommunication `json:"communication"`
	Credentials   UserCredentials   `json:"credentials"`
	Keys          UserKeys          `json:"keys"`
	Settings      UserSettings      `json:"settings"`
}
