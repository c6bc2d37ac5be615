package users

// CreateUserRequest is the decrypted create payload. Validation mirrors the
// public contract: names 2-50 chars, 10-digit mobile, password 8-20 with at
// least one letter and one digit.
type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,personname"`
	LastName  string `json:"lastName" validate:"required,personname"`
	Email     string `json:"email" validate:"required,email"`
	MobileNo  string `json:"mobileNo" validate:"required,mobile"`
	Password  string `json:"password" validate:"required,pwd"`
}

// CreateUserResponse is encrypted before it leaves the service; only the
// public identifiers go back to the caller.
type CreateUserResponse struct {
	Identifier string `json:"identifier"`
	ClientID   string `json:"clientId"`
}

// CreateUserCommand carries the still-encrypted request body into the
// mediator.
type CreateUserCommand struct {
	Body string
}

// CreateUserResult is what the command hands back to the transport layer.
type CreateUserResult struct {
	EncryptedBody string
	Identifier    string
	ClientID      string
}
