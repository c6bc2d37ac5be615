package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/matchapp/user-service/internal/application/events"
	"github.com/matchapp/user-service/internal/application/users"
	"github.com/matchapp/user-service/internal/domain/entity"
	"github.com/matchapp/user-service/internal/mediator"
	"github.com/matchapp/user-service/pkg/response"
	"github.com/matchapp/user-service/pkg/validation"
)

type UserHandler struct {
	Mediator *mediator.Mediator
	GetUser  *users.GetUserService
	Logger   *logrus.Logger
}

func NewUserHandler(med *mediator.Mediator, getUser *users.GetUserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Mediator: med, GetUser: getUser, Logger: logger}
}

// aesRequest is the outer envelope: the real payload travels encrypted in
// body as "ivHex:cipherHex".
type aesRequest struct {
	Body string `json:"body" binding:"required"`
}

type aesResponse struct {
	Body string `json:"body"`
}

// Create accepts an encrypted registration payload and answers with an
// encrypted response body plus the new identifiers.
func (h *UserHandler) Create(c *gin.Context) {
	var req aesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	out, err := h.Mediator.Send(c.Request.Context(), events.CommandCreateUser, &users.CreateUserCommand{Body: req.Body})
	if err != nil {
		response.FromError(c, err)
		return
	}
	res, ok := out.(*users.CreateUserResult)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "unexpected command result", nil)
		return
	}

	response.Success(c, http.StatusCreated, aesResponse{Body: res.EncryptedBody}, "user created")
}

// Get returns the cached aggregate for an identifier, refreshing the cache
// when the stored version has moved on.
func (h *UserHandler) Get(c *gin.Context) {
	identifier := c.Param("identifier")
	if identifier == "" {
		response.Error(c, http.StatusBadRequest, "missing identifier", nil)
		return
	}

	// New accounts stay inactive until the email is verified, so lookups
	// default to the inactive partition unless the caller asks otherwise.
	status := entity.StatusInactive
	if c.Query("status") == "1" {
		status = entity.StatusActive
	}

	agg, err := h.GetUser.Get(c.Request.Context(), identifier, status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, agg, "user")
}
