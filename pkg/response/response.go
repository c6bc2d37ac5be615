package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matchapp/user-service/pkg/apperr"
)

// DataResponse is the envelope every endpoint answers with: a success flag,
// the status code repeated in the body, and either data or error details.
type DataResponse[T any] struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Timestamp  time.Time   `json:"timestamp"`
	RequestID  string      `json:"request_id"`
	Message    string      `json:"message"`
	Data       T           `json:"data,omitempty"`
	Error      interface{} `json:"error,omitempty"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, DataResponse[T]{
		Success:    true,
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
		RequestID:  ctx.GetString("request_id"),
		Message:    message,
		Data:       data,
	})
}

func Error(ctx *gin.Context, status int, message string, details interface{}) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.JSON(status, DataResponse[any]{
		Success:    false,
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
		RequestID:  ctx.GetString("request_id"),
		Message:    message,
		Error:      details,
	})
}

// FromError maps a typed service error onto the envelope.
func FromError(ctx *gin.Context, err error) {
	Error(ctx, apperr.StatusOf(err), apperr.MessageOf(err), nil)
}
