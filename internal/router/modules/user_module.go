package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/matchapp/user-service/internal/interface/http"
	"github.com/matchapp/user-service/internal/interface/middleware"
)

// UserModule wires the user routes under the given RouterGroup (usually
// /api/v1). Writes require a valid x-auth-signature over the raw body.
type UserModule struct {
	Handler    *handlers.UserHandler
	HMACSecret string
}

func NewUserModule(h *handlers.UserHandler, hmacSecret string) *UserModule {
	return &UserModule{Handler: h, HMACSecret: hmacSecret}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	verify := middleware.VerifySignature(func(string) (string, error) {
		return m.HMACSecret, nil
	})

	rg.POST("/users", verify, m.Handler.Create)
	rg.GET("/users/:identifier", m.Handler.Get)
}
