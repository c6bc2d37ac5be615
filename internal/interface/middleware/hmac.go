package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchapp/user-service/pkg/crypto"
	"github.com/matchapp/user-service/pkg/response"
)

const (
	HeaderClientID  = "x-client-id"
	HeaderSignature = "x-auth-signature"
)

// SecretResolver returns the signing secret for a client id.
type SecretResolver func(clientID string) (string, error)

// VerifySignature checks x-auth-signature against an HMAC-SHA256 of the raw
// request body. The body is restored afterwards so handlers can still bind it.
func VerifySignature(resolve SecretResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(HeaderClientID)
		signature := c.GetHeader(HeaderSignature)
		if clientID == "" || signature == "" {
			response.Error(c, http.StatusUnauthorized, "missing signature headers", nil)
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "unreadable request body", nil)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		secret, err := resolve(clientID)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "unknown client", nil)
			c.Abort()
			return
		}

		if !crypto.CompareHMAC(string(body), secret, signature) {
			response.Error(c, http.StatusUnauthorized, "invalid signature", nil)
			c.Abort()
			return
		}

		c.Set("client_id", clientID)
		c.Next()
	}
}
