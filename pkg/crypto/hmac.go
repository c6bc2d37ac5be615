package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateHMAC signs payload with the client secret using HMAC-SHA256 and
// returns the hex signature carried in the x-auth-signature header.
func GenerateHMAC(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// CompareHMAC reports whether received matches the expected signature for
// payload. Comparison is constant time.
func CompareHMAC(payload, secret, received string) bool {
	expected := GenerateHMAC(payload, secret)
	return hmac.Equal([]byte(expected), []byte(received))
}
