package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
)

// Request and response bodies travel as "iv:ciphertext" with both parts hex
// encoded. The key is the shared 32-byte service encryption key; per-client
// payloads use the client's aes_secret_key from user_keys.

var (
	ErrInvalidKey        = errors.New("encryption key must be 32 bytes")
	ErrInvalidCiphertext = errors.New("ciphertext is malformed")
)

type BodyCipher struct {
	key []byte
}

func NewBodyCipher(key string) (*BodyCipher, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return &BodyCipher{key: []byte(key)}, nil
}

func (c *BodyCipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

func (c *BodyCipher) Decrypt(body string) (string, error) {
	ivHex, dataHex, ok := strings.Cut(body, ":")
	if !ok {
		return "", ErrInvalidCiphertext
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrInvalidCiphertext
	}
	data, err := hex.DecodeString(dataHex)
	if err != nil || len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", ErrInvalidCiphertext
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrInvalidCiphertext
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrInvalidCiphertext
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrInvalidCiphertext
		}
	}
	return b[:len(b)-n], nil
}
