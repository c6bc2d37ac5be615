package helpers

import "golang.org/x/crypto/bcrypt"

// HashedPassword carries the bcrypt hash plus the salt component persisted on
// the credentials row. bcrypt embeds the salt in the hash; the prefix is
// stored separately because the credentials table keeps a salt column.
type HashedPassword struct {
	Hash string
	Salt string
}

// HashPassword hashes the plain text password using bcrypt.
func HashPassword(plain string) (HashedPassword, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return HashedPassword{}, err
	}
	hash := string(b)
	// $2a$10$<22-char-salt><31-char-digest>
	salt := hash
	if len(hash) >= 29 {
		salt = hash[:29]
	}
	return HashedPassword{Hash: hash, Salt: salt}, nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password.
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
