package utils

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenBytes is the entropy of a feed bearer token.
	TokenBytes = 32
	// HashCost is the bcrypt cost used for codes and tokens (~50ms per verify).
	HashCost = bcrypt.DefaultCost
)

// GenerateToken returns a new URL-safe bearer token with TokenBytes of entropy.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateCode returns a 6-digit verification code, uniform over 100000-999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return big.NewInt(0).Add(n, big.NewInt(100000)).String(), nil
}

// HashSecret hashes a verification code or bearer token with bcrypt.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), HashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifySecret reports whether secret matches the stored bcrypt hash.
// bcrypt's comparison is the only trusted constant-time path for secrets.
func VerifySecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
