// Package auth provides password hashing and opaque access tokens for the
// optional account system.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword generates a salted bcrypt hash for a plain-text password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a plain-text password against a stored hash using
// a constant-time comparison.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
