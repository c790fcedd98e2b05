package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is fixed at hash time; verification reads the cost
// back out of the stored hash.
const bcryptCost = 12

// HashPassword generates a bcrypt hash from a plain text password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword compares a plain text password with a stored hash.
// The comparison is one-way and constant time.
func ComparePassword(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}
