package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failures. All three collapse into a generic
// unauthorized at the transport edge; the split exists for tests and logs.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenBadSign   = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// CustomClaims defines the structure of the data stored inside the JWT.
// A token is self-contained: verifying it requires no storage round-trip.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a specific user.
// Expiry is fixed at issue time; there is no revocation mechanism.
func GenerateToken(userID, username string, secret []byte,
	authTokenDuration time.Duration) (string, error) {
	now := time.Now()

	claims := &CustomClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(authTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "pairchat",
		},
	}

	// Create the token using the HS256 algorithm (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

// ValidateToken parses and validates the signature and expiration of a JWT
// string. It is pure: no side effects, no storage access.
func ValidateToken(tokenString string, secret []byte) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenBadSign
		default:
			return nil, ErrTokenMalformed
		}
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenBadSign
}
