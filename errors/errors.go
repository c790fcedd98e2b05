package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation covers missing or malformed required fields,
	// always raised before any side effect.
	ErrValidation = fmt.Errorf("validation error")

	// ErrUnauthorized is deliberately generic: callers never learn
	// which auth check failed.
	ErrUnauthorized = fmt.Errorf("unauthorized")

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrNotFound          = fmt.Errorf("not found")
	ErrPersistence       = fmt.Errorf("persistence error")
	ErrUserAlreadyExists = fmt.Errorf("user already exists")
	ErrPairExists        = fmt.Errorf("conversation already exists for pair")
)

// HTTPStatus maps the error taxonomy onto response codes for the
// request-style operations. Anything unrecognized is a persistence-grade 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
