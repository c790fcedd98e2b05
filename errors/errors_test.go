package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	req := require.New(t)

	req.Equal(http.StatusBadRequest, HTTPStatus(ErrValidation))
	req.Equal(http.StatusBadRequest, HTTPStatus(ErrUserAlreadyExists))
	req.Equal(http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	req.Equal(http.StatusUnauthorized, HTTPStatus(ErrInvalidCredentials))
	req.Equal(http.StatusNotFound, HTTPStatus(ErrNotFound))
	req.Equal(http.StatusInternalServerError, HTTPStatus(ErrPersistence))

	// Wrapping keeps the mapping
	req.Equal(http.StatusBadRequest, HTTPStatus(fmt.Errorf("register: %w", ErrValidation)))
}

func TestInvalidCredentials_Is_Unauthorized(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(ErrInvalidCredentials, ErrUnauthorized)
}
