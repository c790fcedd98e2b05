package auth

import (
	"testing"

	"pairchat/errors"

	"github.com/stretchr/testify/require"
)

func TestValidateRegister(t *testing.T) {
	req := require.New(t)

	valid := RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "longenough"}
	req.NoError(ValidateRegister(valid))

	cases := map[string]RegisterRequest{
		"short username": {Username: "al", Email: "alice@example.com", Password: "longenough"},
		"missing email":  {Username: "alice", Password: "longenough"},
		"bad email":      {Username: "alice", Email: "not-an-email", Password: "longenough"},
		"short password": {Username: "alice", Email: "alice@example.com", Password: "short"},
	}
	for name, r := range cases {
		req.ErrorIs(ValidateRegister(r), errors.ErrValidation, name)
	}
}

func TestValidateLogin(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateLogin(LoginRequest{Username: "alice", Password: "whatever"}))
	req.ErrorIs(ValidateLogin(LoginRequest{Username: "alice"}), errors.ErrValidation)
	req.ErrorIs(ValidateLogin(LoginRequest{Password: "whatever"}), errors.ErrValidation)
}
