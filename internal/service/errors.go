package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialMismatch cubre login desconocido y password incorrecto por igual.
	ErrCredentialMismatch = errors.New("credential mismatch")
	ErrNoUsersExist       = errors.New("no users exist")
	ErrTokenInvalid       = errors.New("remember token invalid")
	ErrTokenExpired       = errors.New("remember token expired")
	ErrTokenSigning       = errors.New("remember token signing failed")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrSessionNotFound    = errors.New("session not found")
	ErrEmptyPassword      = errors.New("password cannot be empty")
)

// storeUnavailable envuelve fallas de persistencia para que no se confundan
// con fallas de autenticacion.
func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
