package account

import "errors"

var (
	// ErrUnauthorized indicates an unknown or empty token.
	ErrUnauthorized = errors.New("unauthorized: invalid token")
	// ErrInvalidInput indicates invalid key input.
	ErrInvalidInput = errors.New("invalid api key input")
	// ErrKeyNotFound indicates the key doesn't exist.
	ErrKeyNotFound = errors.New("api key not found")
)
