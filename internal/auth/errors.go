package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("auth: invalid input")
	ErrConflict       = errors.New("auth: already exists")
	ErrNotFound       = errors.New("auth: not found")
	ErrUnauthorized   = errors.New("auth: unauthorized")
	ErrNotInitialized = errors.New("auth: not initialized")
	ErrStorageTimeout = errors.New("auth: storage timeout")
	ErrInvalidToken   = errors.New("auth: invalid token")
)

// Specific validation failures. Each wraps ErrInvalidInput so callers can
// match either the broad class or the precise cause.
var (
	ErrNameEmpty    = fmt.Errorf("%w: name is empty", ErrInvalidInput)
	ErrNameReserved = fmt.Errorf("%w: name starts with reserved prefix", ErrInvalidInput)
	ErrMalformedID  = fmt.Errorf("%w: malformed id", ErrInvalidInput)
)
