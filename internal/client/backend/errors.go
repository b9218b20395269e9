package backend

import (
	"errors"
	"fmt"
)

// Error kinds; every backend failure wraps exactly one of them
var (
	ErrTransient          = errors.New("backend temporarily unavailable")
	ErrNotFound           = errors.New("record not found")
	ErrUnauthorized       = errors.New("not signed in or session expired")
	ErrForbidden          = errors.New("not allowed")
	ErrConflict           = errors.New("record already exists")
	ErrBadRequest         = errors.New("request rejected")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error is a failed backend call
type Error struct {
	Kind    error
	Status  int
	Code    string
	Message string
	Data    map[string]interface{}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

// IsTransient reports whether retrying err may succeed
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// KindForStatus maps an HTTP status to an error kind
func KindForStatus(status int) error {
	switch {
	case status == 400 || status == 413 || status == 422:
		return ErrBadRequest
	case status == 401:
		return ErrUnauthorized
	case status == 403:
		return ErrForbidden
	case status == 404:
		return ErrNotFound
	case status == 409:
		return ErrConflict
	case status == 408 || status == 429 || status >= 500:
		return ErrTransient
	default:
		return ErrBadRequest
	}
}
