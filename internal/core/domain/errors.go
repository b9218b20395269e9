package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Listing errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrInvalidCategory = errors.New("invalid listing category")
)

// Cart errors
var (
	ErrAlreadyInCart   = errors.New("listing already in cart")
	ErrPrivilegedCart  = errors.New("privileged accounts have no cart")
	ErrCartEntryAbsent = errors.New("cart entry not found")
)
