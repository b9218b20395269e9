package services

import (
	"time"

	"estatehub/internal/core/domain"
)

// Actor is the authenticated caller of a service operation.
// Role is read from the caller's profile for every request.
type Actor struct {
	UserID string
	Role   domain.Role
}

// IsAdmin reports whether the actor holds the privileged role
func (a Actor) IsAdmin() bool {
	return a.Role.IsPrivileged()
}

// clock is swapped in tests
type clock func() time.Time

func timeNow() time.Time { return time.Now() }
