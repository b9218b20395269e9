// Package notice carries user-facing messages out of the client components.
// A Notice is also an error, so a component can both report it to the sink
// and return it to the caller.
package notice

import (
	"errors"
	"sync"

	"estatehub/internal/client/backend"
)

// Level is the notice severity
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice codes
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnavailable        = "unavailable"
	CodeSessionExpired     = "session_expired"
	CodeForbidden          = "forbidden"
	CodeConflict           = "conflict"
	CodeNotFound           = "not_found"
	CodeRejected           = "rejected"
	CodeFailed             = "failed"
	CodeSignInRequired     = "sign_in_required"
	CodePrivilegedCart     = "privileged_cart"
	CodeAlreadyInCart      = "already_in_cart"
	CodeAddedToCart        = "added_to_cart"
	CodeRemovedFromCart    = "removed_from_cart"
	CodeCartCleared        = "cart_cleared"
	CodeProfileIncomplete  = "profile_incomplete"
	CodeAccessDenied       = "access_denied"
)

// Notice is a user-facing message
type Notice struct {
	Level   Level
	Code    string
	Message string
	Err     error
}

func (n *Notice) Error() string { return n.Message }

func (n *Notice) Unwrap() error { return n.Err }

// Sink receives notices
type Sink interface {
	Notify(n Notice)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(n Notice)

func (f SinkFunc) Notify(n Notice) { f(n) }

// Discard drops every notice
var Discard Sink = SinkFunc(func(Notice) {})

// Emit sends n to sink and returns it as an error
func Emit(sink Sink, n Notice) error {
	if sink != nil {
		sink.Notify(n)
	}
	return &n
}

// FromBackend describes a failed backend call for the user
func FromBackend(err error) Notice {
	n := Notice{Level: LevelError, Err: err}
	switch {
	case errors.Is(err, backend.ErrInvalidCredentials):
		n.Code, n.Message = CodeInvalidCredentials, "Invalid email or password"
	case errors.Is(err, backend.ErrTransient):
		n.Code, n.Message = CodeUnavailable, "Cannot reach the server, please try again"
	case errors.Is(err, backend.ErrUnauthorized):
		n.Code, n.Message = CodeSessionExpired, "Your session has expired, please sign in again"
	case errors.Is(err, backend.ErrForbidden):
		n.Code, n.Message = CodeForbidden, "You are not allowed to do that"
	case errors.Is(err, backend.ErrConflict):
		n.Code, n.Message = CodeConflict, "That record already exists"
	case errors.Is(err, backend.ErrNotFound):
		n.Code, n.Message = CodeNotFound, "That record no longer exists"
	case errors.Is(err, backend.ErrBadRequest):
		n.Code, n.Message = CodeRejected, "The request was rejected"
		var apiErr *backend.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			n.Message = apiErr.Message
		}
	default:
		n.Code, n.Message = CodeFailed, "Something went wrong"
	}
	return n
}

// Recorder keeps every notice it receives
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// All returns a copy of the recorded notices
func (r *Recorder) All() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Count returns how many notices carried code
func (r *Recorder) Count(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.notices {
		if item.Code == code {
			n++
		}
	}
	return n
}

// Last returns the most recent notice
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
