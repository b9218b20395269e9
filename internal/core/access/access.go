// Package access decides whether a caller may reach a route. The same
// decision is used by the HTTP middleware and by the client's navigation
// gate.
package access

import "estatehub/internal/core/domain"

// Tristate keeps "not yet known" apart from "known false"
type Tristate int

const (
	Unknown Tristate = iota
	False
	True
)

func (t Tristate) String() string {
	switch t {
	case False:
		return "false"
	case True:
		return "true"
	default:
		return "unknown"
	}
}

// Known reports whether the value has resolved
func (t Tristate) Known() bool { return t != Unknown }

// Privileged derives the tristate from a role; an empty role is unknown
func Privileged(role domain.Role) Tristate {
	switch {
	case role == "":
		return Unknown
	case role.IsPrivileged():
		return True
	default:
		return False
	}
}

// Outcome of a guard decision
type Outcome int

const (
	Allow Outcome = iota
	// Redirect sends the caller to sign-in, carrying ReturnTo
	Redirect
	// Deny shows an access-denied state naming the caller's role
	Deny
	// Pending means the role is still loading
	Pending
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	default:
		return "pending"
	}
}

// Decision is the result of guarding one target
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	ReturnTo string  `json:"return_to,omitempty"`
	Role     string  `json:"role,omitempty"`
}

// RoleLabel is the user-facing name of a role
func RoleLabel(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "privileged"
	case domain.RoleUser:
		return "standard"
	default:
		return "unknown"
	}
}

// Request is everything a guard decision depends on
type Request struct {
	SignedIn     bool
	RequireAdmin bool
	Privileged   Tristate
	Role         domain.Role
	Target       string
}

// Decide never redirects a signed-in caller; a standard role on an admin
// target is denied, not sent back to sign-in.
func Decide(r Request) Decision {
	if !r.SignedIn {
		return Decision{Outcome: Redirect, ReturnTo: r.Target}
	}
	if !r.RequireAdmin {
		return Decision{Outcome: Allow}
	}
	switch r.Privileged {
	case True:
		return Decision{Outcome: Allow}
	case False:
		return Decision{Outcome: Deny, Role: RoleLabel(r.Role)}
	default:
		return Decision{Outcome: Pending}
	}
}

// Settle resolves a pending decision once waiting is over
func Settle(d Decision) Decision {
	if d.Outcome != Pending {
		return d
	}
	return Decision{Outcome: Deny, Role: RoleLabel("")}
}
