// Package authz answers whether the signed-in user is privileged and
// guards navigation to named routes.
package authz

import (
	"context"
	"errors"
	"time"

	"estatehub/internal/client/session"
	"estatehub/internal/core/access"
	"estatehub/internal/core/domain"
)

// ProfileWaitTimeout bounds how long Guard waits for a loading profile
const ProfileWaitTimeout = 3 * time.Second

// ErrUnknownRoute is returned by Navigate for unregistered names
var ErrUnknownRoute = errors.New("unknown route")

// Sessions is the part of the session store the gate reads
type Sessions interface {
	Current() session.Snapshot
}

// Profiles is the part of the profile cache the gate reads
type Profiles interface {
	Current() *domain.Profile
	Subscribe(fn func(*domain.Profile)) func()
}

// Route is a named navigation target
type Route struct {
	Name         string
	Path         string
	SignedIn     bool
	RequireAdmin bool
}

// Routes is the client's navigation table
var Routes = []Route{
	{Name: "home", Path: "/"},
	{Name: "listings", Path: "/listings"},
	{Name: "cart", Path: "/cart", SignedIn: true},
	{Name: "checkout", Path: "/checkout", SignedIn: true},
	{Name: "profile", Path: "/profile", SignedIn: true},
	{Name: "dashboard", Path: "/dashboard", SignedIn: true},
	{Name: "admin/listings", Path: "/admin/listings", SignedIn: true, RequireAdmin: true},
	{Name: "admin/users", Path: "/admin/users", SignedIn: true, RequireAdmin: true},
}

// Lookup finds a route by name
func Lookup(name string) (Route, bool) {
	for _, r := range Routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Gate derives privilege from the profile cache on every call
type Gate struct {
	sessions Sessions
	profiles Profiles
	wait     time.Duration
}

// New creates a gate
func New(sessions Sessions, profiles Profiles) *Gate {
	return &Gate{sessions: sessions, profiles: profiles, wait: ProfileWaitTimeout}
}

// WithWait overrides the profile wait timeout
func (g *Gate) WithWait(d time.Duration) *Gate {
	g.wait = d
	return g
}

// IsPrivileged reports the signed-in user's privilege. It is Unknown while
// no profile for the current identity is cached.
func (g *Gate) IsPrivileged() access.Tristate {
	t, _ := g.privilege()
	return t
}

func (g *Gate) privilege() (access.Tristate, domain.Role) {
	snap := g.sessions.Current()
	if !snap.SignedIn() {
		return access.Unknown, ""
	}
	p := g.profiles.Current()
	if p == nil || p.UserID != snap.UserID() {
		return access.Unknown, ""
	}
	return access.Privileged(p.Role), p.Role
}

func (g *Gate) decide(target string, requireAdmin bool) access.Decision {
	privileged, role := g.privilege()
	return access.Decide(access.Request{
		SignedIn:     g.sessions.Current().SignedIn(),
		RequireAdmin: requireAdmin,
		Privileged:   privileged,
		Role:         role,
		Target:       target,
	})
}

// Guard decides whether target is reachable. While the profile of a
// signed-in user is still loading on an admin route it waits up to the
// gate's timeout, then decides with whatever is known.
func (g *Gate) Guard(ctx context.Context, target string, requireAdmin bool) access.Decision {
	d := g.decide(target, requireAdmin)
	if d.Outcome != access.Pending {
		return d
	}

	changed := make(chan struct{}, 1)
	unsubscribe := g.profiles.Subscribe(func(*domain.Profile) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	timer := time.NewTimer(g.wait)
	defer timer.Stop()

	for {
		// re-check after subscribing so a change in between is not missed
		if d = g.decide(target, requireAdmin); d.Outcome != access.Pending {
			return d
		}
		select {
		case <-changed:
		case <-timer.C:
			return access.Settle(g.decide(target, requireAdmin))
		case <-ctx.Done():
			return access.Settle(g.decide(target, requireAdmin))
		}
	}
}

// Navigate guards a named route
func (g *Gate) Navigate(ctx context.Context, name string) (Route, access.Decision, error) {
	r, ok := Lookup(name)
	if !ok {
		return Route{}, access.Decision{}, ErrUnknownRoute
	}
	if !r.SignedIn {
		return r, access.Decision{Outcome: access.Allow}, nil
	}
	return r, g.Guard(ctx, r.Path, r.RequireAdmin), nil
}
