// Package app wires the client components together and reacts to session
// changes: every new identity gets a fresh profile and cart.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"estatehub/internal/client/authz"
	"estatehub/internal/client/backend"
	"estatehub/internal/client/cart"
	"estatehub/internal/client/notice"
	"estatehub/internal/client/profile"
	"estatehub/internal/client/session"
	"estatehub/internal/core/access"
	"estatehub/internal/core/payment"
	"estatehub/internal/pkg/logger"
	"estatehub/internal/pkg/retry"
)

// DefaultValidateSpec runs session validation every minute
const DefaultValidateSpec = "@every 60s"

// identityTimeout bounds the profile and cart load after a session change
const identityTimeout = 30 * time.Second

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrCheckoutDenied = errors.New("checkout not allowed")
)

// Options configures an App
type Options struct {
	Logger       *zap.Logger
	Notices      notice.Sink
	Retry        *retry.Policy
	ValidateSpec string
}

// App is the client
type App struct {
	Backend  backend.Backend
	Session  *session.Store
	Profiles *profile.Cache
	Gate     *authz.Gate
	Cart     *cart.Cart

	logger  *zap.Logger
	notices notice.Sink
	cron    *cron.Cron
	spec    string

	unsubscribe func()
}

// New builds the component graph over b
func New(b backend.Backend, opts Options) *App {
	log := logger.OrNop(opts.Logger)
	sink := opts.Notices
	if sink == nil {
		sink = notice.Discard
	}
	policy := retry.DefaultPolicy()
	if opts.Retry != nil {
		policy = *opts.Retry
	}
	spec := opts.ValidateSpec
	if spec == "" {
		spec = DefaultValidateSpec
	}

	sessions := session.New(b.Auth, b.Profiles,
		session.WithLogger(log.Named("session")),
		session.WithNotices(sink),
	)
	profiles := profile.New(b.Profiles,
		profile.WithLogger(log.Named("profile")),
		profile.WithNotices(sink),
		profile.WithPolicy(policy),
	)

	return &App{
		Backend:  b,
		Session:  sessions,
		Profiles: profiles,
		Gate:     authz.New(sessions, profiles),
		Cart: cart.New(b.Cart, b.Listings,
			cart.WithLogger(log.Named("cart")),
			cart.WithNotices(sink),
			cart.WithPolicy(policy),
		),
		logger:  log,
		notices: sink,
		cron:    cron.New(),
		spec:    spec,
	}
}

// Start subscribes to session changes, resolves any persisted session and
// schedules periodic validation.
func (a *App) Start(ctx context.Context) error {
	a.unsubscribe = a.Session.Subscribe(a.onSessionChange)
	a.Session.Initialize(ctx)

	if _, err := a.cron.AddFunc(a.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), identityTimeout)
		defer cancel()
		_ = a.ValidateSession(ctx)
	}); err != nil {
		return err
	}
	a.cron.Start()
	a.logger.Info("✅ client started", zap.String("validate_spec", a.spec))
	return nil
}

// Stop halts the validation job and detaches from the backend
func (a *App) Stop() {
	<-a.cron.Stop().Done()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.Session.Close()
}

// ValidateSession keeps a session fresh and signs out an unusable one
func (a *App) ValidateSession(ctx context.Context) error {
	return a.Session.EnsureValid(ctx)
}

func (a *App) onSessionChange(snap session.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), identityTimeout)
	defer cancel()

	if !snap.SignedIn() {
		a.Profiles.Reset()
		_ = a.Cart.Load(ctx, nil)
		a.logger.Debug("identity cleared", zap.String("state", snap.State.String()))
		return
	}

	a.Profiles.Bind(snap.User)
	a.Cart.Reset()
	a.loadIdentity(ctx, snap.User.ID, false)
}

// loadIdentity fetches the profile, then loads the cart if the role allows
func (a *App) loadIdentity(ctx context.Context, userID string, forceFresh bool) {
	p, err := a.Profiles.Fetch(ctx, userID, forceFresh)
	if p == nil {
		a.logger.Warn("⚠️ role unknown, cart not loaded", zap.String("user_id", userID), zap.Error(err))
		return
	}
	_ = a.Cart.Load(ctx, &cart.Owner{UserID: userID, Privileged: p.Role.IsPrivileged()})
}

// RefreshIdentity re-reads the profile and reloads the cart
func (a *App) RefreshIdentity(ctx context.Context) {
	snap := a.Session.Current()
	if !snap.SignedIn() {
		return
	}
	a.loadIdentity(ctx, snap.UserID(), true)
}

// Checkout estimates payment for the cart. Only signed-in standard users
// with a non-empty cart may check out.
func (a *App) Checkout(ctx context.Context, months int) (payment.Breakdown, error) {
	_, d, err := a.Gate.Navigate(ctx, "checkout")
	if err != nil {
		return payment.Breakdown{}, err
	}
	if d.Outcome != access.Allow {
		return payment.Breakdown{}, notice.Emit(a.notices, notice.Notice{
			Level:   notice.LevelInfo,
			Code:    notice.CodeSignInRequired,
			Message: "Sign in to check out",
			Err:     ErrCheckoutDenied,
		})
	}
	if a.Gate.IsPrivileged() == access.True {
		return payment.Breakdown{}, notice.Emit(a.notices, notice.Notice{
			Level:   notice.LevelInfo,
			Code:    notice.CodePrivilegedCart,
			Message: "Admin accounts cannot check out",
			Err:     ErrCheckoutDenied,
		})
	}

	listings := a.Cart.Listings()
	if len(listings) == 0 {
		return payment.Breakdown{}, ErrEmptyCart
	}
	return payment.Estimate(listings, months)
}
