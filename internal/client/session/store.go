// Package session holds the client's current authentication session and
// keeps it fresh.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"estatehub/internal/client/backend"
	"estatehub/internal/client/notice"
	"estatehub/internal/core/domain"
	"estatehub/internal/pkg/logger"
)

var (
	// ErrPartialSignUp means the account exists but its profile row could
	// not be written. The session is still valid.
	ErrPartialSignUp  = errors.New("account created but profile was not saved")
	ErrSessionExpired = errors.New("session expired")
)

const (
	// InitTimeout bounds Initialize
	InitTimeout = 20 * time.Second
	// RefreshThreshold is how close to expiry Validate starts refreshing
	RefreshThreshold = 5 * time.Minute
)

// State is the session lifecycle state
type State int

const (
	Unknown State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the store
type Snapshot struct {
	State     State
	User      *domain.User
	ExpiresAt time.Time
}

// SignedIn reports whether the snapshot carries a session
func (s Snapshot) SignedIn() bool {
	return s.State == Authenticated && s.User != nil
}

// UserID returns the signed-in user's id, or ""
func (s Snapshot) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Observer receives a snapshot after every state or identity change
type Observer func(Snapshot)

// Store owns the session. Construct with New.
type Store struct {
	auth        backend.Auth
	profiles    backend.Profiles
	notices     notice.Sink
	logger      *zap.Logger
	now         func() time.Time
	initTimeout time.Duration

	mu        sync.Mutex
	state     State
	session   *domain.Session
	gen       uint64
	observers map[int]Observer
	nextID    int

	unsubscribe func()
}

// Option configures a Store
type Option func(*Store)

func WithNotices(sink notice.Sink) Option { return func(s *Store) { s.notices = sink } }

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = logger.OrNop(l) } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func WithInitTimeout(d time.Duration) Option { return func(s *Store) { s.initTimeout = d } }

// New creates a store subscribed to the backend's auth events
func New(auth backend.Auth, profiles backend.Profiles, opts ...Option) *Store {
	s := &Store{
		auth:        auth,
		profiles:    profiles,
		notices:     notice.Discard,
		logger:      zap.NewNop(),
		now:         time.Now,
		initTimeout: InitTimeout,
		observers:   make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = auth.OnAuthStateChange(s.onAuthEvent)
	return s
}

// Close detaches the store from the backend's auth events
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Current returns a snapshot of the store
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Session returns a copy of the session, or nil
func (s *Store) Session() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Subscribe registers fn; the returned func removes it
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Initialize resolves any persisted session. It always leaves Loading:
// on error or after the timeout the store becomes Anonymous.
func (s *Store) Initialize(ctx context.Context) Snapshot {
	s.mu.Lock()
	prev := s.snapshotLocked()
	s.state = Loading
	s.gen++
	gen := s.gen
	next := s.snapshotLocked()
	fns := s.observersLocked()
	s.mu.Unlock()
	notify(prev, next, fns)

	ctx, cancel := context.WithTimeout(ctx, s.initTimeout)
	defer cancel()

	type result struct {
		session *domain.Session
		err     error
	}
	done := make(chan result, 1)
	go func() {
		sess, err := s.auth.GetSession(ctx)
		done <- result{sess, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			s.logger.Warn("⚠️ session lookup failed", zap.Error(r.err))
			s.notices.Notify(notice.FromBackend(r.err))
			s.setIfCurrent(gen, Anonymous, nil)
			break
		}
		if r.session == nil {
			s.setIfCurrent(gen, Anonymous, nil)
			break
		}
		s.setIfCurrent(gen, Authenticated, r.session)
	case <-ctx.Done():
		s.logger.Warn("⚠️ session lookup timed out", zap.Duration("timeout", s.initTimeout))
		s.setIfCurrent(gen, Anonymous, nil)
	}
	return s.Current()
}

// SignIn authenticates. Failures produce a notice and leave state alone.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	sess, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Info("sign in failed", zap.String("email", email), zap.Error(err))
		return notice.Emit(s.notices, notice.FromBackend(err))
	}
	s.set(Authenticated, sess)
	return nil
}

// SignUp creates the account and its standard profile. A profile write
// failure after the account exists returns ErrPartialSignUp.
func (s *Store) SignUp(ctx context.Context, email, password, fullName, phone string) error {
	metadata := map[string]string{}
	if fullName != "" {
		metadata[domain.MetaFullName] = fullName
	}
	if phone != "" {
		metadata[domain.MetaPhone] = phone
	}

	sess, err := s.auth.SignUp(ctx, email, password, metadata)
	if err != nil {
		s.logger.Info("sign up failed", zap.String("email", email), zap.Error(err))
		return notice.Emit(s.notices, notice.FromBackend(err))
	}
	s.set(Authenticated, sess)

	_, err = s.profiles.Insert(ctx, &domain.Profile{
		UserID:   sess.User.ID,
		Email:    sess.User.Email,
		FullName: fullName,
		Phone:    phone,
		Role:     domain.RoleUser,
	})
	if err == nil || errors.Is(err, backend.ErrConflict) {
		return nil
	}

	s.logger.Error("❌ profile insert after sign up failed",
		zap.String("user_id", sess.User.ID),
		zap.Error(err),
	)
	return notice.Emit(s.notices, notice.Notice{
		Level:   notice.LevelWarning,
		Code:    notice.CodeProfileIncomplete,
		Message: "Your account was created but your profile could not be saved. It will be completed on your next sign in.",
		Err:     fmt.Errorf("%w: %w", ErrPartialSignUp, err),
	})
}

// SignOut drops the local session, then revokes it remotely. A remote
// failure is only logged.
func (s *Store) SignOut(ctx context.Context) {
	s.set(Anonymous, nil)
	if err := s.auth.SignOut(ctx); err != nil {
		s.logger.Warn("⚠️ remote sign out failed", zap.Error(err))
	}
}

// Refresh renews the session and reports success
func (s *Store) Refresh(ctx context.Context) bool {
	sess, err := s.auth.RefreshSession(ctx)
	if err != nil {
		s.logger.Info("session refresh failed", zap.Error(err))
		return false
	}
	s.updateTokens(sess)
	return true
}

// Validate refreshes a session close to expiry and reports whether the
// session is usable.
func (s *Store) Validate(ctx context.Context) bool {
	sess := s.Session()
	if sess == nil {
		return false
	}

	now := s.now()
	if sess.ExpiresAt.Sub(now) > RefreshThreshold {
		return true
	}
	if s.Refresh(ctx) {
		return true
	}
	return now.Before(sess.ExpiresAt)
}

// EnsureValid signs out when an authenticated session fails Validate
func (s *Store) EnsureValid(ctx context.Context) error {
	if s.Current().State != Authenticated {
		return nil
	}
	if s.Validate(ctx) {
		return nil
	}

	s.logger.Info("session no longer valid, signing out")
	s.SignOut(ctx)
	return notice.Emit(s.notices, notice.Notice{
		Level:   notice.LevelWarning,
		Code:    notice.CodeSessionExpired,
		Message: "Your session has expired, please sign in again",
		Err:     ErrSessionExpired,
	})
}

func (s *Store) onAuthEvent(event backend.Event, sess *domain.Session) {
	switch event {
	case backend.EventSignedIn:
		if sess != nil {
			s.set(Authenticated, sess)
		}
	case backend.EventTokenRefreshed:
		s.updateTokens(sess)
	case backend.EventSignedOut:
		s.set(Anonymous, nil)
	}
}

// set moves to state and notifies observers if state or identity changed
func (s *Store) set(state State, sess *domain.Session) {
	s.mu.Lock()
	prev := s.snapshotLocked()
	s.state = state
	s.session = sess.Clone()
	s.gen++
	next := s.snapshotLocked()
	fns := s.observersLocked()
	s.mu.Unlock()
	notify(prev, next, fns)
}

// setIfCurrent is set for results that may have been overtaken
func (s *Store) setIfCurrent(gen uint64, state State, sess *domain.Session) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale session result")
		return
	}
	prev := s.snapshotLocked()
	s.state = state
	s.session = sess.Clone()
	next := s.snapshotLocked()
	fns := s.observersLocked()
	s.mu.Unlock()
	notify(prev, next, fns)
}

// updateTokens swaps in renewed tokens for the same identity silently
func (s *Store) updateTokens(sess *domain.Session) {
	if sess == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated || s.session == nil || s.session.User.ID != sess.User.ID {
		return
	}
	s.session = sess.Clone()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state}
	if s.session != nil {
		u := s.session.Clone().User
		snap.User = &u
		snap.ExpiresAt = s.session.ExpiresAt
	}
	return snap
}

func (s *Store) observersLocked() []Observer {
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Observer, len(ids))
	for i, id := range ids {
		fns[i] = s.observers[id]
	}
	return fns
}

func notify(prev, next Snapshot, fns []Observer) {
	if prev.State == next.State && prev.UserID() == next.UserID() {
		return
	}
	for _, fn := range fns {
		fn(next)
	}
}
