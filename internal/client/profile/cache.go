// Package profile caches the signed-in user's profile and keeps its role
// reasonably fresh.
package profile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"estatehub/internal/client/backend"
	"estatehub/internal/client/notice"
	"estatehub/internal/core/domain"
	"estatehub/internal/pkg/logger"
	"estatehub/internal/pkg/retry"
)

// CacheWindow is how long a fetched profile is served without a read
const CacheWindow = 5 * time.Minute

// ErrNotCurrent is returned for a user id that is not the bound identity
var ErrNotCurrent = errors.New("user is not the current identity")

// Observer receives the new profile, or nil after a reset
type Observer func(*domain.Profile)

// Cache holds at most one profile: the bound user's
type Cache struct {
	profiles backend.Profiles
	policy   retry.Policy
	window   time.Duration
	now      func() time.Time
	logger   *zap.Logger
	notices  notice.Sink

	group singleflight.Group

	mu        sync.Mutex
	user      *domain.User
	profile   *domain.Profile
	fetchedAt time.Time
	gen       uint64
	observers map[int]Observer
	nextID    int
}

// Option configures a Cache
type Option func(*Cache)

func WithPolicy(p retry.Policy) Option { return func(c *Cache) { c.policy = p } }

func WithWindow(d time.Duration) Option { return func(c *Cache) { c.window = d } }

func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

func WithLogger(l *zap.Logger) Option { return func(c *Cache) { c.logger = logger.OrNop(l) } }

func WithNotices(sink notice.Sink) Option { return func(c *Cache) { c.notices = sink } }

// New creates an unbound cache
func New(profiles backend.Profiles, opts ...Option) *Cache {
	c := &Cache{
		profiles:  profiles,
		policy:    retry.DefaultPolicy(),
		window:    CacheWindow,
		now:       time.Now,
		logger:    zap.NewNop(),
		notices:   notice.Discard,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind makes user the current identity. Binding a different user (or nil)
// drops the cached profile; results still in flight for the previous user
// are discarded when they land.
func (c *Cache) Bind(user *domain.User) {
	c.mu.Lock()
	if user != nil && c.user != nil && c.user.ID == user.ID {
		u := *user
		c.user = &u
		c.mu.Unlock()
		return
	}

	hadProfile := c.profile != nil
	c.gen++
	c.profile = nil
	c.fetchedAt = time.Time{}
	c.user = nil
	if user != nil {
		u := *user
		c.user = &u
	}
	fns := c.observersLocked()
	c.mu.Unlock()

	if hadProfile {
		for _, fn := range fns {
			fn(nil)
		}
	}
}

// Reset unbinds the cache
func (c *Cache) Reset() { c.Bind(nil) }

// Current returns the cached profile, or nil
func (c *Cache) Current() *domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile.Clone()
}

// UserID returns the bound identity's id, or ""
func (c *Cache) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return ""
	}
	return c.user.ID
}

// Subscribe registers fn for profile changes
func (c *Cache) Subscribe(fn func(*domain.Profile)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// Fetch returns the profile for the bound user, reading it remotely when
// the cached copy is older than the cache window or forceFresh is set.
// On failure the last known profile (possibly nil) is returned with the
// error; a missing profile is created with the standard role.
func (c *Cache) Fetch(ctx context.Context, userID string, forceFresh bool) (*domain.Profile, error) {
	c.mu.Lock()
	if c.user == nil || c.user.ID != userID {
		c.mu.Unlock()
		return nil, ErrNotCurrent
	}
	if !forceFresh && c.profile != nil && c.now().Sub(c.fetchedAt) < c.window {
		p := c.profile.Clone()
		c.mu.Unlock()
		return p, nil
	}
	gen := c.gen
	c.mu.Unlock()

	v, err, shared := c.group.Do(userID, func() (interface{}, error) {
		return c.load(ctx, userID, gen)
	})
	if shared {
		c.logger.Debug("profile fetch shared", zap.String("user_id", userID))
	}
	p, _ := v.(*domain.Profile)
	return p.Clone(), err
}

// CreateDefault writes a standard profile for the bound user from the
// identity's email and sign-up metadata, then re-fetches it.
func (c *Cache) CreateDefault(ctx context.Context, userID string) (*domain.Profile, error) {
	c.mu.Lock()
	if c.user == nil || c.user.ID != userID {
		c.mu.Unlock()
		return nil, ErrNotCurrent
	}
	gen := c.gen
	c.mu.Unlock()

	p, err := c.createDefault(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(gen, p)
	return p.Clone(), nil
}

func (c *Cache) load(ctx context.Context, userID string, gen uint64) (*domain.Profile, error) {
	p, err := c.get(ctx, userID)
	if errors.Is(err, backend.ErrNotFound) {
		c.logger.Info("📝 no profile yet, creating default", zap.String("user_id", userID))
		p, err = c.createDefault(ctx, userID)
	}
	if err != nil {
		c.logger.Warn("⚠️ profile fetch failed, keeping last known value",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.notices.Notify(notice.Notice{
			Level:   notice.LevelWarning,
			Code:    notice.FromBackend(err).Code,
			Message: "Could not load your profile, some options may be unavailable",
			Err:     err,
		})
		return c.lastKnown(gen), err
	}

	c.store(gen, p)
	return p, nil
}

func (c *Cache) get(ctx context.Context, userID string) (*domain.Profile, error) {
	var p *domain.Profile
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		p, err = c.profiles.Get(ctx, userID)
		return err
	}, backend.IsTransient)
	return p, err
}

func (c *Cache) createDefault(ctx context.Context, userID string) (*domain.Profile, error) {
	c.mu.Lock()
	if c.user == nil || c.user.ID != userID {
		c.mu.Unlock()
		return nil, ErrNotCurrent
	}
	user := *c.user
	c.mu.Unlock()

	_, err := c.profiles.Insert(ctx, &domain.Profile{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.Metadata[domain.MetaFullName],
		Phone:    user.Metadata[domain.MetaPhone],
		Role:     domain.RoleUser,
	})
	if err != nil && !errors.Is(err, backend.ErrConflict) {
		return nil, err
	}
	return c.get(ctx, userID)
}

// store caches p unless the identity changed since gen
func (c *Cache) store(gen uint64, p *domain.Profile) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("dropping profile for previous identity", zap.String("user_id", p.UserID))
		return false
	}
	changed := c.profile == nil || *c.profile != *p
	c.profile = p.Clone()
	c.fetchedAt = c.now()
	fns := c.observersLocked()
	c.mu.Unlock()

	if changed {
		for _, fn := range fns {
			fn(p.Clone())
		}
	}
	return true
}

func (c *Cache) lastKnown(gen uint64) *domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	return c.profile.Clone()
}

func (c *Cache) observersLocked() []Observer {
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Observer, len(ids))
	for i, id := range ids {
		fns[i] = c.observers[id]
	}
	return fns
}
