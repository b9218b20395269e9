// Package cart keeps a standard user's selected listings in sync with the
// backend and answers local membership queries without I/O.
package cart

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"estatehub/internal/client/backend"
	"estatehub/internal/client/notice"
	"estatehub/internal/core/domain"
	"estatehub/internal/pkg/logger"
	"estatehub/internal/pkg/retry"
)

var (
	ErrNotSignedIn   = errors.New("sign in to use the cart")
	ErrPrivileged    = errors.New("privileged accounts have no cart")
	ErrAlreadyInCart = errors.New("listing already in cart")
)

// Owner is the identity the cart belongs to
type Owner struct {
	UserID     string
	Privileged bool
}

// Item is a cart entry joined with its listing
type Item struct {
	Entry   domain.CartEntry
	Listing domain.Listing
}

// Cart is the client-side cart. The zero value is not usable; call New.
type Cart struct {
	entries  backend.CartEntries
	listings backend.Listings
	notices  notice.Sink
	logger   *zap.Logger
	policy   retry.Policy

	mu    sync.RWMutex
	owner *Owner
	items []Item
	index map[string]int
	gen   uint64
}

// Option configures a Cart
type Option func(*Cart)

func WithNotices(sink notice.Sink) Option { return func(c *Cart) { c.notices = sink } }

func WithLogger(l *zap.Logger) Option { return func(c *Cart) { c.logger = logger.OrNop(l) } }

func WithPolicy(p retry.Policy) Option { return func(c *Cart) { c.policy = p } }

// New creates an empty cart with no owner
func New(entries backend.CartEntries, listings backend.Listings, opts ...Option) *Cart {
	c := &Cart{
		entries:  entries,
		listings: listings,
		notices:  notice.Discard,
		logger:   zap.NewNop(),
		policy:   retry.DefaultPolicy(),
		index:    map[string]int{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the cart with owner's entries. A nil or privileged owner
// empties the cart without fetching. Entries whose listing no longer
// exists are dropped.
func (c *Cart) Load(ctx context.Context, owner *Owner) error {
	c.mu.Lock()
	if owner == nil || c.owner == nil || c.owner.UserID != owner.UserID {
		c.resetLocked()
	}
	c.owner = nil
	if owner != nil {
		o := *owner
		c.owner = &o
	}
	if owner == nil || owner.Privileged {
		c.resetLocked()
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.mu.Unlock()

	return c.fetch(ctx, *owner, gen)
}

// fetch reads owner's entries and listings and applies them only if the
// cart is still at generation gen.
func (c *Cart) fetch(ctx context.Context, owner Owner, gen uint64) error {
	var rows []*domain.CartEntry
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		rows, err = c.entries.List(ctx)
		return err
	}, backend.IsTransient)
	if err != nil {
		c.logger.Warn("⚠️ cart entries fetch failed", zap.String("user_id", owner.UserID), zap.Error(err))
		return notice.Emit(c.notices, notice.FromBackend(err))
	}

	ids := make([]string, len(rows))
	for i, e := range rows {
		ids[i] = e.ListingID
	}

	var listings []*domain.Listing
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		listings, err = c.listings.GetMany(ctx, ids)
		return err
	}, backend.IsTransient)
	if err != nil {
		c.logger.Warn("⚠️ cart listings fetch failed", zap.String("user_id", owner.UserID), zap.Error(err))
		return notice.Emit(c.notices, notice.FromBackend(err))
	}

	byID := make(map[string]*domain.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}
	items := make([]Item, 0, len(rows))
	for _, e := range rows {
		l, ok := byID[e.ListingID]
		if !ok {
			c.logger.Debug("dropping cart entry for missing listing", zap.String("listing_id", e.ListingID))
			continue
		}
		items = append(items, Item{Entry: *e, Listing: *l})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.Debug("dropping cart load for previous identity", zap.String("user_id", owner.UserID))
		return nil
	}
	c.setItemsLocked(items)
	return nil
}

// Add inserts listingID remotely and reloads. It refuses without a
// signed-in standard owner and is idempotent for listings already present.
func (c *Cart) Add(ctx context.Context, listingID string) error {
	c.mu.RLock()
	owner := c.owner
	gen := c.gen
	_, present := c.index[listingID]
	c.mu.RUnlock()

	switch {
	case owner == nil:
		return notice.Emit(c.notices, notice.Notice{
			Level:   notice.LevelInfo,
			Code:    notice.CodeSignInRequired,
			Message: "Sign in to add listings to your cart",
			Err:     ErrNotSignedIn,
		})
	case owner.Privileged:
		return notice.Emit(c.notices, notice.Notice{
			Level:   notice.LevelInfo,
			Code:    notice.CodePrivilegedCart,
			Message: "Admin accounts manage listings and cannot use the cart",
			Err:     ErrPrivileged,
		})
	case present:
		return c.alreadyInCart()
	}

	if _, err := c.entries.Insert(ctx, listingID); err != nil {
		if errors.Is(err, backend.ErrConflict) {
			if !c.reload(ctx, *owner, gen) {
				return ErrAlreadyInCart
			}
			return c.alreadyInCart()
		}
		c.logger.Warn("⚠️ add to cart failed", zap.String("listing_id", listingID), zap.Error(err))
		return notice.Emit(c.notices, notice.FromBackend(err))
	}

	if !c.reload(ctx, *owner, gen) {
		return nil
	}
	c.notices.Notify(notice.Notice{Level: notice.LevelInfo, Code: notice.CodeAddedToCart, Message: "Added to cart"})
	return nil
}

// Remove deletes listingID remotely, then drops it locally
func (c *Cart) Remove(ctx context.Context, listingID string) error {
	c.mu.RLock()
	owner := c.owner
	gen := c.gen
	c.mu.RUnlock()
	if owner == nil || owner.Privileged {
		return nil
	}

	if err := c.entries.Delete(ctx, listingID); err != nil && !errors.Is(err, backend.ErrNotFound) {
		c.logger.Warn("⚠️ remove from cart failed", zap.String("listing_id", listingID), zap.Error(err))
		return notice.Emit(c.notices, notice.FromBackend(err))
	}

	c.mu.Lock()
	if gen == c.gen {
		if i, ok := c.index[listingID]; ok {
			items := make([]Item, 0, len(c.items)-1)
			items = append(items, c.items[:i]...)
			items = append(items, c.items[i+1:]...)
			c.setItemsLocked(items)
		}
	}
	c.mu.Unlock()

	c.notices.Notify(notice.Notice{Level: notice.LevelInfo, Code: notice.CodeRemovedFromCart, Message: "Removed from cart"})
	return nil
}

// Clear deletes every entry remotely, then empties the cart
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.RLock()
	owner := c.owner
	gen := c.gen
	c.mu.RUnlock()
	if owner == nil || owner.Privileged {
		return nil
	}

	if err := c.entries.DeleteAll(ctx); err != nil {
		c.logger.Warn("⚠️ clear cart failed", zap.Error(err))
		return notice.Emit(c.notices, notice.FromBackend(err))
	}

	c.mu.Lock()
	if gen == c.gen {
		c.setItemsLocked(nil)
	}
	c.mu.Unlock()

	c.notices.Notify(notice.Notice{Level: notice.LevelInfo, Code: notice.CodeCartCleared, Message: "Cart cleared"})
	return nil
}

// Contains reports whether listingID is in the cart. It never does I/O.
func (c *Cart) Contains(listingID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[listingID]
	return ok
}

// Items returns a copy of the cart items in entry order
func (c *Cart) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Listings returns the listings in the cart
func (c *Cart) Listings() []*domain.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Listing, len(c.items))
	for i := range c.items {
		l := c.items[i].Listing
		out[i] = &l
	}
	return out
}

// Count returns the number of items
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Total sums listing prices
func (c *Cart) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total float64
	for _, it := range c.items {
		total += it.Listing.Price
	}
	return total
}

// Reset empties the cart and forgets its owner
func (c *Cart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.owner = nil
}

func (c *Cart) alreadyInCart() error {
	return notice.Emit(c.notices, notice.Notice{
		Level:   notice.LevelInfo,
		Code:    notice.CodeAlreadyInCart,
		Message: "This listing is already in your cart",
		Err:     ErrAlreadyInCart,
	})
}

// reload refetches the cart after a mutation. It reports false and leaves
// the cart alone when the identity changed while the mutation was in flight.
func (c *Cart) reload(ctx context.Context, owner Owner, gen uint64) bool {
	c.mu.RLock()
	current := c.gen == gen && c.owner != nil && c.owner.UserID == owner.UserID
	c.mu.RUnlock()
	if !current {
		c.logger.Debug("dropping cart reload for previous identity", zap.String("user_id", owner.UserID))
		return false
	}
	if err := c.fetch(ctx, owner, gen); err != nil {
		c.logger.Warn("⚠️ cart reload failed", zap.Error(err))
	}
	return true
}

func (c *Cart) resetLocked() {
	c.gen++
	c.items = nil
	c.index = map[string]int{}
}

func (c *Cart) setItemsLocked(items []Item) {
	c.items = items
	c.index = make(map[string]int, len(items))
	for i, it := range items {
		c.index[it.Listing.ID] = i
	}
}
