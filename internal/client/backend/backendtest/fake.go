// Package backendtest provides an in-memory backend for client tests.
// Every call is counted per operation name and can be made to fail.
package backendtest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"estatehub/internal/client/backend"
	"estatehub/internal/core/domain"
)

// Operation names
const (
	OpSignIn          = "auth.signin"
	OpSignUp          = "auth.signup"
	OpSignOut         = "auth.signout"
	OpGetSession      = "auth.getsession"
	OpRefresh         = "auth.refresh"
	OpProfileGet      = "profiles.get"
	OpProfileInsert   = "profiles.insert"
	OpProfileUpdate   = "profiles.update"
	OpProfileList     = "profiles.list"
	OpProfileSetRole  = "profiles.setrole"
	OpListingList     = "listings.list"
	OpListingGet      = "listings.get"
	OpListingGetMany  = "listings.getmany"
	OpListingCreate   = "listings.create"
	OpListingUpdate   = "listings.update"
	OpListingDelete   = "listings.delete"
	OpCartList        = "cart.list"
	OpCartInsert      = "cart.insert"
	OpCartDelete      = "cart.delete"
	OpCartDeleteAll   = "cart.deleteall"
	OpFavoriteList    = "favorites.list"
	OpFavoriteInsert  = "favorites.insert"
	OpFavoriteDelete  = "favorites.delete"
	OpStorageUpload   = "storage.upload"
	DefaultSessionTTL = time.Hour
)

type account struct {
	user     domain.User
	password string
}

// Fake is an in-memory backend. The zero value is not usable; call New.
type Fake struct {
	// Before runs ahead of every operation; a non-nil error fails it
	Before func(ctx context.Context, op string) error
	// Now is the fake's clock
	Now func() time.Time
	// SessionTTL is the lifetime of issued sessions
	SessionTTL time.Duration

	mu        sync.Mutex
	accounts  map[string]*account
	profiles  map[string]*domain.Profile
	listings  map[string]*domain.Listing
	cart      map[string][]*domain.CartEntry
	favorites map[string][]*domain.Favorite
	session   *domain.Session
	calls     map[string]int
	failures  map[string][]error
	sticky    map[string]error
	seq       int

	listeners map[int]backend.AuthListener
	nextID    int
}

// New creates an empty fake
func New() *Fake {
	return &Fake{
		Now:        time.Now,
		SessionTTL: DefaultSessionTTL,
		accounts:   make(map[string]*account),
		profiles:   make(map[string]*domain.Profile),
		listings:   make(map[string]*domain.Listing),
		cart:       make(map[string][]*domain.CartEntry),
		favorites:  make(map[string][]*domain.Favorite),
		calls:      make(map[string]int),
		failures:   make(map[string][]error),
		sticky:     make(map[string]error),
		listeners:  make(map[int]backend.AuthListener),
	}
}

// Backend returns the contract view of the fake
func (f *Fake) Backend() backend.Backend {
	return backend.Backend{
		Auth:      fakeAuth{f},
		Profiles:  fakeProfiles{f},
		Listings:  fakeListings{f},
		Cart:      fakeCart{f},
		Favorites: fakeFavorites{f},
		Storage:   fakeStorage{f},
	}
}

// AddUser registers an account and, when role is set, its profile.
// It returns the user id.
func (f *Fake) AddUser(email, password string, role domain.Role) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("user-%d", f.seq)
	f.accounts[email] = &account{user: domain.User{ID: id, Email: email}, password: password}
	if role != "" {
		f.profiles[id] = &domain.Profile{UserID: id, Email: email, Role: role}
	}
	return id
}

// AddListing stores l and returns its id
func (f *Fake) AddListing(l domain.Listing) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == "" {
		f.seq++
		l.ID = fmt.Sprintf("listing-%d", f.seq)
	}
	f.listings[l.ID] = &l
	return l.ID
}

// RemoveListing deletes a listing without touching cart rows
func (f *Fake) RemoveListing(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.listings, id)
}

// SetSession installs a persisted session without emitting events
func (f *Fake) SetSession(s *domain.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s.Clone()
}

// StoredSession returns the session the fake currently holds
func (f *Fake) StoredSession() *domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session.Clone()
}

// Profile returns the stored profile for userID
func (f *Fake) Profile(userID string) *domain.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[userID].Clone()
}

// CartOf returns the listing ids in userID's cart rows
func (f *Fake) CartOf(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.cart[userID]))
	for _, e := range f.cart[userID] {
		ids = append(ids, e.ListingID)
	}
	return ids
}

// SeedCart writes cart rows directly
func (f *Fake) SeedCart(userID string, listingIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range listingIDs {
		f.seq++
		f.cart[userID] = append(f.cart[userID], &domain.CartEntry{ID: uint(f.seq), UserID: userID, ListingID: id, CreatedAt: f.Now()})
	}
}

// Calls returns how many times op was invoked
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// FailNext makes the next len(errs) calls of op fail in order
func (f *Fake) FailNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], errs...)
}

// FailAlways makes every call of op fail with err; nil clears it
func (f *Fake) FailAlways(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.sticky, op)
		return
	}
	f.sticky[op] = err
}

// Emit delivers an auth event to listeners
func (f *Fake) Emit(event backend.Event, s *domain.Session) {
	f.mu.Lock()
	ids := make([]int, 0, len(f.listeners))
	for id := range f.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]backend.AuthListener, len(ids))
	for i, id := range ids {
		fns[i] = f.listeners[id]
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(event, s.Clone())
	}
}

// enter counts op and returns its configured failure
func (f *Fake) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	var err error
	if q := f.failures[op]; len(q) > 0 {
		err = q[0]
		f.failures[op] = q[1:]
	} else if sticky, ok := f.sticky[op]; ok {
		err = sticky
	}
	before := f.Before
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if before != nil {
		return before(ctx, op)
	}
	return nil
}

func (f *Fake) issueLocked(u domain.User) *domain.Session {
	f.seq++
	return &domain.Session{
		AccessToken:  fmt.Sprintf("access-%d", f.seq),
		RefreshToken: fmt.Sprintf("refresh-%d", f.seq),
		ExpiresAt:    f.Now().Add(f.SessionTTL),
		User:         u,
	}
}

func (f *Fake) currentUserLocked() (string, error) {
	if f.session == nil {
		return "", &backend.Error{Kind: backend.ErrUnauthorized, Status: 401}
	}
	return f.session.User.ID, nil
}

type fakeAuth struct{ f *Fake }

func (a fakeAuth) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	f := a.f
	if err := f.enter(ctx, OpSignIn); err != nil {
		return nil, err
	}
	f.mu.Lock()
	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		f.mu.Unlock()
		return nil, &backend.Error{Kind: backend.ErrInvalidCredentials, Status: 401, Code: "invalid_credentials"}
	}
	s := f.issueLocked(acc.user)
	f.session = s.Clone()
	f.mu.Unlock()

	f.Emit(backend.EventSignedIn, s)
	return s, nil
}

func (a fakeAuth) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*domain.Session, error) {
	f := a.f
	if err := f.enter(ctx, OpSignUp); err != nil {
		return nil, err
	}
	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		return nil, &backend.Error{Kind: backend.ErrConflict, Status: 409}
	}
	f.seq++
	u := domain.User{ID: fmt.Sprintf("user-%d", f.seq), Email: email, Metadata: metadata}
	f.accounts[email] = &account{user: u, password: password}
	s := f.issueLocked(u)
	f.session = s.Clone()
	f.mu.Unlock()

	f.Emit(backend.EventSignedIn, s)
	return s.Clone(), nil
}

func (a fakeAuth) SignOut(ctx context.Context) error {
	f := a.f
	f.mu.Lock()
	f.session = nil
	f.mu.Unlock()
	f.Emit(backend.EventSignedOut, nil)
	return f.enter(ctx, OpSignOut)
}

func (a fakeAuth) GetSession(ctx context.Context) (*domain.Session, error) {
	f := a.f
	if err := f.enter(ctx, OpGetSession); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session.Clone(), nil
}

func (a fakeAuth) RefreshSession(ctx context.Context) (*domain.Session, error) {
	f := a.f
	if err := f.enter(ctx, OpRefresh); err != nil {
		return nil, err
	}
	f.mu.Lock()
	if f.session == nil {
		f.mu.Unlock()
		return nil, &backend.Error{Kind: backend.ErrUnauthorized, Status: 401}
	}
	s := f.issueLocked(f.session.User)
	f.session = s.Clone()
	f.mu.Unlock()

	f.Emit(backend.EventTokenRefreshed, s)
	return s, nil
}

func (a fakeAuth) OnAuthStateChange(fn backend.AuthListener) func() {
	f := a.f
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

type fakeProfiles struct{ f *Fake }

func (p fakeProfiles) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	f := p.f
	if err := f.enter(ctx, OpProfileGet); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, &backend.Error{Kind: backend.ErrNotFound, Status: 404}
	}
	return profile.Clone(), nil
}

func (p fakeProfiles) Insert(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	f := p.f
	if err := f.enter(ctx, OpProfileInsert); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.profiles[profile.UserID]; exists {
		return nil, &backend.Error{Kind: backend.ErrConflict, Status: 409}
	}
	stored := profile.Clone()
	stored.CreatedAt = f.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.profiles[profile.UserID] = stored
	return stored.Clone(), nil
}

func (p fakeProfiles) UpdateOwn(ctx context.Context, update backend.ProfileUpdate) (*domain.Profile, error) {
	f := p.f
	if err := f.enter(ctx, OpProfileUpdate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := f.currentUserLocked()
	if err != nil {
		return nil, err
	}
	profile, ok := f.profiles[uid]
	if !ok {
		return nil, &backend.Error{Kind: backend.ErrNotFound, Status: 404}
	}
	if update.FullName != nil {
		profile.FullName = *update.FullName
	}
	if update.Phone != nil {
		profile.Phone = *update.Phone
	}
	if update.Address != nil {
		profile.Address = *update.Address
	}
	if update.Bio != nil {
		profile.Bio = *update.Bio
	}
	profile.UpdatedAt = f.Now()
	return profile.Clone(), nil
}

func (p fakeProfiles) List(ctx context.Context, page, limit int) ([]*domain.Profile, error) {
	f := p.f
	if err := f.enter(ctx, OpProfileList); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Profile, 0, len(f.profiles))
	for _, profile := range f.profiles {
		out = append(out, profile.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (p fakeProfiles) SetRole(ctx context.Context, userID string, role domain.Role) (*domain.Profile, error) {
	f := p.f
	if err := f.enter(ctx, OpProfileSetRole); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, &backend.Error{Kind: backend.ErrNotFound, Status: 404}
	}
	profile.Role = role
	return profile.Clone(), nil
}

type fakeListings struct{ f *Fake }

func cloneListing(l *domain.Listing) *domain.Listing {
	c := *l
	c.Images = append([]string(nil), l.Images...)
	return &c
}

func (l fakeListings) List(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	f := l.f
	if err := f.enter(ctx, OpListingList); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Listing, 0, len(f.listings))
	for _, listing := range f.listings {
		if filter.Category != "" && listing.Category != filter.Category {
			continue
		}
		out = append(out, cloneListing(listing))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l fakeListings) Get(ctx context.Context, id string) (*domain.Listing, error) {
	f := l.f
	if err := f.enter(ctx, OpListingGet); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[id]
	if !ok {
		return nil, &backend.Error{Kind: backend.ErrNotFound, Status: 404}
	}
	return cloneListing(listing), nil
}

func (l fakeListings) GetMany(ctx context.Context, ids []string) ([]*domain.Listing, error) {
	f := l.f
	if err := f.enter(ctx, OpListingGetMany); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Listing, 0, len(ids))
	for _, id := range ids {
		if listing, ok := f.listings[id]; ok {
			out = append(out, cloneListing(listing))
		}
	}
	return out, nil
}

func (l fakeListings) Create(ctx context.Context, input backend.ListingInput) (*domain.Listing, error) {
	f := l.f
	if err := f.enter(ctx, OpListingCreate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := f.currentUserLocked()
	if err != nil {
		return nil, err
	}
	f.seq++
	listing := &domain.Listing{ID: fmt.Sprintf("listing-%d", f.seq), OwnerID: uid, CreatedAt: f.Now()}
	applyInput(listing, input)
	f.listings[listing.ID] = listing
	return cloneListing(listing), nil
}

func (l fakeListings) Update(ctx context.Context, id string, input backend.ListingInput) (*domain.Listing, error) {
	f := l.f
	if err := f.enter(ctx, OpListingUpdate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[id]
	if !ok {
		return nil, &backend.Error{Kind: backend.ErrNotFound, Status: 404}
	}
	applyInput(listing, input)
	listing.UpdatedAt = f.Now()
	return cloneListing(listing), nil
}

func (l fakeListings) Delete(ctx context.Context, id string) error {
	f := l.f
	if err := f.enter(ctx, OpListingDelete); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[id]; !ok {
		return &backend.Error{Kind: backend.ErrNotFound, Status: 404}
	}
	delete(f.listings, id)
	return nil
}

func applyInput(l *domain.Listing, in backend.ListingInput) {
	l.Title = in.Title
	l.Description = in.Description
	l.Location = in.Location
	l.Price = in.Price
	l.Beds = in.Beds
	l.Baths = in.Baths
	l.Area = in.Area
	l.Images = append([]string(nil), in.Images...)
	l.Category = in.Category
	l.IsPopular = in.IsPopular
	l.IsNew = in.IsNew
}

type fakeCart struct{ f *Fake }

func (c fakeCart) List(ctx context.Context) ([]*domain.CartEntry, error) {
	f := c.f
	if err := f.enter(ctx, OpCartList); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := f.currentUserLocked()
	if err != nil {
		return nil, err
	}
	out := make([]*domain.CartEntry, len(f.cart[uid]))
	for i, e := range f.cart[uid] {
		entry := *e
		out[i] = &entry
	}
	return out, nil
}

func (c fakeCart) Insert(ctx context.Context, listingID string) (*domain.CartEntry, error) {
	f := c.f
	if err := f.enter(ctx, OpCartInsert); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := f.currentUserLocked()
	if err != nil {
		return nil, err
	}
	if p, ok := f.profiles[uid]; ok && p.Role.IsPrivileged() {
		return nil, &backend.Error{Kind: backend.ErrForbidden, Status: 403, Code: "privileged_cart"}
	}
	if _, ok := f.listings[listingID]; !ok {
		return nil, &backend.Error{Kind: backend.ErrNotFound, Status: 404}
	}
	for _, e := range f.cart[uid] {
		if e.ListingID == listingID {
			return nil, &backend.Error{Kind: backend.ErrConflict, Status: 409, Code: "already_in_cart"}
		}
	}
	f.seq++
	entry := &domain.CartEntry{ID: uint(f.seq), UserID: uid, ListingID: listingID, CreatedAt: f.Now()}
	f.cart[uid] = append(f.cart[uid], entry)
	out := *entry
	return &out, nil
}

func (c fakeCart) Delete(ctx context.Context, listingID string) error {
	f := c.f
	if err := f.enter(ctx, OpCartDelete); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := f.currentUserLocked()
	if err != nil {
		return err
	}
	rows := f.cart[uid]
	for i, e := range rows {
		if e.ListingID == listingID {
			f.cart[uid] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return &backend.Error{Kind: backend.ErrNotFound, Status: 404}
}

func (c fakeCart) DeleteAll(ctx context.Context) error {
	f := c.f
	if err := f.enter(ctx, OpCartDeleteAll); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := f.currentUserLocked()
	if err != nil {
		return err
	}
	delete(f.cart, uid)
	return nil
}

type fakeFavorites struct{ f *Fake }

func (v fakeFavorites) List(ctx context.Context) ([]*domain.Favorite, error) {
	f := v.f
	if err := f.enter(ctx, OpFavoriteList); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := f.currentUserLocked()
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Favorite, len(f.favorites[uid]))
	for i, fav := range f.favorites[uid] {
		c := *fav
		out[i] = &c
	}
	return out, nil
}

func (v fakeFavorites) Insert(ctx context.Context, listingID string) (*domain.Favorite, error) {
	f := v.f
	if err := f.enter(ctx, OpFavoriteInsert); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := f.currentUserLocked()
	if err != nil {
		return nil, err
	}
	if _, ok := f.listings[listingID]; !ok {
		return nil, &backend.Error{Kind: backend.ErrNotFound, Status: 404}
	}
	for _, fav := range f.favorites[uid] {
		if fav.ListingID == listingID {
			return nil, &backend.Error{Kind: backend.ErrConflict, Status: 409}
		}
	}
	f.seq++
	fav := &domain.Favorite{ID: uint(f.seq), UserID: uid, ListingID: listingID, CreatedAt: f.Now()}
	f.favorites[uid] = append(f.favorites[uid], fav)
	c := *fav
	return &c, nil
}

func (v fakeFavorites) Delete(ctx context.Context, listingID string) error {
	f := v.f
	if err := f.enter(ctx, OpFavoriteDelete); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := f.currentUserLocked()
	if err != nil {
		return err
	}
	rows := f.favorites[uid]
	for i, fav := range rows {
		if fav.ListingID == listingID {
			f.favorites[uid] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return &backend.Error{Kind: backend.ErrNotFound, Status: 404}
}

type fakeStorage struct{ f *Fake }

func (s fakeStorage) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if err := s.f.enter(ctx, OpStorageUpload); err != nil {
		return "", err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	return "https://images.test/listings/" + filename, nil
}
