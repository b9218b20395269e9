// Package backend is the contract between the marketplace client and its
// remote backend: auth with a session-change subscription, table-style
// access to profiles, listings, cart entries and favorites, and image
// storage. The rest subpackage implements it over HTTP; tests use fakes.
package backend

import (
	"context"
	"io"

	"estatehub/internal/core/domain"
)

// Event is an auth state change
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// AuthListener receives auth state changes. session is nil on sign-out.
type AuthListener func(event Event, session *domain.Session)

// Auth is the auth sub-interface
type Auth interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	// SignUp creates an identity; metadata is stored with it and later
	// used to fill a default profile.
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*domain.Session, error)
	SignOut(ctx context.Context) error
	// GetSession returns the persisted session, or nil when there is none.
	GetSession(ctx context.Context) (*domain.Session, error)
	RefreshSession(ctx context.Context) (*domain.Session, error)
	OnAuthStateChange(fn AuthListener) (unsubscribe func())
}

// ProfileUpdate carries self-editable fields; nil fields are left alone
type ProfileUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// Profiles is the profiles table
type Profiles interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Insert(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)
	UpdateOwn(ctx context.Context, update ProfileUpdate) (*domain.Profile, error)
	List(ctx context.Context, page, limit int) ([]*domain.Profile, error)
	SetRole(ctx context.Context, userID string, role domain.Role) (*domain.Profile, error)
}

// ListingInput is the writable part of a listing
type ListingInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Price       float64         `json:"price"`
	Beds        int             `json:"beds"`
	Baths       int             `json:"baths"`
	Area        float64         `json:"area"`
	Images      []string        `json:"images"`
	Category    domain.Category `json:"category"`
	IsPopular   bool            `json:"is_popular"`
	IsNew       bool            `json:"is_new"`
}

// Listings is the listings table
type Listings interface {
	List(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error)
	Get(ctx context.Context, id string) (*domain.Listing, error)
	// GetMany returns the listings that still exist; unknown ids are absent.
	GetMany(ctx context.Context, ids []string) ([]*domain.Listing, error)
	Create(ctx context.Context, input ListingInput) (*domain.Listing, error)
	Update(ctx context.Context, id string, input ListingInput) (*domain.Listing, error)
	Delete(ctx context.Context, id string) error
}

// CartEntries is the signed-in user's rows of the cart entries table
type CartEntries interface {
	List(ctx context.Context) ([]*domain.CartEntry, error)
	Insert(ctx context.Context, listingID string) (*domain.CartEntry, error)
	Delete(ctx context.Context, listingID string) error
	DeleteAll(ctx context.Context) error
}

// Favorites is the signed-in user's rows of the favorites table
type Favorites interface {
	List(ctx context.Context) ([]*domain.Favorite, error)
	Insert(ctx context.Context, listingID string) (*domain.Favorite, error)
	Delete(ctx context.Context, listingID string) error
}

// Storage uploads listing images and returns their public URL
type Storage interface {
	UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// Backend bundles the sub-interfaces
type Backend struct {
	Auth      Auth
	Profiles  Profiles
	Listings  Listings
	Cart      CartEntries
	Favorites Favorites
	Storage   Storage
}
