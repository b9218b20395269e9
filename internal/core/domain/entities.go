package domain

import "time"

// Role represents the profile role in the system
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// IsPrivileged reports whether r manages listings instead of buying them
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin
}

// Category is the listing offer type
type Category string

const (
	CategorySale Category = "sale"
	CategoryRent Category = "rent"
)

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	return c == CategorySale || c == CategoryRent
}

// User is the identity issued by the auth backend
type User struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Metadata keys recorded at sign-up
const (
	MetaFullName = "full_name"
	MetaPhone    = "phone"
)

// Session is an authenticated identity with its token validity window
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User.Metadata != nil {
		c.User.Metadata = make(map[string]string, len(s.User.Metadata))
		for k, v := range s.User.Metadata {
			c.User.Metadata[k] = v
		}
	}
	return &c
}

// Profile is the extended user record
type Profile struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Bio       string    `json:"bio"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of the profile
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Listing is a property offered for sale or rent
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Price       float64   `json:"price"`
	Beds        int       `json:"beds"`
	Baths       int       `json:"baths"`
	Area        float64   `json:"area"`
	Images      []string  `json:"images"`
	Category    Category  `json:"category"`
	IsPopular   bool      `json:"is_popular"`
	IsNew       bool      `json:"is_new"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CartEntry is a user's pending request for a listing
type CartEntry struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Favorite is a bookmarked listing
type Favorite struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingSort orders listing search results
type ListingSort string

const (
	SortNewest    ListingSort = "newest"
	SortPriceAsc  ListingSort = "price_asc"
	SortPriceDesc ListingSort = "price_desc"
)

// ListingFilter narrows a listing search
type ListingFilter struct {
	Category Category
	Location string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	MinBeds  int
	Popular  *bool
	New      *bool
	OwnerID  string
	Sort     ListingSort
	Page     int
	Limit    int
}
