package models

import (
	"time"

	"estatehub/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Auth Tables
// ============================================================

// User represents users table (auth identities)
type User struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	Email     string            `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Password  string            `gorm:"size:255;not null" json:"-"`
	Metadata  map[string]string `gorm:"serializer:json;type:text" json:"metadata"`
	IsActive  bool              `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a uuid primary key
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ToDomain converts to the domain identity
func (u *User) ToDomain() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, Metadata: u.Metadata}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"size:36;index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(rt.ExpiresAt)
}

// ============================================================
// Marketplace Tables
// ============================================================

// Profile represents profiles table, one row per user
type Profile struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	Email     string    `gorm:"size:191" json:"email"`
	FullName  string    `gorm:"size:150" json:"full_name"`
	Phone     string    `gorm:"size:30" json:"phone"`
	Address   string    `gorm:"size:255" json:"address"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Role      string    `gorm:"size:20;default:'user';index" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ToDomain converts to the domain profile
func (p *Profile) ToDomain() *domain.Profile {
	return &domain.Profile{
		UserID:    p.UserID,
		Email:     p.Email,
		FullName:  p.FullName,
		Phone:     p.Phone,
		Address:   p.Address,
		Bio:       p.Bio,
		Role:      domain.Role(p.Role),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Listing represents listings table
type Listing struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:200;index" json:"location"`
	Price       float64   `gorm:"type:decimal(14,2);not null" json:"price"`
	Beds        int       `gorm:"default:0" json:"beds"`
	Baths       int       `gorm:"default:0" json:"baths"`
	Area        float64   `gorm:"type:decimal(10,2);default:0" json:"area"`
	Images      []string  `gorm:"serializer:json;type:text" json:"images"`
	Category    string    `gorm:"size:10;not null;index" json:"category"`
	IsPopular   bool      `gorm:"default:false" json:"is_popular"`
	IsNew       bool      `gorm:"default:false" json:"is_new"`
	OwnerID     string    `gorm:"size:36;index" json:"owner_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate assigns a uuid primary key
func (l *Listing) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// ToDomain converts to the domain listing
func (l *Listing) ToDomain() *domain.Listing {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return &domain.Listing{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Location:    l.Location,
		Price:       l.Price,
		Beds:        l.Beds,
		Baths:       l.Baths,
		Area:        l.Area,
		Images:      images,
		Category:    domain.Category(l.Category),
		IsPopular:   l.IsPopular,
		IsNew:       l.IsNew,
		OwnerID:     l.OwnerID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// CartEntry represents cart_entries table
type CartEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_cart_user_listing" json:"user_id"`
	ListingID string    `gorm:"size:36;not null;uniqueIndex:idx_cart_user_listing;index" json:"listing_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CartEntry) TableName() string {
	return "cart_entries"
}

// ToDomain converts to the domain cart entry
func (e *CartEntry) ToDomain() *domain.CartEntry {
	return &domain.CartEntry{ID: e.ID, UserID: e.UserID, ListingID: e.ListingID, CreatedAt: e.CreatedAt}
}

// Favorite represents favorites table
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_fav_user_listing" json:"user_id"`
	ListingID string    `gorm:"size:36;not null;uniqueIndex:idx_fav_user_listing;index" json:"listing_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ToDomain converts to the domain favorite
func (f *Favorite) ToDomain() *domain.Favorite {
	return &domain.Favorite{ID: f.ID, UserID: f.UserID, ListingID: f.ListingID, CreatedAt: f.CreatedAt}
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Profile{},
		&Listing{},
		&CartEntry{},
		&Favorite{},
	)
}
