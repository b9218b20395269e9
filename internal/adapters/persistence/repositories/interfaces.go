package repositories

import (
	"context"

	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteStale(ctx context.Context) (int64, error)
}

// ProfileRepository defines profile repository interface
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
	List(ctx context.Context, offset, limit int) ([]*models.Profile, int64, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// ListingRepository defines listing repository interface
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Listing, error)
	Search(ctx context.Context, filter domain.ListingFilter, offset, limit int) ([]*models.Listing, int64, error)
	Update(ctx context.Context, listing *models.Listing) error
	// Delete removes the listing together with every cart entry and
	// favorite that references it.
	Delete(ctx context.Context, id string) error
	CountByCategory(ctx context.Context) (map[domain.Category]int64, error)
}

// CartRepository defines cart entry repository interface
type CartRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.CartEntry, error)
	Create(ctx context.Context, entry *models.CartEntry) error
	Delete(ctx context.Context, userID, listingID string) (int64, error)
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	TopListings(ctx context.Context, limit int) ([]ListingRequestCount, error)
}

// FavoriteRepository defines favorites repository interface
type FavoriteRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Favorite, error)
	Create(ctx context.Context, fav *models.Favorite) error
	Delete(ctx context.Context, userID, listingID string) (int64, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// ListingRequestCount is how many carts hold a listing
type ListingRequestCount struct {
	ListingID string `json:"listing_id"`
	Requests  int64  `json:"requests"`
}
