package repositories

import (
	"context"

	"estatehub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// cartRepository implements CartRepository interface
type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// ListByUser lists a user's cart entries, oldest first
func (r *cartRepository) ListByUser(ctx context.Context, userID string) ([]*models.CartEntry, error) {
	var entries []*models.CartEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// Create inserts a cart entry; the unique index rejects duplicates
func (r *cartRepository) Create(ctx context.Context, entry *models.CartEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Delete removes one entry and reports how many rows went away
func (r *cartRepository) Delete(ctx context.Context, userID, listingID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&models.CartEntry{})
	return res.RowsAffected, res.Error
}

// DeleteAllByUser empties a user's cart
func (r *cartRepository) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartEntry{})
	return res.RowsAffected, res.Error
}

// Count counts all cart entries
func (r *cartRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CartEntry{}).Count(&count).Error
	return count, err
}

// CountByUser counts a user's cart entries
func (r *cartRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CartEntry{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// TopListings returns the listings present in the most carts
func (r *cartRepository) TopListings(ctx context.Context, limit int) ([]ListingRequestCount, error) {
	var rows []ListingRequestCount
	err := r.db.WithContext(ctx).
		Model(&models.CartEntry{}).
		Select("listing_id, COUNT(*) AS requests").
		Group("listing_id").
		Order("requests DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
