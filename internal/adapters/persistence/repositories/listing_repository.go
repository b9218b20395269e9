package repositories

import (
	"context"
	"strings"

	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/core/domain"

	"gorm.io/gorm"
)

// listingRepository implements ListingRepository interface
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create creates a new listing
func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// GetByID gets a listing by ID
func (r *listingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetByIDs loads every listing whose id is in ids; missing ids are skipped
func (r *listingRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Listing, error) {
	var listings []*models.Listing
	if len(ids) == 0 {
		return listings, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&listings).Error
	return listings, err
}

// Search lists listings matching filter with pagination
func (r *listingRepository) Search(ctx context.Context, filter domain.ListingFilter, offset, limit int) ([]*models.Listing, int64, error) {
	var listings []*models.Listing
	var total int64

	query := applyListingFilter(r.db.WithContext(ctx).Model(&models.Listing{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := applyListingFilter(r.db.WithContext(ctx), filter).
		Order(listingOrder(filter.Sort)).
		Offset(offset).
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func applyListingFilter(q *gorm.DB, f domain.ListingFilter) *gorm.DB {
	if f.Category != "" {
		q = q.Where("category = ?", string(f.Category))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(loc)+"%")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?", like, like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinBeds > 0 {
		q = q.Where("beds >= ?", f.MinBeds)
	}
	if f.Popular != nil {
		q = q.Where("is_popular = ?", *f.Popular)
	}
	if f.New != nil {
		q = q.Where("is_new = ?", *f.New)
	}
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	return q
}

func listingOrder(sort domain.ListingSort) string {
	switch sort {
	case domain.SortPriceAsc:
		return "price ASC"
	case domain.SortPriceDesc:
		return "price DESC"
	default:
		return "created_at DESC"
	}
}

// Update updates a listing
func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

// Delete removes the listing and its cart entries and favorites in one transaction
func (r *listingRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&models.CartEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Listing{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountByCategory counts listings per category
func (r *listingRepository) CountByCategory(ctx context.Context) (map[domain.Category]int64, error) {
	var rows []struct {
		Category string
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Select("category, COUNT(*) AS total").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.Category]int64, len(rows))
	for _, row := range rows {
		out[domain.Category(row.Category)] = row.Total
	}
	return out, nil
}
