package services

import (
	"context"

	"estatehub/internal/adapters/persistence/repositories"
	"estatehub/internal/core/domain"
)

// TopListingsLimit is how many most-requested listings the admin dashboard shows
const TopListingsLimit = 5

// DashboardService handles dashboard operations
type DashboardService struct {
	userRepo     repositories.UserRepository
	profileRepo  repositories.ProfileRepository
	listingRepo  repositories.ListingRepository
	cartRepo     repositories.CartRepository
	favoriteRepo repositories.FavoriteRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	listingRepo repositories.ListingRepository,
	cartRepo repositories.CartRepository,
	favoriteRepo repositories.FavoriteRepository,
) *DashboardService {
	return &DashboardService{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		listingRepo:  listingRepo,
		cartRepo:     cartRepo,
		favoriteRepo: favoriteRepo,
	}
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// User Statistics
	TotalUsers  int64 `json:"total_users"`
	TotalAdmins int64 `json:"total_admins"`

	// Listing Statistics
	TotalListings      int64                     `json:"total_listings"`
	ListingsByCategory map[domain.Category]int64 `json:"listings_by_category"`

	// Cart Statistics
	TotalCartEntries int64                              `json:"total_cart_entries"`
	TopRequested     []repositories.ListingRequestCount `json:"top_requested"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}
	var err error

	if data.TotalUsers, err = s.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if data.TotalAdmins, err = s.profileRepo.CountByRole(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if data.ListingsByCategory, err = s.listingRepo.CountByCategory(ctx); err != nil {
		return nil, err
	}
	for _, n := range data.ListingsByCategory {
		data.TotalListings += n
	}
	if data.TotalCartEntries, err = s.cartRepo.Count(ctx); err != nil {
		return nil, err
	}
	if data.TopRequested, err = s.cartRepo.TopListings(ctx, TopListingsLimit); err != nil {
		return nil, err
	}

	return data, nil
}

// ============================================================
// User Dashboard
// ============================================================

// UserDashboardData represents user dashboard data
type UserDashboardData struct {
	CartCount      int64 `json:"cart_count"`
	FavoritesCount int64 `json:"favorites_count"`
}

// GetUserDashboard returns user dashboard data
func (s *DashboardService) GetUserDashboard(ctx context.Context, userID string) (*UserDashboardData, error) {
	data := &UserDashboardData{}
	var err error

	if data.CartCount, err = s.cartRepo.CountByUser(ctx, userID); err != nil {
		return nil, err
	}
	if data.FavoritesCount, err = s.favoriteRepo.CountByUser(ctx, userID); err != nil {
		return nil, err
	}
	return data, nil
}
