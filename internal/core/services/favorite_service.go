package services

import (
	"context"
	"errors"

	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/adapters/persistence/repositories"
	"estatehub/internal/core/domain"

	"gorm.io/gorm"
)

// ErrAlreadyFavorite is returned when a listing is favorited twice
var ErrAlreadyFavorite = errors.New("listing already in favorites")

// FavoriteService manages bookmarked listings
type FavoriteService struct {
	favoriteRepo repositories.FavoriteRepository
	listingRepo  repositories.ListingRepository
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(favoriteRepo repositories.FavoriteRepository, listingRepo repositories.ListingRepository) *FavoriteService {
	return &FavoriteService{favoriteRepo: favoriteRepo, listingRepo: listingRepo}
}

// List returns the user's favorites
func (s *FavoriteService) List(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	rows, err := s.favoriteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Favorite, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return out, nil
}

// Add bookmarks a listing
func (s *FavoriteService) Add(ctx context.Context, userID, listingID string) (*domain.Favorite, error) {
	if _, err := s.listingRepo.GetByID(ctx, listingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	fav := &models.Favorite{UserID: userID, ListingID: listingID}
	if err := s.favoriteRepo.Create(ctx, fav); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyFavorite
		}
		return nil, err
	}
	return fav.ToDomain(), nil
}

// Remove drops a bookmark
func (s *FavoriteService) Remove(ctx context.Context, userID, listingID string) error {
	n, err := s.favoriteRepo.Delete(ctx, userID, listingID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
