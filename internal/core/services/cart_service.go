package services

import (
	"context"
	"errors"

	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/adapters/persistence/repositories"
	"estatehub/internal/core/domain"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CartService manages cart entries
type CartService struct {
	cartRepo    repositories.CartRepository
	listingRepo repositories.ListingRepository
	logger      *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(
	cartRepo repositories.CartRepository,
	listingRepo repositories.ListingRepository,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		listingRepo: listingRepo,
		logger:      logger,
	}
}

// List returns the actor's cart entries
func (s *CartService) List(ctx context.Context, actor Actor) ([]*domain.CartEntry, error) {
	if actor.IsAdmin() {
		return []*domain.CartEntry{}, nil
	}
	rows, err := s.cartRepo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.CartEntry, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return out, nil
}

// Add inserts a cart entry for an existing listing
func (s *CartService) Add(ctx context.Context, actor Actor, listingID string) (*domain.CartEntry, error) {
	if actor.IsAdmin() {
		return nil, domain.ErrPrivilegedCart
	}
	if _, err := s.listingRepo.GetByID(ctx, listingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	entry := &models.CartEntry{UserID: actor.UserID, ListingID: listingID}
	if err := s.cartRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrAlreadyInCart
		}
		return nil, err
	}

	s.logger.Info("🛒 Cart entry added", zap.String("user_id", actor.UserID), zap.String("listing_id", listingID))
	return entry.ToDomain(), nil
}

// Remove deletes one of the actor's cart entries
func (s *CartService) Remove(ctx context.Context, actor Actor, listingID string) error {
	n, err := s.cartRepo.Delete(ctx, actor.UserID, listingID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCartEntryAbsent
	}
	return nil
}

// Clear deletes all the actor's cart entries and returns how many were removed
func (s *CartService) Clear(ctx context.Context, actor Actor) (int64, error) {
	n, err := s.cartRepo.DeleteAllByUser(ctx, actor.UserID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("🧹 Cart cleared", zap.String("user_id", actor.UserID), zap.Int64("removed", n))
	return n, nil
}
