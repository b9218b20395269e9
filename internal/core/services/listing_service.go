package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/adapters/persistence/repositories"
	"estatehub/internal/core/domain"
	"estatehub/internal/pkg/pagination"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Listing service errors
var (
	ErrListingNotFound = domain.ErrListingNotFound
	ErrNotOwner        = errors.New("only the owner or an admin may change this listing")
	ErrTooManyIDs      = errors.New("too many listing ids")
)

// MaxBatchIDs caps GetByIDs requests
const MaxBatchIDs = 100

// ListingService handles listing business logic
type ListingService struct {
	listingRepo repositories.ListingRepository
	logger      *zap.Logger
}

// NewListingService creates a new listing service
func NewListingService(listingRepo repositories.ListingRepository, logger *zap.Logger) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		logger:      logger,
	}
}

// ListingInput represents create/update listing input
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

// Validate checks required listing fields
func (in *ListingInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if in.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than zero", domain.ErrInvalidInput)
	}
	if in.Beds < 0 || in.Baths < 0 || in.Area < 0 {
		return fmt.Errorf("%w: beds, baths and area cannot be negative", domain.ErrInvalidInput)
	}
	if !in.Category.IsValid() {
		return domain.ErrInvalidCategory
	}
	return nil
}

// ListListingsOutput represents list output
type ListListingsOutput struct {
	Listings []*domain.Listing `json:"listings"`
	Meta     *pagination.Meta  `json:"meta"`
}

// List searches listings
func (s *ListingService) List(ctx context.Context, filter domain.ListingFilter) (*ListListingsOutput, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, domain.ErrInvalidCategory
	}
	params := pagination.New(filter.Page, filter.Limit)

	rows, total, err := s.listingRepo.Search(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Listing, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return &ListListingsOutput{Listings: out, Meta: pagination.GetMeta(params, total)}, nil
}

// GetByID gets a listing by ID
func (s *ListingService) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return l.ToDomain(), nil
}

// GetByIDs batch-loads listings; unknown ids are silently absent
func (s *ListingService) GetByIDs(ctx context.Context, ids []string) ([]*domain.Listing, error) {
	if len(ids) > MaxBatchIDs {
		return nil, ErrTooManyIDs
	}
	rows, err := s.listingRepo.GetByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Listing, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return out, nil
}

// Create creates a listing owned by the admin actor
func (s *ListingService) Create(ctx context.Context, actor Actor, input *ListingInput) (*domain.Listing, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	l := &models.Listing{OwnerID: actor.UserID}
	applyListingInput(l, input)
	if err := s.listingRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("🏠 Listing created", zap.String("listing_id", l.ID), zap.String("owner_id", l.OwnerID))
	return l.ToDomain(), nil
}

// Update replaces listing fields (owner or admin)
func (s *ListingService) Update(ctx context.Context, actor Actor, id string, input *ListingInput) (*domain.Listing, error) {
	l, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !canManage(actor, l) {
		return nil, ErrNotOwner
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	applyListingInput(l, input)
	if err := s.listingRepo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l.ToDomain(), nil
}

// Delete removes a listing and, transitively, the cart entries and
// favorites pointing at it (owner or admin)
func (s *ListingService) Delete(ctx context.Context, actor Actor, id string) error {
	l, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if !canManage(actor, l) {
		return ErrNotOwner
	}

	if err := s.listingRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	s.logger.Info("🗑️ Listing deleted", zap.String("listing_id", id), zap.String("by", actor.UserID))
	return nil
}

func canManage(actor Actor, l *models.Listing) bool {
	return actor.IsAdmin() || (actor.UserID != "" && actor.UserID == l.OwnerID)
}

func applyListingInput(l *models.Listing, in *ListingInput) {
	l.Title = strings.TrimSpace(in.Title)
	l.Description = in.Description
	l.Location = strings.TrimSpace(in.Location)
	l.Price = in.Price
	l.Beds = in.Beds
	l.Baths = in.Baths
	l.Area = in.Area
	l.Images = in.Images
	l.Category = string(in.Category)
	l.IsPopular = in.IsPopular
	l.IsNew = in.IsNew
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
