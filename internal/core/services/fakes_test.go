package services

import (
	"context"

	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/adapters/persistence/repositories"
	"estatehub/internal/core/domain"

	"gorm.io/gorm"
)

type mockUserRepo struct {
	users map[string]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{}}
}

func (m *mockUserRepo) Create(_ context.Context, u *models.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if err := u.BeforeCreate(nil); err != nil {
		return err
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *models.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockUserRepo) Count(context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

type mockRefreshTokenRepo struct {
	tokens []*models.RefreshToken
}

func (m *mockRefreshTokenRepo) Create(_ context.Context, t *models.RefreshToken) error {
	t.ID = uint(len(m.tokens) + 1)
	m.tokens = append(m.tokens, t)
	return nil
}

func (m *mockRefreshTokenRepo) GetByTokenHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRefreshTokenRepo) Revoke(_ context.Context, id uint) error {
	for _, t := range m.tokens {
		if t.ID == id {
			now := timeNow()
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, hash string) error {
	t, err := m.GetByTokenHash(ctx, hash)
	if err != nil {
		return nil
	}
	return m.Revoke(ctx, t.ID)
}

func (m *mockRefreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID string) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			_ = m.Revoke(ctx, t.ID)
		}
	}
	return nil
}

func (m *mockRefreshTokenRepo) DeleteStale(context.Context) (int64, error) {
	kept := m.tokens[:0]
	var removed int64
	for _, t := range m.tokens {
		if t.IsRevoked() {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	m.tokens = kept
	return removed, nil
}

type mockProfileRepo struct {
	CreateFunc      func(ctx context.Context, p *models.Profile) error
	GetByUserIDFunc func(ctx context.Context, userID string) (*models.Profile, error)
	UpdateFunc      func(ctx context.Context, p *models.Profile) error
	UpdateRoleFunc  func(ctx context.Context, userID string, role domain.Role) error
	ListFunc        func(ctx context.Context, offset, limit int) ([]*models.Profile, int64, error)
	CountByRoleFunc func(ctx context.Context, role domain.Role) (int64, error)
}

func (m *mockProfileRepo) Create(ctx context.Context, p *models.Profile) error {
	return m.CreateFunc(ctx, p)
}

func (m *mockProfileRepo) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return m.GetByUserIDFunc(ctx, userID)
}

func (m *mockProfileRepo) Update(ctx context.Context, p *models.Profile) error {
	return m.UpdateFunc(ctx, p)
}

func (m *mockProfileRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	return m.UpdateRoleFunc(ctx, userID, role)
}

func (m *mockProfileRepo) List(ctx context.Context, offset, limit int) ([]*models.Profile, int64, error) {
	return m.ListFunc(ctx, offset, limit)
}

func (m *mockProfileRepo) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	return m.CountByRoleFunc(ctx, role)
}

type mockListingRepo struct {
	CreateFunc          func(ctx context.Context, l *models.Listing) error
	GetByIDFunc         func(ctx context.Context, id string) (*models.Listing, error)
	GetByIDsFunc        func(ctx context.Context, ids []string) ([]*models.Listing, error)
	SearchFunc          func(ctx context.Context, f domain.ListingFilter, offset, limit int) ([]*models.Listing, int64, error)
	UpdateFunc          func(ctx context.Context, l *models.Listing) error
	DeleteFunc          func(ctx context.Context, id string) error
	CountByCategoryFunc func(ctx context.Context) (map[domain.Category]int64, error)
}

func (m *mockListingRepo) Create(ctx context.Context, l *models.Listing) error {
	return m.CreateFunc(ctx, l)
}

func (m *mockListingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockListingRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.Listing, error) {
	return m.GetByIDsFunc(ctx, ids)
}

func (m *mockListingRepo) Search(ctx context.Context, f domain.ListingFilter, offset, limit int) ([]*models.Listing, int64, error) {
	return m.SearchFunc(ctx, f, offset, limit)
}

func (m *mockListingRepo) Update(ctx context.Context, l *models.Listing) error {
	return m.UpdateFunc(ctx, l)
}

func (m *mockListingRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockListingRepo) CountByCategory(ctx context.Context) (map[domain.Category]int64, error) {
	return m.CountByCategoryFunc(ctx)
}

type mockCartRepo struct {
	ListByUserFunc      func(ctx context.Context, userID string) ([]*models.CartEntry, error)
	CreateFunc          func(ctx context.Context, e *models.CartEntry) error
	DeleteFunc          func(ctx context.Context, userID, listingID string) (int64, error)
	DeleteAllByUserFunc func(ctx context.Context, userID string) (int64, error)
	CountFunc           func(ctx context.Context) (int64, error)
	CountByUserFunc     func(ctx context.Context, userID string) (int64, error)
	TopListingsFunc     func(ctx context.Context, limit int) ([]repositories.ListingRequestCount, error)
}

func (m *mockCartRepo) ListByUser(ctx context.Context, userID string) ([]*models.CartEntry, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *mockCartRepo) Create(ctx context.Context, e *models.CartEntry) error {
	return m.CreateFunc(ctx, e)
}

func (m *mockCartRepo) Delete(ctx context.Context, userID, listingID string) (int64, error) {
	return m.DeleteFunc(ctx, userID, listingID)
}

func (m *mockCartRepo) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	return m.DeleteAllByUserFunc(ctx, userID)
}

func (m *mockCartRepo) Count(ctx context.Context) (int64, error) {
	return m.CountFunc(ctx)
}

func (m *mockCartRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return m.CountByUserFunc(ctx, userID)
}

func (m *mockCartRepo) TopListings(ctx context.Context, limit int) ([]repositories.ListingRequestCount, error) {
	return m.TopListingsFunc(ctx, limit)
}

type mockFavoriteRepo struct {
	ListByUserFunc  func(ctx context.Context, userID string) ([]*models.Favorite, error)
	CreateFunc      func(ctx context.Context, f *models.Favorite) error
	DeleteFunc      func(ctx context.Context, userID, listingID string) (int64, error)
	CountByUserFunc func(ctx context.Context, userID string) (int64, error)
}

func (m *mockFavoriteRepo) ListByUser(ctx context.Context, userID string) ([]*models.Favorite, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *mockFavoriteRepo) Create(ctx context.Context, f *models.Favorite) error {
	return m.CreateFunc(ctx, f)
}

func (m *mockFavoriteRepo) Delete(ctx context.Context, userID, listingID string) (int64, error) {
	return m.DeleteFunc(ctx, userID, listingID)
}

func (m *mockFavoriteRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return m.CountByUserFunc(ctx, userID)
}
