package services

import (
	"context"
	"errors"
	"testing"

	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/adapters/persistence/repositories"
	"estatehub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	admin = Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	buyer = Actor{UserID: "user-1", Role: domain.RoleUser}
)

func validListingInput() *ListingInput {
	return &ListingInput{
		Title:    "Harbour flat",
		Location: "Lisbon",
		Price:    1200,
		Beds:     2,
		Baths:    1,
		Category: domain.CategoryRent,
	}
}

func TestListingService_CreateRequiresAdmin(t *testing.T) {
	var created *models.Listing
	repo := &mockListingRepo{
		CreateFunc: func(_ context.Context, l *models.Listing) error {
			created = l
			l.ID = "l-1"
			return nil
		},
	}
	svc := NewListingService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), buyer, validListingInput())
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Nil(t, created)

	listing, err := svc.Create(context.Background(), admin, validListingInput())
	require.NoError(t, err)
	assert.Equal(t, "l-1", listing.ID)
	assert.Equal(t, admin.UserID, listing.OwnerID)
	assert.Equal(t, []string{}, listing.Images)
}

func TestListingService_CreateValidates(t *testing.T) {
	svc := NewListingService(&mockListingRepo{}, zap.NewNop())

	in := validListingInput()
	in.Category = "lease"
	_, err := svc.Create(context.Background(), admin, in)
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	in = validListingInput()
	in.Price = 0
	_, err = svc.Create(context.Background(), admin, in)
	assert.Error(t, err)
}

func TestListingService_DeleteOwnership(t *testing.T) {
	deleted := ""
	repo := &mockListingRepo{
		GetByIDFunc: func(_ context.Context, id string) (*models.Listing, error) {
			if id == "missing" {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.Listing{ID: id, OwnerID: "someone-else"}, nil
		},
		DeleteFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := NewListingService(repo, zap.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, buyer, "l-1"), ErrNotOwner)
	assert.ErrorIs(t, svc.Delete(ctx, admin, "missing"), ErrListingNotFound)
	require.NoError(t, svc.Delete(ctx, admin, "l-1"))
	assert.Equal(t, "l-1", deleted)
}

func TestListingService_GetByIDs(t *testing.T) {
	var asked []string
	repo := &mockListingRepo{
		GetByIDsFunc: func(_ context.Context, ids []string) ([]*models.Listing, error) {
			asked = ids
			return []*models.Listing{{ID: "a"}}, nil
		},
	}
	svc := NewListingService(repo, zap.NewNop())

	out, err := svc.GetByIDs(context.Background(), []string{"a", "a", " ", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, asked)
	assert.Len(t, out, 1)

	_, err = svc.GetByIDs(context.Background(), make([]string, MaxBatchIDs+1))
	assert.ErrorIs(t, err, ErrTooManyIDs)
}

func TestListingService_ListClampsPaging(t *testing.T) {
	repo := &mockListingRepo{
		SearchFunc: func(_ context.Context, f domain.ListingFilter, offset, limit int) ([]*models.Listing, int64, error) {
			assert.Equal(t, 100, offset)
			assert.Equal(t, 50, limit)
			return []*models.Listing{{ID: "x"}}, 151, nil
		},
	}
	svc := NewListingService(repo, zap.NewNop())

	out, err := svc.List(context.Background(), domain.ListingFilter{Page: 3, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Meta.TotalPages)
	assert.True(t, out.Meta.HasNext)

	_, err = svc.List(context.Background(), domain.ListingFilter{Category: "lease"})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestCartService_Add(t *testing.T) {
	listings := &mockListingRepo{
		GetByIDFunc: func(_ context.Context, id string) (*models.Listing, error) {
			if id == "missing" {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.Listing{ID: id}, nil
		},
	}
	cart := &mockCartRepo{
		CreateFunc: func(_ context.Context, e *models.CartEntry) error {
			if e.ListingID == "dup" {
				return gorm.ErrDuplicatedKey
			}
			e.ID = 7
			return nil
		},
	}
	svc := NewCartService(cart, listings, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Add(ctx, admin, "l-1")
	assert.ErrorIs(t, err, domain.ErrPrivilegedCart)

	_, err = svc.Add(ctx, buyer, "missing")
	assert.ErrorIs(t, err, ErrListingNotFound)

	_, err = svc.Add(ctx, buyer, "dup")
	assert.ErrorIs(t, err, domain.ErrAlreadyInCart)

	entry, err := svc.Add(ctx, buyer, "l-1")
	require.NoError(t, err)
	assert.Equal(t, uint(7), entry.ID)
	assert.Equal(t, buyer.UserID, entry.UserID)
}

func TestCartService_ListAndRemove(t *testing.T) {
	cart := &mockCartRepo{
		ListByUserFunc: func(_ context.Context, userID string) ([]*models.CartEntry, error) {
			return []*models.CartEntry{{ID: 1, UserID: userID, ListingID: "l-1"}}, nil
		},
		DeleteFunc: func(_ context.Context, _, listingID string) (int64, error) {
			if listingID == "l-1" {
				return 1, nil
			}
			return 0, nil
		},
	}
	svc := NewCartService(cart, &mockListingRepo{}, zap.NewNop())
	ctx := context.Background()

	entries, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = svc.List(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.NoError(t, svc.Remove(ctx, buyer, "l-1"))
	assert.ErrorIs(t, svc.Remove(ctx, buyer, "l-2"), domain.ErrCartEntryAbsent)
}

func TestFavoriteService(t *testing.T) {
	listings := &mockListingRepo{
		GetByIDFunc: func(_ context.Context, id string) (*models.Listing, error) {
			return &models.Listing{ID: id}, nil
		},
	}
	favs := &mockFavoriteRepo{
		CreateFunc: func(_ context.Context, f *models.Favorite) error {
			if f.ListingID == "dup" {
				return gorm.ErrDuplicatedKey
			}
			return nil
		},
		DeleteFunc: func(context.Context, string, string) (int64, error) { return 0, nil },
	}
	svc := NewFavoriteService(favs, listings)
	ctx := context.Background()

	_, err := svc.Add(ctx, "u", "dup")
	assert.ErrorIs(t, err, ErrAlreadyFavorite)
	fav, err := svc.Add(ctx, "u", "l-1")
	require.NoError(t, err)
	assert.Equal(t, "l-1", fav.ListingID)
	assert.ErrorIs(t, svc.Remove(ctx, "u", "l-1"), domain.ErrNotFound)
}

func TestProfileService_CreateForcesUserRole(t *testing.T) {
	var stored *models.Profile
	repo := &mockProfileRepo{
		CreateFunc: func(_ context.Context, p *models.Profile) error {
			stored = p
			return nil
		},
	}
	svc := NewProfileService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, buyer, &CreateProfileInput{UserID: "other"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	p, err := svc.Create(ctx, buyer, &CreateProfileInput{Role: domain.RoleAdmin, Email: "u@x.org"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, p.Role)
	assert.Equal(t, buyer.UserID, stored.UserID)

	p, err = svc.Create(ctx, admin, &CreateProfileInput{UserID: "u-9", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)
}

func TestProfileService_CreateDuplicate(t *testing.T) {
	repo := &mockProfileRepo{
		CreateFunc: func(context.Context, *models.Profile) error { return gorm.ErrDuplicatedKey },
	}
	svc := NewProfileService(repo, zap.NewNop())
	_, err := svc.Create(context.Background(), buyer, &CreateProfileInput{})
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestProfileService_ChangeRole(t *testing.T) {
	repo := &mockProfileRepo{
		UpdateRoleFunc: func(_ context.Context, userID string, _ domain.Role) error {
			if userID == "ghost" {
				return gorm.ErrRecordNotFound
			}
			return nil
		},
		GetByUserIDFunc: func(_ context.Context, userID string) (*models.Profile, error) {
			return &models.Profile{UserID: userID, Role: string(domain.RoleAdmin)}, nil
		},
	}
	svc := NewProfileService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ChangeRole(ctx, buyer, "u-2", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.ChangeRole(ctx, admin, admin.UserID, domain.RoleUser)
	assert.ErrorIs(t, err, ErrCannotChangeOwnRole)
	_, err = svc.ChangeRole(ctx, admin, "u-2", "root")
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, err = svc.ChangeRole(ctx, admin, "ghost", domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	p, err := svc.ChangeRole(ctx, admin, "u-2", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)
}

func TestDashboardService(t *testing.T) {
	users := newMockUserRepo()
	users.users["a"] = &models.User{ID: "a"}
	users.users["b"] = &models.User{ID: "b"}
	svc := NewDashboardService(
		users,
		&mockProfileRepo{CountByRoleFunc: func(context.Context, domain.Role) (int64, error) { return 1, nil }},
		&mockListingRepo{CountByCategoryFunc: func(context.Context) (map[domain.Category]int64, error) {
			return map[domain.Category]int64{domain.CategorySale: 3, domain.CategoryRent: 4}, nil
		}},
		&mockCartRepo{
			CountFunc: func(context.Context) (int64, error) { return 9, nil },
			TopListingsFunc: func(_ context.Context, limit int) ([]repositories.ListingRequestCount, error) {
				assert.Equal(t, TopListingsLimit, limit)
				return []repositories.ListingRequestCount{{ListingID: "l-1", Requests: 5}}, nil
			},
			CountByUserFunc: func(context.Context, string) (int64, error) { return 2, nil },
		},
		&mockFavoriteRepo{CountByUserFunc: func(context.Context, string) (int64, error) { return 3, nil }},
	)
	ctx := context.Background()

	data, err := svc.GetAdminDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), data.TotalUsers)
	assert.Equal(t, int64(7), data.TotalListings)
	assert.Equal(t, int64(9), data.TotalCartEntries)
	assert.Len(t, data.TopRequested, 1)

	mine, err := svc.GetUserDashboard(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, &UserDashboardData{CartCount: 2, FavoritesCount: 3}, mine)
}

func TestDashboardService_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewDashboardService(
		newMockUserRepo(),
		&mockProfileRepo{CountByRoleFunc: func(context.Context, domain.Role) (int64, error) { return 0, boom }},
		&mockListingRepo{},
		&mockCartRepo{},
		&mockFavoriteRepo{},
	)
	_, err := svc.GetAdminDashboard(context.Background())
	assert.ErrorIs(t, err, boom)
}
