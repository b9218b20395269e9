package services

import (
	"context"
	"errors"
	"strings"

	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/adapters/persistence/repositories"
	"estatehub/internal/core/domain"
	"estatehub/internal/pkg/pagination"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Profile service errors
var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileExists       = errors.New("profile already exists")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrInvalidRole         = errors.New("invalid role")
)

// ProfileService handles profile records
type ProfileService struct {
	profileRepo repositories.ProfileRepository
	logger      *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(profileRepo repositories.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// CreateProfileInput represents profile insert input
type CreateProfileInput struct {
	UserID   string      `json:"user_id"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Phone    string      `json:"phone"`
	Address  string      `json:"address"`
	Bio      string      `json:"bio"`
	Role     domain.Role `json:"role"`
}

// UpdateProfileInput represents self-edit input; nil fields are left alone
type UpdateProfileInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Bio      *string `json:"bio"`
}

// ListProfilesOutput represents list profiles output
type ListProfilesOutput struct {
	Profiles []*domain.Profile `json:"profiles"`
	Meta     *pagination.Meta  `json:"meta"`
}

// Get returns a profile by user id
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p.ToDomain(), nil
}

// RoleOf returns the role on a user's profile
func (s *ProfileService) RoleOf(ctx context.Context, userID string) (domain.Role, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

// Create inserts a profile. Users may only insert their own row and always
// get the standard role; admins may insert any row with any valid role.
func (s *ProfileService) Create(ctx context.Context, actor Actor, input *CreateProfileInput) (*domain.Profile, error) {
	if input.UserID == "" {
		input.UserID = actor.UserID
	}
	role := domain.RoleUser
	if actor.IsAdmin() {
		if input.Role != "" {
			if !input.Role.IsValid() {
				return nil, ErrInvalidRole
			}
			role = input.Role
		}
	} else if input.UserID != actor.UserID {
		return nil, domain.ErrForbidden
	}

	p := &models.Profile{
		UserID:   input.UserID,
		Email:    strings.TrimSpace(input.Email),
		FullName: strings.TrimSpace(input.FullName),
		Phone:    strings.TrimSpace(input.Phone),
		Address:  strings.TrimSpace(input.Address),
		Bio:      input.Bio,
		Role:     string(role),
	}
	if err := s.profileRepo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProfileExists
		}
		return nil, err
	}

	s.logger.Info("✅ Profile created", zap.String("user_id", p.UserID), zap.String("role", p.Role))
	return p.ToDomain(), nil
}

// UpdateOwn edits the caller's contact fields; role is never touched here
func (s *ProfileService) UpdateOwn(ctx context.Context, userID string, input *UpdateProfileInput) (*domain.Profile, error) {
	p, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if input.FullName != nil {
		p.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Phone != nil {
		p.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		p.Address = strings.TrimSpace(*input.Address)
	}
	if input.Bio != nil {
		p.Bio = *input.Bio
	}

	if err := s.profileRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p.ToDomain(), nil
}

// ChangeRole sets another user's role (admin only)
func (s *ProfileService) ChangeRole(ctx context.Context, actor Actor, targetID string, role domain.Role) (*domain.Profile, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if targetID == actor.UserID {
		return nil, ErrCannotChangeOwnRole
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	if err := s.profileRepo.UpdateRole(ctx, targetID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	s.logger.Info("🔑 Role changed",
		zap.String("admin_id", actor.UserID),
		zap.String("user_id", targetID),
		zap.String("role", string(role)))
	return s.Get(ctx, targetID)
}

// List lists profiles with pagination (admin)
func (s *ProfileService) List(ctx context.Context, params *pagination.Params) (*ListProfilesOutput, error) {
	rows, total, err := s.profileRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Profile, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return &ListProfilesOutput{Profiles: out, Meta: pagination.GetMeta(params, total)}, nil
}
