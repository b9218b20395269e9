package config

import (
	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/core/domain"
	"estatehub/internal/pkg/password"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *zap.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	s.log.Info("🌱 Running database seeders...")

	adminID, err := s.seedAdmin()
	if err != nil {
		s.log.Warn("⚠️ Admin seeder skipped", zap.Error(err))
	}
	if adminID != "" {
		if err := s.seedListings(adminID); err != nil {
			s.log.Warn("⚠️ Listing seeder skipped", zap.Error(err))
		}
	}

	s.log.Info("✅ Database seeding completed")
	return nil
}

// seedAdmin creates the development admin identity and its profile.
// Production admins are promoted through the role change endpoint.
func (s *Seeder) seedAdmin() (string, error) {
	var existing models.Profile
	err := s.db.Where("role = ?", string(domain.RoleAdmin)).First(&existing).Error
	if err == nil {
		return existing.UserID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return "", err
	}

	email := getEnv("SEED_ADMIN_EMAIL", "admin@estatehub.local")
	hashed, err := password.Hash(getEnv("SEED_ADMIN_PASSWORD", "admin123456"))
	if err != nil {
		return "", err
	}

	admin := &models.User{
		Email:    email,
		Password: hashed,
		IsActive: true,
		Metadata: map[string]string{domain.MetaFullName: "EstateHub Admin"},
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{
			UserID:   admin.ID,
			Email:    email,
			FullName: "EstateHub Admin",
			Role:     string(domain.RoleAdmin),
		}).Error
	})
	if err != nil {
		return "", err
	}

	s.log.Info("✅ Admin user created", zap.String("email", email))
	return admin.ID, nil
}

func (s *Seeder) seedListings(ownerID string) error {
	var count int64
	if err := s.db.Model(&models.Listing{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	listings := []*models.Listing{
		{Title: "Sunny two-bedroom flat", Location: "Lisbon", Price: 1200, Beds: 2, Baths: 1, Area: 74,
			Category: string(domain.CategoryRent), IsPopular: true, OwnerID: ownerID,
			Description: "Top floor, balcony, close to the tram line."},
		{Title: "Family house with garden", Location: "Porto", Price: 385000, Beds: 4, Baths: 2, Area: 190,
			Category: string(domain.CategorySale), IsNew: true, OwnerID: ownerID,
			Description: "Detached house, quiet street, renovated kitchen."},
		{Title: "City studio", Location: "Lisbon", Price: 750, Beds: 1, Baths: 1, Area: 32,
			Category: string(domain.CategoryRent), IsNew: true, OwnerID: ownerID},
		{Title: "Seaside villa", Location: "Cascais", Price: 1250000, Beds: 5, Baths: 4, Area: 420,
			Category: string(domain.CategorySale), IsPopular: true, OwnerID: ownerID},
	}
	if err := s.db.Create(&listings).Error; err != nil {
		return err
	}

	s.log.Info("✅ Demo listings created", zap.Int("count", len(listings)))
	return nil
}
