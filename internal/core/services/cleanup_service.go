package services

import (
	"context"
	"time"

	"estatehub/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultCleanupSpec runs the token sweep once an hour
const DefaultCleanupSpec = "@every 1h"

// CleanupService periodically removes stale refresh tokens
type CleanupService struct {
	refreshTokenRepo repositories.RefreshTokenRepository
	cron             *cron.Cron
	spec             string
	logger           *zap.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(refreshTokenRepo repositories.RefreshTokenRepository, spec string, logger *zap.Logger) *CleanupService {
	if spec == "" {
		spec = DefaultCleanupSpec
	}
	return &CleanupService{
		refreshTokenRepo: refreshTokenRepo,
		cron:             cron.New(),
		spec:             spec,
		logger:           logger,
	}
}

// Start schedules the sweep
func (s *CleanupService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("⏰ Cleanup job scheduled", zap.String("spec", s.spec))
	return nil
}

// Stop halts the scheduler and waits for a running sweep
func (s *CleanupService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *CleanupService) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("❌ Refresh token cleanup failed", zap.Error(err))
	}
}

// Sweep deletes expired and revoked refresh tokens once
func (s *CleanupService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.refreshTokenRepo.DeleteStale(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("🧹 Removed stale refresh tokens", zap.Int64("count", n))
	}
	return n, nil
}
