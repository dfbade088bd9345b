package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/joetm/ckanext-feeds/internal/database"
)

// RetentionScheduler periodically prunes activities older than the configured
// retention age.
type RetentionScheduler struct {
	activities    *database.ActivityRepository
	retentionAge  time.Duration
	logger        *slog.Logger
	stopChan      chan struct{}
	checkInterval time.Duration
}

// NewRetentionScheduler creates a retention scheduler. A zero retention age
// disables pruning.
func NewRetentionScheduler(activities *database.ActivityRepository, retentionAge time.Duration, logger *slog.Logger) *RetentionScheduler {
	return &RetentionScheduler{
		activities:    activities,
		retentionAge:  retentionAge,
		logger:        logger,
		stopChan:      make(chan struct{}),
		checkInterval: 1 * time.Hour,
	}
}

// Start begins the scheduler loop.
func (s *RetentionScheduler) Start(ctx context.Context) {
	if s.retentionAge <= 0 {
		s.logger.Info("activity retention pruning disabled")
		return
	}

	s.logger.Info("starting retention scheduler", "retention_age", s.retentionAge, "check_interval", s.checkInterval)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.prune(ctx)

	for {
		select {
		case <-ticker.C:
			s.prune(ctx)
		case <-s.stopChan:
			s.logger.Info("retention scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("retention scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler.
func (s *RetentionScheduler) Stop() {
	close(s.stopChan)
}

func (s *RetentionScheduler) prune(ctx context.Context) {
	deleted, err := s.activities.DeleteOlderThan(ctx, s.retentionAge)
	if err != nil {
		s.logger.Error("failed to prune old activities", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("pruned old activities", "count", deleted)
	}
}
