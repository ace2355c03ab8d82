package jobs

import (
	"context"
	"time"

	"agent-gate.backend/internal/domain/entities"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/pkg/logger"
	"go.uber.org/zap"
)

// IdempotencyPurgeJob removes idempotency records past retention. Purged keys
// can no longer replay, which is the documented contract after 24 h.
type IdempotencyPurgeJob struct {
	repo     repositories.IdempotencyRepository
	interval time.Duration
	stop     chan struct{}
}

func NewIdempotencyPurgeJob(repo repositories.IdempotencyRepository, interval time.Duration) *IdempotencyPurgeJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IdempotencyPurgeJob{
		repo:     repo,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *IdempotencyPurgeJob) Start(ctx context.Context) {
	logger.Info(ctx, "idempotency purge job started", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "idempotency purge job stopped")
			return
		case <-j.stop:
			logger.Info(ctx, "idempotency purge job stopped")
			return
		case <-ticker.C:
			j.purge(ctx)
		}
	}
}

func (j *IdempotencyPurgeJob) Stop() {
	close(j.stop)
}

func (j *IdempotencyPurgeJob) purge(ctx context.Context) {
	cutoff := time.Now().Add(-entities.IdempotencyRetention)
	purged, err := j.repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		logger.Error(ctx, "idempotency purge failed", zap.Error(err))
		return
	}
	if purged > 0 {
		logger.Info(ctx, "idempotency records purged", zap.Int64("count", purged))
	}
}
