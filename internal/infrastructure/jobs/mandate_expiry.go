package jobs

import (
	"context"
	"time"

	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/pkg/logger"
	"go.uber.org/zap"
)

// MandateExpiryJob sweeps ACTIVE mandates past their expiry to EXPIRED.
// Expiry is also enforced at execute time by wall clock, so the sweep only
// keeps the stored status honest for reads.
type MandateExpiryJob struct {
	repo     repositories.MandateRepository
	interval time.Duration
	stop     chan struct{}
}

func NewMandateExpiryJob(repo repositories.MandateRepository, interval time.Duration) *MandateExpiryJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &MandateExpiryJob{
		repo:     repo,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *MandateExpiryJob) Start(ctx context.Context) {
	logger.Info(ctx, "mandate expiry job started", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "mandate expiry job stopped")
			return
		case <-j.stop:
			logger.Info(ctx, "mandate expiry job stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *MandateExpiryJob) Stop() {
	close(j.stop)
}

func (j *MandateExpiryJob) sweep(ctx context.Context) {
	expired, err := j.repo.ExpireDue(ctx, time.Now())
	if err != nil {
		logger.Error(ctx, "mandate expiry sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		logger.Info(ctx, "mandates expired", zap.Int64("count", expired))
	}
}
