package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"userstore.backend/internal/domain/repositories"
	"userstore.backend/pkg/logger"
)

// AutoCommitJob periodically commits queued changes
type AutoCommitJob struct {
	uow      repositories.UnitOfWork
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewAutoCommitJob(uow repositories.UnitOfWork, interval time.Duration) *AutoCommitJob {
	return &AutoCommitJob{
		uow:      uow,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called. A non-positive
// interval disables the job.
func (j *AutoCommitJob) Start(ctx context.Context) {
	if j.interval <= 0 {
		return
	}
	logger.Info(ctx, "Starting auto-commit job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Auto-commit job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Auto-commit job stopped")
			return
		case <-ticker.C:
			j.commitPending(ctx)
		}
	}
}

func (j *AutoCommitJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *AutoCommitJob) commitPending(ctx context.Context) {
	pending := j.uow.Pending()
	if pending.Total() == 0 {
		return
	}

	n, err := j.uow.CommitAll(ctx)
	if err != nil {
		logger.Error(ctx, "Auto-commit failed", zap.Int("changes", pending.Total()), zap.Error(err))
		return
	}
	logger.Info(ctx, "Auto-commit completed", zap.Int("changes", pending.Total()), zap.Int64("rows_affected", n))
}
