package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userstore.backend/internal/domain/entities"
	domainerrors "userstore.backend/internal/domain/errors"
	domainRepos "userstore.backend/internal/domain/repositories"
	"userstore.backend/internal/infrastructure/changes"
	"userstore.backend/internal/infrastructure/datasources"
	"userstore.backend/internal/infrastructure/metrics"
	"userstore.backend/internal/infrastructure/sqlgen"
	"userstore.backend/pkg/logger"
	"userstore.backend/pkg/utils"
)

type contextKey string

const (
	txKey contextKey = "tx_db"
)

var commitTx = func(tx *gorm.DB) error {
	return tx.Commit().Error
}

// UnitOfWorkImpl implements UnitOfWork using GORM. It is the only writer of
// the change tracker's queues once they hold changes: gateways enqueue,
// CommitAll drains and replays.
type UnitOfWorkImpl struct {
	db      *gorm.DB
	tracker *changes.Tracker
	dialect datasources.Dialect
	metrics *metrics.Collector
	timeout time.Duration

	commitMu sync.Mutex

	hooksMu sync.RWMutex
	hooks   []domainRepos.CommitHook
}

// Option configures a UnitOfWorkImpl
type Option func(*UnitOfWorkImpl)

// WithMetrics records commit activity on c
func WithMetrics(c *metrics.Collector) Option {
	return func(u *UnitOfWorkImpl) { u.metrics = c }
}

// WithCommitTimeout bounds each CommitAll call; zero means no bound
func WithCommitTimeout(d time.Duration) Option {
	return func(u *UnitOfWorkImpl) { u.timeout = d }
}

// NewUnitOfWork creates a new UnitOfWork draining tracker into db
func NewUnitOfWork(db *gorm.DB, tracker *changes.Tracker, dialect datasources.Dialect, opts ...Option) *UnitOfWorkImpl {
	u := &UnitOfWorkImpl{db: db, tracker: tracker, dialect: dialect}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Do executes the given function within a transaction scope
func (u *UnitOfWorkImpl) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := u.GetDB(ctx).WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, gorm.ErrInvalidTransaction) {
			logger.Error(ctx, "Rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := commitTx(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CommitAll drains the tracker and replays the batch in one transaction.
func (u *UnitOfWorkImpl) CommitAll(ctx context.Context) (int64, error) {
	u.commitMu.Lock()
	defer u.commitMu.Unlock()

	start := time.Now()
	batch := u.tracker.DrainAll()
	if batch.Len() == 0 {
		u.metrics.ObserveCommit(metrics.OutcomeEmpty, time.Since(start), 0)
		return 0, nil
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	batchID := utils.GenerateUUIDv7().String()
	ctx = logger.WithBatchID(ctx, batchID)

	// Identities handed out inside a rolled back transaction are returned.
	previousIDs := make([]int64, len(batch.Inserts))
	for i, c := range batch.Inserts {
		previousIDs[i] = c.Entity.GetID()
	}

	var affected int64
	err := u.Do(ctx, func(txCtx context.Context) error {
		tx := GetDB(txCtx, u.db)
		for _, kind := range changes.Kinds {
			for _, c := range batch.Of(kind) {
				n, err := u.apply(txCtx, tx, kind, c)
				if err != nil {
					return err
				}
				affected += n
			}
		}
		return nil
	})
	if err != nil {
		for i, c := range batch.Inserts {
			c.Entity.SetID(previousIDs[i])
		}
		u.metrics.ObserveCommit(metrics.OutcomeRolledBack, time.Since(start), 0)
		logger.Error(ctx, "Commit rolled back",
			zap.Int("changes", batch.Len()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return 0, fmt.Errorf("%w: %w", domainerrors.ErrCommitFailed, err)
	}

	u.metrics.ObserveCommit(metrics.OutcomeCommitted, time.Since(start), affected)
	logger.Info(ctx, "Commit completed",
		zap.Int("inserts", len(batch.Inserts)),
		zap.Int("updates", len(batch.Updates)),
		zap.Int("deletes", len(batch.Deletes)),
		zap.Int64("rows_affected", affected),
		zap.Duration("elapsed", time.Since(start)),
	)

	u.notify(ctx, domainRepos.CommitResult{
		BatchID:      batchID,
		RowsAffected: affected,
		Inserted:     entitiesOf(batch.Inserts),
		Updated:      entitiesOf(batch.Updates),
		Deleted:      entitiesOf(batch.Deletes),
	})
	return affected, nil
}

// apply executes one change; inserts read back the store-assigned identity.
func (u *UnitOfWorkImpl) apply(ctx context.Context, tx *gorm.DB, kind changes.Kind, c changes.Change) (int64, error) {
	stmt := c.Statement()
	if stmt.Empty() {
		return 0, fmt.Errorf("%s %T: generator produced no statement", kind, c.Entity)
	}

	logger.Debug(ctx, "Executing statement", zap.Stringer("operation", kind), zap.String("sql", sqlgen.Inline(stmt)))

	res := tx.Exec(stmt.Query, stmt.Args...)
	if res.Error != nil {
		logger.Warn(ctx, "Statement failed", zap.Stringer("operation", kind), zap.String("sql", sqlgen.Inline(stmt)), zap.Error(res.Error))
		return 0, fmt.Errorf("%s %T: %w", kind, c.Entity, res.Error)
	}
	u.metrics.ObserveStatement(kind.String())

	if kind == changes.Insert {
		var id int64
		if err := tx.Raw(u.dialect.LastInsertIDQuery).Scan(&id).Error; err != nil {
			return 0, fmt.Errorf("%s %T: failed to read generated id: %w", kind, c.Entity, err)
		}
		c.Entity.SetID(id)
	}
	return res.RowsAffected, nil
}

// Pending returns the number of queued changes per operation
func (u *UnitOfWorkImpl) Pending() domainRepos.ChangeCounts {
	c := u.tracker.Counts()
	return domainRepos.ChangeCounts{Inserts: c.Inserts, Updates: c.Updates, Deletes: c.Deletes}
}

// OnCommit registers a hook called after each successful commit
func (u *UnitOfWorkImpl) OnCommit(hook domainRepos.CommitHook) {
	if hook == nil {
		return
	}
	u.hooksMu.Lock()
	defer u.hooksMu.Unlock()
	u.hooks = append(u.hooks, hook)
}

func (u *UnitOfWorkImpl) notify(ctx context.Context, result domainRepos.CommitResult) {
	u.hooksMu.RLock()
	hooks := append([]domainRepos.CommitHook(nil), u.hooks...)
	u.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, result)
	}
}

// GetDB extracts the Transaction DB from context if present, otherwise returns standard DB
func (u *UnitOfWorkImpl) GetDB(ctx context.Context) *gorm.DB {
	return GetDB(ctx, u.db)
}

// GetDB returns the transaction stored in ctx by Do, or fallback
func GetDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

func entitiesOf(list []changes.Change) []entities.Entity {
	out := make([]entities.Entity, 0, len(list))
	for _, c := range list {
		out = append(out, c.Entity)
	}
	return out
}
