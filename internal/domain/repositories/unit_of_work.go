package repositories

import (
	"context"

	"userstore.backend/internal/domain/entities"
)

// UnitOfWork defines the interface for atomic operations
type UnitOfWork interface {
	// Do executes the given function within a transaction scope
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	// CommitAll replays every pending change in one transaction: inserts,
	// then updates, then deletes. Pending changes are discarded whatever the
	// outcome. It returns the total number of affected rows.
	CommitAll(ctx context.Context) (int64, error)
	// Pending returns the number of queued changes per operation.
	Pending() ChangeCounts
	// OnCommit registers a hook called after each successful commit.
	OnCommit(hook CommitHook)
}

// ChangeCounts holds the number of pending changes per operation
type ChangeCounts struct {
	Inserts int `json:"inserts"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
}

// Total returns the sum across operations
func (c ChangeCounts) Total() int {
	return c.Inserts + c.Updates + c.Deletes
}

// CommitResult describes a committed batch
type CommitResult struct {
	BatchID      string
	RowsAffected int64
	Inserted     []entities.Entity
	Updated      []entities.Entity
	Deleted      []entities.Entity
}

// Entities returns every entity touched by the batch
func (r CommitResult) Entities() []entities.Entity {
	all := make([]entities.Entity, 0, len(r.Inserted)+len(r.Updated)+len(r.Deleted))
	all = append(all, r.Inserted...)
	all = append(all, r.Updated...)
	return append(all, r.Deleted...)
}

// CommitHook observes committed batches
type CommitHook func(ctx context.Context, result CommitResult)
