// Package changes tracks entity mutations until the unit of work commits them.
package changes

import (
	"sync"

	"userstore.backend/internal/domain/entities"
	"userstore.backend/internal/infrastructure/sqlgen"
)

// Kind is the operation a pending change performs.
type Kind int

const (
	Insert Kind = iota
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Kinds lists the operation kinds in commit order.
var Kinds = []Kind{Insert, Update, Delete}

// Change is an entity queued with the generator bound when it was enqueued.
type Change struct {
	Entity   entities.Entity
	Generate sqlgen.Generator
}

// Statement renders the change against the entity's current state.
func (c Change) Statement() sqlgen.Statement {
	return c.Generate(c.Entity)
}

// Batch is a drained snapshot of the three queues.
type Batch struct {
	Inserts []Change
	Updates []Change
	Deletes []Change
}

// Len returns the number of changes in the batch.
func (b Batch) Len() int {
	return len(b.Inserts) + len(b.Updates) + len(b.Deletes)
}

// Of returns the changes of one kind in FIFO order.
func (b Batch) Of(kind Kind) []Change {
	switch kind {
	case Insert:
		return b.Inserts
	case Update:
		return b.Updates
	case Delete:
		return b.Deletes
	}
	return nil
}

// Counts holds the number of pending changes per kind.
type Counts struct {
	Inserts int `json:"inserts"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
}

// Total returns the sum across kinds.
func (c Counts) Total() int {
	return c.Inserts + c.Updates + c.Deletes
}

// Tracker holds pending changes for every entity kind, partitioned by
// operation. It performs no validation and no deduplication.
type Tracker struct {
	mu      sync.Mutex
	inserts []Change
	updates []Change
	deletes []Change
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Enqueue appends a change to the queue for kind.
func (t *Tracker) Enqueue(kind Kind, e entities.Entity, gen sqlgen.Generator) {
	c := Change{Entity: e, Generate: gen}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch kind {
	case Insert:
		t.inserts = append(t.inserts, c)
	case Update:
		t.updates = append(t.updates, c)
	case Delete:
		t.deletes = append(t.deletes, c)
	}
}

// DrainAll returns the queued changes and leaves the tracker empty.
func (t *Tracker) DrainAll() Batch {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := Batch{Inserts: t.inserts, Updates: t.updates, Deletes: t.deletes}
	t.inserts, t.updates, t.deletes = nil, nil, nil
	return b
}

// Counts returns the number of pending changes per kind.
func (t *Tracker) Counts() Counts {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Counts{Inserts: len(t.inserts), Updates: len(t.updates), Deletes: len(t.deletes)}
}

// Len returns the total number of pending changes.
func (t *Tracker) Len() int {
	return t.Counts().Total()
}

// Close discards every pending change.
func (t *Tracker) Close() {
	t.DrainAll()
}
