package repositories

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userstore.backend/internal/domain/entities"
	"userstore.backend/internal/infrastructure/changes"
	"userstore.backend/internal/infrastructure/datasources"
	"userstore.backend/internal/infrastructure/sqlgen"
	"userstore.backend/pkg/logger"
)

// Mapping binds one entity kind to its statements and row mapper.
type Mapping[T entities.Entity] struct {
	Insert func(T) sqlgen.Statement
	Update func(T) sqlgen.Statement
	Delete func(T) sqlgen.Statement
	// Scan maps the current row of rows into a new entity.
	Scan func(db *gorm.DB, rows *sql.Rows) (T, error)
}

// Gateway queues mutations of entities of kind T on a shared tracker and
// reads them back from the store.
type Gateway[T entities.Entity] struct {
	db      *gorm.DB
	tracker *changes.Tracker
	dialect datasources.Dialect
	mapping Mapping[T]
}

// NewGateway creates a gateway for one entity kind
func NewGateway[T entities.Entity](db *gorm.DB, tracker *changes.Tracker, dialect datasources.Dialect, mapping Mapping[T]) *Gateway[T] {
	return &Gateway[T]{db: db, tracker: tracker, dialect: dialect, mapping: mapping}
}

// Insert queues e for insertion. Entities of another kind are ignored.
func (g *Gateway[T]) Insert(e entities.Entity) {
	g.enqueue(changes.Insert, e, g.mapping.Insert)
}

// Update queues e for update. Entities of another kind are ignored.
func (g *Gateway[T]) Update(e entities.Entity) {
	g.enqueue(changes.Update, e, g.mapping.Update)
}

// Delete queues e for deletion. Entities of another kind are ignored.
func (g *Gateway[T]) Delete(e entities.Entity) {
	g.enqueue(changes.Delete, e, g.mapping.Delete)
}

// Accepts reports whether e is a non-nil entity of kind T
func (g *Gateway[T]) Accepts(e entities.Entity) bool {
	_, ok := e.(T)
	return ok && !entities.IsNil(e)
}

func (g *Gateway[T]) enqueue(kind changes.Kind, e entities.Entity, gen func(T) sqlgen.Statement) {
	if !g.Accepts(e) || gen == nil {
		return
	}
	g.tracker.Enqueue(kind, e, bind(gen))
}

// bind adapts a typed generator to the tracker's generator signature.
func bind[T entities.Entity](gen func(T) sqlgen.Statement) sqlgen.Generator {
	return func(e entities.Entity) sqlgen.Statement {
		return gen(e.(T))
	}
}

// Select runs stmt and maps every row in result-set order. Read failures
// are logged and produce an empty result.
func (g *Gateway[T]) Select(ctx context.Context, stmt sqlgen.Statement) []T {
	list := []T{}

	rows, err := g.db.WithContext(ctx).Raw(stmt.Query, stmt.Args...).Rows()
	if err != nil {
		logger.Error(ctx, "Select failed", zap.String("sql", sqlgen.Inline(stmt)), zap.Error(err))
		return list
	}
	defer rows.Close()

	for rows.Next() {
		item, err := g.mapping.Scan(g.db, rows)
		if err != nil {
			logger.Error(ctx, "Select row mapping failed", zap.String("sql", sqlgen.Inline(stmt)), zap.Error(err))
			return []T{}
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		logger.Error(ctx, "Select iteration failed", zap.String("sql", sqlgen.Inline(stmt)), zap.Error(err))
		return []T{}
	}
	return list
}

// SelectTable reads every row of table. The table name must consist of
// letters, digits and underscores; anything else is rejected before a query
// is built.
func (g *Gateway[T]) SelectTable(ctx context.Context, table string) ([]T, error) {
	stmt, err := g.dialect.SelectAllFrom(table)
	if err != nil {
		logger.Warn(ctx, "Rejected table name", zap.String("table", table), zap.Error(err))
		return nil, err
	}
	return g.Select(ctx, stmt), nil
}
