package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userstore.backend/internal/domain/entities"
	domainerrors "userstore.backend/internal/domain/errors"
	"userstore.backend/internal/infrastructure/cache"
	"userstore.backend/internal/infrastructure/changes"
	"userstore.backend/internal/infrastructure/datasources"
	"userstore.backend/internal/infrastructure/models"
	"userstore.backend/internal/infrastructure/sqlgen"
	"userstore.backend/pkg/logger"
)

// UserRepository implements user data operations
type UserRepository struct {
	*Gateway[*entities.User]
	cache *cache.EntityCache[*entities.User]
}

// NewUserRepository creates a new user repository queuing on tracker
func NewUserRepository(db *gorm.DB, tracker *changes.Tracker, dialect datasources.Dialect) *UserRepository {
	return &UserRepository{
		Gateway: NewGateway(db, tracker, dialect, Mapping[*entities.User]{
			Insert: userInsertSQL,
			Update: userUpdateSQL,
			Delete: userDeleteSQL,
			Scan:   scanUser,
		}),
	}
}

// WithCache serves SelectByID from c when possible
func (r *UserRepository) WithCache(c *cache.EntityCache[*entities.User]) *UserRepository {
	r.cache = c
	return r
}

// SelectAll returns every user ordered by id
func (r *UserRepository) SelectAll(ctx context.Context) entities.UserList {
	return entities.UserList(r.Select(ctx, sqlgen.New("SELECT id, name, age FROM users ORDER BY id")))
}

// SelectByID returns the user with id, if any
func (r *UserRepository) SelectByID(ctx context.Context, id int64) (*entities.User, bool) {
	var gen uint64
	if r.cache != nil {
		if u, ok := r.cache.Get(ctx, id); ok {
			return u, true
		}
		gen = r.cache.Generation()
	}

	u := entities.UserList(r.Select(ctx, sqlgen.New("SELECT id, name, age FROM users WHERE id = ?", id))).First()
	if u == nil {
		return nil, false
	}
	if r.cache != nil {
		r.cache.PutIfCurrent(ctx, u, gen)
	}
	return u, true
}

// SelectTable reads every row of table as users
func (r *UserRepository) SelectTable(ctx context.Context, table string) (entities.UserList, error) {
	list, err := r.Gateway.SelectTable(ctx, table)
	if err != nil {
		return nil, err
	}
	return entities.UserList(list), nil
}

// DeleteAll queues a delete for every stored user and returns how many were queued
func (r *UserRepository) DeleteAll(ctx context.Context) int {
	users := r.SelectAll(ctx)
	for _, u := range users {
		r.Delete(u)
	}
	return len(users)
}

// DeleteByID queues a delete for the user with id
func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	u, ok := r.SelectByID(ctx, id)
	if !ok {
		logger.Warn(ctx, "User not found", zap.Int64("id", id))
		return fmt.Errorf("user %d: %w", id, domainerrors.ErrNotFound)
	}
	r.Delete(u)
	return nil
}

func userInsertSQL(u *entities.User) sqlgen.Statement {
	return sqlgen.New("INSERT INTO users (name, age) VALUES (?, ?)", u.Name, u.Age)
}

func userUpdateSQL(u *entities.User) sqlgen.Statement {
	return sqlgen.New("UPDATE users SET name = ?, age = ? WHERE id = ?", u.Name, u.Age, u.ID)
}

func userDeleteSQL(u *entities.User) sqlgen.Statement {
	return sqlgen.New("DELETE FROM users WHERE id = ?", u.ID)
}

func scanUser(db *gorm.DB, rows *sql.Rows) (*entities.User, error) {
	var m models.User
	if err := db.ScanRows(rows, &m); err != nil {
		return nil, err
	}
	return toUserEntity(&m), nil
}

func toUserEntity(m *models.User) *entities.User {
	return &entities.User{
		Base: entities.Base{ID: m.ID},
		Name: m.Name,
		Age:  m.Age,
	}
}
