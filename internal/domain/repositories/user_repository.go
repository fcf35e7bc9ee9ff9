package repositories

import (
	"context"

	"userstore.backend/internal/domain/entities"
)

// UserRepository defines user data operations. Mutations are queued on the
// shared unit of work; entities of another kind are ignored.
type UserRepository interface {
	Insert(e entities.Entity)
	Update(e entities.Entity)
	Delete(e entities.Entity)
	SelectAll(ctx context.Context) entities.UserList
	SelectByID(ctx context.Context, id int64) (*entities.User, bool)
	SelectTable(ctx context.Context, table string) (entities.UserList, error)
	DeleteAll(ctx context.Context) int
	DeleteByID(ctx context.Context, id int64) error
}
