package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"userstore.backend/internal/domain/entities"
	domainerrors "userstore.backend/internal/domain/errors"
	domainRepos "userstore.backend/internal/domain/repositories"
	"userstore.backend/internal/infrastructure/cache"
	"userstore.backend/internal/infrastructure/datasources"
	"userstore.backend/pkg/redis"
)

var _ domainRepos.UserRepository = (*UserRepository)(nil)
var _ domainRepos.UnitOfWork = (*UnitOfWorkImpl)(nil)

func seedUsers(t *testing.T, f *fixture, users ...*entities.User) {
	t.Helper()
	for _, u := range users {
		f.users.Insert(u)
	}
	_, err := f.uow.CommitAll(context.Background())
	require.NoError(t, err)
}

func TestUserRepository_SelectAllAndByID(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	f := newFixture(t, db, datasources.SQLite)
	ctx := context.Background()

	a := entities.NewUser("a", 1)
	b := entities.NewUser("b", 2)
	seedUsers(t, f, a, b)

	all := f.users.SelectAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "Id: 1 - Name: a, Age: 1\nId: 2 - Name: b, Age: 2", all.String())

	got, ok := f.users.SelectByID(ctx, b.ID)
	require.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = f.users.SelectByID(ctx, 999)
	assert.False(t, ok)
}

func TestUserRepository_SelectTable(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	f := newFixture(t, db, datasources.SQLite)
	seedUsers(t, f, entities.NewUser("only", 9))

	list, err := f.users.SelectTable(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "only", list[0].Name)

	_, err = f.users.SelectTable(context.Background(), "users; DROP TABLE users")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidIdentifier)
	assert.Equal(t, int64(1), countRows(t, db, "users"))
}

func TestUserRepository_DeleteAll(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	f := newFixture(t, db, datasources.SQLite)
	ctx := context.Background()
	seedUsers(t, f, entities.NewUser("a", 1), entities.NewUser("b", 2), entities.NewUser("c", 3))

	queued := f.users.DeleteAll(ctx)
	assert.Equal(t, 3, queued)
	assert.Equal(t, 3, f.tracker.Counts().Deletes)
	assert.Equal(t, 3, f.tracker.Len())

	n, err := f.uow.CommitAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Empty(t, f.users.SelectAll(ctx))

	assert.Zero(t, f.users.DeleteAll(ctx))
	assert.Zero(t, f.tracker.Len())
}

func TestUserRepository_DeleteByID(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	f := newFixture(t, db, datasources.SQLite)
	ctx := context.Background()
	u := entities.NewUser("gone", 1)
	seedUsers(t, f, u)

	err := f.users.DeleteByID(ctx, 404)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Zero(t, f.tracker.Len())

	require.NoError(t, f.users.DeleteByID(ctx, u.ID))
	assert.Equal(t, 1, f.tracker.Counts().Deletes)

	n, err := f.uow.CommitAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(0), countRows(t, db, "users"))
}

func TestUserRepository_Generators(t *testing.T) {
	u := &entities.User{Base: entities.Base{ID: 5}, Name: "O'Brien", Age: 33}

	assert.Equal(t, "INSERT INTO users (name, age) VALUES ('O''Brien', 33)", userInsertSQL(u).String())
	assert.Equal(t, "UPDATE users SET name = 'O''Brien', age = 33 WHERE id = 5", userUpdateSQL(u).String())
	assert.Equal(t, "DELETE FROM users WHERE id = 5", userDeleteSQL(u).String())
}

func TestUserRepository_CacheInvalidatedOnCommit(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, redis.Init("redis://"+mr.Addr(), ""))
	t.Cleanup(func() { _ = redis.Close() })

	db := newTestDB(t)
	createUserTable(t, db)
	f := newFixture(t, db, datasources.SQLite)
	ctx := context.Background()

	userCache := cache.NewEntityCache("user", time.Minute, func() *entities.User { return &entities.User{} })
	f.users.WithCache(userCache)
	f.uow.OnCommit(userCache.InvalidateCommitted)

	u := entities.NewUser("cached", 20)
	seedUsers(t, f, u)

	_, ok := f.users.SelectByID(ctx, u.ID)
	require.True(t, ok)
	require.True(t, mr.Exists(userCache.Key(u.ID)))

	// served from cache even when the row changes behind our back
	mustExec(t, db, "UPDATE users SET name = 'direct' WHERE id = ?", u.ID)
	got, ok := f.users.SelectByID(ctx, u.ID)
	require.True(t, ok)
	assert.Equal(t, "cached", got.Name)

	u.Age = 21
	f.users.Update(u)
	_, err := f.uow.CommitAll(ctx)
	require.NoError(t, err)
	assert.False(t, mr.Exists(userCache.Key(u.ID)))

	got, ok = f.users.SelectByID(ctx, u.ID)
	require.True(t, ok)
	assert.Equal(t, 21, got.Age)
}

func TestUserRepository_CacheSkipsReadRacingCommit(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, redis.Init("redis://"+mr.Addr(), ""))
	t.Cleanup(func() { _ = redis.Close() })

	db := newTestDB(t)
	createUserTable(t, db)
	f := newFixture(t, db, datasources.SQLite)
	ctx := context.Background()

	userCache := cache.NewEntityCache("user", time.Minute, func() *entities.User { return &entities.User{} })
	f.users.WithCache(userCache)
	f.uow.OnCommit(userCache.InvalidateCommitted)

	u := entities.NewUser("racing", 30)
	seedUsers(t, f, u)

	// a commit invalidation lands while the store read is in flight
	fired := false
	require.NoError(t, db.Callback().Row().After("gorm:row").Register("test:commit_during_read", func(*gorm.DB) {
		if fired {
			return
		}
		fired = true
		userCache.InvalidateCommitted(ctx, domainRepos.CommitResult{
			Updated: []entities.Entity{&entities.User{Base: entities.Base{ID: u.ID}}},
		})
	}))

	got, ok := f.users.SelectByID(ctx, u.ID)
	require.True(t, ok)
	assert.Equal(t, "racing", got.Name)
	assert.True(t, fired)
	assert.False(t, mr.Exists(userCache.Key(u.ID)), "read older than the commit must not be cached")

	_, ok = f.users.SelectByID(ctx, u.ID)
	require.True(t, ok)
	assert.True(t, mr.Exists(userCache.Key(u.ID)))
}
