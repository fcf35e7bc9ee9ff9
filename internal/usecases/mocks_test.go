package usecases_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"userstore.backend/internal/domain/entities"
	"userstore.backend/internal/domain/repositories"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

func (m *MockUnitOfWork) CommitAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUnitOfWork) Pending() repositories.ChangeCounts {
	args := m.Called()
	return args.Get(0).(repositories.ChangeCounts)
}

func (m *MockUnitOfWork) OnCommit(hook repositories.CommitHook) {
	m.Called(hook)
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Insert(e entities.Entity) {
	m.Called(e)
}

func (m *MockUserRepository) Update(e entities.Entity) {
	m.Called(e)
}

func (m *MockUserRepository) Delete(e entities.Entity) {
	m.Called(e)
}

func (m *MockUserRepository) SelectAll(ctx context.Context) entities.UserList {
	args := m.Called(ctx)
	return args.Get(0).(entities.UserList)
}

func (m *MockUserRepository) SelectByID(ctx context.Context, id int64) (*entities.User, bool) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*entities.User), args.Bool(1)
}

func (m *MockUserRepository) SelectTable(ctx context.Context, table string) (entities.UserList, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.UserList), args.Error(1)
}

func (m *MockUserRepository) DeleteAll(ctx context.Context) int {
	args := m.Called(ctx)
	return args.Int(0)
}

func (m *MockUserRepository) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
