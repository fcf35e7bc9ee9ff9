package usecases

import (
	"context"
	"fmt"
	"strings"

	"userstore.backend/internal/domain/entities"
	domainerrors "userstore.backend/internal/domain/errors"
	"userstore.backend/internal/domain/repositories"
	"userstore.backend/pkg/utils"
)

// UserUsecase handles user business logic. Mutations are queued and only
// reach the store on SaveChanges.
type UserUsecase struct {
	userRepo repositories.UserRepository
	uow      repositories.UnitOfWork
}

// NewUserUsecase creates a new user usecase
func NewUserUsecase(userRepo repositories.UserRepository, uow repositories.UnitOfWork) *UserUsecase {
	return &UserUsecase{
		userRepo: userRepo,
		uow:      uow,
	}
}

// Register queues a new user for insertion. The returned user is a copy;
// the queued one is owned by the commit path from here on.
func (u *UserUsecase) Register(ctx context.Context, input *entities.CreateUserInput) (*entities.User, error) {
	name, err := validateUser(input.Name, input.Age)
	if err != nil {
		return nil, err
	}

	user := entities.NewUser(name, input.Age)
	snapshot := *user
	u.userRepo.Insert(user)
	return &snapshot, nil
}

// Update queues changes to an existing user
func (u *UserUsecase) Update(ctx context.Context, id int64, input *entities.UpdateUserInput) (*entities.User, error) {
	name, err := validateUser(input.Name, input.Age)
	if err != nil {
		return nil, err
	}

	user, ok := u.userRepo.SelectByID(ctx, id)
	if !ok {
		return nil, domainerrors.NotFound(fmt.Sprintf("user %d not found", id))
	}

	user.Name = name
	user.Age = input.Age
	snapshot := *user
	u.userRepo.Update(user)
	return &snapshot, nil
}

// Remove queues the deletion of a user
func (u *UserUsecase) Remove(ctx context.Context, id int64) error {
	if err := u.userRepo.DeleteByID(ctx, id); err != nil {
		return domainerrors.NotFound(err.Error())
	}
	return nil
}

// RemoveAll queues the deletion of every stored user
func (u *UserUsecase) RemoveAll(ctx context.Context) int {
	return u.userRepo.DeleteAll(ctx)
}

// Get returns a stored user
func (u *UserUsecase) Get(ctx context.Context, id int64) (*entities.User, error) {
	user, ok := u.userRepo.SelectByID(ctx, id)
	if !ok {
		return nil, domainerrors.NotFound(fmt.Sprintf("user %d not found", id))
	}
	return user, nil
}

// List returns one page of stored users ordered by id
func (u *UserUsecase) List(ctx context.Context, page, limit int) (entities.UserList, utils.PaginationMeta) {
	params := utils.GetPaginationParams(page, limit)
	all := u.userRepo.SelectAll(ctx)
	meta := utils.CalculateMeta(int64(len(all)), params.Page, params.Limit)

	start, end := params.Bounds(len(all))
	return all[start:end], meta
}

// Browse reads every row of a table as users
func (u *UserUsecase) Browse(ctx context.Context, table string) (entities.UserList, error) {
	list, err := u.userRepo.SelectTable(ctx, table)
	if err != nil {
		return nil, domainerrors.InvalidIdentifier(err.Error())
	}
	return list, nil
}

// Pending returns the queued change counts
func (u *UserUsecase) Pending() repositories.ChangeCounts {
	return u.uow.Pending()
}

// SaveChanges commits every queued change
func (u *UserUsecase) SaveChanges(ctx context.Context) (int64, error) {
	n, err := u.uow.CommitAll(ctx)
	if err != nil {
		return 0, domainerrors.CommitFailed(err)
	}
	return n, nil
}

func validateUser(name string, age int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domainerrors.BadRequest("name is required")
	}
	if age < 0 {
		return "", domainerrors.BadRequest("age must not be negative")
	}
	return name, nil
}
