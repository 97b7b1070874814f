package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillfeed/quillfeed/internal/model"
	"github.com/quillfeed/quillfeed/internal/repository"
)

// UserService owns account creation. A new local account gets all of its
// feeds populated asynchronously.
type UserService struct {
	users      repository.UserRepository
	reconciler *Reconciler
}

func NewUserService(users repository.UserRepository, reconciler *Reconciler) *UserService {
	return &UserService{users: users, reconciler: reconciler}
}

// Register creates a local, active account.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Password: string(hash),
		Local:    true,
		Active:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.reconciler.UserCreated(user.ID)
	return user, nil
}

// RegisterRemote records a federated account; remote users never get
// materialized feeds.
func (s *UserService) RegisterRemote(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{
		ID:       uuid.New().String(),
		Username: username,
		Local:    false,
		Active:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
