package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/htmx-todo-demo/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when the username is already registered.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrCreateFailed is returned when inserting a user fails for any other reason.
	ErrCreateFailed = errors.New("failed to create user")
)

// UserRepository is the user directory backed by GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create inserts a new user inside a transaction. A prior or concurrent user
// with the same username yields ErrDuplicateUsername; any other failure yields
// ErrCreateFailed. Nothing is committed in either case.
func (r *UserRepository) Create(ctx context.Context, username, hashedPassword string) (*domain.User, error) {
	now := time.Now().UTC()
	user := &domain.User{
		ID:             uuid.New().String(),
		Username:       username,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}
		return tx.Create(user).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	return user, nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUsername finds a user by exact, case-sensitive username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).Where(query, arg).Take(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// Count returns the number of users with the given username.
func (r *UserRepository) Count(ctx context.Context, username string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
