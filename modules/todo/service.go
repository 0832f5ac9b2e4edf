package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/htmx-todo-demo/domain/todo"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// MaxTitleLength bounds todo titles in bytes.
const MaxTitleLength = 500

var (
	// ErrEmptyTitle is returned when a title is blank.
	ErrEmptyTitle = errors.New("title must not be empty")
	// ErrTitleTooLong is returned when a title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("title must be at most 500 characters")
)

// Service applies validation on top of the owner-scoped repository.
type Service struct {
	repo   *Repository
	logger types.Logger
}

// NewService creates a new Service.
func NewService(repo *Repository, logger types.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// List returns the owner's todos.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get returns one of the owner's todos.
func (s *Service) Get(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	return s.repo.FindOwned(ctx, id, ownerID)
}

// Create adds a todo for the owner.
func (s *Service) Create(ctx context.Context, ownerID, title string) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	todo := &domain.Todo{
		ID:        uuid.New().String(),
		Title:     title,
		Done:      false,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.logger.Debug("Todo created", "todo_id", todo.ID, "owner_id", ownerID)
	return todo, nil
}

// UpdateTitle renames one of the owner's todos.
func (s *Service) UpdateTitle(ctx context.Context, id, ownerID, title string) (*domain.Todo, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateTitle(ctx, id, ownerID, title)
}

// Toggle flips the done flag of one of the owner's todos.
func (s *Service) Toggle(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	return s.repo.Toggle(ctx, id, ownerID)
}

// Delete removes one of the owner's todos and returns what was removed.
func (s *Service) Delete(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	todo, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Todo deleted", "todo_id", id, "owner_id", ownerID)
	return todo, nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}
