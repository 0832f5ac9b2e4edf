package todo

import (
	"context"
	"errors"

	domain "github.com/example/htmx-todo-demo/domain/todo"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no todo matches both the id and the owner.
	ErrNotFound = errors.New("todo not found")
	// ErrOwnerRequired is returned when an operation is attempted without an owner.
	ErrOwnerRequired = errors.New("owner id is required")
)

// Repository persists todos. Every query is scoped by owner, so a todo owned
// by someone else is indistinguishable from a missing one.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByOwner returns the owner's todos, oldest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}

	var todos []domain.Todo
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&todos).Error; err != nil {
		return nil, err
	}
	return todos, nil
}

// Create inserts a todo. OwnerID must be set.
func (r *Repository) Create(ctx context.Context, todo *domain.Todo) error {
	if todo.OwnerID == "" {
		return ErrOwnerRequired
	}
	return r.db.WithContext(ctx).Create(todo).Error
}

// FindOwned returns the todo with the given id if the owner holds it.
func (r *Repository) FindOwned(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	return findOwned(r.db.WithContext(ctx), id, ownerID)
}

// UpdateTitle replaces the title.
func (r *Repository) UpdateTitle(ctx context.Context, id, ownerID, title string) (*domain.Todo, error) {
	return r.mutate(ctx, id, ownerID, map[string]any{"title": title})
}

// Toggle flips done in a single statement so concurrent toggles never lose
// an update.
func (r *Repository) Toggle(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	return r.mutate(ctx, id, ownerID, map[string]any{"done": gorm.Expr("NOT done")})
}

// SetAttachment records where an uploaded file was stored.
func (r *Repository) SetAttachment(ctx context.Context, id, ownerID, fileName, filePath string) (*domain.Todo, error) {
	return r.mutate(ctx, id, ownerID, map[string]any{
		"file_name": fileName,
		"file_path": filePath,
	})
}

// Delete removes the todo and returns it as it was.
func (r *Repository) Delete(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}

	var deleted *domain.Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		todo, err := findOwned(tx, id, ownerID)
		if err != nil {
			return err
		}

		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&domain.Todo{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		deleted = todo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// mutate applies updates to one owned row and reads it back in the same
// transaction.
func (r *Repository) mutate(ctx context.Context, id, ownerID string, updates map[string]any) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}

	var updated *domain.Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Todo{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		todo, err := findOwned(tx, id, ownerID)
		if err != nil {
			return err
		}
		updated = todo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func findOwned(db *gorm.DB, id, ownerID string) (*domain.Todo, error) {
	var todo domain.Todo
	err := db.Where("id = ? AND owner_id = ?", id, ownerID).Take(&todo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &todo, nil
}
