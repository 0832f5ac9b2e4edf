package auth

import (
	"context"
	"errors"
	"testing"

	domain "github.com/example/htmx-todo-demo/domain/user"
	"github.com/example/htmx-todo-demo/storage"
	"gorm.io/gorm"
)

func setupTestRepository(t *testing.T) (*UserRepository, *gorm.DB) {
	t.Helper()

	db, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { storage.Close(db) })
	return NewUserRepository(db), db
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo, _ := setupTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	byName, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("FindByUsername() ID = %q, want %q", byName.ID, created.ID)
	}

	byID, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("FindByID() Username = %q, want alice", byID.Username)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo, _ := setupTestRepository(t)
	ctx := context.Background()

	if _, err := repo.FindByUsername(ctx, "nobody"); err != ErrUserNotFound {
		t.Errorf("FindByUsername() error = %v, want %v", err, ErrUserNotFound)
	}
	if _, err := repo.FindByID(ctx, "missing-id"); err != ErrUserNotFound {
		t.Errorf("FindByID() error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	repo, _ := setupTestRepository(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "bob", "hash-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.Create(ctx, "bob", "hash-2"); err != ErrDuplicateUsername {
		t.Fatalf("Create() duplicate error = %v, want %v", err, ErrDuplicateUsername)
	}

	u, err := repo.FindByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if u.HashedPassword != "hash-1" {
		t.Errorf("HashedPassword = %q, want the original hash", u.HashedPassword)
	}
}

func TestUserRepository_UniqueIndexViolation(t *testing.T) {
	_, db := setupTestRepository(t)

	// Bypass the lookup so only the unique index can reject the row.
	if err := db.Create(&domain.User{ID: "u1", Username: "carol", HashedPassword: "h"}).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := db.Create(&domain.User{ID: "u2", Username: "carol", HashedPassword: "h"}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("Create() error = %v, want %v", err, gorm.ErrDuplicatedKey)
	}
}

func TestUserRepository_CreateFailedRollsBack(t *testing.T) {
	repo, db := setupTestRepository(t)
	ctx := context.Background()

	if err := db.Migrator().DropTable(&domain.User{}); err != nil {
		t.Fatalf("DropTable() error = %v", err)
	}

	_, err := repo.Create(ctx, "dave", "hash")
	if !errors.Is(err, ErrCreateFailed) {
		t.Fatalf("Create() error = %v, want %v", err, ErrCreateFailed)
	}
	if errors.Is(err, ErrDuplicateUsername) {
		t.Error("Create() failure must be distinct from ErrDuplicateUsername")
	}
}
