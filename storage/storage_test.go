package storage

import (
	"context"
	"testing"

	"github.com/example/htmx-todo-demo/config"
	"github.com/example/htmx-todo-demo/domain/todo"
	"github.com/example/htmx-todo-demo/domain/user"
)

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer Close(db)

	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if !db.Migrator().HasTable(&user.User{}) {
		t.Error("users table was not created")
	}
	if !db.Migrator().HasTable(&todo.Todo{}) {
		t.Error("todos table was not created")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Error("Open() expected error for unknown driver")
	}
}
