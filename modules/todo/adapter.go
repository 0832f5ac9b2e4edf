package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/htmx-todo-demo/domain/todo"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TodoPort is the port the HTTP layer uses for owner-scoped todo access.
// Both TodoAdapter and Service implement it.
type TodoPort interface {
	List(ctx context.Context, ownerID string) ([]domain.Todo, error)
	Get(ctx context.Context, id, ownerID string) (*domain.Todo, error)
	Create(ctx context.Context, ownerID, title string) (*domain.Todo, error)
	UpdateTitle(ctx context.Context, id, ownerID, title string) (*domain.Todo, error)
	Toggle(ctx context.Context, id, ownerID string) (*domain.Todo, error)
	Delete(ctx context.Context, id, ownerID string) (*domain.Todo, error)
}

var (
	_ TodoPort = (*TodoAdapter)(nil)
	_ TodoPort = (*Service)(nil)
)

var knownErrors = []error{ErrNotFound, ErrOwnerRequired, ErrEmptyTitle, ErrTitleTooLong}

// TodoAdapter implements TodoPort using the service container.
type TodoAdapter struct {
	container mono.ServiceContainer
}

// NewTodoAdapter creates a new TodoAdapter.
func NewTodoAdapter(container mono.ServiceContainer) *TodoAdapter {
	return &TodoAdapter{container: container}
}

// List returns the owner's todos.
func (a *TodoAdapter) List(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	req := ListTodosRequest{OwnerID: ownerID}
	var resp ListTodosResponse
	if err := callService(ctx, a.container, ServiceListTodos, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, replyError(resp.Error)
	}
	return resp.Todos, nil
}

// Get returns one of the owner's todos.
func (a *TodoAdapter) Get(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	return callTodo(ctx, a.container, ServiceGetTodo, &TodoRequest{ID: id, OwnerID: ownerID})
}

// Create adds a todo for the owner.
func (a *TodoAdapter) Create(ctx context.Context, ownerID, title string) (*domain.Todo, error) {
	return callTodo(ctx, a.container, ServiceCreateTodo, &CreateTodoRequest{OwnerID: ownerID, Title: title})
}

// UpdateTitle renames one of the owner's todos.
func (a *TodoAdapter) UpdateTitle(ctx context.Context, id, ownerID, title string) (*domain.Todo, error) {
	return callTodo(ctx, a.container, ServiceUpdateTodo, &UpdateTodoRequest{ID: id, OwnerID: ownerID, Title: title})
}

// Toggle flips done on one of the owner's todos.
func (a *TodoAdapter) Toggle(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	return callTodo(ctx, a.container, ServiceToggleTodo, &TodoRequest{ID: id, OwnerID: ownerID})
}

// Delete removes one of the owner's todos.
func (a *TodoAdapter) Delete(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	return callTodo(ctx, a.container, ServiceDeleteTodo, &TodoRequest{ID: id, OwnerID: ownerID})
}

func callTodo[Req any](ctx context.Context, container mono.ServiceContainer, service string, req *Req) (*domain.Todo, error) {
	var resp TodoResponse
	if err := callService(ctx, container, service, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, replyError(resp.Error)
	}
	if resp.Todo == nil {
		return nil, fmt.Errorf("%s returned no todo", service)
	}
	return resp.Todo, nil
}

func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		if known := restoreError(err); known != nil {
			return known
		}
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

func replyError(msg string) error {
	if known := restoreError(errors.New(msg)); known != nil {
		return known
	}
	return errors.New(msg)
}

func restoreError(err error) error {
	msg := err.Error()
	for _, known := range knownErrors {
		if strings.Contains(msg, known.Error()) {
			return known
		}
	}
	return nil
}
