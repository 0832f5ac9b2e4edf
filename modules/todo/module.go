package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/example/htmx-todo-demo/domain/todo"
	"github.com/example/htmx-todo-demo/storage"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// Module exposes owner-scoped todo operations as request-reply services.
type Module struct {
	db      *gorm.DB
	logger  types.Logger
	service *Service
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new todo Module on the shared database.
func NewModule(db *gorm.DB, logger types.Logger) *Module {
	return &Module{
		db:     db,
		logger: logger.WithModule("todo"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "todo"
}

// Start initializes the service.
func (m *Module) Start(_ context.Context) error {
	m.service = NewService(NewRepository(m.db), m.logger)
	m.logger.Info("Todo module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Todo module stopped")
	return nil
}

// Service returns the in-process todo service.
func (m *Module) Service() *Service {
	return m.service
}

// Health returns the health status of the module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{Healthy: false, Message: "not started"}
	}
	if err := storage.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListTodos, json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListTodos, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetTodo, json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetTodo, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateTodo, json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateTodo, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdateTodo, json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdateTodo, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceToggleTodo, json.Unmarshal, json.Marshal, m.handleToggle,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceToggleTodo, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteTodo, json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteTodo, err)
	}

	m.logger.Info("Registered services", "services", []string{
		ServiceListTodos, ServiceGetTodo, ServiceCreateTodo,
		ServiceUpdateTodo, ServiceToggleTodo, ServiceDeleteTodo,
	})
	return nil
}

// rejections travel in the reply so the container does not report a missing
// todo or an invalid title as a handler failure.
var rejections = []error{ErrNotFound, ErrOwnerRequired, ErrEmptyTitle, ErrTitleTooLong}

func rejection(err error) (string, bool) {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return r.Error(), true
		}
	}
	return "", false
}

func (m *Module) handleList(ctx context.Context, req ListTodosRequest, _ *mono.Msg) (ListTodosResponse, error) {
	todos, err := m.service.List(ctx, req.OwnerID)
	if err != nil {
		if msg, ok := rejection(err); ok {
			return ListTodosResponse{Error: msg}, nil
		}
		return ListTodosResponse{}, err
	}
	return ListTodosResponse{Todos: todos}, nil
}

func (m *Module) handleGet(ctx context.Context, req TodoRequest, _ *mono.Msg) (TodoResponse, error) {
	return reply(m.service.Get(ctx, req.ID, req.OwnerID))
}

func (m *Module) handleCreate(ctx context.Context, req CreateTodoRequest, _ *mono.Msg) (TodoResponse, error) {
	return reply(m.service.Create(ctx, req.OwnerID, req.Title))
}

func (m *Module) handleUpdate(ctx context.Context, req UpdateTodoRequest, _ *mono.Msg) (TodoResponse, error) {
	return reply(m.service.UpdateTitle(ctx, req.ID, req.OwnerID, req.Title))
}

func (m *Module) handleToggle(ctx context.Context, req TodoRequest, _ *mono.Msg) (TodoResponse, error) {
	return reply(m.service.Toggle(ctx, req.ID, req.OwnerID))
}

func (m *Module) handleDelete(ctx context.Context, req TodoRequest, _ *mono.Msg) (TodoResponse, error) {
	return reply(m.service.Delete(ctx, req.ID, req.OwnerID))
}

func reply(todo *domain.Todo, err error) (TodoResponse, error) {
	if err != nil {
		if msg, ok := rejection(err); ok {
			return TodoResponse{Error: msg}, nil
		}
		return TodoResponse{}, err
	}
	return TodoResponse{Todo: todo}, nil
}
