package todo

import (
	domain "github.com/example/htmx-todo-demo/domain/todo"
)

// Service names registered by the todo module.
const (
	ServiceListTodos  = "list-todos"
	ServiceGetTodo    = "get-todo"
	ServiceCreateTodo = "create-todo"
	ServiceUpdateTodo = "update-todo"
	ServiceToggleTodo = "toggle-todo"
	ServiceDeleteTodo = "delete-todo"
)

// ListTodosRequest lists an owner's todos.
type ListTodosRequest struct {
	OwnerID string `json:"owner_id"`
}

// ListTodosResponse carries an owner's todos.
type ListTodosResponse struct {
	Todos []domain.Todo `json:"todos"`
	Error string        `json:"error,omitempty"`
}

// TodoResponse carries a single todo, or the reason it was not returned.
type TodoResponse struct {
	Todo  *domain.Todo `json:"todo,omitempty"`
	Error string       `json:"error,omitempty"`
}

// TodoRequest addresses one todo on behalf of its owner.
type TodoRequest struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
}

// CreateTodoRequest creates a todo.
type CreateTodoRequest struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
}

// UpdateTodoRequest renames a todo.
type UpdateTodoRequest struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
}
