package api

import (
	"time"

	"github.com/example/htmx-todo-demo/domain/todo"
	"github.com/example/htmx-todo-demo/modules/attachment"
)

// AttachmentQueue hands uploaded files to the background writer.
type AttachmentQueue interface {
	Enqueue(job attachment.Job) error
	Discard(t *todo.Todo)
}

// SignupRequest represents a signup form or JSON body.
type SignupRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// LoginRequest represents a login form or JSON body.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TodoRequest carries a todo title. The page form posts it as "todo".
type TodoRequest struct {
	Title string `json:"title" form:"title"`
	Todo  string `json:"todo" form:"todo"`
}

func (r TodoRequest) title() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Todo
}

// TokenResponse represents a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserResponse represents a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoListResponse wraps the owner's todos.
type TodoListResponse struct {
	Todos []todo.Todo `json:"todos"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// noopQueue is used when no attachment writer is wired.
type noopQueue struct{}

func (noopQueue) Enqueue(attachment.Job) error { return attachment.ErrQueueClosed }
func (noopQueue) Discard(*todo.Todo)           {}
