package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"time"

	domain "github.com/example/htmx-todo-demo/domain/user"
	"github.com/example/htmx-todo-demo/modules/attachment"
	"github.com/example/htmx-todo-demo/modules/auth"
	"github.com/example/htmx-todo-demo/modules/todo"
	"github.com/example/htmx-todo-demo/views"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the page, auth and todo routes.
type Handlers struct {
	auth         auth.AuthPort
	todos        todo.TodoPort
	attachments  AttachmentQueue
	cookieSecure bool
	logger       types.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, todoPort todo.TodoPort, attachments AttachmentQueue, cookieSecure bool, logger types.Logger) *Handlers {
	if attachments == nil {
		attachments = noopQueue{}
	}
	return &Handlers{
		auth:         authPort,
		todos:        todoPort,
		attachments:  attachments,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Index renders the page for anonymous, expired and signed-in visitors.
func (h *Handlers) Index(c *fiber.Ctx) error {
	session, err := h.auth.CheckSession(c.UserContext(), bearerToken(c))
	if err != nil {
		return err
	}

	data := views.PageData{}
	switch session.Status {
	case domain.SessionExpired:
		h.expireAuthCookie(c)
		data.Notice = "Session expired, please log in again."
	case domain.SessionActive:
		todos, err := h.todos.List(c.UserContext(), session.User.ID)
		if err != nil {
			return err
		}
		data.User = session.User
		data.Todos = todos
	}

	return render(c, fiber.StatusOK, views.Page(data))
}

// Signup handles account creation.
func (h *Handlers) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.auth.Signup(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	if isHTMX(c) {
		return render(c, fiber.StatusCreated, views.Message("success", "Account created, you can log in now."))
	}
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

// Login exchanges credentials for an access token and stores it in a cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     AuthCookieName,
		Value:    "Bearer " + result.AccessToken,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if isHTMX(c) {
		c.Set("HX-Redirect", "/")
		return render(c, fiber.StatusOK, views.Message("success", "Logged in."))
	}
	return c.JSON(TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresAt:   result.ExpiresAt,
	})
}

// Logout clears the auth cookie. Issued tokens stay valid until they expire.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	h.expireAuthCookie(c)

	if isHTMX(c) {
		c.Set("HX-Redirect", "/")
		return c.Status(fiber.StatusOK).SendString("")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the authenticated user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}

// ListTodos returns the caller's todos.
func (h *Handlers) ListTodos(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	todos, err := h.todos.List(c.UserContext(), user.ID)
	if err != nil {
		return err
	}

	if isHTMX(c) {
		return render(c, fiber.StatusOK, views.TodoList(todos))
	}
	return c.JSON(TodoListResponse{Todos: todos})
}

// CreateTodo creates a todo and queues its optional attachment.
func (h *Handlers) CreateTodo(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req TodoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := h.todos.Create(c.UserContext(), user.ID, req.title())
	if err != nil {
		return err
	}

	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["file"]; len(files) > 0 && files[0].Filename != "" {
			h.queueAttachment(created.ID, user.ID, files[0])
		}
	}

	if isHTMX(c) {
		return render(c, fiber.StatusCreated, views.TodoItem(created))
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetTodo returns one of the caller's todos.
func (h *Handlers) GetTodo(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	found, err := h.todos.Get(c.UserContext(), c.Params("id"), user.ID)
	if err != nil {
		return err
	}

	if isHTMX(c) {
		return render(c, fiber.StatusOK, views.TodoItem(found))
	}
	return c.JSON(found)
}

// EditTodo returns the inline edit form for a todo.
func (h *Handlers) EditTodo(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	found, err := h.todos.Get(c.UserContext(), c.Params("id"), user.ID)
	if err != nil {
		return err
	}

	if isHTMX(c) {
		return render(c, fiber.StatusOK, views.TodoEditForm(found))
	}
	return c.JSON(found)
}

// UpdateTodo replaces a todo's title.
func (h *Handlers) UpdateTodo(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req TodoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	updated, err := h.todos.UpdateTitle(c.UserContext(), c.Params("id"), user.ID, req.title())
	if err != nil {
		return err
	}

	if isHTMX(c) {
		return render(c, fiber.StatusOK, views.TodoItem(updated))
	}
	return c.JSON(updated)
}

// ToggleTodo flips a todo's done flag.
func (h *Handlers) ToggleTodo(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	toggled, err := h.todos.Toggle(c.UserContext(), c.Params("id"), user.ID)
	if err != nil {
		return err
	}

	if isHTMX(c) {
		return render(c, fiber.StatusOK, views.TodoItem(toggled))
	}
	return c.JSON(toggled)
}

// DeleteTodo removes a todo and its stored attachment.
func (h *Handlers) DeleteTodo(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	deleted, err := h.todos.Delete(c.UserContext(), c.Params("id"), user.ID)
	if err != nil {
		return err
	}
	h.attachments.Discard(deleted)

	// htmx only swaps the row away on a 200.
	if isHTMX(c) {
		return c.Status(fiber.StatusOK).SendString("")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// queueAttachment reads the upload and hands it to the writer. Failures are
// logged and never fail the request that created the todo.
func (h *Handlers) queueAttachment(todoID, ownerID string, header *multipart.FileHeader) {
	data, err := readUpload(header)
	if err != nil {
		h.logger.Warn("Failed to read attachment", "todo_id", todoID, "error", err)
		return
	}

	job := attachment.Job{
		TodoID:   todoID,
		OwnerID:  ownerID,
		FileName: header.Filename,
		Data:     data,
	}
	if err := h.attachments.Enqueue(job); err != nil {
		h.logger.Warn("Attachment not queued", "todo_id", todoID, "file", header.Filename, "error", err)
	}
}

func (h *Handlers) expireAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}
