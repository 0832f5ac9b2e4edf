package api

import (
	"errors"
	"strings"

	"github.com/a-h/templ"
	"github.com/example/htmx-todo-demo/modules/auth"
	"github.com/example/htmx-todo-demo/modules/todo"
	"github.com/example/htmx-todo-demo/views"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// httpError is the response an error maps to.
type httpError struct {
	status  int
	code    string
	message string
}

// classify maps domain errors to responses without exposing internals.
func classify(err error) (httpError, bool) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, todo.ErrOwnerRequired):
		return httpError{fiber.StatusUnauthorized, "unauthorized", "Not authenticated"}, true
	case errors.Is(err, auth.ErrInvalidCredentials):
		return httpError{fiber.StatusUnauthorized, "invalid_credentials", "Incorrect username or password"}, true
	case errors.Is(err, auth.ErrDuplicateUsername):
		return httpError{fiber.StatusBadRequest, "duplicate_username", "Username already taken"}, true
	case errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, todo.ErrEmptyTitle),
		errors.Is(err, todo.ErrTitleTooLong):
		return httpError{fiber.StatusUnprocessableEntity, "validation_error", err.Error()}, true
	case errors.Is(err, todo.ErrNotFound):
		return httpError{fiber.StatusNotFound, "not_found", "Todo not found"}, true
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "request_error"
		switch fe.Code {
		case fiber.StatusTooManyRequests:
			code = "rate_limited"
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusRequestEntityTooLarge:
			code = "payload_too_large"
		}
		return httpError{fe.Code, code, fe.Message}, true
	}

	return httpError{fiber.StatusInternalServerError, "internal_error", "An internal error occurred"}, false
}

// newErrorHandler renders every error returned by a handler or middleware,
// as a message fragment for htmx and as JSON otherwise.
func newErrorHandler(logger types.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		he, known := classify(err)
		if !known {
			logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}

		if isHTMX(c) {
			c.Set("HX-Retarget", messageTarget(c))
			c.Set("HX-Reswap", "innerHTML")
			return render(c, he.status, views.Message("error", he.message))
		}
		return c.Status(he.status).JSON(ErrorResponse{
			Error:   he.code,
			Message: he.message,
		})
	}
}

// messageTarget picks the message element of the form that sent the request.
func messageTarget(c *fiber.Ctx) string {
	if strings.HasPrefix(c.Path(), "/auth/") {
		return views.AuthMessageTarget
	}
	return views.TodoMessageTarget
}

// render writes a component as an HTML response.
func render(c *fiber.Ctx, status int, component templ.Component) error {
	c.Status(status)
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return component.Render(c.UserContext(), c.Response().BodyWriter())
}
