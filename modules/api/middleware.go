package api

import (
	"strings"

	domain "github.com/example/htmx-todo-demo/domain/user"
	"github.com/example/htmx-todo-demo/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store the resolved user in the Fiber context.
	UserContextKey = "user"

	// AuthCookieName is the cookie holding "Bearer <token>" for browser clients.
	AuthCookieName = "Authorization"
)

// AuthMiddleware resolves the bearer credential into a user. Every failure
// to authenticate produces the same 401 response.
func AuthMiddleware(authPort auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return auth.ErrUnauthenticated
		}

		user, err := authPort.ResolveToken(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(UserContextKey, user)
		return c.Next()
	}
}

// bearerToken reads the credential from the Authorization header, falling
// back to the cookie set at login. Anything but the Bearer scheme is ignored.
func bearerToken(c *fiber.Ctx) string {
	raw := c.Get(fiber.HeaderAuthorization)
	if raw == "" {
		raw = c.Cookies(AuthCookieName)
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(raw), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// currentUser returns the user stored by AuthMiddleware.
func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := c.Locals(UserContextKey).(*domain.User)
	if !ok || user == nil {
		return nil, auth.ErrUnauthenticated
	}
	return user, nil
}

// isHTMX reports whether the request was initiated by htmx.
func isHTMX(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Get("HX-Request"), "true")
}
