package api

import (
	"github.com/example/htmx-todo-demo/config"
	"github.com/example/htmx-todo-demo/modules/auth"
	"github.com/example/htmx-todo-demo/modules/todo"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// ServerOptions holds what the HTTP server needs from the other modules.
type ServerOptions struct {
	Auth        auth.AuthPort
	Todos       todo.TodoPort
	Attachments AttachmentQueue
	// LoginLimiter, when set, runs before the login handler.
	LoginLimiter fiber.Handler
	HTTP         config.HTTPConfig
	Logger       types.Logger
}

// NewServer builds the Fiber application with every route registered.
func NewServer(opts ServerOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             opts.HTTP.MaxUploadBytes,
		ErrorHandler:          newErrorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	setupRoutes(app, opts)
	return app
}

func setupRoutes(app *fiber.App, opts ServerOptions) {
	handlers := NewHandlers(opts.Auth, opts.Todos, opts.Attachments, opts.HTTP.CookieSecure, opts.Logger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	app.Get("/", handlers.Index)

	authRoutes := app.Group("/auth")
	authRoutes.Post("/signup", handlers.Signup)
	if opts.LoginLimiter != nil {
		authRoutes.Post("/login", opts.LoginLimiter, handlers.Login)
	} else {
		authRoutes.Post("/login", handlers.Login)
	}
	authRoutes.Post("/logout", handlers.Logout)
	authRoutes.Get("/me", AuthMiddleware(opts.Auth), handlers.Me)

	todoRoutes := app.Group("/todos", AuthMiddleware(opts.Auth))
	todoRoutes.Get("/", handlers.ListTodos)
	todoRoutes.Post("/", handlers.CreateTodo)
	todoRoutes.Get("/:id", handlers.GetTodo)
	todoRoutes.Get("/:id/edit", handlers.EditTodo)
	todoRoutes.Put("/:id", handlers.UpdateTodo)
	todoRoutes.Post("/:id/toggle", handlers.ToggleTodo)
	todoRoutes.Delete("/:id", handlers.DeleteTodo)
}
