package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/example/htmx-todo-demo/config"
	"github.com/example/htmx-todo-demo/modules/api"
	"github.com/example/htmx-todo-demo/modules/attachment"
	"github.com/example/htmx-todo-demo/modules/auth"
	"github.com/example/htmx-todo-demo/modules/todo"
	"github.com/example/htmx-todo-demo/storage"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== HTMX Todo Demo ===")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	level := mono.LogLevelInfo
	if strings.EqualFold(cfg.Log.Level, "error") {
		level = mono.LogLevelError
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(level),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	attachments := attachment.NewModule(db, cfg.Attachment, logger)

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule(db, cfg.Auth, logger)) // Provides signup, login and token resolution
	app.Register(todo.NewModule(db, logger))           // Provides owner-scoped todo services
	app.Register(attachments)                          // Background attachment writer
	app.Register(api.NewModule(cfg.HTTP, cfg.RateLimit, attachments.Pool(), logger))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				if err := app.Stop(ctx); err != nil {
					return err
				}
				return storage.Close(db)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Database: %s", cfg.Database.Driver)
	if cfg.RateLimit.Enabled() {
		log.Printf("Login throttling: %d attempts per %s (redis %s)", cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.RedisAddr)
	} else {
		log.Println("Login throttling: disabled (set REDIS_ADDR to enable)")
	}
	log.Println("")
	log.Printf("Endpoints (http://localhost%s):", cfg.HTTP.Addr)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  GET    /                   - Todo page")
	log.Println("  POST   /auth/signup        - Create an account")
	log.Println("  POST   /auth/login         - Log in and receive a bearer token")
	log.Println("  POST   /auth/logout        - Clear the session cookie")
	log.Println("  GET    /health             - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (Bearer token or cookie):")
	log.Println("  GET    /auth/me            - Current user")
	log.Println("  GET    /todos              - List todos")
	log.Println("  POST   /todos              - Create a todo (optional file upload)")
	log.Println("  GET    /todos/:id          - Get a todo")
	log.Println("  PUT    /todos/:id          - Rename a todo")
	log.Println("  POST   /todos/:id/toggle   - Toggle done")
	log.Println("  DELETE /todos/:id          - Delete a todo")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
