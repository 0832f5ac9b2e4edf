package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/htmx-todo-demo/config"
	"github.com/example/htmx-todo-demo/modules/auth"
	"github.com/example/htmx-todo-demo/modules/todo"
	"github.com/example/htmx-todo-demo/ratelimit"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// APIModule serves the page, the htmx fragments and the JSON API.
type APIModule struct {
	httpConfig  config.HTTPConfig
	rateLimit   config.RateLimitConfig
	attachments AttachmentQueue
	logger      types.Logger

	app         *fiber.App
	redis       *redis.Client
	authAdapter auth.AuthPort
	todoAdapter todo.TodoPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. attachments may be nil, in which case
// uploaded files are dropped.
func NewModule(httpCfg config.HTTPConfig, rateLimit config.RateLimitConfig, attachments AttachmentQueue, logger types.Logger) *APIModule {
	return &APIModule{
		httpConfig:  httpCfg,
		rateLimit:   rateLimit,
		attachments: attachments,
		logger:      logger.WithModule("api"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "todo"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "todo":
		m.todoAdapter = todo.NewTodoAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(ctx context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.todoAdapter == nil {
		return fmt.Errorf("todo dependency not set")
	}

	m.app = NewServer(ServerOptions{
		Auth:         m.authAdapter,
		Todos:        m.todoAdapter,
		Attachments:  m.attachments,
		LoginLimiter: m.loginLimiter(ctx),
		HTTP:         m.httpConfig,
		Logger:       m.logger,
	})

	go func() {
		if err := m.app.Listen(m.httpConfig.Addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", m.httpConfig.Addr)
	return nil
}

// loginLimiter connects to redis when configured. An unreachable redis is
// logged and the limiter fails open.
func (m *APIModule) loginLimiter(ctx context.Context) fiber.Handler {
	if !m.rateLimit.Enabled() {
		return nil
	}

	m.redis = redis.NewClient(&redis.Options{Addr: m.rateLimit.RedisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.redis.Ping(pingCtx).Err(); err != nil {
		m.logger.Warn("Redis unreachable, login throttling will fail open", "addr", m.rateLimit.RedisAddr, "error", err)
	}

	limiter := ratelimit.NewLimiter(m.redis, "ratelimit:login:")
	return ratelimit.Handler(limiter, ratelimit.HandlerConfig{
		Limit:  m.rateLimit.Limit,
		Window: m.rateLimit.Window,
	}, m.logger)
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	err := m.app.ShutdownWithContext(ctx)

	if m.redis != nil {
		if cerr := m.redis.Close(); cerr != nil {
			m.logger.Warn("Failed to close redis client", "error", cerr)
		}
	}
	return err
}

// Health returns the health status of the module.
func (m *APIModule) Health(ctx context.Context) mono.HealthStatus {
	details := map[string]any{
		"addr":       m.httpConfig.Addr,
		"rate_limit": "disabled",
	}

	if m.redis != nil {
		details["rate_limit"] = "enabled"
		if err := m.redis.Ping(ctx).Err(); err != nil {
			details["rate_limit"] = "degraded"
			details["redis_error"] = err.Error()
		}
	}

	if m.app == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "server not started",
			Details: details,
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
