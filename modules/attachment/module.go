package attachment

import (
	"context"

	"github.com/example/htmx-todo-demo/config"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// Module provides the attachment pool as a mono module.
type Module struct {
	pool *Pool
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new attachment module.
func NewModule(db *gorm.DB, cfg config.AttachmentConfig, logger types.Logger) *Module {
	return &Module{
		pool: NewPool(PoolConfig{
			UploadDir: cfg.UploadDir,
			Workers:   cfg.Workers,
			QueueSize: cfg.QueueSize,
			Timeout:   cfg.Timeout,
		}, db, logger.WithModule("attachment")),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "attachment"
}

// Start starts the worker pool.
func (m *Module) Start(ctx context.Context) error {
	return m.pool.Start(ctx)
}

// Stop drains the worker pool.
func (m *Module) Stop(ctx context.Context) error {
	return m.pool.Stop(ctx)
}

// Pool returns the worker pool the HTTP layer enqueues into.
func (m *Module) Pool() *Pool {
	return m.pool
}

// Health reports queue saturation.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	pending := m.pool.Pending()
	capacity := m.pool.config.QueueSize
	healthy := pending < capacity
	message := "operational"
	if !healthy {
		message = "queue full"
	}
	return mono.HealthStatus{
		Healthy: healthy,
		Message: message,
		Details: map[string]any{
			"pending":  pending,
			"capacity": capacity,
			"workers":  m.pool.config.Workers,
		},
	}
}
