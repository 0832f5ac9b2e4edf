// Package attachment stores files uploaded with a todo in the background.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	domain "github.com/example/htmx-todo-demo/domain/todo"
	"github.com/example/htmx-todo-demo/modules/todo"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	// ErrQueueFull is returned by Enqueue when every slot is taken.
	ErrQueueFull = errors.New("attachment queue is full")
	// ErrQueueClosed is returned by Enqueue once the pool is stopped.
	ErrQueueClosed = errors.New("attachment queue is closed")
	// ErrInvalidJob is returned by Enqueue for a job that cannot be stored.
	ErrInvalidJob = errors.New("invalid attachment job")
)

// Job is a file uploaded with a todo, waiting to be written.
type Job struct {
	TodoID   string
	OwnerID  string
	FileName string
	Data     []byte
}

// PoolConfig holds worker pool configuration.
type PoolConfig struct {
	UploadDir string
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// DefaultPoolConfig returns the default pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		UploadDir: "uploads",
		Workers:   2,
		QueueSize: 64,
		Timeout:   30 * time.Second,
	}
}

// Pool writes attachments on a fixed set of workers. Each job opens its own
// database session, so it never depends on the request that queued it.
type Pool struct {
	config  PoolConfig
	db      *gorm.DB
	logger  types.Logger
	jobs    chan Job
	group   *errgroup.Group
	cancel  context.CancelFunc
	mu      sync.RWMutex
	running bool
	closed  bool
}

// NewPool creates a new attachment pool.
func NewPool(cfg PoolConfig, db *gorm.DB, logger types.Logger) *Pool {
	defaults := DefaultPoolConfig()
	if cfg.UploadDir == "" {
		cfg.UploadDir = defaults.UploadDir
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaults.Workers
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	return &Pool{
		config: cfg,
		db:     db,
		logger: logger,
		jobs:   make(chan Job, cfg.QueueSize),
	}
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("pool is already running")
	}
	if p.closed {
		return ErrQueueClosed
	}

	if err := os.MkdirAll(p.config.UploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Workers outlive the start context; Stop cancels them.
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.group = &errgroup.Group{}

	for i := 0; i < p.config.Workers; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		p.group.Go(func() error {
			p.run(workerCtx, workerID)
			return nil
		})
	}

	p.running = true
	p.logger.Info("Attachment pool started", "workers", p.config.Workers, "queue_size", p.config.QueueSize, "upload_dir", p.config.UploadDir)
	return nil
}

// Stop closes the queue and waits for queued jobs to finish. If ctx expires
// first, in-flight jobs are cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.closed = true
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("Attachment pool drained")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn("Attachment pool stop timed out, in-flight jobs cancelled")
		return ctx.Err()
	}
}

// Enqueue hands a job to the workers without blocking.
func (p *Pool) Enqueue(job Job) error {
	if err := validateJob(job); err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed || !p.running {
		return ErrQueueClosed
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of queued jobs.
func (p *Pool) Pending() int {
	return len(p.jobs)
}

// Discard removes the stored file of a deleted todo. Paths outside the upload
// directory are ignored.
func (p *Pool) Discard(t *domain.Todo) {
	if t == nil || t.FilePath == "" {
		return
	}
	if !p.withinUploadDir(t.FilePath) {
		p.logger.Warn("Refusing to remove attachment outside upload dir", "todo_id", t.ID, "path", t.FilePath)
		return
	}
	if err := os.Remove(t.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Error("Failed to remove attachment", "todo_id", t.ID, "path", t.FilePath, "error", err)
	}
}

func (p *Pool) run(ctx context.Context, workerID string) {
	for job := range p.jobs {
		if err := p.process(ctx, job); err != nil {
			p.logger.Error("Attachment write failed",
				"worker", workerID,
				"todo_id", job.TodoID,
				"file_name", job.FileName,
				"error", err,
			)
			continue
		}
		p.logger.Debug("Attachment stored", "worker", workerID, "todo_id", job.TodoID)
	}
}

// process writes one file and records it on the todo. On any failure the
// written file is removed and the todo keeps no attachment metadata.
func (p *Pool) process(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while storing attachment: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	fileName := SanitizeFilename(job.FileName)
	path := filepath.Join(p.config.UploadDir, job.TodoID+filepath.Ext(fileName))

	if err := writeFileAtomic(path, job.Data); err != nil {
		return err
	}

	session := p.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	if _, err := todo.NewRepository(session).SetAttachment(ctx, job.TodoID, job.OwnerID, fileName, path); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			p.logger.Warn("Failed to remove orphaned attachment", "path", path, "error", rmErr)
		}
		return fmt.Errorf("failed to record attachment: %w", err)
	}
	return nil
}

func (p *Pool) withinUploadDir(path string) bool {
	dir, err := filepath.Abs(p.config.UploadDir)
	if err != nil {
		return false
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

func validateJob(job Job) error {
	if job.OwnerID == "" {
		return fmt.Errorf("%w: owner id is required", ErrInvalidJob)
	}
	if _, err := uuid.Parse(job.TodoID); err != nil {
		return fmt.Errorf("%w: todo id %q", ErrInvalidJob, job.TodoID)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close attachment: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move attachment into place: %w", err)
	}
	return nil
}

// SanitizeFilename strips directory components from an uploaded file name.
func SanitizeFilename(filename string) string {
	clean := filepath.Base(filepath.Clean(filename))
	if clean == "." || clean == ".." || clean == "" || clean == string(filepath.Separator) {
		return "unnamed"
	}
	clean = strings.ReplaceAll(clean, "/", "_")
	return strings.ReplaceAll(clean, "\\", "_")
}
