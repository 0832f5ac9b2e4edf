package attachment

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	domain "github.com/example/htmx-todo-demo/domain/todo"
	"github.com/example/htmx-todo-demo/modules/todo"
	"github.com/example/htmx-todo-demo/storage"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

func setupPool(t *testing.T, workers, queueSize int) (*Pool, *gorm.DB, string) {
	t.Helper()

	db, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close(db) })

	dir := filepath.Join(t.TempDir(), "uploads")
	pool := NewPool(PoolConfig{
		UploadDir: dir,
		Workers:   workers,
		QueueSize: queueSize,
		Timeout:   5 * time.Second,
	}, db, &mockLogger{})
	return pool, db, dir
}

func seedTodo(t *testing.T, db *gorm.DB, ownerID string) *domain.Todo {
	t.Helper()

	item := &domain.Todo{ID: uuid.New().String(), Title: "With file", OwnerID: ownerID}
	require.NoError(t, todo.NewRepository(db).Create(context.Background(), item))
	return item
}

func TestPool_StoresAttachment(t *testing.T) {
	pool, db, dir := setupPool(t, 2, 8)
	item := seedTodo(t, db, "alice")

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Enqueue(Job{
		TodoID:   item.ID,
		OwnerID:  "alice",
		FileName: "../../etc/receipt.pdf",
		Data:     []byte("%PDF-1.4"),
	}))
	require.NoError(t, pool.Stop(context.Background()))

	wantPath := filepath.Join(dir, item.ID+".pdf")
	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	stored, err := todo.NewRepository(db).FindOwned(context.Background(), item.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "receipt.pdf", stored.FileName)
	assert.Equal(t, wantPath, stored.FilePath)
}

func TestPool_WrongOwnerLeavesTodoUntouched(t *testing.T) {
	pool, db, dir := setupPool(t, 1, 8)
	item := seedTodo(t, db, "alice")

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Enqueue(Job{
		TodoID:   item.ID,
		OwnerID:  "bob",
		FileName: "notes.txt",
		Data:     []byte("hello"),
	}))
	require.NoError(t, pool.Stop(context.Background()))

	_, err := os.Stat(filepath.Join(dir, item.ID+".txt"))
	assert.True(t, os.IsNotExist(err), "orphaned file should be removed")

	stored, err := todo.NewRepository(db).FindOwned(context.Background(), item.ID, "alice")
	require.NoError(t, err)
	assert.False(t, stored.HasAttachment())
}

func TestPool_DeletedTodoIsLoggedNotFatal(t *testing.T) {
	pool, _, dir := setupPool(t, 1, 8)
	missingID := uuid.New().String()

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Enqueue(Job{TodoID: missingID, OwnerID: "alice", FileName: "a.txt", Data: []byte("x")}))
	require.NoError(t, pool.Stop(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPool_EnqueueValidation(t *testing.T) {
	pool, _, _ := setupPool(t, 1, 1)

	err := pool.Enqueue(Job{TodoID: uuid.New().String(), OwnerID: "alice"})
	assert.ErrorIs(t, err, ErrQueueClosed, "enqueue before start")

	require.NoError(t, pool.Start(context.Background()))
	t.Cleanup(func() { pool.Stop(context.Background()) })

	assert.ErrorIs(t, pool.Enqueue(Job{TodoID: "../escape", OwnerID: "alice"}), ErrInvalidJob)
	assert.ErrorIs(t, pool.Enqueue(Job{TodoID: uuid.New().String()}), ErrInvalidJob)
}

func TestPool_EnqueueAfterStop(t *testing.T) {
	pool, _, _ := setupPool(t, 1, 1)

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))

	err := pool.Enqueue(Job{TodoID: uuid.New().String(), OwnerID: "alice"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestPool_Discard(t *testing.T) {
	pool, _, dir := setupPool(t, 1, 1)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	inside := filepath.Join(dir, "x.txt")
	require.NoError(t, os.WriteFile(inside, []byte("x"), 0o600))
	outside := filepath.Join(filepath.Dir(dir), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	pool.Discard(&domain.Todo{ID: "t1", FilePath: inside})
	pool.Discard(&domain.Todo{ID: "t2", FilePath: outside})
	pool.Discard(&domain.Todo{ID: "t3"})
	pool.Discard(nil)

	_, err := os.Stat(inside)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/sub/photo.png", "photo.png"},
		{"", "unnamed"},
		{"..", "unnamed"},
		{"/", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestModule_HealthReportsFullQueue(t *testing.T) {
	pool, _, _ := setupPool(t, 1, 1)
	m := &Module{pool: pool}

	status := m.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "operational", status.Message)

	pool.jobs <- Job{TodoID: uuid.New().String(), OwnerID: "alice"}

	status = m.Health(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "queue full", status.Message)
	assert.Equal(t, 1, status.Details["pending"])
}
