package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{"SECRET_KEY": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "todo.db", cfg.Database.Path)
	assert.Equal(t, "uploads", cfg.Attachment.UploadDir)
	assert.Equal(t, 2, cfg.Attachment.Workers)
	assert.False(t, cfg.RateLimit.Enabled())
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestFromMap_MissingSecret(t *testing.T) {
	_, err := FromMap(map[string]string{})
	require.Error(t, err)
}

func TestFromMap_Overrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"SECRET_KEY":        "s3cret",
		"ENCRYPTION_ALGO":   "HS512",
		"ACCESS_TOKEN_TTL":  "5m",
		"BCRYPT_COST":       "4",
		"DB_DRIVER":         "postgres",
		"POSTGRES_USER":     "todo",
		"POSTGRES_PASSWORD": "pw",
		"POSTGRES_DB":       "todos",
		"REDIS_ADDR":        "localhost:6379",
	})
	require.NoError(t, err)

	assert.Equal(t, "HS512", cfg.Auth.Algorithm)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.True(t, cfg.RateLimit.Enabled())
	assert.Equal(t, "host=localhost port=5432 user=todo password=pw dbname=todos sslmode=disable", cfg.Database.DSN())
}

func TestFromMap_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"algorithm", "ENCRYPTION_ALGO", "RS256"},
		{"ttl", "ACCESS_TOKEN_TTL", "0s"},
		{"cost too low", "BCRYPT_COST", "2"},
		{"cost too high", "BCRYPT_COST", "40"},
		{"driver", "DB_DRIVER", "mysql"},
		{"workers", "ATTACHMENT_WORKERS", "0"},
		{"queue", "ATTACHMENT_QUEUE_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(map[string]string{"SECRET_KEY": "s3cret", tt.key: tt.val})
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SECRET_KEY=from-dotenv\nHTTP_ADDR=:4000\n"), 0o600))

	// godotenv never overrides variables that are already set.
	t.Setenv("SECRET_KEY", "")
	require.NoError(t, os.Unsetenv("SECRET_KEY"))
	t.Setenv("HTTP_ADDR", ":5000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.SecretKey)
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	t.Setenv("SECRET_KEY", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.SecretKey)
}
