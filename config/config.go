// Package config loads the immutable process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is built once at startup and handed to module constructors.
type Config struct {
	HTTP       HTTPConfig
	Auth       AuthConfig
	Database   DatabaseConfig
	Attachment AttachmentConfig
	RateLimit  RateLimitConfig
	Log        LogConfig

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// HTTPConfig configures the Fiber server.
type HTTPConfig struct {
	Addr           string `env:"HTTP_ADDR" envDefault:":3000"`
	MaxUploadBytes int    `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
}

// AuthConfig carries the token signing and password hashing parameters.
type AuthConfig struct {
	SecretKey  string        `env:"SECRET_KEY,required,notEmpty"`
	Algorithm  string        `env:"ENCRYPTION_ALGO" envDefault:"HS256"`
	TokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"12"`
}

// DatabaseConfig selects and addresses the relational store.
type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	Path     string `env:"DB_PATH" envDefault:"todo.db"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	Name     string `env:"POSTGRES_DB"`
	Debug    bool   `env:"DB_DEBUG" envDefault:"false"`
}

// AttachmentConfig sizes the background attachment writer.
type AttachmentConfig struct {
	UploadDir string        `env:"UPLOAD_DIR" envDefault:"uploads"`
	Workers   int           `env:"ATTACHMENT_WORKERS" envDefault:"2"`
	QueueSize int           `env:"ATTACHMENT_QUEUE_SIZE" envDefault:"64"`
	Timeout   time.Duration `env:"ATTACHMENT_TIMEOUT" envDefault:"30s"`
}

// RateLimitConfig configures login throttling. An empty RedisAddr disables it.
type RateLimitConfig struct {
	RedisAddr string        `env:"REDIS_ADDR"`
	Limit     int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	Window    time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`
}

// Enabled reports whether a redis backend was configured.
func (c RateLimitConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// LogConfig configures the mono application logger.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads optional dotenv files and then the process environment.
// Missing dotenv files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromMap parses configuration from an explicit environment instead of the process one.
func FromMap(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported ENCRYPTION_ALGO %q: want HS256, HS384 or HS512", c.Auth.Algorithm)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Attachment.Workers < 1 {
		return fmt.Errorf("ATTACHMENT_WORKERS must be at least 1, got %d", c.Attachment.Workers)
	}
	if c.Attachment.QueueSize < 1 {
		return fmt.Errorf("ATTACHMENT_QUEUE_SIZE must be at least 1, got %d", c.Attachment.QueueSize)
	}
	return nil
}

// DSN returns the postgres connection string for the configured database.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}
