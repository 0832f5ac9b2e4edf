package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/htmx-todo-demo/config"
	"github.com/example/htmx-todo-demo/storage"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// AuthModule provides signup, login and token resolution services.
type AuthModule struct {
	db      *gorm.DB
	config  config.AuthConfig
	logger  types.Logger
	service *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule on the shared database.
func NewModule(db *gorm.DB, cfg config.AuthConfig, logger types.Logger) *AuthModule {
	return &AuthModule{
		db:     db,
		config: cfg,
		logger: logger.WithModule("auth"),
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start builds the hasher, token service and directory.
func (m *AuthModule) Start(_ context.Context) error {
	tokens, err := NewTokenService(JWTConfig{
		SecretKey: m.config.SecretKey,
		Algorithm: m.config.Algorithm,
		TTL:       m.config.TokenTTL,
		Issuer:    "htmx-todo-demo",
	})
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	m.service = NewAuthService(
		NewUserRepository(m.db),
		NewPasswordHasherWithCost(m.config.BcryptCost),
		tokens,
		m.logger,
	)

	m.logger.Info("Auth module started", "algorithm", m.config.Algorithm, "token_ttl", tokens.TTL().String())
	return nil
}

// Stop shuts down the module. The shared database is closed by main.
func (m *AuthModule) Stop(_ context.Context) error {
	m.logger.Info("Auth module stopped")
	return nil
}

// Service returns the in-process auth service.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "not started",
		}
	}

	if err := storage.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"algorithm": m.config.Algorithm,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSignup, json.Unmarshal, json.Marshal, m.handleSignup,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSignup, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceResolveToken, json.Unmarshal, json.Marshal, m.handleResolveToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceResolveToken, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCheckSession, json.Unmarshal, json.Marshal, m.handleCheckSession,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCheckSession, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	m.logger.Info("Registered services", "services", []string{
		ServiceSignup, ServiceLogin, ServiceResolveToken, ServiceCheckSession, ServiceGetUser,
	})
	return nil
}

// rejections are outcomes a caller is expected to handle. They travel in the
// reply so the container does not report them as handler failures.
var rejections = []error{
	ErrDuplicateUsername,
	ErrInvalidCredentials,
	ErrUnauthenticated,
	ErrInvalidUsername,
	ErrWeakPassword,
	ErrPasswordTooLong,
	ErrUserNotFound,
}

func rejection(err error) (string, bool) {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return r.Error(), true
		}
	}
	return "", false
}

func (m *AuthModule) handleSignup(ctx context.Context, req SignupRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Signup(ctx, req.Username, req.Password)
	if err != nil {
		if msg, ok := rejection(err); ok {
			return UserResponse{Error: msg}, nil
		}
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	result, err := m.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		if msg, ok := rejection(err); ok {
			return LoginResponse{Error: msg}, nil
		}
		return LoginResponse{}, err
	}

	return LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresAt:   result.ExpiresAt,
		User:        toUserResponse(result.User),
	}, nil
}

func (m *AuthModule) handleResolveToken(ctx context.Context, req TokenRequest, _ *mono.Msg) (ResolveTokenResponse, error) {
	user, err := m.service.ResolveToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return ResolveTokenResponse{Authenticated: false}, nil
		}
		return ResolveTokenResponse{}, err
	}

	resp := toUserResponse(user)
	return ResolveTokenResponse{Authenticated: true, User: &resp}, nil
}

func (m *AuthModule) handleCheckSession(ctx context.Context, req TokenRequest, _ *mono.Msg) (CheckSessionResponse, error) {
	session, err := m.service.CheckSession(ctx, req.Token)
	if err != nil {
		return CheckSessionResponse{}, err
	}

	resp := CheckSessionResponse{Status: session.Status}
	if session.User != nil {
		user := toUserResponse(session.User)
		resp.User = &user
	}
	return resp, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		if msg, ok := rejection(err); ok {
			return UserResponse{Error: msg}, nil
		}
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}
