package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/htmx-todo-demo/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is the port other modules use to reach auth functionality.
// Both AuthAdapter and AuthService implement it.
type AuthPort interface {
	Signup(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ResolveToken(ctx context.Context, token string) (*domain.User, error)
	CheckSession(ctx context.Context, token string) (*domain.Session, error)
}

var (
	_ AuthPort = (*AuthAdapter)(nil)
	_ AuthPort = (*AuthService)(nil)
)

// knownErrors are matched by message when an error crosses the service
// container, which only carries the error text.
var knownErrors = []error{
	ErrDuplicateUsername,
	ErrCreateFailed,
	ErrInvalidCredentials,
	ErrUnauthenticated,
	ErrInvalidUsername,
	ErrWeakPassword,
	ErrPasswordTooLong,
	ErrUserNotFound,
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Signup creates a user through the signup service.
func (a *AuthAdapter) Signup(ctx context.Context, username, password string) (*domain.User, error) {
	req := SignupRequest{Username: username, Password: password}
	var resp UserResponse

	if err := callService(ctx, a.container, ServiceSignup, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, replyError(resp.Error)
	}
	return fromUserResponse(resp), nil
}

// Login authenticates through the login service.
func (a *AuthAdapter) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	req := LoginRequest{Username: username, Password: password}
	var resp LoginResponse

	if err := callService(ctx, a.container, ServiceLogin, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, replyError(resp.Error)
	}

	return &LoginResult{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   resp.ExpiresAt,
		User:        fromUserResponse(resp.User),
	}, nil
}

// ResolveToken resolves a bearer token through the resolve-token service.
func (a *AuthAdapter) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	req := TokenRequest{Token: token}
	var resp ResolveTokenResponse

	if err := callService(ctx, a.container, ServiceResolveToken, &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Authenticated || resp.User == nil {
		return nil, ErrUnauthenticated
	}
	return fromUserResponse(*resp.User), nil
}

// CheckSession inspects a bearer token through the check-session service.
func (a *AuthAdapter) CheckSession(ctx context.Context, token string) (*domain.Session, error) {
	req := TokenRequest{Token: token}
	var resp CheckSessionResponse

	if err := callService(ctx, a.container, ServiceCheckSession, &req, &resp); err != nil {
		return nil, err
	}

	session := &domain.Session{Status: resp.Status}
	if resp.User != nil {
		session.User = fromUserResponse(*resp.User)
	}
	return session, nil
}

func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		if known := restoreError(err); known != nil {
			return known
		}
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// replyError turns the error carried in a reply back into its sentinel.
func replyError(msg string) error {
	if known := restoreError(errors.New(msg)); known != nil {
		return known
	}
	return errors.New(msg)
}

// restoreError maps a remote error message back to its sentinel.
func restoreError(err error) error {
	msg := err.Error()
	for _, known := range knownErrors {
		if strings.Contains(msg, known.Error()) {
			return known
		}
	}
	return nil
}
