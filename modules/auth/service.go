package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	domain "github.com/example/htmx-todo-demo/domain/user"
	"github.com/go-monolith/mono/pkg/types"
)

// MaxUsernameLength bounds usernames in runes.
const MaxUsernameLength = 64

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrUnauthenticated is returned when a bearer token does not resolve to a user.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidUsername is returned when the username is empty or too long.
	ErrInvalidUsername = errors.New("username must be between 1 and 64 characters")
)

// LoginResult carries the issued access token.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *domain.User
}

// AuthService turns credentials and bearer tokens into users.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	tokens *TokenService
	logger types.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, tokens *TokenService, logger types.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Signup validates the credentials and creates a user.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, username, hashed)
	if err != nil {
		if !errors.Is(err, ErrDuplicateUsername) {
			s.logger.Error("User creation failed", "username", username, "error", err)
		}
		return nil, err
	}

	s.logger.Info("User signed up", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks a username and password pair. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials after a full bcrypt compare.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates the user and issues an access token whose subject is
// the username.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.IssueWithExpiry(map[string]any{"sub": user.Username})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// ResolveToken maps a bearer token to its user. Every failure, whether a
// missing, forged or expired token or an unknown subject, yields
// ErrUnauthenticated.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug("Token rejected", "reason", err)
		return nil, ErrUnauthenticated
	}

	username, ok := Subject(claims)
	if !ok {
		s.logger.Debug("Token rejected", "reason", "missing subject")
		return nil, ErrUnauthenticated
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("User lookup failed", "error", err)
		}
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// CheckSession reports whether a token is absent, expired or active. Only
// storage failures are returned as errors.
func (s *AuthService) CheckSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return &domain.Session{Status: domain.SessionAnonymous}, nil
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return &domain.Session{Status: domain.SessionExpired}, nil
		}
		return &domain.Session{Status: domain.SessionAnonymous}, nil
	}

	username, ok := Subject(claims)
	if !ok {
		return &domain.Session{Status: domain.SessionAnonymous}, nil
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return &domain.Session{Status: domain.SessionAnonymous}, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &domain.Session{Status: domain.SessionActive, User: user}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}
