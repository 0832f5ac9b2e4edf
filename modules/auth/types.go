package auth

import (
	"time"

	domain "github.com/example/htmx-todo-demo/domain/user"
)

// Request-reply service names.
const (
	ServiceSignup       = "signup"
	ServiceLogin        = "login"
	ServiceResolveToken = "resolve-token"
	ServiceCheckSession = "check-session"
	ServiceGetUser      = "get-user"
)

// SignupRequest represents a signup request.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user. Error is set instead of the
// user fields when the request was rejected.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	Error     string    `json:"error,omitempty"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
	Error       string       `json:"error,omitempty"`
}

// TokenRequest carries a bearer token.
type TokenRequest struct {
	Token string `json:"token"`
}

// ResolveTokenResponse is the outcome of resolving a bearer token.
// A rejected token is reported with Authenticated false, not as an error.
type ResolveTokenResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

// CheckSessionResponse reports the session state behind a token.
type CheckSessionResponse struct {
	Status domain.SessionStatus `json:"status"`
	User   *UserResponse        `json:"user,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}

func fromUserResponse(resp UserResponse) *domain.User {
	return &domain.User{
		ID:        resp.ID,
		Username:  resp.Username,
		CreatedAt: resp.CreatedAt,
	}
}
