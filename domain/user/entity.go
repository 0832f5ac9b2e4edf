package user

import (
	"time"
)

// User represents an account that owns todos.
type User struct {
	ID             string    `gorm:"primaryKey;type:text" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null;type:text" json:"username"`
	HashedPassword string    `gorm:"not null;type:text" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Session describes the state of a bearer credential presented by a client.
type Session struct {
	Status SessionStatus `json:"status"`
	User   *User         `json:"user,omitempty"`
}

// SessionStatus is the outcome of inspecting a bearer credential.
type SessionStatus string

const (
	SessionAnonymous SessionStatus = "anonymous"
	SessionExpired   SessionStatus = "expired"
	SessionActive    SessionStatus = "active"
)
