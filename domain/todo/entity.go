package todo

import (
	"time"
)

// Todo is a task owned by exactly one user.
type Todo struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Title     string    `gorm:"not null;type:text" json:"title"`
	Done      bool      `gorm:"not null;default:false" json:"done"`
	OwnerID   string    `gorm:"index;not null;type:text" json:"owner_id"`
	FileName  string    `gorm:"type:text" json:"file_name,omitempty"`
	FilePath  string    `gorm:"type:text" json:"file_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the Todo entity.
func (Todo) TableName() string {
	return "todos"
}

// HasAttachment reports whether the attachment worker recorded a file for the todo.
func (t *Todo) HasAttachment() bool {
	return t.FilePath != ""
}
