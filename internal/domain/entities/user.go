package entities

import (
	"errors"
	"time"
)

// ErrNoCredentials is returned when a user has not logged in to the platform.
var ErrNoCredentials = errors.New("no platform credentials")

// User represents bot user linked to a platform student account.
type User struct {
	ID        int64 // Telegram user ID
	ChatID    int64
	StudentID int64 // platform user id, set after login
	UserName  string
	CreatedAt time.Time
}

func NewUser(id, chatID int64) *User {
	return &User{
		ID:        id,
		ChatID:    chatID,
		CreatedAt: time.Now(),
	}
}

// Credentials are the platform API tokens of a logged-in user.
type Credentials struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	UpdatedAt    time.Time
}

// Identity is what the platform returns about the logged-in student.
type Identity struct {
	StudentID int64  `json:"id"`
	UserName  string `json:"user_name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	IsAdmin   bool   `json:"is_admin"`
}
