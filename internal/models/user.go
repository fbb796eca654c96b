package models

import (
	"time"

	"github.com/ternarybob/tessera/internal/common"
)

// User is the owner of configurations. Deleting a user removes their
// MCP and AI configurations with them.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUser creates a user with a generated ID
func NewUser(username string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        common.NewUserID(),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
