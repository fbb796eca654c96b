package common

import (
	"github.com/google/uuid"
)

// NewUserID generates a unique user ID with the "usr_" prefix
// Format: usr_<uuid>
func NewUserID() string {
	return "usr_" + uuid.New().String()
}

// NewConfigID generates a unique configuration ID with the "cfg_" prefix
func NewConfigID() string {
	return "cfg_" + uuid.New().String()
}
