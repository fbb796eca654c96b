package interfaces

import (
	"context"

	"github.com/ternarybob/tessera/internal/models"
)

// ConfigStorage persists per-user MCP and AI configurations. Saves are
// upserts keyed by user ID; a user holds at most one of each.
type ConfigStorage interface {
	// GetMCPConfig returns the user's MCP configuration, or (nil, nil)
	// when none exists.
	GetMCPConfig(ctx context.Context, userID string) (*models.MCPConfiguration, error)

	// SaveMCPConfig inserts or replaces the user's MCP configuration
	SaveMCPConfig(ctx context.Context, config *models.MCPConfiguration) error

	// DeleteMCPConfig removes the user's MCP configuration if present
	DeleteMCPConfig(ctx context.Context, userID string) error

	// GetAIConfig returns the user's AI configuration, or (nil, nil)
	GetAIConfig(ctx context.Context, userID string) (*models.AIConfiguration, error)

	// SaveAIConfig inserts or replaces the user's AI configuration
	SaveAIConfig(ctx context.Context, config *models.AIConfiguration) error

	// TouchLastTested stamps the configuration's last successful test time
	TouchLastTested(ctx context.Context, userID string) error
}

// UserStorage persists users. Deleting a user cascades to their
// configurations.
type UserStorage interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// StorageManager provides access to all storage services
type StorageManager interface {
	ConfigStorage() ConfigStorage
	UserStorage() UserStorage
	Close() error
}
