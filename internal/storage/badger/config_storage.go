package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/interfaces"
	"github.com/ternarybob/tessera/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ConfigStorage implements the ConfigStorage interface for Badger.
// Configurations are keyed by user ID since a user holds at most one.
type ConfigStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewConfigStorage creates a new ConfigStorage instance
func NewConfigStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ConfigStorage {
	return &ConfigStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ConfigStorage) GetMCPConfig(ctx context.Context, userID string) (*models.MCPConfiguration, error) {
	var config models.MCPConfiguration
	if err := s.db.Store().Get(mcpKey(userID), &config); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get MCP configuration: %w", err)
	}
	if config.AdditionalParams == nil {
		config.AdditionalParams = map[string]interface{}{}
	}
	return &config, nil
}

func (s *ConfigStorage) SaveMCPConfig(ctx context.Context, config *models.MCPConfiguration) error {
	if config.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now
	if config.AdditionalParams == nil {
		config.AdditionalParams = map[string]interface{}{}
	}

	if err := s.db.Store().Upsert(mcpKey(config.UserID), config); err != nil {
		return fmt.Errorf("failed to save MCP configuration: %w", err)
	}
	return nil
}

func (s *ConfigStorage) DeleteMCPConfig(ctx context.Context, userID string) error {
	err := s.db.Store().Delete(mcpKey(userID), &models.MCPConfiguration{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete MCP configuration: %w", err)
	}
	return nil
}

func (s *ConfigStorage) GetAIConfig(ctx context.Context, userID string) (*models.AIConfiguration, error) {
	var config models.AIConfiguration
	if err := s.db.Store().Get(aiKey(userID), &config); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get AI configuration: %w", err)
	}
	if config.ModelConfigs == nil {
		config.ModelConfigs = map[string]interface{}{}
	}
	return &config, nil
}

func (s *ConfigStorage) SaveAIConfig(ctx context.Context, config *models.AIConfiguration) error {
	if config.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now

	if err := s.db.Store().Upsert(aiKey(config.UserID), config); err != nil {
		return fmt.Errorf("failed to save AI configuration: %w", err)
	}
	return nil
}

func (s *ConfigStorage) TouchLastTested(ctx context.Context, userID string) error {
	config, err := s.GetMCPConfig(ctx, userID)
	if err != nil {
		return err
	}
	if config == nil {
		return nil
	}

	now := time.Now().UTC()
	config.LastTested = &now
	return s.SaveMCPConfig(ctx, config)
}

func mcpKey(userID string) string {
	return "mcp:" + userID
}

func aiKey(userID string) string {
	return "ai:" + userID
}
