package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/interfaces"
	"github.com/ternarybob/tessera/internal/models"
)

// ConfigStorage implements the ConfigStorage interface for SQLite
type ConfigStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewConfigStorage creates a new ConfigStorage instance
func NewConfigStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.ConfigStorage {
	return &ConfigStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ConfigStorage) GetMCPConfig(ctx context.Context, userID string) (*models.MCPConfiguration, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, user_id, jira_url, jira_personal_token, jira_ssl_verify,
			confluence_url, confluence_personal_token, confluence_ssl_verify,
			server_url, personal_access_token, additional_params,
			is_active, last_tested, created_at, updated_at
		FROM mcp_configurations WHERE user_id = ?`, userID)

	var config models.MCPConfiguration
	var paramsJSON string
	var lastTested sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&config.ID, &config.UserID,
		&config.JiraURL, &config.JiraPersonalToken, &config.JiraSSLVerify,
		&config.ConfluenceURL, &config.ConfluencePersonalToken, &config.ConfluenceSSLVerify,
		&config.ServerURL, &config.PersonalAccessToken, &paramsJSON,
		&config.IsActive, &lastTested, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get MCP configuration: %w", err)
	}

	config.AdditionalParams = map[string]interface{}{}
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &config.AdditionalParams); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Discarding unreadable additional params")
			config.AdditionalParams = map[string]interface{}{}
		}
	}
	if lastTested.Valid {
		t := time.Unix(lastTested.Int64, 0).UTC()
		config.LastTested = &t
	}
	config.CreatedAt = time.Unix(createdAt, 0).UTC()
	config.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &config, nil
}

func (s *ConfigStorage) SaveMCPConfig(ctx context.Context, config *models.MCPConfiguration) error {
	if config.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	params := config.AdditionalParams
	if params == nil {
		params = map[string]interface{}{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode additional params: %w", err)
	}

	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now

	var lastTested sql.NullInt64
	if config.LastTested != nil {
		lastTested = sql.NullInt64{Int64: config.LastTested.Unix(), Valid: true}
	}

	_, err = s.db.DB().ExecContext(ctx, `
		INSERT INTO mcp_configurations (
			id, user_id, jira_url, jira_personal_token, jira_ssl_verify,
			confluence_url, confluence_personal_token, confluence_ssl_verify,
			server_url, personal_access_token, additional_params,
			is_active, last_tested, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			jira_url = excluded.jira_url,
			jira_personal_token = excluded.jira_personal_token,
			jira_ssl_verify = excluded.jira_ssl_verify,
			confluence_url = excluded.confluence_url,
			confluence_personal_token = excluded.confluence_personal_token,
			confluence_ssl_verify = excluded.confluence_ssl_verify,
			server_url = excluded.server_url,
			personal_access_token = excluded.personal_access_token,
			additional_params = excluded.additional_params,
			is_active = excluded.is_active,
			last_tested = excluded.last_tested,
			updated_at = excluded.updated_at`,
		config.ID, config.UserID,
		config.JiraURL, config.JiraPersonalToken, config.JiraSSLVerify,
		config.ConfluenceURL, config.ConfluencePersonalToken, config.ConfluenceSSLVerify,
		config.ServerURL, config.PersonalAccessToken, string(paramsJSON),
		config.IsActive, lastTested, config.CreatedAt.Unix(), config.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save MCP configuration: %w", err)
	}

	return nil
}

func (s *ConfigStorage) DeleteMCPConfig(ctx context.Context, userID string) error {
	_, err := s.db.DB().ExecContext(ctx, `DELETE FROM mcp_configurations WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete MCP configuration: %w", err)
	}
	return nil
}

func (s *ConfigStorage) GetAIConfig(ctx context.Context, userID string) (*models.AIConfiguration, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, user_id, custom_headers, user_id_from_jira, model_configs,
			is_validated, created_at, updated_at
		FROM ai_configurations WHERE user_id = ?`, userID)

	var config models.AIConfiguration
	var configsJSON string
	var createdAt, updatedAt int64

	err := row.Scan(&config.ID, &config.UserID, &config.CustomHeaders,
		&config.UserIDFromJira, &configsJSON, &config.IsValidated,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get AI configuration: %w", err)
	}

	config.ModelConfigs = map[string]interface{}{}
	if configsJSON != "" {
		if err := json.Unmarshal([]byte(configsJSON), &config.ModelConfigs); err != nil {
			config.ModelConfigs = map[string]interface{}{}
		}
	}
	config.CreatedAt = time.Unix(createdAt, 0).UTC()
	config.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &config, nil
}

func (s *ConfigStorage) SaveAIConfig(ctx context.Context, config *models.AIConfiguration) error {
	if config.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	configs := config.ModelConfigs
	if configs == nil {
		configs = map[string]interface{}{}
	}
	configsJSON, err := json.Marshal(configs)
	if err != nil {
		return fmt.Errorf("failed to encode model configs: %w", err)
	}

	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now

	_, err = s.db.DB().ExecContext(ctx, `
		INSERT INTO ai_configurations (
			id, user_id, custom_headers, user_id_from_jira, model_configs,
			is_validated, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			custom_headers = excluded.custom_headers,
			user_id_from_jira = excluded.user_id_from_jira,
			model_configs = excluded.model_configs,
			is_validated = excluded.is_validated,
			updated_at = excluded.updated_at`,
		config.ID, config.UserID, config.CustomHeaders, config.UserIDFromJira,
		string(configsJSON), config.IsValidated,
		config.CreatedAt.Unix(), config.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save AI configuration: %w", err)
	}

	return nil
}

func (s *ConfigStorage) TouchLastTested(ctx context.Context, userID string) error {
	now := time.Now().UTC().Unix()
	_, err := s.db.DB().ExecContext(ctx, `
		UPDATE mcp_configurations SET last_tested = ?, updated_at = ? WHERE user_id = ?`,
		now, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update last tested time: %w", err)
	}
	return nil
}
