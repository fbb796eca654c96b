package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ternarybob/tessera/internal/common"
)

// MCPConfiguration stores a user's connection settings for the Atlassian
// services reached through the MCP gateway. Tokens are encrypted at rest;
// the *Plain accessors are the only way to read them back.
type MCPConfiguration struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// Jira configuration
	JiraURL           string `json:"jira_url"`
	JiraPersonalToken string `json:"-"` // ciphertext
	JiraSSLVerify     bool   `json:"jira_ssl_verify"`

	// Confluence configuration
	ConfluenceURL           string `json:"confluence_url"`
	ConfluencePersonalToken string `json:"-"` // ciphertext
	ConfluenceSSLVerify     bool   `json:"confluence_ssl_verify"`

	// Legacy single-service fields, retained for configurations created
	// before the Jira/Confluence split. A fully present legacy pair is as
	// valid as either dedicated pair.
	ServerURL           string `json:"server_url"`
	PersonalAccessToken string `json:"-"` // ciphertext

	AdditionalParams map[string]interface{} `json:"additional_params"`

	IsActive   bool       `json:"is_active"`
	LastTested *time.Time `json:"last_tested,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewMCPConfiguration creates a configuration for a user with defaults applied
func NewMCPConfiguration(userID string) *MCPConfiguration {
	now := time.Now().UTC()
	return &MCPConfiguration{
		ID:                  common.NewConfigID(),
		UserID:              userID,
		JiraSSLVerify:       true,
		ConfluenceSSLVerify: true,
		AdditionalParams:    map[string]interface{}{},
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// SetJiraPersonalToken encrypts and stores the Jira personal access token.
// An empty token is stored as the empty string (explicitly cleared).
func (c *MCPConfiguration) SetJiraPersonalToken(token string) error {
	return setToken(&c.JiraPersonalToken, token)
}

// JiraPersonalTokenPlain decrypts and returns the Jira token. Missing or
// undecipherable ciphertext yields "" so callers see "not configured"
// instead of an error when keys rotate or data is corrupted.
func (c *MCPConfiguration) JiraPersonalTokenPlain() string {
	return tokenPlain(c.JiraPersonalToken)
}

// SetConfluencePersonalToken encrypts and stores the Confluence token.
func (c *MCPConfiguration) SetConfluencePersonalToken(token string) error {
	return setToken(&c.ConfluencePersonalToken, token)
}

// ConfluencePersonalTokenPlain decrypts and returns the Confluence token.
func (c *MCPConfiguration) ConfluencePersonalTokenPlain() string {
	return tokenPlain(c.ConfluencePersonalToken)
}

// SetPersonalAccessToken encrypts and stores the legacy token.
func (c *MCPConfiguration) SetPersonalAccessToken(token string) error {
	return setToken(&c.PersonalAccessToken, token)
}

// PersonalAccessTokenPlain decrypts and returns the legacy token.
func (c *MCPConfiguration) PersonalAccessTokenPlain() string {
	return tokenPlain(c.PersonalAccessToken)
}

func setToken(dst *string, token string) error {
	if token == "" {
		*dst = ""
		return nil
	}
	encrypted, err := common.EncryptToken(token)
	if err != nil {
		return err
	}
	*dst = encrypted
	return nil
}

func tokenPlain(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}
	plain, err := common.DecryptToken(ciphertext)
	if err != nil {
		return ""
	}
	return plain
}

// SetAdditionalParam sets a forward-compatible parameter
func (c *MCPConfiguration) SetAdditionalParam(key string, value interface{}) {
	if c.AdditionalParams == nil {
		c.AdditionalParams = map[string]interface{}{}
	}
	c.AdditionalParams[key] = value
}

// GetAdditionalParam returns a parameter or the given default
func (c *MCPConfiguration) GetAdditionalParam(key string, def interface{}) interface{} {
	if c.AdditionalParams == nil {
		return def
	}
	if v, ok := c.AdditionalParams[key]; ok {
		return v
	}
	return def
}

// JiraConfigured reports whether the Jira url+token pair is fully present
func (c *MCPConfiguration) JiraConfigured() bool {
	return c.JiraURL != "" && c.JiraPersonalToken != ""
}

// ConfluenceConfigured reports whether the Confluence pair is fully present
func (c *MCPConfiguration) ConfluenceConfigured() bool {
	return c.ConfluenceURL != "" && c.ConfluencePersonalToken != ""
}

// LegacyConfigured reports whether the legacy pair is fully present
func (c *MCPConfiguration) LegacyConfigured() bool {
	return c.ServerURL != "" && c.PersonalAccessToken != ""
}

// HasValidScheme reports whether a URL carries an explicit http(s) scheme
func HasValidScheme(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// Validate checks the configuration and returns accumulated error messages.
// All applicable rules run; an empty slice means valid. Omitting a service
// entirely is fine, half-configuring one is an error.
func (c *MCPConfiguration) Validate() []string {
	var errors []string

	if !c.JiraConfigured() && !c.ConfluenceConfigured() && !c.LegacyConfigured() {
		errors = append(errors, "At least one service (Jira or Confluence) must be configured")
	}

	if c.JiraURL != "" {
		if !HasValidScheme(c.JiraURL) {
			errors = append(errors, "Jira URL must start with http:// or https://")
		}
		if c.JiraPersonalToken == "" {
			errors = append(errors, "Jira Personal Access Token is required when Jira URL is provided")
		}
	}

	if c.ConfluenceURL != "" {
		if !HasValidScheme(c.ConfluenceURL) {
			errors = append(errors, "Confluence URL must start with http:// or https://")
		}
		if c.ConfluencePersonalToken == "" {
			errors = append(errors, "Confluence Personal Access Token is required when Confluence URL is provided")
		}
	}

	if c.ServerURL != "" {
		if !HasValidScheme(c.ServerURL) {
			errors = append(errors, "Server URL must start with http:// or https://")
		}
	}

	return errors
}

// ToMap converts the configuration for API responses. Tokens are included
// only when includeTokens is set; otherwise presence flags are exposed.
func (c *MCPConfiguration) ToMap(includeTokens bool) map[string]interface{} {
	params := c.AdditionalParams
	if params == nil {
		params = map[string]interface{}{}
	}

	data := map[string]interface{}{
		"id":                    c.ID,
		"user_id":               c.UserID,
		"jira_url":              c.JiraURL,
		"jira_ssl_verify":       c.JiraSSLVerify,
		"confluence_url":        c.ConfluenceURL,
		"confluence_ssl_verify": c.ConfluenceSSLVerify,
		"server_url":            c.ServerURL,
		"additional_params":     params,
		"is_active":             c.IsActive,
		"created_at":            c.CreatedAt.Format(time.RFC3339),
		"updated_at":            c.UpdatedAt.Format(time.RFC3339),
	}

	if c.LastTested != nil {
		data["last_tested"] = c.LastTested.Format(time.RFC3339)
	} else {
		data["last_tested"] = nil
	}

	if includeTokens {
		data["jira_personal_token"] = c.JiraPersonalTokenPlain()
		data["confluence_personal_token"] = c.ConfluencePersonalTokenPlain()
		data["personal_access_token"] = c.PersonalAccessTokenPlain()
	} else {
		data["has_jira_token"] = c.JiraPersonalToken != ""
		data["has_confluence_token"] = c.ConfluencePersonalToken != ""
		data["has_token"] = c.PersonalAccessToken != ""
	}

	return data
}

// AIConfiguration stores a user's AI service settings. It mirrors the
// save/validate contract of MCPConfiguration but holds no encrypted fields.
type AIConfiguration struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	CustomHeaders  string                 `json:"-"` // JSON object text
	UserIDFromJira string                 `json:"user_id_from_jira"`
	ModelConfigs   map[string]interface{} `json:"model_configs"`
	IsValidated    bool                   `json:"is_validated"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// NewAIConfiguration creates an AI configuration for a user
func NewAIConfiguration(userID string) *AIConfiguration {
	now := time.Now().UTC()
	return &AIConfiguration{
		ID:           common.NewConfigID(),
		UserID:       userID,
		ModelConfigs: map[string]interface{}{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetCustomHeaders stores headers as serialized JSON
func (a *AIConfiguration) SetCustomHeaders(headers map[string]string) error {
	if len(headers) == 0 {
		a.CustomHeaders = ""
		return nil
	}
	data, err := json.Marshal(headers)
	if err != nil {
		return err
	}
	a.CustomHeaders = string(data)
	return nil
}

// GetCustomHeaders returns the stored headers, or an empty map on bad data
func (a *AIConfiguration) GetCustomHeaders() map[string]string {
	if a.CustomHeaders == "" {
		return map[string]string{}
	}
	headers := map[string]string{}
	if err := json.Unmarshal([]byte(a.CustomHeaders), &headers); err != nil {
		return map[string]string{}
	}
	return headers
}

// Validate checks the AI configuration and returns accumulated errors
func (a *AIConfiguration) Validate() []string {
	var errors []string

	if a.CustomHeaders != "" {
		var headers map[string]interface{}
		if err := json.Unmarshal([]byte(a.CustomHeaders), &headers); err != nil {
			errors = append(errors, "Custom headers must be a valid JSON object")
		}
	}

	if a.UserIDFromJira != "" && strings.TrimSpace(a.UserIDFromJira) == "" {
		errors = append(errors, "Jira User ID cannot be empty if provided")
	}

	return errors
}

// ToMap converts the AI configuration for API responses
func (a *AIConfiguration) ToMap() map[string]interface{} {
	configs := a.ModelConfigs
	if configs == nil {
		configs = map[string]interface{}{}
	}
	return map[string]interface{}{
		"id":                a.ID,
		"user_id":           a.UserID,
		"custom_headers":    a.GetCustomHeaders(),
		"user_id_from_jira": a.UserIDFromJira,
		"model_configs":     configs,
		"is_validated":      a.IsValidated,
		"created_at":        a.CreatedAt.Format(time.RFC3339),
		"updated_at":        a.UpdatedAt.Format(time.RFC3339),
	}
}
