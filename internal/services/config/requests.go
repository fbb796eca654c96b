package config

// MCPConfigRequest carries a partial configuration update. Pointer fields
// distinguish "not sent" (preserve the stored value) from "sent empty"
// (clear it); this matters most for tokens, which the UI omits unless the
// user typed a new one.
type MCPConfigRequest struct {
	JiraURL                 *string                `json:"jira_url" validate:"omitempty,max=2048"`
	JiraPersonalToken       *string                `json:"jira_personal_token" validate:"omitempty,max=8192"`
	JiraSSLVerify           *bool                  `json:"jira_ssl_verify"`
	ConfluenceURL           *string                `json:"confluence_url" validate:"omitempty,max=2048"`
	ConfluencePersonalToken *string                `json:"confluence_personal_token" validate:"omitempty,max=8192"`
	ConfluenceSSLVerify     *bool                  `json:"confluence_ssl_verify"`
	ServerURL               *string                `json:"server_url" validate:"omitempty,max=2048"`
	PersonalAccessToken     *string                `json:"personal_access_token" validate:"omitempty,max=8192"`
	AdditionalParams        map[string]interface{} `json:"additional_params"`
	IsActive                *bool                  `json:"is_active"`
}

// AIConfigRequest carries a partial AI configuration update
type AIConfigRequest struct {
	CustomHeaders  map[string]string      `json:"custom_headers"`
	UserIDFromJira *string                `json:"user_id_from_jira" validate:"omitempty,max=256"`
	ModelConfigs   map[string]interface{} `json:"model_configs"`
}
