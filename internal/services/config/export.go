package config

import (
	"context"
	"fmt"
)

const (
	exportServerName = "mcp-atlassian"
	exportImage      = "ghcr.io/sooperset/mcp-atlassian:latest"
)

// Environment variables passed through to the container. The list is
// fixed regardless of which services are configured so exported files
// stay uniform across users.
var exportEnvNames = []string{
	"JIRA_URL",
	"JIRA_PERSONAL_TOKEN",
	"JIRA_SSL_VERIFY",
	"CONFLUENCE_URL",
	"CONFLUENCE_PERSONAL_TOKEN",
	"CONFLUENCE_SSL_VERIFY",
}

// ExportServerConfig renders the user's configuration as an mcpServers
// document for desktop MCP clients: a docker invocation of the Atlassian
// gateway image with the user's decrypted credentials in the env block.
// The caller is responsible for treating the result as sensitive.
func (s *Service) ExportServerConfig(ctx context.Context, userID string) (map[string]interface{}, error) {
	config, err := s.storage.GetMCPConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, fmt.Errorf("no MCP configuration found for user")
	}
	if errs := config.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("configuration is not valid: %s", errs[0])
	}

	jiraURL := config.JiraURL
	jiraToken := config.JiraPersonalTokenPlain()
	jiraSSL := config.JiraSSLVerify
	if jiraURL == "" && config.ServerURL != "" {
		jiraURL = config.ServerURL
		jiraToken = config.PersonalAccessTokenPlain()
	}

	// Only fully configured services contribute env values; the pass-through
	// name list above stays fixed either way.
	env := map[string]string{}
	if jiraURL != "" && jiraToken != "" {
		env["JIRA_URL"] = jiraURL
		env["JIRA_PERSONAL_TOKEN"] = jiraToken
		env["JIRA_SSL_VERIFY"] = boolString(jiraSSL)
	}
	if confluenceToken := config.ConfluencePersonalTokenPlain(); config.ConfluenceURL != "" && confluenceToken != "" {
		env["CONFLUENCE_URL"] = config.ConfluenceURL
		env["CONFLUENCE_PERSONAL_TOKEN"] = confluenceToken
		env["CONFLUENCE_SSL_VERIFY"] = boolString(config.ConfluenceSSLVerify)
	}

	args := []string{"run", "--rm", "-i"}
	for _, name := range exportEnvNames {
		args = append(args, "-e", name)
	}
	args = append(args, exportImage)

	return map[string]interface{}{
		"mcpServers": map[string]interface{}{
			exportServerName: map[string]interface{}{
				"command": "docker",
				"args":    args,
				"env":     env,
			},
		},
	}, nil
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
