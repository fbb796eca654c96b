package models

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/tessera/internal/common"
)

func setupEncryption(t *testing.T) {
	t.Helper()
	if os.Getenv("TESSERA_ENCRYPTION_KEY") == "" {
		os.Setenv("TESSERA_ENCRYPTION_KEY", common.GenerateEncryptionKey())
	}
}

func TestTokenRoundTrip(t *testing.T) {
	setupEncryption(t)

	config := NewMCPConfiguration("usr_test")
	err := config.SetJiraPersonalToken("secret-token-123")
	require.NoError(t, err)

	// Stored form must not be the plaintext
	assert.NotEqual(t, "secret-token-123", config.JiraPersonalToken)
	assert.NotEmpty(t, config.JiraPersonalToken)

	assert.Equal(t, "secret-token-123", config.JiraPersonalTokenPlain())
}

func TestTokenClearAndPreserve(t *testing.T) {
	setupEncryption(t)

	config := NewMCPConfiguration("usr_test")
	require.NoError(t, config.SetConfluencePersonalToken("original"))
	require.NotEmpty(t, config.ConfluencePersonalToken)

	// Empty explicitly clears
	require.NoError(t, config.SetConfluencePersonalToken(""))
	assert.Empty(t, config.ConfluencePersonalToken)
	assert.Empty(t, config.ConfluencePersonalTokenPlain())
}

func TestTokenDecryptFailureDegradesToEmpty(t *testing.T) {
	setupEncryption(t)

	config := NewMCPConfiguration("usr_test")
	require.NoError(t, config.SetJiraPersonalToken("secret"))

	// Corrupt the stored ciphertext; reads must degrade, not fail
	config.JiraPersonalToken = "bm90LXJlYWwtY2lwaGVydGV4dA=="
	assert.Empty(t, config.JiraPersonalTokenPlain())
}

func TestValidateRequiresAtLeastOneService(t *testing.T) {
	config := NewMCPConfiguration("usr_test")

	errs := config.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "At least one service (Jira or Confluence) must be configured", errs[0])
}

func TestValidateRejectsPartialPair(t *testing.T) {
	setupEncryption(t)

	config := NewMCPConfiguration("usr_test")
	config.JiraURL = "https://jira.example.com"

	errs := config.Validate()
	assert.Contains(t, errs, "Jira Personal Access Token is required when Jira URL is provided")
	// URL without token still counts as nothing fully configured
	assert.Contains(t, errs, "At least one service (Jira or Confluence) must be configured")
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	config := NewMCPConfiguration("usr_test")
	config.JiraURL = "jira.example.com"
	config.ConfluenceURL = "confluence.example.com"

	errs := config.Validate()
	assert.Contains(t, errs, "Jira URL must start with http:// or https://")
	assert.Contains(t, errs, "Jira Personal Access Token is required when Jira URL is provided")
	assert.Contains(t, errs, "Confluence URL must start with http:// or https://")
	assert.Contains(t, errs, "Confluence Personal Access Token is required when Confluence URL is provided")
}

func TestValidateAcceptsFullJiraPair(t *testing.T) {
	setupEncryption(t)

	config := NewMCPConfiguration("usr_test")
	config.JiraURL = "https://jira.example.com"
	require.NoError(t, config.SetJiraPersonalToken("token"))

	assert.Empty(t, config.Validate())
}

func TestValidateAcceptsLegacyPair(t *testing.T) {
	setupEncryption(t)

	config := NewMCPConfiguration("usr_test")
	config.ServerURL = "https://jira.internal.example.com"
	require.NoError(t, config.SetPersonalAccessToken("legacy-token"))

	assert.Empty(t, config.Validate())
	assert.True(t, config.LegacyConfigured())
}

func TestAdditionalParams(t *testing.T) {
	config := NewMCPConfiguration("usr_test")
	require.NotNil(t, config.AdditionalParams)

	assert.Equal(t, "fallback", config.GetAdditionalParam("missing", "fallback"))

	config.SetAdditionalParam("projects_filter", "PROJ,OTHER")
	assert.Equal(t, "PROJ,OTHER", config.GetAdditionalParam("projects_filter", ""))

	// Nil map never panics
	config.AdditionalParams = nil
	assert.Equal(t, 7, config.GetAdditionalParam("anything", 7))
	config.SetAdditionalParam("key", "value")
	assert.Equal(t, "value", config.GetAdditionalParam("key", ""))
}

func TestToMapHidesTokens(t *testing.T) {
	setupEncryption(t)

	config := NewMCPConfiguration("usr_test")
	config.JiraURL = "https://jira.example.com"
	require.NoError(t, config.SetJiraPersonalToken("secret"))

	data := config.ToMap(false)
	assert.Equal(t, true, data["has_jira_token"])
	assert.NotContains(t, data, "jira_personal_token")

	withTokens := config.ToMap(true)
	assert.Equal(t, "secret", withTokens["jira_personal_token"])
}

func TestAIConfigurationHeaders(t *testing.T) {
	config := NewAIConfiguration("usr_test")

	require.NoError(t, config.SetCustomHeaders(map[string]string{"X-Team": "platform"}))
	assert.Equal(t, map[string]string{"X-Team": "platform"}, config.GetCustomHeaders())

	// Bad stored data degrades to an empty map
	config.CustomHeaders = "{not json"
	assert.Empty(t, config.GetCustomHeaders())

	errs := config.Validate()
	assert.Contains(t, errs, "Custom headers must be a valid JSON object")
}
