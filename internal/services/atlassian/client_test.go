package atlassian

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/common"
	"github.com/ternarybob/tessera/internal/models"
)

func setupEncryption(t *testing.T) {
	t.Helper()
	if os.Getenv("TESSERA_ENCRYPTION_KEY") == "" {
		os.Setenv("TESSERA_ENCRYPTION_KEY", common.GenerateEncryptionKey())
	}
}

// fakeGateway records invocations and returns canned responses
type fakeGateway struct {
	payload  json.RawMessage
	err      error
	lastTool string
	lastArgs map[string]interface{}
	headers  http.Header
}

func (f *fakeGateway) EnsureRunning(ctx context.Context) bool { return true }

func (f *fakeGateway) Invoke(ctx context.Context, tool string, args map[string]interface{}, headers http.Header) (json.RawMessage, error) {
	f.lastTool = tool
	f.lastArgs = args
	f.headers = headers
	return f.payload, f.err
}

func (f *fakeGateway) Status() models.GatewayStatus { return models.GatewayStatus{Running: true} }
func (f *fakeGateway) Stop()                        {}

func jiraConfig(t *testing.T) *models.MCPConfiguration {
	t.Helper()
	setupEncryption(t)

	config := models.NewMCPConfiguration("usr_test")
	config.JiraURL = "https://jira.example.com"
	require.NoError(t, config.SetJiraPersonalToken("jira-token"))
	return config
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	config := models.NewMCPConfiguration("usr_test")

	_, err := NewClient(config, &fakeGateway{}, arbor.NewLogger())
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Errors, "At least one service (Jira or Confluence) must be configured")
}

func TestNewClientRejectsNil(t *testing.T) {
	_, err := NewClient(nil, &fakeGateway{}, arbor.NewLogger())
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
}

func TestNewClientRejectsInactiveConfig(t *testing.T) {
	config := jiraConfig(t)
	config.IsActive = false

	_, err := NewClient(config, &fakeGateway{}, arbor.NewLogger())
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Errors, "Configuration is not active")
}

func TestAuthHeadersJira(t *testing.T) {
	client, err := NewClient(jiraConfig(t), &fakeGateway{}, arbor.NewLogger())
	require.NoError(t, err)

	headers := client.AuthHeaders("jira")
	assert.Equal(t, "https://jira.example.com", headers.Get("X-Jira-URL"))
	assert.Equal(t, "jira-token", headers.Get("X-Jira-Token"))
	assert.Equal(t, "true", headers.Get("X-Jira-SSL-Verify"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.NotEmpty(t, headers.Get("X-Tessera-Client"))
	assert.Empty(t, headers.Get("X-Confluence-URL"))
}

func TestAuthHeadersUnconfiguredServiceOmitsCredentials(t *testing.T) {
	client, err := NewClient(jiraConfig(t), &fakeGateway{}, arbor.NewLogger())
	require.NoError(t, err)

	headers := client.AuthHeaders("confluence")
	assert.Empty(t, headers.Get("X-Confluence-URL"))
	assert.Empty(t, headers.Get("X-Confluence-Token"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

func TestAuthHeadersSSLVerifyDisabled(t *testing.T) {
	config := jiraConfig(t)
	config.JiraSSLVerify = false

	client, err := NewClient(config, &fakeGateway{}, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, "false", client.AuthHeaders("jira").Get("X-Jira-SSL-Verify"))
}

func TestAuthHeadersLegacyBacksJira(t *testing.T) {
	setupEncryption(t)

	config := models.NewMCPConfiguration("usr_test")
	config.ServerURL = "https://legacy.example.com"
	require.NoError(t, config.SetPersonalAccessToken("legacy-token"))

	client, err := NewClient(config, &fakeGateway{}, arbor.NewLogger())
	require.NoError(t, err)

	headers := client.AuthHeaders("jira")
	assert.Equal(t, "https://legacy.example.com", headers.Get("X-Jira-URL"))
	assert.Equal(t, "legacy-token", headers.Get("X-Jira-Token"))
}

func TestAuthHeadersLegacyKeepsSSLPreference(t *testing.T) {
	setupEncryption(t)

	config := models.NewMCPConfiguration("usr_test")
	config.ServerURL = "https://legacy.example.com"
	config.JiraSSLVerify = false
	require.NoError(t, config.SetPersonalAccessToken("legacy-token"))

	client, err := NewClient(config, &fakeGateway{}, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, "false", client.AuthHeaders("jira").Get("X-Jira-SSL-Verify"))
}

func TestTestJiraConnectionReportsFailure(t *testing.T) {
	gateway := &fakeGateway{err: &ConnectionError{Service: "jira", Message: "gateway unreachable"}}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	result := client.TestJiraConnection(context.Background())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "gateway unreachable")
}

func TestTestJiraConnectionSuccess(t *testing.T) {
	gateway := &fakeGateway{payload: json.RawMessage(`{
		"displayName": "Ada Lovelace",
		"accountId": "acct-1",
		"emailAddress": "ada@example.com"
	}`)}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	result := client.TestJiraConnection(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, "Ada Lovelace", result.User)
	assert.Equal(t, "acct-1", result.UserID)
	assert.Equal(t, "ada@example.com", result.Email)
	assert.Equal(t, "https://jira.example.com", result.ServerInfo["server_url"])
	assert.Equal(t, true, result.ServerInfo["ssl_verify"])
	assert.Equal(t, "jira_get_user_profile", gateway.lastTool)
}

func TestTestConfluenceConnectionSuccess(t *testing.T) {
	setupEncryption(t)

	config := models.NewMCPConfiguration("usr_test")
	config.ConfluenceURL = "https://confluence.example.com"
	require.NoError(t, config.SetConfluencePersonalToken("conf-token"))

	gateway := &fakeGateway{payload: json.RawMessage(`{
		"displayName": "Grace Hopper",
		"key": "ghopper",
		"email": "grace@example.com"
	}`)}
	client, err := NewClient(config, gateway, arbor.NewLogger())
	require.NoError(t, err)

	result := client.TestConfluenceConnection(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, "Grace Hopper", result.User)
	assert.Equal(t, "ghopper", result.UserID)
	assert.Equal(t, "grace@example.com", result.Email)
	assert.Equal(t, "https://confluence.example.com", result.ServerInfo["server_url"])
	assert.Equal(t, "confluence_get_user_profile", gateway.lastTool)
}

func TestTestJiraConnectionFallsBackToUnknownUser(t *testing.T) {
	gateway := &fakeGateway{payload: json.RawMessage(`{"active": true}`)}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	result := client.TestJiraConnection(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, "Unknown User", result.User)
}

func TestTestConfluenceConnectionRequiresCredentials(t *testing.T) {
	gateway := &fakeGateway{}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	result := client.TestConfluenceConnection(context.Background())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Confluence URL and Personal Access Token are required")
	assert.Empty(t, gateway.lastTool, "no network call expected")
}

func TestGetBoards(t *testing.T) {
	gateway := &fakeGateway{payload: json.RawMessage(`{"values": [
		{"id": 1, "name": "Platform", "type": "scrum", "location": {"name": "PLAT"}},
		{"id": 2, "name": "Support", "type": "kanban"}
	]}`)}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	boards, err := client.GetBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, 1, boards[0].ID)
	assert.Equal(t, "Platform", boards[0].Name)
	assert.Equal(t, "PLAT", boards[0].Location)
}

func TestGetBoardsPropagatesErrors(t *testing.T) {
	gateway := &fakeGateway{err: &TimeoutError{Service: "jira", Message: "deadline"}}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	_, err = client.GetBoards(context.Background())
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
}

func TestSearchTicketsFlattensIssues(t *testing.T) {
	gateway := &fakeGateway{payload: json.RawMessage(`{"issues": [{
		"key": "PROJ-1",
		"fields": {
			"summary": "Fix the widget",
			"status": {"name": "In Progress"},
			"assignee": {"displayName": "Ada Lovelace"},
			"priority": {"name": "High"},
			"issuetype": {"name": "Bug"}
		}
	}]}`)}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	tickets, err := client.SearchTickets(context.Background(), "project = PROJ", 10)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "PROJ-1", tickets[0].Key)
	assert.Equal(t, "Fix the widget", tickets[0].Summary)
	assert.Equal(t, "In Progress", tickets[0].Status)
	assert.Equal(t, "Ada Lovelace", tickets[0].Assignee)
	assert.Equal(t, "Bug", tickets[0].IssueType)
}

func TestSearchTicketsMalformedPayloadDegrades(t *testing.T) {
	gateway := &fakeGateway{payload: json.RawMessage(`{"unexpected": true}`)}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	tickets, err := client.SearchTickets(context.Background(), "project = PROJ", 10)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestCreateTicketFailureShapedResult(t *testing.T) {
	gateway := &fakeGateway{err: &ConnectionError{Service: "jira", Message: "boom"}}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	result := client.CreateTicket(context.Background(), models.TicketRequest{
		Project:   "PROJ",
		Summary:   "New ticket",
		IssueType: "Task",
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "boom")
}

func TestCreateTicketNamesAllMissingFields(t *testing.T) {
	gateway := &fakeGateway{}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	result := client.CreateTicket(context.Background(), models.TicketRequest{Summary: "x"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "project")
	assert.Contains(t, result.Error, "issuetype")
	assert.NotContains(t, result.Error, "summary")
	assert.Empty(t, gateway.lastTool, "no network call expected")
}

func TestCreateTicketSuccess(t *testing.T) {
	gateway := &fakeGateway{payload: json.RawMessage(`{"key": "PROJ-42"}`)}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	result := client.CreateTicket(context.Background(), models.TicketRequest{
		Project:   "PROJ",
		Summary:   "New ticket",
		IssueType: "Task",
	})
	require.True(t, result.Success)
	assert.Equal(t, "PROJ-42", result.Key)
	assert.Equal(t, "https://jira.example.com/browse/PROJ-42", result.URL)
	assert.Equal(t, "jira_create_issue", gateway.lastTool)
	assert.Equal(t, "Task", gateway.lastArgs["issue_type"])
}

func TestGetTicketHistory(t *testing.T) {
	gateway := &fakeGateway{payload: json.RawMessage(`{
		"key": "PROJ-1",
		"changelog": {"histories": [{
			"author": {"displayName": "Ada Lovelace"},
			"created": "2026-08-01T10:00:00.000+0000",
			"items": [{"field": "status", "fromString": "To Do", "toString": "In Progress"}]
		}]}
	}`)}
	client, err := NewClient(jiraConfig(t), gateway, arbor.NewLogger())
	require.NoError(t, err)

	history, err := client.GetTicketHistory(context.Background(), "PROJ-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Ada Lovelace", history[0].Author)
	require.Len(t, history[0].Items, 1)
	assert.Equal(t, "status", history[0].Items[0].Field)
	assert.Equal(t, "To Do", history[0].Items[0].From)
	assert.Equal(t, "In Progress", history[0].Items[0].To)
}

func TestGetTicketHistoryRequiresKey(t *testing.T) {
	client, err := NewClient(jiraConfig(t), &fakeGateway{}, arbor.NewLogger())
	require.NoError(t, err)

	_, err = client.GetTicketHistory(context.Background(), "")
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
}

func TestTestConnectionsCoversConfiguredServices(t *testing.T) {
	setupEncryption(t)

	config := jiraConfig(t)
	config.ConfluenceURL = "https://confluence.example.com"
	require.NoError(t, config.SetConfluencePersonalToken("conf-token"))

	gateway := &fakeGateway{payload: json.RawMessage(`{"displayName": "Ada"}`)}
	client, err := NewClient(config, gateway, arbor.NewLogger())
	require.NoError(t, err)

	results := client.TestConnections(context.Background())
	require.Len(t, results, 2)
	assert.True(t, results["jira"].Success)
	assert.True(t, results["confluence"].Success)
}
