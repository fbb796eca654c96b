package atlassian

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/common"
	"github.com/ternarybob/tessera/internal/interfaces"
	"github.com/ternarybob/tessera/internal/models"
)

const (
	serviceJira       = "jira"
	serviceConfluence = "confluence"

	unknownUser = "Unknown User"
)

// Client performs Atlassian operations for a single user's configuration.
// All traffic flows through the shared gateway; the user's credentials
// ride on each request as headers, so clients are cheap and carry no
// connection state of their own.
type Client struct {
	config  *models.MCPConfiguration
	gateway interfaces.GatewayManager
	logger  arbor.ILogger
}

// NewClient validates the configuration and builds a client for it. An
// invalid configuration is rejected here with a *ValidationError so no
// gateway call is ever attempted with bad credentials.
func NewClient(config *models.MCPConfiguration, gateway interfaces.GatewayManager, logger arbor.ILogger) (*Client, error) {
	if config == nil {
		return nil, &ValidationError{Errors: []string{"At least one service (Jira or Confluence) must be configured"}}
	}
	if !config.IsActive {
		return nil, &ValidationError{Errors: []string{"Configuration is not active"}}
	}
	if errs := config.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &Client{
		config:  config,
		gateway: gateway,
		logger:  logger,
	}, nil
}

// jiraCredentials resolves the effective Jira url+token pair. The legacy
// url+token pair backs Jira when no dedicated Jira pair is configured, so
// pre-split configurations keep working; the SSL-verify preference applies
// either way.
func (c *Client) jiraCredentials() (url, token string, sslVerify bool) {
	if c.config.JiraURL == "" && c.config.ServerURL != "" {
		return c.config.ServerURL, c.config.PersonalAccessTokenPlain(), c.config.JiraSSLVerify
	}
	return c.config.JiraURL, c.config.JiraPersonalTokenPlain(), c.config.JiraSSLVerify
}

// AuthHeaders builds the per-request headers for a service. Content type
// and the client identifier are always present; credential headers only
// when both URL and token exist, so the gateway rejects half-configured
// calls itself.
func (c *Client) AuthHeaders(service string) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Tessera-Client", "tessera/"+common.GetVersion())

	switch service {
	case serviceJira:
		url, token, sslVerify := c.jiraCredentials()
		if url != "" && token != "" {
			headers.Set("X-Jira-URL", url)
			headers.Set("X-Jira-Token", token)
			headers.Set("X-Jira-SSL-Verify", strconv.FormatBool(sslVerify))
		}
	case serviceConfluence:
		token := c.config.ConfluencePersonalTokenPlain()
		if c.config.ConfluenceURL != "" && token != "" {
			headers.Set("X-Confluence-URL", c.config.ConfluenceURL)
			headers.Set("X-Confluence-Token", token)
			headers.Set("X-Confluence-SSL-Verify", strconv.FormatBool(c.config.ConfluenceSSLVerify))
		}
	}

	return headers
}

func (c *Client) invoke(ctx context.Context, service, tool string, args map[string]interface{}) ([]map[string]interface{}, error) {
	raw, err := c.gateway.Invoke(ctx, tool, args, c.AuthHeaders(service))
	if err != nil {
		return nil, err
	}
	return unwrapCollection(raw), nil
}

// TestJiraConnection probes Jira through the gateway. Failures of any
// kind are reported in the result, never raised. Missing credentials or a
// bad URL scheme fail before any network call.
func (c *Client) TestJiraConnection(ctx context.Context) *models.ConnectionResult {
	url, token, sslVerify := c.jiraCredentials()
	if url == "" || token == "" {
		return &models.ConnectionResult{Success: false, Error: "Jira URL and Personal Access Token are required"}
	}
	if !models.HasValidScheme(url) {
		return &models.ConnectionResult{Success: false, Error: "Jira URL must start with http:// or https://"}
	}

	raw, err := c.gateway.Invoke(ctx, "jira_get_user_profile",
		map[string]interface{}{"user_identifier": "currentUser()"},
		c.AuthHeaders(serviceJira))
	if err != nil {
		c.logger.Warn().Err(err).Msg("Jira connection test failed")
		return &models.ConnectionResult{Success: false, Error: err.Error()}
	}

	result := identityResult(unwrapObject(raw), url, sslVerify)
	result.Message = "Jira connection successful"
	c.logger.Info().Str("user", result.User).Msg("Jira connection test succeeded")
	return result
}

// TestConfluenceConnection probes Confluence through the gateway with a
// current-user profile lookup, mirroring the Jira test.
func (c *Client) TestConfluenceConnection(ctx context.Context) *models.ConnectionResult {
	url := c.config.ConfluenceURL
	if url == "" || c.config.ConfluencePersonalTokenPlain() == "" {
		return &models.ConnectionResult{Success: false, Error: "Confluence URL and Personal Access Token are required"}
	}
	if !models.HasValidScheme(url) {
		return &models.ConnectionResult{Success: false, Error: "Confluence URL must start with http:// or https://"}
	}

	raw, err := c.gateway.Invoke(ctx, "confluence_get_user_profile",
		map[string]interface{}{}, c.AuthHeaders(serviceConfluence))
	if err != nil {
		c.logger.Warn().Err(err).Msg("Confluence connection test failed")
		return &models.ConnectionResult{Success: false, Error: err.Error()}
	}

	result := identityResult(unwrapObject(raw), url, c.config.ConfluenceSSLVerify)
	result.Message = "Confluence connection successful"
	c.logger.Info().Str("user", result.User).Msg("Confluence connection test succeeded")
	return result
}

// identityResult maps a remote user profile into a successful connection
// result, tolerating whichever identity keys the deployment uses.
func identityResult(profile map[string]interface{}, serverURL string, sslVerify bool) *models.ConnectionResult {
	user := personName(profile)
	if user == "" {
		user = unknownUser
	}
	return &models.ConnectionResult{
		Success: true,
		User:    user,
		UserID:  personID(profile),
		Email:   personEmail(profile),
		ServerInfo: map[string]interface{}{
			"server_url": serverURL,
			"ssl_verify": sslVerify,
		},
	}
}

// TestConnections probes every configured service and returns a result
// per service name. Unconfigured services are omitted.
func (c *Client) TestConnections(ctx context.Context) map[string]*models.ConnectionResult {
	results := map[string]*models.ConnectionResult{}
	if c.config.JiraConfigured() || c.config.LegacyConfigured() {
		results[serviceJira] = c.TestJiraConnection(ctx)
	}
	if c.config.ConfluenceConfigured() {
		results[serviceConfluence] = c.TestConfluenceConnection(ctx)
	}
	return results
}

// GetBoards returns the Jira agile boards visible to the user
func (c *Client) GetBoards(ctx context.Context) ([]models.Board, error) {
	items, err := c.invoke(ctx, serviceJira, "jira_get_agile_boards", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	boards := make([]models.Board, 0, len(items))
	for _, item := range items {
		boards = append(boards, models.Board{
			ID:       intAt(item, "id"),
			Name:     stringAt(item, "name"),
			Type:     stringAt(item, "type"),
			Location: nestedString(item, "location", "name"),
		})
	}

	c.logger.Debug().Int("count", len(boards)).Msg("Retrieved boards")
	return boards, nil
}

// GetSprints returns the sprints on a board, optionally filtered by state
func (c *Client) GetSprints(ctx context.Context, boardID int, state string) ([]models.Sprint, error) {
	args := map[string]interface{}{"board_id": strconv.Itoa(boardID)}
	if state != "" {
		args["state"] = state
	}
	items, err := c.invoke(ctx, serviceJira, "jira_get_sprints_from_board", args)
	if err != nil {
		return nil, err
	}

	sprints := make([]models.Sprint, 0, len(items))
	for _, item := range items {
		sprints = append(sprints, models.Sprint{
			ID:        intAt(item, "id"),
			Name:      stringAt(item, "name"),
			State:     stringAt(item, "state"),
			StartDate: stringAt(item, "startDate"),
			EndDate:   stringAt(item, "endDate"),
			Goal:      stringAt(item, "goal"),
		})
	}

	c.logger.Debug().Int("board_id", boardID).Int("count", len(sprints)).Msg("Retrieved sprints")
	return sprints, nil
}

// SearchTickets runs a JQL query and returns flattened tickets
func (c *Client) SearchTickets(ctx context.Context, jql string, maxResults int) ([]models.Ticket, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	items, err := c.invoke(ctx, serviceJira, "jira_search", map[string]interface{}{
		"jql":   jql,
		"limit": maxResults,
	})
	if err != nil {
		return nil, err
	}

	tickets := make([]models.Ticket, 0, len(items))
	for _, item := range items {
		tickets = append(tickets, mapTicket(item))
	}

	c.logger.Debug().Str("jql", jql).Int("count", len(tickets)).Msg("Searched tickets")
	return tickets, nil
}

func mapTicket(item map[string]interface{}) models.Ticket {
	// Search responses vary: flattened issues carry fields at the top
	// level, raw API shapes nest them under "fields".
	fields, _ := item["fields"].(map[string]interface{})
	if fields == nil {
		fields = item
	}

	return models.Ticket{
		Key:         stringAt(item, "key"),
		Summary:     stringAt(fields, "summary"),
		Status:      firstNonEmpty(nestedString(fields, "status", "name"), stringAt(fields, "status")),
		Assignee:    firstNonEmpty(personName(fields["assignee"]), stringAt(fields, "assignee")),
		Reporter:    firstNonEmpty(personName(fields["reporter"]), stringAt(fields, "reporter")),
		Priority:    firstNonEmpty(nestedString(fields, "priority", "name"), stringAt(fields, "priority")),
		IssueType:   firstNonEmpty(nestedString(fields, "issuetype", "name"), stringAt(fields, "issue_type")),
		Created:     stringAt(fields, "created"),
		Updated:     stringAt(fields, "updated"),
		Description: stringAt(fields, "description"),
		URL:         stringAt(item, "url"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetTicketHistory returns the changelog of a ticket as flattened entries
func (c *Client) GetTicketHistory(ctx context.Context, ticketKey string) ([]models.TicketHistoryEntry, error) {
	if ticketKey == "" {
		return nil, &ValidationError{Errors: []string{"Ticket key is required"}}
	}

	raw, err := c.gateway.Invoke(ctx, "jira_get_issue", map[string]interface{}{
		"issue_key": ticketKey,
		"expand":    "changelog",
	}, c.AuthHeaders(serviceJira))
	if err != nil {
		return nil, err
	}

	issue := unwrapObject(raw)
	if issue == nil {
		return []models.TicketHistoryEntry{}, nil
	}

	histories := unwrapHistories(issue)
	entries := make([]models.TicketHistoryEntry, 0, len(histories))
	for _, h := range histories {
		entry := models.TicketHistoryEntry{
			Author:  personName(h["author"]),
			Created: stringAt(h, "created"),
		}
		if rawItems, ok := h["items"].([]interface{}); ok {
			for _, ri := range rawItems {
				item, ok := ri.(map[string]interface{})
				if !ok {
					continue
				}
				entry.Items = append(entry.Items, models.TicketHistoryItem{
					Field: stringAt(item, "field"),
					From:  firstNonEmpty(stringAt(item, "fromString"), stringAt(item, "from")),
					To:    firstNonEmpty(stringAt(item, "toString"), stringAt(item, "to")),
				})
			}
		}
		entries = append(entries, entry)
	}

	c.logger.Debug().Str("ticket", ticketKey).Int("count", len(entries)).Msg("Retrieved ticket history")
	return entries, nil
}

func unwrapHistories(issue map[string]interface{}) []map[string]interface{} {
	changelog, ok := issue["changelog"].(map[string]interface{})
	if !ok {
		return nil
	}
	rawHistories, ok := changelog["histories"].([]interface{})
	if !ok {
		return nil
	}
	histories := make([]map[string]interface{}, 0, len(rawHistories))
	for _, rh := range rawHistories {
		if h, ok := rh.(map[string]interface{}); ok {
			histories = append(histories, h)
		}
	}
	return histories
}

// CreateTicket creates a Jira issue. Like connection tests, every failure
// is reported in the result rather than raised, so callers always get a
// uniform success/error shape.
func (c *Client) CreateTicket(ctx context.Context, req models.TicketRequest) *models.TicketResult {
	var missing []string
	if req.Summary == "" {
		missing = append(missing, "summary")
	}
	if req.Project == "" {
		missing = append(missing, "project")
	}
	if req.IssueType == "" {
		missing = append(missing, "issuetype")
	}
	if len(missing) > 0 {
		return &models.TicketResult{Success: false, Error: "Missing required fields: " + strings.Join(missing, ", ")}
	}

	args := map[string]interface{}{
		"project_key": req.Project,
		"summary":     req.Summary,
		"issue_type":  req.IssueType,
	}
	if req.Description != "" {
		args["description"] = req.Description
	}
	if req.Priority != "" {
		args["priority"] = req.Priority
	}
	if len(req.Labels) > 0 {
		args["labels"] = req.Labels
	}
	for k, v := range req.Fields {
		args[k] = v
	}

	raw, err := c.gateway.Invoke(ctx, "jira_create_issue", args, c.AuthHeaders(serviceJira))
	if err != nil {
		c.logger.Warn().Err(err).Str("project", req.Project).Msg("Ticket creation failed")
		return &models.TicketResult{Success: false, Error: err.Error()}
	}

	created := unwrapObject(raw)
	key := stringAt(created, "key")
	if key == "" {
		return &models.TicketResult{Success: false, Error: "Gateway returned no ticket key"}
	}

	c.logger.Info().Str("ticket", key).Msg("Created ticket")
	return &models.TicketResult{
		Success: true,
		Key:     key,
		URL:     fmt.Sprintf("%s/browse/%s", c.jiraBaseURL(), key),
	}
}

func (c *Client) jiraBaseURL() string {
	if c.config.JiraURL != "" {
		return c.config.JiraURL
	}
	return c.config.ServerURL
}

// GetSpaces returns the Confluence spaces visible to the user
func (c *Client) GetSpaces(ctx context.Context) ([]models.Space, error) {
	items, err := c.invoke(ctx, serviceConfluence, "confluence_get_spaces", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	spaces := make([]models.Space, 0, len(items))
	for _, item := range items {
		spaces = append(spaces, models.Space{
			Key:  stringAt(item, "key"),
			Name: stringAt(item, "name"),
			Type: stringAt(item, "type"),
			URL:  stringAt(item, "url"),
		})
	}

	c.logger.Debug().Int("count", len(spaces)).Msg("Retrieved spaces")
	return spaces, nil
}

// GetPages returns the pages in a Confluence space
func (c *Client) GetPages(ctx context.Context, spaceKey string, limit int) ([]models.Page, error) {
	if spaceKey == "" {
		return nil, &ValidationError{Errors: []string{"Space key is required"}}
	}
	if limit <= 0 {
		limit = 25
	}

	items, err := c.invoke(ctx, serviceConfluence, "confluence_get_pages_from_space", map[string]interface{}{
		"space_key": spaceKey,
		"limit":     limit,
	})
	if err != nil {
		return nil, err
	}

	pages := make([]models.Page, 0, len(items))
	for _, item := range items {
		pages = append(pages, mapPage(item))
	}

	c.logger.Debug().Str("space", spaceKey).Int("count", len(pages)).Msg("Retrieved pages")
	return pages, nil
}

// SearchContent runs a CQL search across Confluence
func (c *Client) SearchContent(ctx context.Context, query string, limit int) ([]models.Page, error) {
	if limit <= 0 {
		limit = 25
	}

	items, err := c.invoke(ctx, serviceConfluence, "confluence_search", map[string]interface{}{
		"query": query,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}

	pages := make([]models.Page, 0, len(items))
	for _, item := range items {
		pages = append(pages, mapPage(item))
	}

	c.logger.Debug().Str("query", query).Int("count", len(pages)).Msg("Searched content")
	return pages, nil
}

func mapPage(item map[string]interface{}) models.Page {
	return models.Page{
		ID:       firstNonEmpty(stringAt(item, "id"), stringAt(item, "page_id")),
		Title:    stringAt(item, "title"),
		SpaceKey: firstNonEmpty(nestedString(item, "space", "key"), stringAt(item, "space_key")),
		Author:   firstNonEmpty(personName(item["author"]), stringAt(item, "author")),
		Created:  stringAt(item, "created"),
		Updated:  firstNonEmpty(stringAt(item, "updated"), stringAt(item, "last_modified")),
		URL:      stringAt(item, "url"),
		Excerpt:  stringAt(item, "excerpt"),
	}
}
