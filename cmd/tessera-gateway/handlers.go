package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
)

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf(format, args...)),
		},
		IsError: true,
	}
}

func textResult(data []byte) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(data)),
		},
	}
}

// handleUserProfile implements the jira_get_user_profile tool
func handleUserProfile(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		identifier, err := request.RequireString("user_identifier")
		if err != nil || identifier == "" {
			return errorResult("Error: user_identifier parameter is required"), nil
		}

		creds, err := jiraCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		path := "/rest/api/2/myself"
		if identifier != "currentUser()" {
			path = "/rest/api/2/user?username=" + url.QueryEscape(identifier)
		}

		data, err := restGet(ctx, creds, path)
		if err != nil {
			logger.Warn().Err(err).Msg("User profile lookup failed")
			return errorResult("Jira error: %v", err), nil
		}
		return textResult(data), nil
	}
}

// handleSearch implements the jira_search tool
func handleSearch(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jql, err := request.RequireString("jql")
		if err != nil || jql == "" {
			return errorResult("Error: jql parameter is required"), nil
		}
		limit := request.GetInt("limit", 50)

		creds, err := jiraCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		path := fmt.Sprintf("/rest/api/2/search?jql=%s&maxResults=%d", url.QueryEscape(jql), limit)
		data, err := restGet(ctx, creds, path)
		if err != nil {
			logger.Warn().Err(err).Msg("Jira search failed")
			return errorResult("Jira error: %v", err), nil
		}
		return textResult(data), nil
	}
}

// handleAgileBoards implements the jira_get_agile_boards tool
func handleAgileBoards(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		creds, err := jiraCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		data, err := restGet(ctx, creds, "/rest/agile/1.0/board")
		if err != nil {
			logger.Warn().Err(err).Msg("Board listing failed")
			return errorResult("Jira error: %v", err), nil
		}
		return textResult(data), nil
	}
}

// handleSprints implements the jira_get_sprints_from_board tool
func handleSprints(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		boardID, err := request.RequireString("board_id")
		if err != nil || boardID == "" {
			return errorResult("Error: board_id parameter is required"), nil
		}

		creds, err := jiraCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		path := fmt.Sprintf("/rest/agile/1.0/board/%s/sprint", url.PathEscape(boardID))
		if state := request.GetString("state", ""); state != "" {
			path += "?state=" + url.QueryEscape(state)
		}

		data, err := restGet(ctx, creds, path)
		if err != nil {
			logger.Warn().Err(err).Msg("Sprint listing failed")
			return errorResult("Jira error: %v", err), nil
		}
		return textResult(data), nil
	}
}

// handleGetIssue implements the jira_get_issue tool
func handleGetIssue(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		issueKey, err := request.RequireString("issue_key")
		if err != nil || issueKey == "" {
			return errorResult("Error: issue_key parameter is required"), nil
		}

		creds, err := jiraCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		path := "/rest/api/2/issue/" + url.PathEscape(issueKey)
		if expand := request.GetString("expand", ""); expand != "" {
			path += "?expand=" + url.QueryEscape(expand)
		}

		data, err := restGet(ctx, creds, path)
		if err != nil {
			logger.Warn().Err(err).Str("issue", issueKey).Msg("Issue lookup failed")
			return errorResult("Jira error: %v", err), nil
		}
		return textResult(data), nil
	}
}

// handleCreateIssue implements the jira_create_issue tool
func handleCreateIssue(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectKey, err := request.RequireString("project_key")
		if err != nil || projectKey == "" {
			return errorResult("Error: project_key parameter is required"), nil
		}
		summary, err := request.RequireString("summary")
		if err != nil || summary == "" {
			return errorResult("Error: summary parameter is required"), nil
		}

		creds, err := jiraCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		fields := map[string]interface{}{
			"project":   map[string]string{"key": projectKey},
			"summary":   summary,
			"issuetype": map[string]string{"name": request.GetString("issue_type", "Task")},
		}
		if description := request.GetString("description", ""); description != "" {
			fields["description"] = description
		}
		if priority := request.GetString("priority", ""); priority != "" {
			fields["priority"] = map[string]string{"name": priority}
		}
		if labels := request.GetStringSlice("labels", nil); len(labels) > 0 {
			fields["labels"] = labels
		}

		data, err := restPost(ctx, creds, "/rest/api/2/issue", map[string]interface{}{"fields": fields})
		if err != nil {
			logger.Warn().Err(err).Str("project", projectKey).Msg("Issue creation failed")
			return errorResult("Jira error: %v", err), nil
		}
		return textResult(data), nil
	}
}

// handleConfluenceUserProfile implements the confluence_get_user_profile tool
func handleConfluenceUserProfile(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		creds, err := confluenceCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		data, err := restGet(ctx, creds, "/rest/api/user/current")
		if err != nil {
			logger.Warn().Err(err).Msg("Confluence user profile lookup failed")
			return errorResult("Confluence error: %v", err), nil
		}
		return textResult(data), nil
	}
}

// handleConfluenceSearch implements the confluence_search tool
func handleConfluenceSearch(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return errorResult("Error: query parameter is required"), nil
		}
		limit := request.GetInt("limit", 25)

		creds, err := confluenceCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		path := fmt.Sprintf("/rest/api/content/search?cql=%s&limit=%d", url.QueryEscape(query), limit)
		data, err := restGet(ctx, creds, path)
		if err != nil {
			logger.Warn().Err(err).Msg("Confluence search failed")
			return errorResult("Confluence error: %v", err), nil
		}
		return textResult(data), nil
	}
}

// handleSpaces implements the confluence_get_spaces tool
func handleSpaces(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		creds, err := confluenceCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		data, err := restGet(ctx, creds, "/rest/api/space")
		if err != nil {
			logger.Warn().Err(err).Msg("Space listing failed")
			return errorResult("Confluence error: %v", err), nil
		}
		return textResult(data), nil
	}
}

// handleSpacePages implements the confluence_get_pages_from_space tool
func handleSpacePages(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		spaceKey, err := request.RequireString("space_key")
		if err != nil || spaceKey == "" {
			return errorResult("Error: space_key parameter is required"), nil
		}
		limit := request.GetInt("limit", 25)

		creds, err := confluenceCreds(ctx)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		path := fmt.Sprintf("/rest/api/content?spaceKey=%s&type=page&limit=%d", url.QueryEscape(spaceKey), limit)
		data, err := restGet(ctx, creds, path)
		if err != nil {
			logger.Warn().Err(err).Str("space", spaceKey).Msg("Page listing failed")
			return errorResult("Confluence error: %v", err), nil
		}
		return textResult(data), nil
	}
}
