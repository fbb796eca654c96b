package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createUserProfileTool returns the jira_get_user_profile tool definition
func createUserProfileTool() mcp.Tool {
	return mcp.NewTool("jira_get_user_profile",
		mcp.WithDescription("Get a Jira user profile; use currentUser() for the authenticated user"),
		mcp.WithString("user_identifier",
			mcp.Required(),
			mcp.Description("Account ID, username, or currentUser()"),
		),
	)
}

// createSearchTool returns the jira_search tool definition
func createSearchTool() mcp.Tool {
	return mcp.NewTool("jira_search",
		mcp.WithDescription("Search Jira issues with JQL"),
		mcp.WithString("jql",
			mcp.Required(),
			mcp.Description("JQL query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 50)"),
		),
	)
}

// createAgileBoardsTool returns the jira_get_agile_boards tool definition
func createAgileBoardsTool() mcp.Tool {
	return mcp.NewTool("jira_get_agile_boards",
		mcp.WithDescription("List the agile boards visible to the authenticated user"),
	)
}

// createSprintsTool returns the jira_get_sprints_from_board tool definition
func createSprintsTool() mcp.Tool {
	return mcp.NewTool("jira_get_sprints_from_board",
		mcp.WithDescription("List the sprints on an agile board"),
		mcp.WithString("board_id",
			mcp.Required(),
			mcp.Description("Numeric board ID"),
		),
		mcp.WithString("state",
			mcp.Description("Filter: active, future, closed"),
		),
	)
}

// createGetIssueTool returns the jira_get_issue tool definition
func createGetIssueTool() mcp.Tool {
	return mcp.NewTool("jira_get_issue",
		mcp.WithDescription("Get a Jira issue by key, optionally with its changelog"),
		mcp.WithString("issue_key",
			mcp.Required(),
			mcp.Description("Issue key (e.g. PROJ-123)"),
		),
		mcp.WithString("expand",
			mcp.Description("Comma-separated expansions (e.g. changelog)"),
		),
	)
}

// createCreateIssueTool returns the jira_create_issue tool definition
func createCreateIssueTool() mcp.Tool {
	return mcp.NewTool("jira_create_issue",
		mcp.WithDescription("Create a Jira issue"),
		mcp.WithString("project_key",
			mcp.Required(),
			mcp.Description("Target project key"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Issue summary"),
		),
		mcp.WithString("issue_type",
			mcp.Description("Issue type name (default: Task)"),
		),
		mcp.WithString("description",
			mcp.Description("Issue description"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority name"),
		),
		mcp.WithArray("labels",
			mcp.WithStringItems(),
			mcp.Description("Labels to apply"),
		),
	)
}

// createConfluenceUserProfileTool returns the confluence_get_user_profile tool definition
func createConfluenceUserProfileTool() mcp.Tool {
	return mcp.NewTool("confluence_get_user_profile",
		mcp.WithDescription("Get the authenticated Confluence user's profile"),
	)
}

// createConfluenceSearchTool returns the confluence_search tool definition
func createConfluenceSearchTool() mcp.Tool {
	return mcp.NewTool("confluence_search",
		mcp.WithDescription("Search Confluence content with CQL"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("CQL query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 25)"),
		),
	)
}

// createSpacesTool returns the confluence_get_spaces tool definition
func createSpacesTool() mcp.Tool {
	return mcp.NewTool("confluence_get_spaces",
		mcp.WithDescription("List the Confluence spaces visible to the authenticated user"),
	)
}

// createSpacePagesTool returns the confluence_get_pages_from_space tool definition
func createSpacePagesTool() mcp.Tool {
	return mcp.NewTool("confluence_get_pages_from_space",
		mcp.WithDescription("List the pages in a Confluence space"),
		mcp.WithString("space_key",
			mcp.Required(),
			mcp.Description("Space key"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 25)"),
		),
	)
}
