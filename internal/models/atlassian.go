package models

import "time"

// ConnectionResult reports the outcome of a connectivity test against one
// Atlassian service. A failed probe is a result, not an error. Successful
// probes carry the remote identity of the authenticated user.
type ConnectionResult struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message,omitempty"`
	Error      string                 `json:"error,omitempty"`
	User       string                 `json:"user,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
	Email      string                 `json:"email,omitempty"`
	ServerInfo map[string]interface{} `json:"server_info,omitempty"`
}

// Board is a Jira agile board
type Board struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
}

// Sprint is a Jira sprint on a board
type Sprint struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Goal      string `json:"goal,omitempty"`
}

// Ticket is a Jira issue in flattened form. Person fields are resolved
// display names, never nested account objects.
type Ticket struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Status      string `json:"status,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	Reporter    string `json:"reporter,omitempty"`
	Priority    string `json:"priority,omitempty"`
	IssueType   string `json:"issue_type,omitempty"`
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// TicketHistoryEntry is one change record from a ticket's changelog
type TicketHistoryEntry struct {
	Author  string              `json:"author"`
	Created string              `json:"created,omitempty"`
	Items   []TicketHistoryItem `json:"items"`
}

// TicketHistoryItem is a single field transition within a change record
type TicketHistoryItem struct {
	Field string `json:"field"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// TicketResult reports the outcome of a ticket creation attempt. Like
// ConnectionResult, failures are carried in the result rather than raised.
type TicketResult struct {
	Success bool   `json:"success"`
	Key     string `json:"key,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TicketRequest carries the fields for creating a Jira ticket
type TicketRequest struct {
	Project     string            `json:"project"`
	Summary     string            `json:"summary"`
	Description string            `json:"description,omitempty"`
	IssueType   string            `json:"issue_type,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	Labels      []string          `json:"labels,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// Space is a Confluence space
type Space struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Page is a Confluence page in flattened form
type Page struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SpaceKey string `json:"space_key,omitempty"`
	Author   string `json:"author,omitempty"`
	Created  string `json:"created,omitempty"`
	Updated  string `json:"updated,omitempty"`
	URL      string `json:"url,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
}

// GatewayStatus reports the managed gateway process state
type GatewayStatus struct {
	Running   bool      `json:"running"`
	URL       string    `json:"url,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}
