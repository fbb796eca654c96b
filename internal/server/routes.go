package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - MCP configuration
	mux.HandleFunc("/api/config/mcp", s.handleMCPConfigRoute)
	mux.HandleFunc("/api/config/mcp/test", s.app.ConfigHandler.TestConnectionHandler)
	mux.HandleFunc("/api/config/mcp/export", s.app.ConfigHandler.ExportConfigHandler)
	mux.HandleFunc("/api/config/gateway/status", s.app.ConfigHandler.GatewayStatusHandler)

	// API routes - AI configuration
	mux.HandleFunc("/api/config/ai", s.handleAIConfigRoute)

	// API routes - Jira
	mux.HandleFunc("/api/jira/boards", s.app.JiraHandler.BoardsHandler)
	mux.HandleFunc("/api/jira/sprints", s.app.JiraHandler.SprintsHandler)
	mux.HandleFunc("/api/jira/search", s.app.JiraHandler.SearchHandler)
	mux.HandleFunc("/api/jira/history", s.app.JiraHandler.HistoryHandler)
	mux.HandleFunc("/api/jira/tickets", s.app.JiraHandler.CreateTicketHandler)

	// API routes - Confluence
	mux.HandleFunc("/api/confluence/spaces", s.app.ConfluenceHandler.SpacesHandler)
	mux.HandleFunc("/api/confluence/pages", s.app.ConfluenceHandler.PagesHandler)
	mux.HandleFunc("/api/confluence/search", s.app.ConfluenceHandler.SearchHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}

// handleMCPConfigRoute dispatches /api/config/mcp by method
func (s *Server) handleMCPConfigRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.ConfigHandler.GetMCPConfigHandler(w, r)
	case http.MethodPost:
		s.app.ConfigHandler.SaveMCPConfigHandler(w, r)
	case http.MethodDelete:
		s.app.ConfigHandler.DeleteMCPConfigHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAIConfigRoute dispatches /api/config/ai by method
func (s *Server) handleAIConfigRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.ConfigHandler.GetAIConfigHandler(w, r)
	case http.MethodPost:
		s.app.ConfigHandler.SaveAIConfigHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
