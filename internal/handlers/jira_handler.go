package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/interfaces"
	"github.com/ternarybob/tessera/internal/models"
	"github.com/ternarybob/tessera/internal/services/atlassian"
	"github.com/ternarybob/tessera/internal/services/config"
)

// JiraHandler serves Jira operations through the shared gateway
type JiraHandler struct {
	configService *config.Service
	gateway       interfaces.GatewayManager
	logger        arbor.ILogger
}

// NewJiraHandler creates a new Jira handler
func NewJiraHandler(configService *config.Service, gateway interfaces.GatewayManager, logger arbor.ILogger) *JiraHandler {
	return &JiraHandler{
		configService: configService,
		gateway:       gateway,
		logger:        logger,
	}
}

// clientFor builds a client from the user's stored configuration and makes
// sure the gateway is serving before any call goes out.
func (h *JiraHandler) clientFor(ctx context.Context, w http.ResponseWriter, userID string) *atlassian.Client {
	cfg, err := h.configService.GetMCPConfig(ctx, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to load configuration")
		return nil
	}
	if cfg == nil {
		WriteError(w, http.StatusNotFound, "No MCP configuration found for user")
		return nil
	}

	client, err := atlassian.NewClient(cfg, h.gateway, h.logger)
	if err != nil {
		WriteClientError(w, err)
		return nil
	}

	if !h.gateway.EnsureRunning(ctx) {
		WriteError(w, http.StatusBadGateway, "MCP gateway is not available")
		return nil
	}

	return client
}

// BoardsHandler returns the user's visible agile boards
func (h *JiraHandler) BoardsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	client := h.clientFor(r.Context(), w, userID)
	if client == nil {
		return
	}

	boards, err := client.GetBoards(r.Context())
	if err != nil {
		WriteClientError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"boards": boards,
	})
}

// SprintsHandler returns the sprints on a board
func (h *JiraHandler) SprintsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	boardID, err := strconv.Atoi(r.URL.Query().Get("board_id"))
	if err != nil || boardID <= 0 {
		WriteError(w, http.StatusBadRequest, "A numeric board_id parameter is required")
		return
	}

	client := h.clientFor(r.Context(), w, userID)
	if client == nil {
		return
	}

	sprints, err := client.GetSprints(r.Context(), boardID, r.URL.Query().Get("state"))
	if err != nil {
		WriteClientError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"sprints": sprints,
	})
}

// SearchHandler runs a JQL query
func (h *JiraHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	jql := r.URL.Query().Get("jql")
	if jql == "" {
		WriteError(w, http.StatusBadRequest, "A jql parameter is required")
		return
	}
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("max_results"))

	client := h.clientFor(r.Context(), w, userID)
	if client == nil {
		return
	}

	tickets, err := client.SearchTickets(r.Context(), jql, maxResults)
	if err != nil {
		WriteClientError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"tickets": tickets,
	})
}

// HistoryHandler returns a ticket's changelog
func (h *JiraHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	ticketKey := r.URL.Query().Get("ticket")
	if ticketKey == "" {
		WriteError(w, http.StatusBadRequest, "A ticket parameter is required")
		return
	}

	client := h.clientFor(r.Context(), w, userID)
	if client == nil {
		return
	}

	history, err := client.GetTicketHistory(r.Context(), ticketKey)
	if err != nil {
		WriteClientError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"history": history,
	})
}

// CreateTicketHandler creates a Jira issue. The outcome rides in the
// response body; only transport-level problems produce error statuses.
func (h *JiraHandler) CreateTicketHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	var req models.TicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	client := h.clientFor(r.Context(), w, userID)
	if client == nil {
		return
	}

	result := client.CreateTicket(r.Context(), req)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	WriteJSON(w, status, result)
}
