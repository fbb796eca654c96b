package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/interfaces"
	"github.com/ternarybob/tessera/internal/services/atlassian"
	"github.com/ternarybob/tessera/internal/services/config"
)

// ConfluenceHandler serves Confluence operations through the shared gateway
type ConfluenceHandler struct {
	configService *config.Service
	gateway       interfaces.GatewayManager
	logger        arbor.ILogger
}

// NewConfluenceHandler creates a new Confluence handler
func NewConfluenceHandler(configService *config.Service, gateway interfaces.GatewayManager, logger arbor.ILogger) *ConfluenceHandler {
	return &ConfluenceHandler{
		configService: configService,
		gateway:       gateway,
		logger:        logger,
	}
}

func (h *ConfluenceHandler) clientFor(ctx context.Context, w http.ResponseWriter, userID string) *atlassian.Client {
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

// SpacesHandler returns the user's visible Confluence spaces
func (h *ConfluenceHandler) SpacesHandler(w http.ResponseWriter, r *http.Request) {
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

	spaces, err := client.GetSpaces(r.Context())
	if err != nil {
		WriteClientError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"spaces": spaces,
	})
}

// PagesHandler returns the pages in a space
func (h *ConfluenceHandler) PagesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	spaceKey := r.URL.Query().Get("space_key")
	if spaceKey == "" {
		WriteError(w, http.StatusBadRequest, "A space_key parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	client := h.clientFor(r.Context(), w, userID)
	if client == nil {
		return
	}

	pages, err := client.GetPages(r.Context(), spaceKey, limit)
	if err != nil {
		WriteClientError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"pages":  pages,
	})
}

// SearchHandler runs a CQL search across Confluence
func (h *ConfluenceHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		WriteError(w, http.StatusBadRequest, "A query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	client := h.clientFor(r.Context(), w, userID)
	if client == nil {
		return
	}

	pages, err := client.SearchContent(r.Context(), query, limit)
	if err != nil {
		WriteClientError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": pages,
	})
}
