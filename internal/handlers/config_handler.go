package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/services/atlassian"
	"github.com/ternarybob/tessera/internal/services/config"
)

// ConfigHandler serves the configuration API
type ConfigHandler struct {
	service *config.Service
	logger  arbor.ILogger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(service *config.Service, logger arbor.ILogger) *ConfigHandler {
	return &ConfigHandler{
		service: service,
		logger:  logger,
	}
}

// GetMCPConfigHandler returns the user's MCP configuration without tokens
func (h *ConfigHandler) GetMCPConfigHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	cfg, err := h.service.GetMCPConfig(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load MCP configuration")
		WriteError(w, http.StatusInternalServerError, "Failed to load configuration")
		return
	}
	if cfg == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"config": nil,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"config": cfg.ToMap(false),
	})
}

// SaveMCPConfigHandler applies a partial configuration update
func (h *ConfigHandler) SaveMCPConfigHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	var req config.MCPConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ok, validationErrors, cfg, err := h.service.SaveMCPConfig(r.Context(), userID, &req)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save MCP configuration")
		WriteError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}
	if !ok {
		WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status": "error",
			"errors": validationErrors,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"config": cfg.ToMap(false),
	})
}

// DeleteMCPConfigHandler removes the user's MCP configuration
func (h *ConfigHandler) DeleteMCPConfigHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	if err := h.service.DeleteMCPConfig(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to delete MCP configuration")
		WriteError(w, http.StatusInternalServerError, "Failed to delete configuration")
		return
	}

	WriteSuccess(w, "Configuration deleted")
}

// TestConnectionHandler probes configured services through the gateway.
// An optional {"service": "jira"|"confluence"} body narrows the test to
// one service.
func (h *ConfigHandler) TestConnectionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	var req struct {
		Service string `json:"service"`
	}
	if r.Body != nil {
		// Body is optional; decode failures just mean "test everything"
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	results, err := h.service.TestConnection(r.Context(), userID, req.Service)
	if err != nil {
		var validationErr *atlassian.ValidationError
		if errors.As(err, &validationErr) {
			WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"status": "error",
				"errors": validationErr.Errors,
			})
			return
		}
		if strings.Contains(err.Error(), "unknown service") {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.Contains(err.Error(), "no MCP configuration") {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Connection test failed")
		WriteError(w, http.StatusInternalServerError, "Connection test failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": results,
	})
}

// ExportConfigHandler renders the user's configuration as an mcpServers
// document with decrypted credentials
func (h *ConfigHandler) ExportConfigHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	doc, err := h.service.ExportServerConfig(r.Context(), userID)
	if err != nil {
		if strings.Contains(err.Error(), "no MCP configuration") {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}

// GatewayStatusHandler reports the managed gateway process state
func (h *ConfigHandler) GatewayStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"gateway": h.service.Status(),
	})
}

// GetAIConfigHandler returns the user's AI configuration
func (h *ConfigHandler) GetAIConfigHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	cfg, err := h.service.GetAIConfig(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load AI configuration")
		WriteError(w, http.StatusInternalServerError, "Failed to load configuration")
		return
	}

	var payload interface{}
	if cfg != nil {
		payload = cfg.ToMap()
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"config": payload,
	})
}

// SaveAIConfigHandler applies a partial AI configuration update
func (h *ConfigHandler) SaveAIConfigHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := RequireUser(w, r)
	if userID == "" {
		return
	}

	var req config.AIConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ok, validationErrors, cfg, err := h.service.SaveAIConfig(r.Context(), userID, &req)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save AI configuration")
		WriteError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}
	if !ok {
		WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status": "error",
			"errors": validationErrors,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"config": cfg.ToMap(),
	})
}
