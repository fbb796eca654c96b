package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/interfaces"
	"github.com/ternarybob/tessera/internal/models"
	"github.com/ternarybob/tessera/internal/services/atlassian"
)

// Service manages per-user MCP and AI configurations: partial saves,
// validation, connection testing and client config export.
type Service struct {
	storage  interfaces.ConfigStorage
	gateway  interfaces.GatewayManager
	logger   arbor.ILogger
	validate *validator.Validate
}

// NewService creates a new configuration service
func NewService(storage interfaces.ConfigStorage, gateway interfaces.GatewayManager, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		gateway:  gateway,
		logger:   logger,
		validate: validator.New(),
	}
}

// GetMCPConfig returns the user's configuration, or nil when none exists
func (s *Service) GetMCPConfig(ctx context.Context, userID string) (*models.MCPConfiguration, error) {
	return s.storage.GetMCPConfig(ctx, userID)
}

// SaveMCPConfig applies a partial update to the user's configuration and
// persists it if the result validates. Returns success, the accumulated
// validation messages, and the saved configuration. Nothing is written
// when validation fails.
func (s *Service) SaveMCPConfig(ctx context.Context, userID string, req *MCPConfigRequest) (bool, []string, *models.MCPConfiguration, error) {
	if userID == "" {
		return false, nil, nil, fmt.Errorf("user ID is required")
	}
	if err := s.validate.Struct(req); err != nil {
		return false, []string{fmt.Sprintf("Invalid request: %v", err)}, nil, nil
	}

	config, err := s.storage.GetMCPConfig(ctx, userID)
	if err != nil {
		return false, nil, nil, err
	}
	if config == nil {
		config = models.NewMCPConfiguration(userID)
	}

	if err := applyMCPRequest(config, req); err != nil {
		return false, nil, nil, err
	}

	if errs := config.Validate(); len(errs) > 0 {
		s.logger.Debug().
			Str("user_id", userID).
			Int("errors", len(errs)).
			Msg("Configuration rejected by validation")
		return false, errs, nil, nil
	}

	if err := s.storage.SaveMCPConfig(ctx, config); err != nil {
		return false, nil, nil, err
	}

	s.logger.Info().Str("user_id", userID).Msg("Saved MCP configuration")
	return true, nil, config, nil
}

func applyMCPRequest(config *models.MCPConfiguration, req *MCPConfigRequest) error {
	if req.JiraURL != nil {
		config.JiraURL = strings.TrimSpace(*req.JiraURL)
	}
	if req.JiraPersonalToken != nil {
		if err := config.SetJiraPersonalToken(*req.JiraPersonalToken); err != nil {
			return err
		}
	}
	if req.JiraSSLVerify != nil {
		config.JiraSSLVerify = *req.JiraSSLVerify
	}
	if req.ConfluenceURL != nil {
		config.ConfluenceURL = strings.TrimSpace(*req.ConfluenceURL)
	}
	if req.ConfluencePersonalToken != nil {
		if err := config.SetConfluencePersonalToken(*req.ConfluencePersonalToken); err != nil {
			return err
		}
	}
	if req.ConfluenceSSLVerify != nil {
		config.ConfluenceSSLVerify = *req.ConfluenceSSLVerify
	}
	if req.ServerURL != nil {
		config.ServerURL = strings.TrimSpace(*req.ServerURL)
	}
	if req.PersonalAccessToken != nil {
		if err := config.SetPersonalAccessToken(*req.PersonalAccessToken); err != nil {
			return err
		}
	}
	if req.AdditionalParams != nil {
		config.AdditionalParams = req.AdditionalParams
	}
	if req.IsActive != nil {
		config.IsActive = *req.IsActive
	}
	return nil
}

// DeleteMCPConfig removes the user's configuration
func (s *Service) DeleteMCPConfig(ctx context.Context, userID string) error {
	return s.storage.DeleteMCPConfig(ctx, userID)
}

// TestConnection probes services through the gateway and stamps the
// configuration's last tested time when at least one responds. An empty
// service name tests everything configured; "jira" or "confluence" tests
// just that one. Failures come back as per-service results, not errors;
// a missing configuration or unknown service name is an error.
func (s *Service) TestConnection(ctx context.Context, userID, service string) (map[string]*models.ConnectionResult, error) {
	if service != "" && service != "jira" && service != "confluence" {
		return nil, fmt.Errorf("unknown service: %s", service)
	}

	config, err := s.storage.GetMCPConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, fmt.Errorf("no MCP configuration found for user")
	}

	client, err := atlassian.NewClient(config, s.gateway, s.logger)
	if err != nil {
		return nil, err
	}

	if !s.gateway.EnsureRunning(ctx) {
		results := unavailableResults(config)
		if service != "" {
			results = map[string]*models.ConnectionResult{
				service: {Success: false, Error: "MCP gateway is not available"},
			}
		}
		return results, nil
	}

	var results map[string]*models.ConnectionResult
	switch service {
	case "jira":
		results = map[string]*models.ConnectionResult{"jira": client.TestJiraConnection(ctx)}
	case "confluence":
		results = map[string]*models.ConnectionResult{"confluence": client.TestConfluenceConnection(ctx)}
	default:
		results = client.TestConnections(ctx)
	}

	for _, result := range results {
		if result.Success {
			if err := s.storage.TouchLastTested(ctx, userID); err != nil {
				s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to stamp last tested time")
			}
			break
		}
	}

	return results, nil
}

func unavailableResults(config *models.MCPConfiguration) map[string]*models.ConnectionResult {
	results := map[string]*models.ConnectionResult{}
	failure := func() *models.ConnectionResult {
		return &models.ConnectionResult{Success: false, Error: "MCP gateway is not available"}
	}
	if config.JiraConfigured() || config.LegacyConfigured() {
		results["jira"] = failure()
	}
	if config.ConfluenceConfigured() {
		results["confluence"] = failure()
	}
	return results
}

// GetAIConfig returns the user's AI configuration, or nil when none exists
func (s *Service) GetAIConfig(ctx context.Context, userID string) (*models.AIConfiguration, error) {
	return s.storage.GetAIConfig(ctx, userID)
}

// SaveAIConfig applies a partial update to the user's AI configuration
func (s *Service) SaveAIConfig(ctx context.Context, userID string, req *AIConfigRequest) (bool, []string, *models.AIConfiguration, error) {
	if userID == "" {
		return false, nil, nil, fmt.Errorf("user ID is required")
	}
	if err := s.validate.Struct(req); err != nil {
		return false, []string{fmt.Sprintf("Invalid request: %v", err)}, nil, nil
	}

	config, err := s.storage.GetAIConfig(ctx, userID)
	if err != nil {
		return false, nil, nil, err
	}
	if config == nil {
		config = models.NewAIConfiguration(userID)
	}

	if req.CustomHeaders != nil {
		if err := config.SetCustomHeaders(req.CustomHeaders); err != nil {
			return false, nil, nil, err
		}
	}
	if req.UserIDFromJira != nil {
		config.UserIDFromJira = strings.TrimSpace(*req.UserIDFromJira)
	}
	if req.ModelConfigs != nil {
		config.ModelConfigs = req.ModelConfigs
	}

	// Any update invalidates a prior validation run
	config.IsValidated = false

	if errs := config.Validate(); len(errs) > 0 {
		return false, errs, nil, nil
	}

	if err := s.storage.SaveAIConfig(ctx, config); err != nil {
		return false, nil, nil, err
	}

	s.logger.Info().Str("user_id", userID).Msg("Saved AI configuration")
	return true, nil, config, nil
}

// Status reports the gateway process state
func (s *Service) Status() models.GatewayStatus {
	return s.gateway.Status()
}
