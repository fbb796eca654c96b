package app

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/common"
	"github.com/ternarybob/tessera/internal/gateway"
	"github.com/ternarybob/tessera/internal/handlers"
	"github.com/ternarybob/tessera/internal/interfaces"
	"github.com/ternarybob/tessera/internal/services/config"
	"github.com/ternarybob/tessera/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	GatewayManager interfaces.GatewayManager

	ConfigService *config.Service

	ConfigHandler     *handlers.ConfigHandler
	JiraHandler       *handlers.JiraHandler
	ConfluenceHandler *handlers.ConfluenceHandler
	APIHandler        *handlers.APIHandler
}

// New creates the application with all dependencies wired. The gateway
// manager is created here and shared; nothing else may spawn gateway
// processes.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, err
	}

	gatewayManager := gateway.NewManager(cfg.Gateway, logger)

	configService := config.NewService(storageManager.ConfigStorage(), gatewayManager, logger)

	return &App{
		Config:            cfg,
		Logger:            logger,
		StorageManager:    storageManager,
		GatewayManager:    gatewayManager,
		ConfigService:     configService,
		ConfigHandler:     handlers.NewConfigHandler(configService, logger),
		JiraHandler:       handlers.NewJiraHandler(configService, gatewayManager, logger),
		ConfluenceHandler: handlers.NewConfluenceHandler(configService, gatewayManager, logger),
		APIHandler:        handlers.NewAPIHandler(logger),
	}, nil
}

// Close shuts down the application components in dependency order
func (a *App) Close(ctx context.Context) error {
	a.GatewayManager.Stop()

	if err := a.StorageManager.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close storage")
		return err
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
