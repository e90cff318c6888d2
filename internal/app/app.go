package app

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/sfpark-mcp/internal/arcgis"
	common "github.com/bobmcallan/sfpark-mcp/internal/common"
	"github.com/bobmcallan/sfpark-mcp/internal/config"
	"github.com/bobmcallan/sfpark-mcp/internal/handlers"
	"github.com/bobmcallan/sfpark-mcp/internal/mcp"
	"github.com/bobmcallan/sfpark-mcp/internal/parking"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger
	Build  config.BuildInfo

	// Core
	Upstream   *arcgis.Client
	Dispatcher *parking.Dispatcher
	MCPServer  *mcpserver.MCPServer

	// HTTP handlers
	QueryHandler   *handlers.QueryHandler
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	RPCHandler     *mcp.RPCHandler
	SSEHandler     *mcp.SSEHandler
	MCPHandler     *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Build:  config.Info(),
	}

	a.Upstream = arcgis.NewClient(cfg.Upstream.URL, logger,
		arcgis.WithTimeout(cfg.Upstream.Timeout()),
		arcgis.WithMaxResponseSize(cfg.Upstream.MaxResponseBytes()),
		arcgis.WithUserAgent(a.Build.UserAgent()),
	)
	a.Dispatcher = parking.NewDispatcher(parking.NewRegistry(), a.Upstream, logger)
	a.MCPServer = mcp.NewServer(cfg.MCP.Name, a.Build.Version, a.Dispatcher, logger)

	a.initHandlers()

	logger.Info().
		Str("upstream", a.Upstream.BaseURL()).
		Str("timeout", a.Upstream.Timeout().String()).
		Str("version", a.Build.Version).
		Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.QueryHandler = handlers.NewQueryHandler(a.Dispatcher, a.Build.Version, a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.Dispatcher.Registry(), a.Upstream.BaseURL(), a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Build)

	a.RPCHandler = mcp.NewRPCHandler(a.MCPServer, a.Config.MCP.Name, a.Build.Version, a.Config.MCP.RPCPath, a.Logger)
	a.SSEHandler = mcp.NewSSEHandler(a.MCPServer, a.Config.MCP, a.Logger)
	a.MCPHandler = mcp.NewHandler(a.MCPServer, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close ends open SSE streams. The HTTP server is shut down separately.
func (a *App) Close(ctx context.Context) error {
	if a.SSEHandler == nil {
		return nil
	}
	return a.SSEHandler.Shutdown(ctx)
}
