package config

import (
	"github.com/bobmcallan/sfpark-mcp/internal/arcgis"
	common "github.com/bobmcallan/sfpark-mcp/internal/common"
)

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4250,
			Host: "localhost",
		},
		Upstream: UpstreamConfig{
			URL:            arcgis.DefaultURL,
			TimeoutSeconds: 10,
			MaxResponseMB:  50,
		},
		MCP: MCPConfig{
			Name:             "sf-parking",
			RPCPath:          "/api/mcp",
			SSEPath:          "/api/sse",
			MessagePath:      "/api/messages",
			StreamablePath:   "/mcp",
			KeepAlive:        true,
			KeepAliveSeconds: 30,
		},
		Logging: common.LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console"},
			FilePath:   "logs/sfpark.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}
