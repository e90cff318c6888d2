package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig         `toml:"server"`
	Upstream UpstreamConfig       `toml:"upstream"`
	MCP      MCPConfig            `toml:"mcp"`
	Logging  common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// UpstreamConfig contains settings for the ArcGIS parking service.
type UpstreamConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxResponseMB  int    `toml:"max_response_mb"`
}

// MCPConfig contains MCP transport settings.
type MCPConfig struct {
	Name             string `toml:"name"`
	RPCPath          string `toml:"rpc_path"`
	SSEPath          string `toml:"sse_path"`
	MessagePath      string `toml:"message_path"`
	StreamablePath   string `toml:"streamable_path"`
	KeepAlive        bool   `toml:"keep_alive"`
	KeepAliveSeconds int    `toml:"keep_alive_seconds"`
}

// Timeout returns the upstream request timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// MaxResponseBytes returns the upstream response size cap in bytes.
func (u UpstreamConfig) MaxResponseBytes() int64 {
	return int64(u.MaxResponseMB) << 20
}

// KeepAliveInterval returns the SSE keep-alive ping interval.
func (m MCPConfig) KeepAliveInterval() time.Duration {
	return time.Duration(m.KeepAliveSeconds) * time.Second
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// BaseURL returns the externally visible base URL of the HTTP server.
func (c *Config) BaseURL() string {
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies SFPARK_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("SFPARK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SFPARK_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if u := os.Getenv("SFPARK_UPSTREAM_URL"); u != "" {
		config.Upstream.URL = u
	}
	if timeout := os.Getenv("SFPARK_UPSTREAM_TIMEOUT"); timeout != "" {
		if s, err := strconv.Atoi(timeout); err == nil {
			config.Upstream.TimeoutSeconds = s
		}
	}
	if name := os.Getenv("SFPARK_MCP_NAME"); name != "" {
		config.MCP.Name = name
	}
	if level := os.Getenv("SFPARK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if outputs := os.Getenv("SFPARK_LOG_OUTPUTS"); outputs != "" {
		config.Logging.Outputs = splitList(outputs)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ReservedPaths are routed by the server regardless of configuration. No MCP
// path may reuse one.
var ReservedPaths = []string{"/api", "/api/", "/api/health", "/api/version"}

// Validate returns a list of configuration problems. An empty list means
// the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}

	if c.Upstream.URL == "" {
		issues = append(issues, "upstream.url is required")
	} else if u, err := url.Parse(c.Upstream.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, fmt.Sprintf("upstream.url must be an absolute http(s) URL (got %q)", c.Upstream.URL))
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		issues = append(issues, fmt.Sprintf("upstream.timeout_seconds must be positive (got %d)", c.Upstream.TimeoutSeconds))
	}
	if c.Upstream.MaxResponseMB <= 0 {
		issues = append(issues, fmt.Sprintf("upstream.max_response_mb must be positive (got %d)", c.Upstream.MaxResponseMB))
	}

	paths := map[string]string{
		"mcp.rpc_path":        c.MCP.RPCPath,
		"mcp.sse_path":        c.MCP.SSEPath,
		"mcp.message_path":    c.MCP.MessagePath,
		"mcp.streamable_path": c.MCP.StreamablePath,
	}
	seen := make(map[string]string, len(paths)+len(ReservedPaths))
	for _, p := range ReservedPaths {
		seen[p] = "a fixed route"
	}
	for _, key := range []string{"mcp.rpc_path", "mcp.sse_path", "mcp.message_path", "mcp.streamable_path"} {
		p := paths[key]
		if !strings.HasPrefix(p, "/") {
			issues = append(issues, fmt.Sprintf("%s must start with / (got %q)", key, p))
			continue
		}
		if other, dup := seen[p]; dup {
			issues = append(issues, fmt.Sprintf("%s duplicates %s (%s)", key, other, p))
			continue
		}
		seen[p] = key
	}
	if c.MCP.KeepAlive && c.MCP.KeepAliveSeconds <= 0 {
		issues = append(issues, "mcp.keep_alive_seconds must be positive when keep_alive is enabled")
	}

	return issues
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
