// Package mcp binds the parking tool registry to mcp-go and exposes it over
// the JSON-RPC, SSE, streamable HTTP and stdio transports.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
	"github.com/bobmcallan/sfpark-mcp/internal/parking"
)

// NewServer creates an MCP server exposing every tool in the dispatcher's
// registry. version is reported in the initialize handshake. One server is
// shared by all transports.
func NewServer(name, version string, d *parking.Dispatcher, logger *common.Logger) *server.MCPServer {
	hooks := &server.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		logger.Debug().Str("session_id", session.SessionID()).Msg("MCP session registered")
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		logger.Debug().Str("session_id", session.SessionID()).Msg("MCP session closed")
	})

	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)

	count := RegisterTools(s, d, logger)
	logger.Info().
		Str("name", name).
		Str("version", version).
		Int("tools", count).
		Msg("MCP server initialized")

	return s
}

// RegisterTools adds one mcp-go tool per registry definition and returns the
// number registered.
func RegisterTools(s *server.MCPServer, d *parking.Dispatcher, logger *common.Logger) int {
	defs := d.Registry().ListTools()
	for _, def := range defs {
		s.AddTool(BuildMCPTool(def), ToolHandler(d, def.Name, logger))
	}
	return len(defs)
}

// BuildMCPTool converts a ToolDefinition into an mcp.Tool with the matching
// input schema.
func BuildMCPTool(def parking.ToolDefinition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, p := range def.Params {
		opts = append(opts, buildParamOption(p))
	}
	return mcp.NewTool(def.Name, opts...)
}

// buildParamOption maps a Param to the appropriate mcp-go tool option.
func buildParamOption(p parking.Param) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if p.Description != "" {
		opts = append(opts, mcp.Description(p.Description))
	}
	if p.Required {
		opts = append(opts, mcp.Required())
	}

	switch p.Type {
	case parking.TypeNumber:
		if n, ok := p.Default.(int); ok {
			opts = append(opts, mcp.DefaultNumber(float64(n)))
		}
		return mcp.WithNumber(p.Name, opts...)
	default:
		return mcp.WithString(p.Name, opts...)
	}
}

// ToolHandler routes an MCP tool call through the dispatcher. Failures are
// returned as isError results so the JSON-RPC exchange itself succeeds.
func ToolHandler(d *parking.Dispatcher, name string, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := d.Invoke(ctx, name, r.GetArguments())
		if err != nil {
			var te *parking.ToolError
			if !errors.As(err, &te) || !te.CallerFault() {
				logger.Error().Str("tool", name).Str("error", err.Error()).Msg("tool call failed")
			}
			return errorResult("Error: " + err.Error()), nil
		}

		text, err := formatResult(result.Data)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(text)},
		}, nil
	}
}

// formatResult re-indents the upstream JSON with two spaces.
func formatResult(data json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", fmt.Errorf("failed to format upstream response: %w", err)
	}
	return buf.String(), nil
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
