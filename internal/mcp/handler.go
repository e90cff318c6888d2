package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
)

// Handler is the HTTP handler for the streamable MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *server.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler creates a stateless streamable HTTP handler over the shared
// MCP server.
func NewHandler(s *server.MCPServer, logger *common.Logger) *Handler {
	return &Handler{
		streamable: server.NewStreamableHTTPServer(s,
			server.WithStateLess(true),
		),
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().Str("method", r.Method).Msg("streamable MCP request")
	h.streamable.ServeHTTP(w, r)
}
