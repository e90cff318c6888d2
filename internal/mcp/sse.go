package mcp

import (
	"context"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
	"github.com/bobmcallan/sfpark-mcp/internal/config"
)

// SSEHandler serves the MCP SSE transport: a long-lived event stream on the
// SSE path and client-to-server messages on the message path. A stream ends
// when the client disconnects or Shutdown is called.
type SSEHandler struct {
	sse         *server.SSEServer
	logger      *common.Logger
	ssePath     string
	messagePath string

	mu      sync.Mutex
	nextID  uint64
	streams map[uint64]context.CancelFunc
}

// NewSSEHandler creates an SSE transport over the shared MCP server.
func NewSSEHandler(s *server.MCPServer, cfg config.MCPConfig, logger *common.Logger) *SSEHandler {
	opts := []server.SSEOption{
		server.WithSSEEndpoint(cfg.SSEPath),
		server.WithMessageEndpoint(cfg.MessagePath),
		server.WithKeepAlive(cfg.KeepAlive),
	}
	if cfg.KeepAlive && cfg.KeepAliveSeconds > 0 {
		opts = append(opts, server.WithKeepAliveInterval(cfg.KeepAliveInterval()))
	}

	return &SSEHandler{
		sse:         server.NewSSEServer(s, opts...),
		logger:      logger,
		ssePath:     cfg.SSEPath,
		messagePath: cfg.MessagePath,
		streams:     make(map[uint64]context.CancelFunc),
	}
}

// SSEPath returns the event stream path.
func (h *SSEHandler) SSEPath() string { return h.ssePath }

// MessagePath returns the client message path.
func (h *SSEHandler) MessagePath() string { return h.messagePath }

// ServeHTTP dispatches on the request path to the stream or message handler.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != h.ssePath {
		h.sse.ServeHTTP(w, r)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	id := h.track(cancel)
	defer h.untrack(id)

	h.logger.Debug().Str("remote", r.RemoteAddr).Int("open_streams", h.open()).Msg("SSE client connected")
	h.sse.ServeHTTP(w, r.WithContext(ctx))
	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("SSE client disconnected")
}

func (h *SSEHandler) track(cancel context.CancelFunc) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.streams[h.nextID] = cancel
	return h.nextID
}

func (h *SSEHandler) untrack(id uint64) {
	h.mu.Lock()
	cancel, ok := h.streams[id]
	delete(h.streams, id)
	h.mu.Unlock()
	if ok {
		cancel()
	}
}

func (h *SSEHandler) open() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.streams)
}

// Shutdown ends every open event stream. mcp-go removes each session as its
// stream returns.
func (h *SSEHandler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(h.streams))
	for _, cancel := range h.streams {
		cancels = append(cancels, cancel)
	}
	h.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if len(cancels) > 0 {
		h.logger.Info().Int("streams", len(cancels)).Msg("SSE streams closed")
	}
	return h.sse.Shutdown(ctx)
}
