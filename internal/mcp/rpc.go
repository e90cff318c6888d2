package mcp

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
)

// maxRPCBodySize caps a single JSON-RPC request body.
const maxRPCBodySize = 1 << 20

// Description is the document returned by GET on the JSON-RPC endpoint.
type Description struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Protocol    string            `json:"protocol"`
	Endpoint    string            `json:"endpoint"`
	Usage       string `json:"usage"`
}

// RPCHandler serves MCP as plain JSON-RPC 2.0 over HTTP POST: one request
// body in, one response body out, no session.
type RPCHandler struct {
	server      *server.MCPServer
	logger      *common.Logger
	description Description
}

// NewRPCHandler creates a JSON-RPC handler mounted at path.
func NewRPCHandler(s *server.MCPServer, name, version, path string, logger *common.Logger) *RPCHandler {
	return &RPCHandler{
		server: s,
		logger: logger,
		description: Description{
			Name:        name,
			Version:     version,
			Description: "MCP server for San Francisco parking data",
			Protocol:    "MCP over HTTP",
			Endpoint:    path,
			Usage:       "Send JSON-RPC 2.0 requests via POST",
		},
	}
}

// Describe returns the server-description document.
func (h *RPCHandler) Describe() Description {
	return h.description
}

func (h *RPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.description)
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (h *RPCHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRPCBodySize))
	if err != nil {
		h.logger.Warn().Str("error", err.Error()).Msg("failed to read JSON-RPC request body")
		writeJSON(w, http.StatusInternalServerError, internalError(err.Error()))
		return
	}

	resp := h.server.HandleMessage(r.Context(), json.RawMessage(body))
	if resp == nil {
		// notification
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// rpcError is a JSON-RPC error envelope written when the request could not
// be handed to the MCP server at all.
type rpcError struct {
	JSONRPC string       `json:"jsonrpc"`
	Error   rpcErrorBody `json:"error"`
	ID      any          `json:"id"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func internalError(message string) rpcError {
	return rpcError{
		JSONRPC: mcp.JSONRPC_VERSION,
		Error:   rpcErrorBody{Code: mcp.INTERNAL_ERROR, Message: message},
		ID:      nil,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
