package server

import "net/http"

const (
	corsQueryMethods = "GET, OPTIONS"
	corsMCPMethods   = "GET, POST, OPTIONS"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mcpCfg := s.app.Config.MCP

	// Plain query-string API
	mux.Handle("/api", s.corsMiddleware(corsQueryMethods)(s.app.QueryHandler))

	// MCP: JSON-RPC over HTTP
	mux.Handle(mcpCfg.RPCPath, s.corsMiddleware(corsMCPMethods)(s.app.RPCHandler))

	// MCP: SSE stream and its message endpoint
	sse := s.app.SSEHandler
	mux.Handle(mcpCfg.SSEPath, s.corsMiddleware(corsMCPMethods)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RouteByMethod(w, r, MethodRouter{http.MethodGet: sse.ServeHTTP})
	})))
	mux.Handle(mcpCfg.MessagePath, s.corsMiddleware(corsMCPMethods)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RouteByMethod(w, r, MethodRouter{http.MethodPost: sse.ServeHTTP})
	})))

	// MCP: streamable HTTP
	mux.Handle(mcpCfg.StreamablePath, s.corsMiddleware(corsMCPMethods)(s.app.MCPHandler))

	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
