package handlers

import (
	"net/http"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
	"github.com/bobmcallan/sfpark-mcp/internal/parking"
)

// ToolLister reports the tool catalog. *parking.Registry satisfies it.
type ToolLister interface {
	ListTools() []parking.ToolDefinition
}

// Health is the body of GET /api/health.
type Health struct {
	Status   string   `json:"status"`
	Tools    []string `json:"tools"`
	Upstream string   `json:"upstream"`
}

// HealthHandler reports whether the service can answer tool calls. It does
// not contact the upstream.
type HealthHandler struct {
	tools    ToolLister
	upstream string
	logger   *common.Logger
}

// NewHealthHandler creates a health handler over the tool catalog and the
// configured upstream endpoint.
func NewHealthHandler(tools ToolLister, upstream string, logger *common.Logger) *HealthHandler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &HealthHandler{tools: tools, upstream: upstream, logger: logger}
}

// ServeHTTP handles GET /api/health. An empty catalog is reported as 503.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	health := Health{Status: "ok", Tools: []string{}, Upstream: h.upstream}
	if h.tools != nil {
		for _, def := range h.tools.ListTools() {
			health.Tools = append(health.Tools, def.Name)
		}
	}

	if len(health.Tools) == 0 {
		h.logger.Warn().Msg("health check failed: no tools registered")
		health.Status = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	writeJSON(w, http.StatusOK, health)
}
