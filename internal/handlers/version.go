package handlers

import (
	"net/http"

	"github.com/bobmcallan/sfpark-mcp/internal/config"
)

// VersionHandler serves the build metadata.
type VersionHandler struct {
	info config.BuildInfo
}

func NewVersionHandler(info config.BuildInfo) *VersionHandler {
	return &VersionHandler{info: info}
}

// ServeHTTP handles GET /api/version.
func (h *VersionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.info)
}
