package config

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X github.com/bobmcallan/sfpark-mcp/internal/config.Version=v1.2.0"
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// BuildInfo identifies the running binary. The MCP handshake, the /api and
// /api/mcp documents, /api/version and the upstream User-Agent all report it.
type BuildInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
}

// Info returns the build metadata linked into the binary.
func Info() BuildInfo {
	return BuildInfo{Version: Version, Build: Build, GitCommit: GitCommit}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", b.Version, b.Build, b.GitCommit)
}

// UserAgent is the header value sent to the ArcGIS service.
func (b BuildInfo) UserAgent() string {
	return "sfpark-mcp/" + b.Version
}
