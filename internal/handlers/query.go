package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
	"github.com/bobmcallan/sfpark-mcp/internal/parking"
)

// Invoker runs one tool invocation. *parking.Dispatcher satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, name string, raw map[string]any) (*parking.ToolResult, error)
}

// Capabilities is the document returned by GET /api without a tool.
type Capabilities struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Tools       map[string]string `json:"tools"`
	Examples    map[string]string `json:"examples"`
}

// shortTool maps a short query-string tool name to its registry tool and
// the query-string keys it reads.
type shortTool struct {
	tool    string
	keys    []string // query-string keys, in order
	params  []string // matching tool parameter names
	numeric bool     // values are parsed as numbers before dispatch
	missing string   // error when any key is absent
}

var shortTools = map[string]shortTool{
	"bbox": {
		tool:    parking.ToolBBox,
		keys:    []string{"min_lat", "min_lon", "max_lat", "max_lon"},
		params:  []string{parking.ParamMinLat, parking.ParamMinLon, parking.ParamMaxLat, parking.ParamMaxLon},
		numeric: true,
		missing: "Missing required parameters: min_lat, min_lon, max_lat, max_lon",
	},
	"street": {
		tool:    parking.ToolStreet,
		keys:    []string{"name"},
		params:  []string{parking.ParamStreetName},
		missing: "Missing required parameter: name",
	},
	"location": {
		tool:    parking.ToolLocation,
		keys:    []string{"lat", "lon"},
		params:  []string{parking.ParamLatitude, parking.ParamLongitude},
		numeric: true,
		missing: "Missing required parameters: lat, lon",
	},
}

// QueryHandler serves the plain query-string API at /api. It never forwards
// max_records, so every call uses the tool's default record count.
type QueryHandler struct {
	invoker Invoker
	logger  *common.Logger
	caps    Capabilities
}

// NewQueryHandler creates a plain HTTP handler over the dispatcher.
func NewQueryHandler(invoker Invoker, version string, logger *common.Logger) *QueryHandler {
	return &QueryHandler{
		invoker: invoker,
		logger:  logger,
		caps: Capabilities{
			Name:        "sf-parking-api",
			Version:     version,
			Description: "San Francisco parking data API",
			Tools: map[string]string{
				"bbox":     "Get parking in a bounding box",
				"street":   "Search by street name",
				"location": "Find parking near coordinates",
			},
			Examples: map[string]string{
				"bbox":     "/api?tool=bbox&min_lat=37.77&min_lon=-122.42&max_lat=37.78&max_lon=-122.41",
				"street":   "/api?tool=street&name=Market",
				"location": "/api?tool=location&lat=37.7833&lon=-122.4167",
			},
		},
	}
}

// ServeHTTP handles GET /api.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	q := r.URL.Query()
	name := q.Get("tool")
	if name == "" {
		writeJSON(w, http.StatusOK, h.caps)
		return
	}

	st, ok := shortTools[name]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid tool: %s. Use: bbox, street, or location", name))
		return
	}

	if !st.present(q) {
		writeError(w, http.StatusBadRequest, st.missing)
		return
	}
	args, err := st.args(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.invoker.Invoke(r.Context(), st.tool, args)
	if err != nil {
		var te *parking.ToolError
		if errors.As(err, &te) && te.CallerFault() {
			writeError(w, http.StatusBadRequest, st.callerMessage(te))
			return
		}
		h.logger.Error().Str("tool", st.tool).Str("error", err.Error()).Msg("API query failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeRaw(w, http.StatusOK, result.Data)
}

// present reports whether every key of the tool is set and non-empty.
func (st shortTool) present(q url.Values) bool {
	for _, key := range st.keys {
		if q.Get(key) == "" {
			return false
		}
	}
	return true
}

// args maps query-string values onto tool parameters. Numeric tools get
// float64 values; a value that does not parse is reported by its key.
func (st shortTool) args(q url.Values) (map[string]any, error) {
	args := make(map[string]any, len(st.keys))
	for i, key := range st.keys {
		v := q.Get(key)
		if !st.numeric {
			args[st.params[i]] = v
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s must be a number", key)
		}
		args[st.params[i]] = f
	}
	return args, nil
}

// callerMessage rewrites a validation message to name the query-string key
// the caller sent instead of the tool parameter.
func (st shortTool) callerMessage(te *parking.ToolError) string {
	for i, param := range st.params {
		if param == te.Param && st.keys[i] != param {
			return strings.Replace(te.Error(), param, st.keys[i], 1)
		}
	}
	return te.Error()
}
