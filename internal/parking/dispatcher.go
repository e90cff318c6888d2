package parking

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
)

// Querier performs one upstream spatial query.
type Querier interface {
	Query(ctx context.Context, params url.Values) (json.RawMessage, error)
}

// ToolResult is a successful invocation: the query sent and the upstream
// payload, unmodified.
type ToolResult struct {
	Tool  string
	Query UpstreamQuery
	Data  json.RawMessage
}

// Dispatcher resolves tool invocations against the registry and runs them
// against the upstream. It holds no per-request state.
type Dispatcher struct {
	registry *Registry
	upstream Querier
	logger   *common.Logger
}

// NewDispatcher creates a dispatcher over the given registry and upstream.
// A nil logger discards output.
func NewDispatcher(registry *Registry, upstream Querier, logger *common.Logger) *Dispatcher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Dispatcher{
		registry: registry,
		upstream: upstream,
		logger:   logger,
	}
}

// Registry returns the tool catalog the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Prepare validates an invocation and builds its upstream query without
// performing any I/O.
func (d *Dispatcher) Prepare(name string, raw map[string]any) (UpstreamQuery, error) {
	def, err := d.registry.Tool(name)
	if err != nil {
		return UpstreamQuery{}, err
	}
	args, err := def.Validate(raw)
	if err != nil {
		return UpstreamQuery{}, err
	}
	return args.Query(), nil
}

// Invoke runs a tool: validate, build the query, make exactly one upstream
// call and wrap the result. Any error is a *ToolError; the upstream is never
// called when validation fails and failed calls are not retried.
func (d *Dispatcher) Invoke(ctx context.Context, name string, raw map[string]any) (*ToolResult, error) {
	query, err := d.Prepare(name, raw)
	if err != nil {
		d.logger.Debug().Str("tool", name).Str("error", err.Error()).Msg("tool invocation rejected")
		return nil, err
	}

	start := time.Now()
	data, err := d.upstream.Query(ctx, query.Values())
	duration := time.Since(start)
	if err != nil {
		d.logger.Warn().
			Str("tool", name).
			Int64("duration_ms", duration.Milliseconds()).
			Str("error", err.Error()).
			Msg("upstream query failed")
		return nil, upstreamError(name, err)
	}

	d.logger.Debug().
		Str("tool", name).
		Str("record_count", query.ResultRecordCount).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("tool invocation complete")

	return &ToolResult{Tool: name, Query: query, Data: data}, nil
}
