package parking

import (
	"encoding/json"
	"fmt"
	"math"
)

// Args is a validated argument set for one tool. The concrete type is
// selected by tool name: BBoxArgs, StreetArgs or LocationArgs.
type Args interface {
	// ToolName returns the tool the arguments were validated for.
	ToolName() string
	// Query builds the upstream query for these arguments.
	Query() UpstreamQuery
}

// BBoxArgs are the validated arguments of get_parking_by_bbox.
type BBoxArgs struct {
	MinLat     float64
	MinLon     float64
	MaxLat     float64
	MaxLon     float64
	MaxRecords int
}

func (BBoxArgs) ToolName() string       { return ToolBBox }
func (a BBoxArgs) Query() UpstreamQuery { return BuildBBoxQuery(a) }

// StreetArgs are the validated arguments of get_parking_by_street.
type StreetArgs struct {
	StreetName string
	MaxRecords int
}

func (StreetArgs) ToolName() string       { return ToolStreet }
func (a StreetArgs) Query() UpstreamQuery { return BuildStreetQuery(a) }

// LocationArgs are the validated arguments of get_parking_by_location.
type LocationArgs struct {
	Latitude   float64
	Longitude  float64
	MaxRecords int
}

func (LocationArgs) ToolName() string       { return ToolLocation }
func (a LocationArgs) Query() UpstreamQuery { return BuildLocationQuery(a) }

// argReader pulls typed values out of a raw argument map, recording the
// first failure so parse functions stay linear.
type argReader struct {
	tool string
	raw  map[string]any
	err  error
}

func (r *argReader) fail(param, format string, a ...any) {
	if r.err == nil {
		r.err = validationError(r.tool, param, fmt.Sprintf(format, a...))
	}
}

// number reads a required numeric parameter.
func (r *argReader) number(name string) float64 {
	v, ok := r.raw[name]
	if !ok || v == nil {
		r.fail(name, "missing required parameter: %s", name)
		return 0
	}
	f, err := toFloat(v)
	if err != nil {
		r.fail(name, "parameter %s must be a number", name)
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		r.fail(name, "parameter %s must be a finite number", name)
		return 0
	}
	return f
}

// latitude reads a required latitude in [-90, 90].
func (r *argReader) latitude(name string) float64 {
	f := r.number(name)
	if r.err == nil && (f < -90 || f > 90) {
		r.fail(name, "parameter %s must be between -90 and 90, got %v", name, f)
	}
	return f
}

// longitude reads a required longitude in [-180, 180].
func (r *argReader) longitude(name string) float64 {
	f := r.number(name)
	if r.err == nil && (f < -180 || f > 180) {
		r.fail(name, "parameter %s must be between -180 and 180, got %v", name, f)
	}
	return f
}

// text reads a required non-empty string parameter.
func (r *argReader) text(name string) string {
	v, ok := r.raw[name]
	if !ok || v == nil {
		r.fail(name, "missing required parameter: %s", name)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(name, "parameter %s must be a string", name)
		return ""
	}
	if s == "" {
		r.fail(name, "missing required parameter: %s", name)
	}
	return s
}

// records reads the optional max_records parameter, applying the default
// when absent and the cap when too large.
func (r *argReader) records(def ToolDefinition) int {
	v, ok := r.raw[ParamMaxRecords]
	if !ok || v == nil {
		return def.DefaultRecords
	}
	f, err := toFloat(v)
	if err != nil || math.IsNaN(f) {
		r.fail(ParamMaxRecords, "parameter %s must be a number", ParamMaxRecords)
		return 0
	}
	if f < 1 {
		r.fail(ParamMaxRecords, "parameter %s must be at least 1, got %v", ParamMaxRecords, f)
		return 0
	}
	if f >= float64(def.MaxRecordCap) {
		return def.MaxRecordCap
	}
	return clampRecords(int(f), def.MaxRecordCap)
}

// toFloat accepts JSON numbers in their common decoded forms. Strings are
// rejected; the query-string adapter parses its values before dispatch.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func parseBBoxArgs(def ToolDefinition, raw map[string]any) (Args, error) {
	r := &argReader{tool: def.Name, raw: raw}
	a := BBoxArgs{
		MinLat: r.latitude(ParamMinLat),
		MinLon: r.longitude(ParamMinLon),
		MaxLat: r.latitude(ParamMaxLat),
		MaxLon: r.longitude(ParamMaxLon),
	}
	a.MaxRecords = r.records(def)
	if r.err != nil {
		return nil, r.err
	}
	return a, nil
}

func parseStreetArgs(def ToolDefinition, raw map[string]any) (Args, error) {
	r := &argReader{tool: def.Name, raw: raw}
	a := StreetArgs{StreetName: r.text(ParamStreetName)}
	a.MaxRecords = r.records(def)
	if r.err != nil {
		return nil, r.err
	}
	return a, nil
}

func parseLocationArgs(def ToolDefinition, raw map[string]any) (Args, error) {
	r := &argReader{tool: def.Name, raw: raw}
	a := LocationArgs{
		Latitude:  r.latitude(ParamLatitude),
		Longitude: r.longitude(ParamLongitude),
	}
	a.MaxRecords = r.records(def)
	if r.err != nil {
		return nil, r.err
	}
	return a, nil
}
