// Package parking maps parking tool invocations onto ArcGIS spatial queries.
package parking

import "fmt"

// Tool names.
const (
	ToolBBox     = "get_parking_by_bbox"
	ToolStreet   = "get_parking_by_street"
	ToolLocation = "get_parking_by_location"
)

// Parameter names.
const (
	ParamMinLat     = "min_lat"
	ParamMinLon     = "min_lon"
	ParamMaxLat     = "max_lat"
	ParamMaxLon     = "max_lon"
	ParamStreetName = "street_name"
	ParamLatitude   = "latitude"
	ParamLongitude  = "longitude"
	ParamMaxRecords = "max_records"
)

// MaxRecordCap is the largest page any tool may request.
const MaxRecordCap = 1000

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	TypeNumber ParamType = "number"
	TypeString ParamType = "string"
)

// Param describes one tool parameter.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any
}

// ToolDefinition describes one tool and binds it to its argument parser.
type ToolDefinition struct {
	Name           string
	Description    string
	Params         []Param
	DefaultRecords int
	MaxRecordCap   int

	parse func(ToolDefinition, map[string]any) (Args, error)
}

// Required returns the names of the required parameters in declaration order.
func (d ToolDefinition) Required() []string {
	var names []string
	for _, p := range d.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Validate checks raw arguments against the definition and returns the
// typed arguments for the tool.
func (d ToolDefinition) Validate(raw map[string]any) (Args, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	return d.parse(d, raw)
}

// Registry is the fixed, read-only tool catalog. It is safe for concurrent use.
type Registry struct {
	tools []ToolDefinition
	index map[string]int
}

// NewRegistry returns the catalog of the three parking tools.
func NewRegistry() *Registry {
	tools := []ToolDefinition{
		bboxTool(),
		streetTool(),
		locationTool(),
	}
	index := make(map[string]int, len(tools))
	for i, t := range tools {
		index[t.Name] = i
	}
	return &Registry{tools: tools, index: index}
}

// ListTools returns the definitions in stable order: bbox, street, location.
func (r *Registry) ListTools() []ToolDefinition {
	result := make([]ToolDefinition, len(r.tools))
	copy(result, r.tools)
	return result
}

// Tool returns the definition for name, or an unknown-tool error.
func (r *Registry) Tool(name string) (ToolDefinition, error) {
	i, ok := r.index[name]
	if !ok {
		return ToolDefinition{}, &ToolError{
			Kind:    ErrKindUnknownTool,
			Tool:    name,
			Message: fmt.Sprintf("unknown tool: %s", name),
		}
	}
	return r.tools[i], nil
}

func maxRecordsParam(def int) Param {
	return Param{
		Name:        ParamMaxRecords,
		Type:        TypeNumber,
		Description: fmt.Sprintf("Maximum number of records to return (default: %d, max: %d)", def, MaxRecordCap),
		Default:     def,
	}
}

func bboxTool() ToolDefinition {
	return ToolDefinition{
		Name:        ToolBBox,
		Description: "Get parking blockface data within a bounding box (lat/lon coordinates). Returns street parking availability, rates, and location information for SF parking zones.",
		Params: []Param{
			{Name: ParamMinLat, Type: TypeNumber, Required: true, Description: "Minimum latitude (south boundary)"},
			{Name: ParamMinLon, Type: TypeNumber, Required: true, Description: "Minimum longitude (west boundary)"},
			{Name: ParamMaxLat, Type: TypeNumber, Required: true, Description: "Maximum latitude (north boundary)"},
			{Name: ParamMaxLon, Type: TypeNumber, Required: true, Description: "Maximum longitude (east boundary)"},
			maxRecordsParam(100),
		},
		DefaultRecords: 100,
		MaxRecordCap:   MaxRecordCap,
		parse:          parseBBoxArgs,
	}
}

func streetTool() ToolDefinition {
	return ToolDefinition{
		Name:        ToolStreet,
		Description: "Search for parking blockface data by street name. Returns availability, rates, and location information for matching streets in San Francisco.",
		Params: []Param{
			{Name: ParamStreetName, Type: TypeString, Required: true, Description: "Street name to search for (e.g., 'Market', 'Mission')"},
			maxRecordsParam(50),
		},
		DefaultRecords: 50,
		MaxRecordCap:   MaxRecordCap,
		parse:          parseStreetArgs,
	}
}

func locationTool() ToolDefinition {
	return ToolDefinition{
		Name:        ToolLocation,
		Description: "Get parking blockface data near a specific point (lat/lon). Searches within approximately 200 meters of the given coordinates.",
		Params: []Param{
			{Name: ParamLatitude, Type: TypeNumber, Required: true, Description: "Latitude of the location"},
			{Name: ParamLongitude, Type: TypeNumber, Required: true, Description: "Longitude of the location"},
			maxRecordsParam(20),
		},
		DefaultRecords: 20,
		MaxRecordCap:   MaxRecordCap,
		parse:          parseLocationArgs,
	}
}
