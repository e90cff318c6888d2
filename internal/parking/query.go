package parking

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Fixed ArcGIS query constants. Inputs and outputs are always WGS-84.
const (
	GeometryTypeEnvelope = "esriGeometryEnvelope"
	SpatialRelIntersects = "esriSpatialRelIntersects"
	SpatialRefWGS84      = "4326"

	whereAll = "1=1"
)

// LocationOffset is the half-width in decimal degrees of the envelope built
// around a point by get_parking_by_location. It approximates 200 m at San
// Francisco's latitude and is not a geodesic conversion.
const LocationOffset = 0.0018

// Envelope is an axis-aligned rectangle in longitude (x) and latitude (y).
// Field order matches the JSON the upstream expects.
type Envelope struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// UpstreamQuery is the canonical parameter set for one spatial query.
type UpstreamQuery struct {
	Where             string
	Geometry          *Envelope
	GeometryType      string
	SpatialRel        string
	InSR              string
	ResultRecordCount string
}

// Values encodes the query as request parameters. Geometry fields are only
// present when a geometry filter is set.
func (q UpstreamQuery) Values() url.Values {
	v := url.Values{}
	v.Set("where", q.Where)
	if q.Geometry != nil {
		// Envelope holds only float64 fields; Marshal cannot fail.
		geom, _ := json.Marshal(q.Geometry)
		v.Set("geometry", string(geom))
		v.Set("geometryType", q.GeometryType)
		v.Set("spatialRel", q.SpatialRel)
		v.Set("inSR", q.InSR)
	}
	v.Set("resultRecordCount", q.ResultRecordCount)
	return v
}

// envelopeQuery returns an intersects query over env.
func envelopeQuery(env Envelope, records int) UpstreamQuery {
	return UpstreamQuery{
		Where:             whereAll,
		Geometry:          &env,
		GeometryType:      GeometryTypeEnvelope,
		SpatialRel:        SpatialRelIntersects,
		InSR:              SpatialRefWGS84,
		ResultRecordCount: strconv.Itoa(records),
	}
}

// BuildBBoxQuery builds the query for get_parking_by_bbox.
func BuildBBoxQuery(a BBoxArgs) UpstreamQuery {
	return envelopeQuery(Envelope{
		XMin: a.MinLon,
		YMin: a.MinLat,
		XMax: a.MaxLon,
		YMax: a.MaxLat,
	}, a.MaxRecords)
}

// BuildStreetQuery builds the query for get_parking_by_street.
func BuildStreetQuery(a StreetArgs) UpstreamQuery {
	return UpstreamQuery{
		Where:             StreetWhereClause(a.StreetName),
		ResultRecordCount: strconv.Itoa(a.MaxRecords),
	}
}

// BuildLocationQuery builds the query for get_parking_by_location.
func BuildLocationQuery(a LocationArgs) UpstreamQuery {
	return envelopeQuery(Envelope{
		XMin: a.Longitude - LocationOffset,
		YMin: a.Latitude - LocationOffset,
		XMax: a.Longitude + LocationOffset,
		YMax: a.Latitude + LocationOffset,
	}, a.MaxRecords)
}

// StreetWhereClause returns a case-insensitive substring match on
// STREET_NAME. Single quotes are doubled so the name cannot terminate the
// string literal.
func StreetWhereClause(name string) string {
	escaped := strings.ReplaceAll(strings.ToUpper(name), "'", "''")
	return "STREET_NAME LIKE '%" + escaped + "%'"
}

// clampRecords caps n at limit. Values below one are rejected during
// validation and never reach here.
func clampRecords(n, limit int) int {
	return min(n, limit)
}
