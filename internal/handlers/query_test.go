package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/bobmcallan/sfpark-mcp/internal/arcgis"
	common "github.com/bobmcallan/sfpark-mcp/internal/common"
	"github.com/bobmcallan/sfpark-mcp/internal/parking"
)

// fakeUpstream records queries and returns a canned body or error.
type fakeUpstream struct {
	mu    sync.Mutex
	calls []url.Values
	body  string
	err   error
}

func (f *fakeUpstream) Query(_ context.Context, params url.Values) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.body), nil
}

func newQueryHandler(up *fakeUpstream) *QueryHandler {
	logger := common.NewSilentLogger()
	d := parking.NewDispatcher(parking.NewRegistry(), up, logger)
	return NewQueryHandler(d, "v1.4.0", logger)
}

func serveQuery(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return w, body
}

func TestQueryHandler_NoTool(t *testing.T) {
	up := &fakeUpstream{body: `{}`}
	w, body := serveQuery(t, newQueryHandler(up), "/api")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if body["name"] != "sf-parking-api" {
		t.Errorf("expected name sf-parking-api, got %v", body["name"])
	}
	if body["version"] != "v1.4.0" {
		t.Errorf("expected version v1.4.0, got %v", body["version"])
	}
	tools, ok := body["tools"].(map[string]interface{})
	if !ok || len(tools) != 3 {
		t.Errorf("expected three tools, got %v", body["tools"])
	}
	examples, ok := body["examples"].(map[string]interface{})
	if !ok || examples["street"] != "/api?tool=street&name=Market" {
		t.Errorf("unexpected examples %v", body["examples"])
	}
	if len(up.calls) != 0 {
		t.Errorf("expected no upstream call, got %d", len(up.calls))
	}
}

func TestQueryHandler_InvalidTool(t *testing.T) {
	up := &fakeUpstream{body: `{}`}
	w, body := serveQuery(t, newQueryHandler(up), "/api?tool=zip")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if body["error"] != "Invalid tool: zip. Use: bbox, street, or location" {
		t.Errorf("unexpected error %v", body["error"])
	}
	if len(up.calls) != 0 {
		t.Errorf("expected no upstream call, got %d", len(up.calls))
	}
}

func TestQueryHandler_MissingParams(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/api?tool=bbox&min_lat=37.77&min_lon=-122.42&max_lat=37.78", "Missing required parameters: min_lat, min_lon, max_lat, max_lon"},
		{"/api?tool=bbox", "Missing required parameters: min_lat, min_lon, max_lat, max_lon"},
		{"/api?tool=street", "Missing required parameter: name"},
		{"/api?tool=street&name=", "Missing required parameter: name"},
		{"/api?tool=location&lat=37.7833", "Missing required parameters: lat, lon"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			up := &fakeUpstream{body: `{}`}
			w, body := serveQuery(t, newQueryHandler(up), tt.target)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
			if body["error"] != tt.want {
				t.Errorf("expected error %q, got %v", tt.want, body["error"])
			}
			if len(up.calls) != 0 {
				t.Errorf("expected no upstream call, got %d", len(up.calls))
			}
		})
	}
}

func TestQueryHandler_BadNumberNamesQueryKey(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/api?tool=location&lat=north&lon=-122.4167", "parameter lat must be a number"},
		{"/api?tool=location&lat=37.7833&lon=west", "parameter lon must be a number"},
		{"/api?tool=location&lat=91&lon=-122.4167", "parameter lat must be between -90 and 90, got 91"},
		{"/api?tool=location&lat=NaN&lon=-122.4167", "parameter lat must be a finite number"},
		{"/api?tool=bbox&min_lat=abc&min_lon=-122.42&max_lat=37.78&max_lon=-122.41", "parameter min_lat must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			up := &fakeUpstream{body: `{}`}
			w, body := serveQuery(t, newQueryHandler(up), tt.target)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
			if body["error"] != tt.want {
				t.Errorf("expected error %q, got %v", tt.want, body["error"])
			}
			if len(up.calls) != 0 {
				t.Errorf("expected no upstream call, got %d", len(up.calls))
			}
		})
	}
}

func TestQueryHandler_MissingWinsOverMalformed(t *testing.T) {
	up := &fakeUpstream{body: `{}`}
	_, body := serveQuery(t, newQueryHandler(up), "/api?tool=location&lat=north")

	if body["error"] != "Missing required parameters: lat, lon" {
		t.Errorf("unexpected error %v", body["error"])
	}
}

func TestQueryHandler_BBox(t *testing.T) {
	up := &fakeUpstream{body: `{"features":[{"attributes":{"OBJECTID":1}}]}`}
	w, body := serveQuery(t, newQueryHandler(up), "/api?tool=bbox&min_lat=37.77&min_lon=-122.42&max_lat=37.78&max_lon=-122.41")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if _, ok := body["features"]; !ok {
		t.Errorf("expected raw upstream body, got %v", body)
	}
	if len(up.calls) != 1 {
		t.Fatalf("expected 1 upstream call, got %d", len(up.calls))
	}

	sent := up.calls[0]
	if sent.Get("geometry") != `{"xmin":-122.42,"ymin":37.77,"xmax":-122.41,"ymax":37.78}` {
		t.Errorf("unexpected geometry %s", sent.Get("geometry"))
	}
	if sent.Get("resultRecordCount") != "100" {
		t.Errorf("expected default record count 100, got %s", sent.Get("resultRecordCount"))
	}
}

func TestQueryHandler_StreetIgnoresMaxRecords(t *testing.T) {
	up := &fakeUpstream{body: `{"features":[]}`}
	w, _ := serveQuery(t, newQueryHandler(up), "/api?tool=street&name=market&max_records=5")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	sent := up.calls[0]
	if sent.Get("where") != "STREET_NAME LIKE '%MARKET%'" {
		t.Errorf("unexpected where %s", sent.Get("where"))
	}
	if sent.Get("resultRecordCount") != "50" {
		t.Errorf("expected default record count 50, got %s", sent.Get("resultRecordCount"))
	}
}

func TestQueryHandler_Location(t *testing.T) {
	up := &fakeUpstream{body: `{"features":[]}`}
	w, _ := serveQuery(t, newQueryHandler(up), "/api?tool=location&lat=37.7833&lon=-122.4167")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if up.calls[0].Get("resultRecordCount") != "20" {
		t.Errorf("expected default record count 20, got %s", up.calls[0].Get("resultRecordCount"))
	}
}

func TestQueryHandler_UpstreamFailure(t *testing.T) {
	up := &fakeUpstream{err: &arcgis.Error{Kind: arcgis.KindStatus, Status: 502}}
	w, body := serveQuery(t, newQueryHandler(up), "/api?tool=street&name=Mission")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if body["error"] != "ArcGIS API error: 502" {
		t.Errorf("unexpected error %v", body["error"])
	}
}

func TestQueryHandler_RejectsPOST(t *testing.T) {
	h := newQueryHandler(&fakeUpstream{body: `{}`})

	req := httptest.NewRequest("POST", "/api?tool=street&name=Market", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}
