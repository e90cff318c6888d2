package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
	"github.com/bobmcallan/sfpark-mcp/internal/config"
)

// --- JSON-RPC over HTTP ---

func newTestRPCHandler(t *testing.T, up *stubUpstream) *RPCHandler {
	t.Helper()
	return NewRPCHandler(newTestServer(t, up), "sf-parking", testVersion, "/api/mcp", common.NewSilentLogger())
}

func TestRPCHandler_GetDescription(t *testing.T) {
	h := newTestRPCHandler(t, &stubUpstream{body: `{}`})

	req := httptest.NewRequest(http.MethodGet, "/api/mcp", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var desc Description
	if err := json.Unmarshal(rec.Body.Bytes(), &desc); err != nil {
		t.Fatalf("failed to decode description: %v", err)
	}
	if desc.Name != "sf-parking" || desc.Version != testVersion {
		t.Errorf("unexpected name/version %s/%s", desc.Name, desc.Version)
	}
	if desc.Protocol != "MCP over HTTP" {
		t.Errorf("unexpected protocol %q", desc.Protocol)
	}
	if desc.Endpoint != "/api/mcp" {
		t.Errorf("unexpected endpoint %q", desc.Endpoint)
	}
	if desc.Description != "MCP server for San Francisco parking data" {
		t.Errorf("unexpected description %q", desc.Description)
	}
	if desc.Usage != "Send JSON-RPC 2.0 requests via POST" {
		t.Errorf("unexpected usage %q", desc.Usage)
	}
}

func TestRPCHandler_ToolsList(t *testing.T) {
	h := newTestRPCHandler(t, &stubUpstream{body: `{}`})

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	req := httptest.NewRequest(http.MethodPost, "/api/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Result  struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.JSONRPC != "2.0" || resp.ID != 1 {
		t.Errorf("unexpected envelope %+v", resp)
	}
	if len(resp.Result.Tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(resp.Result.Tools))
	}
	if resp.Result.Tools[0].Name != "get_parking_by_bbox" {
		t.Errorf("expected bbox first, got %s", resp.Result.Tools[0].Name)
	}
}

func TestRPCHandler_ToolsCall(t *testing.T) {
	up := &stubUpstream{body: `{"features":[]}`}
	h := newTestRPCHandler(t, up)

	body := `{"jsonrpc":"2.0","id":"abc","method":"tools/call","params":{"name":"get_parking_by_bbox","arguments":{"min_lat":37.77,"min_lon":-122.42,"max_lat":37.78,"max_lon":-122.41}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		ID     string `json:"id"`
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "abc" {
		t.Errorf("expected id abc, got %q", resp.ID)
	}
	if resp.Result.IsError {
		t.Fatalf("unexpected error result: %+v", resp.Result)
	}
	if len(resp.Result.Content) != 1 || resp.Result.Content[0].Type != "text" {
		t.Fatalf("expected one text content block, got %+v", resp.Result.Content)
	}
	if resp.Result.Content[0].Text != "{\n  \"features\": []\n}" {
		t.Errorf("unexpected text %q", resp.Result.Content[0].Text)
	}
	if up.count() != 1 {
		t.Errorf("expected 1 upstream call, got %d", up.count())
	}
}

func TestRPCHandler_Notification(t *testing.T) {
	h := newTestRPCHandler(t, &stubUpstream{body: `{}`})

	body := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
	req := httptest.NewRequest(http.MethodPost, "/api/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202 for notification, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestRPCHandler_UnknownMethod(t *testing.T) {
	h := newTestRPCHandler(t, &stubUpstream{body: `{}`})

	body := `{"jsonrpc":"2.0","id":7,"method":"resources/frobnicate"}`
	req := httptest.NewRequest(http.MethodPost, "/api/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp struct {
		Error *struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error == nil {
		t.Fatalf("expected JSON-RPC error, got %s", rec.Body.String())
	}
}

// failingReader fails every read.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestRPCHandler_BodyReadFailure(t *testing.T) {
	h := newTestRPCHandler(t, &stubUpstream{body: `{}`})

	req := httptest.NewRequest(http.MethodPost, "/api/mcp", failingReader{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp struct {
		JSONRPC string `json:"jsonrpc"`
		Error   struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		ID any `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.JSONRPC != "2.0" || resp.Error.Code != -32603 || resp.ID != nil {
		t.Errorf("unexpected error envelope %s", rec.Body.String())
	}
	if !strings.Contains(resp.Error.Message, "connection reset") {
		t.Errorf("expected read error in message, got %q", resp.Error.Message)
	}
}

func TestRPCHandler_MethodNotAllowed(t *testing.T) {
	h := newTestRPCHandler(t, &stubUpstream{body: `{}`})

	req := httptest.NewRequest(http.MethodDelete, "/api/mcp", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

// --- SSE ---

func TestSSEHandler_EndpointEvent(t *testing.T) {
	cfg := config.NewDefaultConfig().MCP
	cfg.KeepAlive = false

	h := NewSSEHandler(newTestServer(t, &stubUpstream{body: `{}`}), cfg, common.NewSilentLogger())
	mux := http.NewServeMux()
	mux.Handle(h.SSEPath(), h)
	mux.Handle(h.MessagePath(), h)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sse", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream, got %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}

	if event != "endpoint" {
		t.Errorf("expected endpoint event, got %q", event)
	}
	if !strings.Contains(data, "/api/messages") || !strings.Contains(data, "sessionId=") {
		t.Errorf("expected message endpoint with session id, got %q", data)
	}

	if err := h.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}

	// the stream should end on shutdown, well before the client deadline
	for scanner.Scan() {
	}
	if ctx.Err() != nil {
		t.Error("expected stream to close on shutdown")
	}
	if h.open() != 0 {
		t.Errorf("expected no open streams, got %d", h.open())
	}
}

func TestSSEHandler_MessageWithoutSession(t *testing.T) {
	cfg := config.NewDefaultConfig().MCP
	h := NewSSEHandler(newTestServer(t, &stubUpstream{body: `{}`}), cfg, common.NewSilentLogger())

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code < 400 {
		t.Errorf("expected client error without sessionId, got %d", rec.Code)
	}
}

// --- Streamable HTTP ---

func TestHandler_StatelessToolsList(t *testing.T) {
	h := NewHandler(newTestServer(t, &stubUpstream{body: `{}`}), common.NewSilentLogger())

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "get_parking_by_location") {
		t.Errorf("expected tools in response, got %s", rec.Body.String())
	}
}
