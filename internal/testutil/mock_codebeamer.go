// Package testutil provides testing utilities for the Codebeamer client.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is one request received by the mock server.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// MockCodebeamer is a configurable mock Codebeamer REST server for testing.
type MockCodebeamer struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	Requests          []RecordedRequest
}

// NewMockCodebeamer creates a new mock Codebeamer server.
func NewMockCodebeamer() *MockCodebeamer {
	mock := &MockCodebeamer{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.Requests = append(mock.Requests, RecordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     body,
		})
		handler, exists := mock.handlers[r.Method+" "+r.URL.Path]
		if !exists {
			handler, exists = mock.handlers[r.URL.Path]
		}
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		WriteJSON(w, http.StatusNotFound, `{"message":"Resource not found","resourceUri":"`+r.URL.Path+`"}`)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCodebeamer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCodebeamer) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockCodebeamer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.Requests = nil
}

// SetHandler sets a handler for a path. The path may be prefixed with a
// method, e.g. "POST /baselines"; a method-specific handler wins.
func (m *MockCodebeamer) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockCodebeamer) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		w.Header().Set("Content-Type", "application/json;charset=UTF-8")
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	})
}

// SetQueryPages serves /items/query from pages, selected by the page query
// parameter. The first page is numbered 1; missing pages get a 404 body.
func (m *MockCodebeamer) SetQueryPages(pages ...string) {
	m.SetHandler("GET /items/query", func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || n < 1 || n > len(pages) {
			WriteJSON(w, http.StatusNotFound, `{"message":"Page not found"}`)
			return
		}
		WriteJSON(w, http.StatusOK, pages[n-1])
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCodebeamer) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockCodebeamer) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// GetRequests returns a copy of the recorded requests.
func (m *MockCodebeamer) GetRequests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.Requests...)
}

// LastRequest returns the most recent request.
func (m *MockCodebeamer) LastRequest() (RecordedRequest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Requests) == 0 {
		return RecordedRequest{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}

// WriteJSON writes body with a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	if body != "" {
		_, _ = w.Write([]byte(body))
	}
}

// NewOKResponse creates a 200 OK response.
func NewOKResponse(body string) MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: body}
}

// NewUnauthorizedResponse creates the 401 body sent for missing credentials.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"message":"Authentication required"}`,
	}
}

// NewNotFoundResponse creates a 404 response for a resource.
func NewNotFoundResponse(resource string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf(`{"message":"%s is not found","resourceUri":"%s"}`, resource, resource),
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message":"Internal server error"}`,
	}
}

// NewHTMLErrorResponse creates a non-JSON 502 response, as sent by proxies.
func NewHTMLErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadGateway,
		Body:       `<html><body>Bad Gateway</body></html>`,
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}

// QueryPage renders one /items/query page body.
func QueryPage(page, pageSize, total int, items ...any) string {
	if items == nil {
		items = []any{}
	}
	data, _ := json.Marshal(map[string]any{
		"page":     page,
		"pageSize": pageSize,
		"total":    total,
		"items":    items,
	})
	return string(data)
}

// Item renders a minimal tracker item.
func Item(id int, name string) map[string]any {
	return map[string]any{"id": id, "name": name}
}
