// Package testutil provides testing utilities for the intra client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for one scripted response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RequestRecord captures one request the mock server received.
type RequestRecord struct {
	Path   string
	Page   int
	Time   time.Time
	Header http.Header
}

// MockIntra is a configurable mock of the paginated intra API for
// testing. It serves a token endpoint at /oauth/token and paginated
// collections configured via SetCollection, with optional scripted
// failure sequences per path.
type MockIntra struct {
	server *httptest.Server

	mu          sync.RWMutex
	collections map[string]collection
	scripts     map[string][]MockResponse
	requests    []RequestRecord
	token       string
}

type collection struct {
	items   []json.RawMessage
	perPage int
}

// NewMockIntra creates a new mock API server.
func NewMockIntra() *MockIntra {
	mock := &MockIntra{
		collections: make(map[string]collection),
		scripts:     make(map[string][]MockResponse),
		token:       "test-token",
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockIntra) URL() string {
	return m.server.URL
}

// TokenURL returns the mock token endpoint URL.
func (m *MockIntra) TokenURL() string {
	return m.server.URL + "/oauth/token"
}

// Close shuts down the mock server.
func (m *MockIntra) Close() {
	m.server.Close()
}

// SetCollection configures a paginated collection at path. Items are
// served in pages of perPage with X-Total, X-Per-Page, and a Link
// header carrying rel="last".
func (m *MockIntra) SetCollection(path string, items []string, perPage int) {
	coll := collection{perPage: perPage}
	for _, item := range items {
		coll.items = append(coll.items, json.RawMessage(item))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[path] = coll
}

// SetStatusSequence scripts the next responses for a path. Each request
// consumes one entry; once the script drains, requests fall through to
// the configured collection (or 404).
func (m *MockIntra) SetStatusSequence(path string, responses []MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[path] = append([]MockResponse(nil), responses...)
}

// Requests returns a copy of all recorded requests, token exchanges
// excluded.
func (m *MockIntra) Requests() []RequestRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestRecord(nil), m.requests...)
}

// RequestCount returns the number of API requests received for a path.
func (m *MockIntra) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, r := range m.requests {
		if r.Path == path {
			count++
		}
	}
	return count
}

// Reset clears recorded requests and scripted responses.
func (m *MockIntra) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.scripts = make(map[string][]MockResponse)
}

func (m *MockIntra) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/oauth/token" {
		m.handleToken(w, r)
		return
	}

	page := 1
	if pageStr := r.URL.Query().Get("page[number]"); pageStr != "" {
		if n, err := strconv.Atoi(pageStr); err == nil {
			page = n
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, RequestRecord{
		Path:   r.URL.Path,
		Page:   page,
		Time:   time.Now(),
		Header: r.Header.Clone(),
	})

	// Scripted responses take precedence, one per request.
	if script := m.scripts[r.URL.Path]; len(script) > 0 {
		resp := script[0]
		m.scripts[r.URL.Path] = script[1:]
		m.mu.Unlock()
		m.writeScripted(w, resp)
		return
	}

	coll, ok := m.collections[r.URL.Path]
	m.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "not found"}`)
		return
	}

	m.writePage(w, r, coll, page)
}

func (m *MockIntra) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "invalid_request"}`)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token": %q, "token_type": "bearer", "expires_in": 7200}`, m.token)
}

func (m *MockIntra) writeScripted(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

func (m *MockIntra) writePage(w http.ResponseWriter, r *http.Request, coll collection, page int) {
	perPage := coll.perPage
	if pp := r.URL.Query().Get("page[size]"); pp != "" {
		if n, err := strconv.Atoi(pp); err == nil && n > 0 {
			perPage = n
		}
	}

	total := len(coll.items)
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	body, _ := json.Marshal(coll.items[start:end])

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Total", strconv.Itoa(total))
	w.Header().Set("X-Per-Page", strconv.Itoa(perPage))
	w.Header().Set("Link", fmt.Sprintf(`<%s%s?page[number]=%d>; rel="last"`, m.server.URL, r.URL.Path, lastPage))
	w.Header().Set("ETag", fmt.Sprintf(`"page-%d-rev-1"`, page))
	w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))

	// Conditional revalidation: the mock's collections never change, so
	// a matching ETag always gets a 304.
	if r.Header.Get("If-None-Match") == fmt.Sprintf(`"page-%d-rev-1"`, page) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// NewRateLimitResponse creates a 429 Too Many Requests response with a
// Retry-After hint.
func NewRateLimitResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfterSeconds),
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewUnavailableResponse creates a 503 Service Unavailable response.
func NewUnavailableResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `{"error": "service unavailable"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
