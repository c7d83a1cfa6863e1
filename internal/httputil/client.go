// Package httputil provides the HTTP client abstraction used by the upload
// workers, plus a mock implementation for tests.
package httputil

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client abstracts the outbound HTTP operations the relay performs.
// Use StandardClient in production and MockClient in tests.
type Client interface {
	// Get issues a GET to the specified URL.
	Get(url string) (*http.Response, error)
}

// StandardClient wraps *http.Client to implement Client.
type StandardClient struct {
	*http.Client
}

// NewStandardClient wraps the given http.Client. A nil argument yields a
// client with a 30 second timeout, which bounds how long an upload worker
// can be stuck in a single delivery.
func NewStandardClient(c *http.Client) *StandardClient {
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	return &StandardClient{Client: c}
}

// Get issues a GET request.
func (c *StandardClient) Get(url string) (*http.Response, error) {
	return c.Client.Get(url)
}

// MockClient records requests and replays canned responses for tests.
type MockClient struct {
	mu   sync.Mutex
	urls []string

	// Responses are consumed in order. When exhausted, requests succeed
	// with 200 and an empty body.
	Responses []MockResponse
	next      int
}

// MockResponse defines a canned response. A non-nil Err is returned instead
// of a response, simulating a transport failure.
type MockResponse struct {
	StatusCode int
	Body       string
	Err        error
}

// NewMockClient creates an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// AddResponse queues a response with the given status.
func (m *MockClient) AddResponse(statusCode int, body string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, MockResponse{StatusCode: statusCode, Body: body})
	return m
}

// AddError queues a transport failure.
func (m *MockClient) AddError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, MockResponse{Err: err})
	return m
}

// Get records the URL and returns the next queued response.
func (m *MockClient) Get(url string) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.urls = append(m.urls, url)

	resp := MockResponse{StatusCode: http.StatusOK}
	if m.next < len(m.Responses) {
		resp = m.Responses[m.next]
		m.next++
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &http.Response{
		StatusCode: resp.StatusCode,
		Status:     fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		Body:       io.NopCloser(strings.NewReader(resp.Body)),
		Header:     make(http.Header),
	}, nil
}

// RequestCount returns the number of requests performed.
func (m *MockClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls)
}

// RequestedURLs returns a copy of the URLs requested so far.
func (m *MockClient) RequestedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.urls))
	copy(out, m.urls)
	return out
}
