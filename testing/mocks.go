package testing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/distantorigin/unreal-installer/internal/process"
)

// MockReleaseServer serves release manifests and asset files over HTTP
type MockReleaseServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	requests  map[string]int
}

// MockResponse holds response data for a path
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// NewMockReleaseServer starts a server that answers 404 for unknown paths
func NewMockReleaseServer(t *testing.T) *MockReleaseServer {
	t.Helper()

	mock := &MockReleaseServer{
		responses: make(map[string]MockResponse),
		requests:  make(map[string]int),
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		if r.Method == http.MethodGet {
			mock.requests[r.URL.Path]++
		}
		response, ok := mock.responses[r.URL.Path]
		mock.mu.Unlock()

		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
			return
		}

		for key, value := range response.Headers {
			w.Header().Set(key, value)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(response.Body)))
		status := response.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write(response.Body)
	}))

	t.Cleanup(mock.Server.Close)
	return mock
}

// SetRelease serves a JSON release document at path
func (m *MockReleaseServer) SetRelease(path string, body []byte) {
	m.SetRawResponse(path, http.StatusOK, body, map[string]string{"Content-Type": "application/json"})
}

// SetFile serves binary content at path
func (m *MockReleaseServer) SetFile(path string, body []byte) {
	m.SetRawResponse(path, http.StatusOK, body, map[string]string{"Content-Type": "application/octet-stream"})
}

// SetRawResponse sets a raw response
func (m *MockReleaseServer) SetRawResponse(path string, statusCode int, body []byte, headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers:    headers,
	}
}

// URLFor returns the absolute URL of path on the server
func (m *MockReleaseServer) URLFor(path string) string {
	return m.Server.URL + path
}

// RequestCount returns the number of GET requests made to a path
func (m *MockReleaseServer) RequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[path]
}

// FakeDownloader writes canned content for known URLs and fails for the rest
type FakeDownloader struct {
	mu    sync.Mutex
	Files map[string][]byte
	Calls []string
}

// NewFakeDownloader creates an empty FakeDownloader
func NewFakeDownloader() *FakeDownloader {
	return &FakeDownloader{Files: make(map[string][]byte)}
}

// Download writes the content registered for url to targetPath
func (d *FakeDownloader) Download(ctx context.Context, url, targetPath string) error {
	d.mu.Lock()
	d.Calls = append(d.Calls, url)
	content, ok := d.Files[url]
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("server returned 404 Not Found for %s", url)
	}
	return os.WriteFile(targetPath, content, 0644)
}

// Count returns how often url was requested
func (d *FakeDownloader) Count(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.Calls {
		if c == url {
			n++
		}
	}
	return n
}

// FakeRunner records commands instead of executing them
type FakeRunner struct {
	mu       sync.Mutex
	Commands []process.Command

	// Handle simulates a tool; nil means every command succeeds
	Handle func(cmd process.Command) (process.Result, error)
}

// Run records cmd and delegates to Handle
func (r *FakeRunner) Run(ctx context.Context, cmd process.Command) (process.Result, error) {
	r.mu.Lock()
	r.Commands = append(r.Commands, cmd)
	handle := r.Handle
	r.mu.Unlock()

	if handle == nil {
		return process.Result{}, nil
	}
	return handle(cmd)
}

// Calls returns the recorded commands whose tool basename is tool
func (r *FakeRunner) Calls(tool string) []process.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []process.Command
	for _, cmd := range r.Commands {
		if filepath.Base(cmd.Name) == tool {
			out = append(out, cmd)
		}
	}
	return out
}
