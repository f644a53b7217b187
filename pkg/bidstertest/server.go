package bidstertest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bidster/bidster/internal/storage"
)

// APIPrefix is where the API is mounted.
const APIPrefix = "/api"

// Server is a fake Bidster backend.
type Server struct {
	t     testing.TB
	store *storage.InMemoryStore
	srv   *httptest.Server
	now   func() time.Time

	describe func(title string) string

	mu       sync.Mutex
	requests []RequestLog
	faults   []*fault
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDescriber sets how /ai/generate_description drafts descriptions.
func WithDescriber(fn func(title string) string) Option {
	return func(s *Server) {
		if fn != nil {
			s.describe = fn
		}
	}
}

// New starts a fake backend. It is stopped when the test completes.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{
		t:        t,
		now:      time.Now,
		describe: defaultDescription,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = storage.NewInMemoryStore(s.now)
	s.srv = httptest.NewServer(s.wrapHandler(s.routes()))
	t.Cleanup(s.Stop)
	return s
}

func defaultDescription(title string) string {
	return "Selling a " + title + " in great condition. Well cared for and ready for its next owner."
}

// Stop shuts the server down. It is safe to call more than once.
func (s *Server) Stop() {
	s.srv.Close()
}

// URL returns the server root.
func (s *Server) URL() string {
	return s.srv.URL
}

// APIURL returns the API root, the base URL for api.New.
func (s *Server) APIURL() string {
	return s.srv.URL + APIPrefix
}

// Client returns an http.Client for the server.
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// Store exposes the backing state for direct inspection.
func (s *Server) Store() *storage.InMemoryStore {
	return s.store
}

// Reset clears all state, faults and the request log.
func (s *Server) Reset() {
	s.store.Reset()
	s.mu.Lock()
	s.requests = nil
	s.faults = nil
	s.mu.Unlock()
}

// wrapHandler logs each request and applies injected faults before the
// request reaches the routes.
func (s *Server) wrapHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		headers := make(map[string]string, len(r.Header))
		for k, v := range r.Header {
			if len(v) > 0 {
				headers[k] = v[0]
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, RequestLog{
			Method:      r.Method,
			Path:        r.URL.Path,
			Headers:     headers,
			Body:        string(body),
			QueryString: r.URL.RawQuery,
		})
		f := s.takeFaultLocked(r.Method, r.URL.Path)
		s.mu.Unlock()

		if f != nil && f.intercept(w, r) {
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Requests returns every logged request, oldest first.
func (s *Server) Requests() []RequestLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RequestLog, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (RequestLog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RequestLog{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// ClearRequests empties the request log.
func (s *Server) ClearRequests() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

// CallCount counts requests matching method and path. Path segments written
// as {name} match any value.
func (s *Server) CallCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if strings.EqualFold(r.Method, method) && matchesPath(r.Path, path) {
			n++
		}
	}
	return n
}

// AssertCalled asserts that an endpoint was called at least once.
func (s *Server) AssertCalled(t testing.TB, method, path string) {
	t.Helper()
	if s.CallCount(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that an endpoint was called exactly n times.
func (s *Server) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()
	if count := s.CallCount(method, path); count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times", method, path, times, count)
	}
}

// AssertNotCalled asserts that an endpoint was not called.
func (s *Server) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()
	if count := s.CallCount(method, path); count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times", method, path, count)
	}
}

func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}
	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")
	if len(actualParts) != len(expectedParts) {
		return false
	}
	for i, exp := range expectedParts {
		if strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}") {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}
	return true
}
