package bidstertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type fault struct {
	method      string
	path        string
	status      int
	body        []byte
	contentType string
	delay       time.Duration
	gate        <-chan struct{}
	// remaining is the number of requests left to intercept; 0 is unlimited.
	remaining int
	limited   bool
}

// intercept applies the fault and reports whether the response was written.
// A fault without a status only delays the request.
func (f *fault) intercept(w http.ResponseWriter, r *http.Request) bool {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-r.Context().Done():
			return true
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return true
		}
	}
	if f.status == 0 {
		return false
	}
	if f.contentType != "" {
		w.Header().Set("Content-Type", f.contentType)
	}
	w.WriteHeader(f.status)
	_, _ = w.Write(f.body)
	return true
}

// takeFaultLocked returns the first live fault matching the request and
// consumes one of its uses.
func (s *Server) takeFaultLocked(method, path string) *fault {
	for i, f := range s.faults {
		if !strings.EqualFold(f.method, method) || !matchesPath(path, f.path) {
			continue
		}
		if f.limited {
			f.remaining--
			if f.remaining <= 0 {
				s.faults = append(s.faults[:i:i], s.faults[i+1:]...)
			}
		}
		return f
	}
	return nil
}

// FaultBuilder configures an injected fault.
type FaultBuilder struct {
	server *Server
	fault  *fault
	err    error
}

// Inject starts building a fault for requests matching method and path.
// Path segments written as {name} match any value.
func (s *Server) Inject(method, path string) *FaultBuilder {
	return &FaultBuilder{server: s, fault: &fault{method: method, path: path}}
}

// WithStatus makes the fault answer with status instead of the real handler.
func (b *FaultBuilder) WithStatus(status int) *FaultBuilder {
	b.fault.status = status
	return b
}

// WithBody sets the response body. Strings and byte slices are sent as-is;
// other values are JSON encoded.
func (b *FaultBuilder) WithBody(body any) *FaultBuilder {
	switch v := body.(type) {
	case string:
		b.fault.body = []byte(v)
		b.fault.contentType = "text/html; charset=utf-8"
	case []byte:
		b.fault.body = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			b.setError(fmt.Errorf("WithBody: failed to marshal body: %w", err))
			return b
		}
		b.fault.body = data
		b.fault.contentType = "application/json"
	}
	return b
}

// WithError answers with status and a {"error": message} body.
func (b *FaultBuilder) WithError(status int, message string) *FaultBuilder {
	return b.WithStatus(status).WithBody(map[string]string{"error": message})
}

// WithDelay holds matching requests for d before answering.
func (b *FaultBuilder) WithDelay(d time.Duration) *FaultBuilder {
	b.fault.delay = d
	return b
}

// WithGate holds matching requests until gate is closed or receives.
func (b *FaultBuilder) WithGate(gate <-chan struct{}) *FaultBuilder {
	b.fault.gate = gate
	return b
}

// Times limits the fault to the next n matching requests.
func (b *FaultBuilder) Times(n int) *FaultBuilder {
	b.fault.limited = true
	b.fault.remaining = n
	return b
}

// Once limits the fault to the next matching request.
func (b *FaultBuilder) Once() *FaultBuilder {
	return b.Times(1)
}

// Err returns the first error encountered while building.
func (b *FaultBuilder) Err() error {
	return b.err
}

func (b *FaultBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Reply installs the fault. A build error fails the test.
func (b *FaultBuilder) Reply() {
	b.server.t.Helper()
	if b.err != nil {
		b.server.t.Fatalf("invalid fault for %s %s: %v", b.fault.method, b.fault.path, b.err)
		return
	}
	b.server.mu.Lock()
	b.server.faults = append(b.server.faults, b.fault)
	b.server.mu.Unlock()
}
