package bidstertest

import (
	"encoding/json"
	"net/url"
	"reflect"
	"strings"
	"testing"
)

// RequestLog is a request received by the server.
type RequestLog struct {
	Method string
	Path   string
	// Headers holds the first value of each header.
	Headers     map[string]string
	Body        string
	QueryString string
}

// Header returns a header value, matching the name case-insensitively.
func (r *RequestLog) Header(key string) (string, bool) {
	if v, ok := r.Headers[key]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Query returns the parsed query string.
func (r *RequestLog) Query() url.Values {
	q, _ := url.ParseQuery(r.QueryString)
	return q
}

// AssertJSONBody asserts that the body is JSON equal to expected, which may
// be a JSON string, a byte slice or any encodable value.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var want, got any
	var data []byte
	switch v := expected.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
	}
	if err := json.Unmarshal(data, &want); err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(r.Body), &got); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}
	if !reflect.DeepEqual(got, want) {
		wantBytes, _ := json.MarshalIndent(want, "", "  ")
		gotBytes, _ := json.MarshalIndent(got, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s", wantBytes, gotBytes)
	}
}

// AssertHeader asserts that the request carried a header with the value.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()
	actual, ok := r.Header(key)
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertNoHeader asserts that the request did not carry the header.
func (r *RequestLog) AssertNoHeader(t testing.TB, key string) {
	t.Helper()
	if v, ok := r.Header(key); ok {
		t.Errorf("request has unexpected header %q: %q", key, v)
	}
}

// AssertQueryParam asserts that the query string set key to expected.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()
	q := r.Query()
	if !q.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := q.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// JSONField extracts a dotted field from the JSON body, or nil.
func (r *RequestLog) JSONField(field string) any {
	var current any
	if err := json.Unmarshal([]byte(r.Body), &current); err != nil {
		return nil
	}
	for _, part := range strings.Split(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}
