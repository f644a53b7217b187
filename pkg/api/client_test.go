package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken struct {
	value atomic.Value
}

func newStaticToken(v string) *staticToken {
	s := &staticToken{}
	s.value.Store(v)
	return s
}

func (s *staticToken) Token() string { return s.value.Load().(string) }
func (s *staticToken) set(v string)  { s.value.Store(v) }

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestDo_AttachesTokenHeader(t *testing.T) {
	t.Parallel()

	var gotAuth []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		jsonHandler(http.StatusOK, `{}`)(w, r)
	}))
	defer ts.Close()

	client := New(ts.URL, WithTokenSource(newStaticToken("abc123")))
	_, err := client.Get(context.Background(), "/me", nil)
	require.NoError(t, err)
	_, err = client.Post(context.Background(), "/listings/1/bids", map[string]any{"bid": 5})
	require.NoError(t, err)
	_, err = client.Put(context.Background(), "/listings/1", map[string]any{"title": "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Token abc123", "Token abc123", "Token abc123"}, gotAuth)
}

func TestDo_NoTokenOmitsHeader(t *testing.T) {
	t.Parallel()

	var present bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		jsonHandler(http.StatusOK, `{}`)(w, r)
	}))
	defer ts.Close()

	client := New(ts.URL, WithTokenSource(newStaticToken("")))
	_, err := client.Get(context.Background(), "/categories", nil)
	require.NoError(t, err)
	assert.False(t, present, "Authorization header should be absent without a token")

	bare := New(ts.URL)
	_, err = bare.Get(context.Background(), "/categories", nil)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestDo_TokenReadOnEveryRequest(t *testing.T) {
	t.Parallel()

	var gotAuth []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		jsonHandler(http.StatusOK, `{}`)(w, r)
	}))
	defer ts.Close()

	tokens := newStaticToken("first")
	client := New(ts.URL, WithTokenSource(tokens))

	_, err := client.Get(context.Background(), "/me", nil)
	require.NoError(t, err)
	tokens.set("")
	_, err = client.Get(context.Background(), "/me", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Token first", ""}, gotAuth)
}

func TestDo_RequestTokenOverridesSource(t *testing.T) {
	t.Parallel()

	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		jsonHandler(http.StatusOK, `{}`)(w, r)
	}))
	defer ts.Close()

	client := New(ts.URL, WithTokenSource(newStaticToken("stored")))
	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/me", AuthToken: "override"})
	require.NoError(t, err)
	assert.Equal(t, "Token override", gotAuth)
}

func TestPost_CreateListingScenario(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotPath, gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		jsonHandler(http.StatusCreated, `{"id":5,"created_at":"2024-01-01"}`)(w, r)
	}))
	defer ts.Close()

	client := New(ts.URL + "/api")
	resp, err := client.Post(context.Background(), "/listings", map[string]any{"title": "Desk", "startingBid": 10})
	require.NoError(t, err)

	assert.Equal(t, "/api/listings", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"title":"Desk","starting_bid":10}`, string(gotBody))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, map[string]any{"id": json.Number("5"), "createdAt": "2024-01-01"}, resp.Body)

	var created struct {
		ID        int    `json:"id"`
		CreatedAt string `json:"createdAt"`
	}
	require.NoError(t, DecodeInto(resp, &created))
	assert.Equal(t, 5, created.ID)
	assert.Equal(t, "2024-01-01", created.CreatedAt)
}

func TestPost_StructBodyIsSnakeCased(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		jsonHandler(http.StatusCreated, `{}`)(w, r)
	}))
	defer ts.Close()

	type comment struct {
		Comment         string `json:"comment"`
		ParentCommentID *int   `json:"parentCommentId,omitempty"`
	}
	parent := 3
	client := New(ts.URL)
	_, err := client.Post(context.Background(), "/listings/1/comments", comment{Comment: "nice", ParentCommentID: &parent})
	require.NoError(t, err)
	assert.JSONEq(t, `{"comment":"nice","parent_comment_id":3}`, string(gotBody))
}

func TestGet_ParamsAreSnakeCased(t *testing.T) {
	t.Parallel()

	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		jsonHandler(http.StatusOK, `{"count":0,"num_pages":1,"results":[]}`)(w, r)
	}))
	defer ts.Close()

	client := New(ts.URL)
	resp, err := client.Get(context.Background(), "/listings", Params{
		"filter":    "active",
		"pageSize":  8,
		"query":     "",
		"ignored":   nil,
		"sortOrder": []any{"price", "date"},
	})
	require.NoError(t, err)

	assert.Equal(t, "filter=active&page_size=8&query=&sort_order=price&sort_order=date", gotQuery)
	page, err := Decode[struct {
		Count    int   `json:"count"`
		NumPages int   `json:"numPages"`
		Results  []any `json:"results"`
	}](resp)
	require.NoError(t, err)
	assert.Equal(t, 1, page.NumPages)
}

func TestDo_HTTPErrorCarriesServerMessage(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(jsonHandler(http.StatusBadRequest, `{"error":"Bid must be greater than the current bid"}`))
	defer ts.Close()

	client := New(ts.URL)
	_, err := client.Post(context.Background(), "/listings/1/bids", map[string]any{"bid": 1})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindHTTP, apiErr.Kind)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Bid must be greater than the current bid", apiErr.Message)
	assert.True(t, IsKind(err, KindHTTP))
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestDo_UnauthorizedMatchesSentinel(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(jsonHandler(http.StatusUnauthorized, `{"detail":"Invalid token."}`))
	defer ts.Close()

	client := New(ts.URL)
	_, err := client.Get(context.Background(), "/me", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Invalid token.")
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<h1>Server Error</h1>")
	}))
	defer ts.Close()

	client := New(ts.URL)
	_, err := client.Get(context.Background(), "/listings", nil)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindHTTP, apiErr.Kind)
	assert.Nil(t, apiErr.Body)
	assert.Equal(t, "server returned status 500: <h1>Server Error</h1>", apiErr.Message)
}

func TestDo_MalformedJSONIsDecodeError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(jsonHandler(http.StatusOK, `{"id": 5,`))
	defer ts.Close()

	client := New(ts.URL)
	_, err := client.Get(context.Background(), "/listings/5", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindDecode))
	assert.False(t, IsKind(err, KindHTTP))
}

func TestDo_NetworkError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(jsonHandler(http.StatusOK, `{}`))
	url := ts.URL
	ts.Close()

	client := New(url)
	_, err := client.Get(context.Background(), "/listings", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNetwork))
	assert.Equal(t, 0, StatusCode(err))
}

func TestDo_NonJSONSuccessLeavesBodyRaw(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "some_key=value")
	}))
	defer ts.Close()

	client := New(ts.URL)
	resp, err := client.Get(context.Background(), "/health", nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Body)
	assert.Equal(t, "some_key=value", string(resp.Raw))
	assert.False(t, resp.IsJSON())

	var v map[string]any
	assert.True(t, IsKind(DecodeInto(resp, &v), KindDecode))
}

func TestDo_SendsRequestID(t *testing.T) {
	t.Parallel()

	var gotID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(RequestIDHeader)
		jsonHandler(http.StatusOK, `{}`)(w, r)
	}))
	defer ts.Close()

	resp, err := New(ts.URL).Get(context.Background(), "/me", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, gotID)
	assert.Equal(t, gotID, resp.RequestID)
}

func TestDecode_SchemaMismatch(t *testing.T) {
	t.Parallel()

	resp := &Response{StatusCode: 200, ContentType: "application/json", Body: map[string]any{"id": "not-a-number"}}
	_, err := Decode[struct {
		ID int `json:"id"`
	}](resp)
	assert.True(t, IsKind(err, KindDecode))
}

func TestIsJSONContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ct   string
		want bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"APPLICATION/JSON", true},
		{"application/problem+json", true},
		{"text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.ct, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isJSONContentType(tt.ct))
		})
	}
}
