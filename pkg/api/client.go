package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bidster/bidster/pkg/casing"
	"github.com/bidster/bidster/pkg/logging"
	"github.com/bidster/bidster/pkg/util"
)

const (
	// AuthHeader carries the session token.
	AuthHeader = "Authorization"
	// AuthScheme prefixes the token value in AuthHeader.
	AuthScheme = "Token"
	// RequestIDHeader carries a per-request correlation ID.
	RequestIDHeader = "X-Request-ID"
)

// TokenSource supplies the current auth token. It is consulted on every
// request, so a cleared session takes effect on the very next call.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client performs requests against the Bidster API root.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the transport timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource sets where auth tokens are read from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the API rooted at baseURL
// (e.g. "http://localhost:8000/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logging.Nop(),
		userAgent: "bidster-cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, params Params) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Params: params})
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Do dispatches req and returns the transformed response. Non-2xx statuses are
// returned as *Error with Kind KindHTTP.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := joinURL(c.baseURL, req.Path)
	if q := encodeQuery(req.Params); q != "" {
		target += "?" + q
	}

	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := encodeBody(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if token := c.token(req); token != "" {
		httpReq.Header.Set(AuthHeader, AuthScheme+" "+token)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("api request failed",
			"method", method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, &Error{Kind: KindNetwork, Method: method, Path: req.Path, Message: "no response", Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Method: method, Path: req.Path, StatusCode: httpResp.StatusCode, Message: "response interrupted", Err: err}
	}

	c.logger.Debug("api request",
		"method", method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	resp := &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Raw:         raw,
		RequestID:   requestID,
	}

	var decodeErr error
	if resp.IsJSON() && len(bytes.TrimSpace(raw)) > 0 {
		resp.Body, decodeErr = decodeTree(raw)
		if decodeErr == nil {
			resp.Body = casing.CamelKeys(resp.Body)
		}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		c.logger.Debug("api error response",
			"request_id", requestID, "body", util.TruncateBody(string(raw), util.MaxLogBodySize))
		return nil, &Error{
			Kind:       KindHTTP,
			Method:     method,
			Path:       req.Path,
			StatusCode: httpResp.StatusCode,
			Message:    serverMessage(resp.Body, httpResp.StatusCode, raw),
			Body:       resp.Body,
		}
	}
	if decodeErr != nil {
		return nil, &Error{Kind: KindDecode, Method: method, Path: req.Path, StatusCode: httpResp.StatusCode, Message: "malformed JSON response", Err: decodeErr}
	}
	return resp, nil
}

func (c *Client) token(req *Request) string {
	if req.AuthToken != "" {
		return req.AuthToken
	}
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// encodeBody converts any JSON-encodable value into a snake_case JSON document.
func encodeBody(body any) ([]byte, error) {
	tree, err := toTree(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(casing.SnakeKeys(tree))
}

// toTree round-trips v through JSON so structs with camelCase tags become
// generic maps whose keys can be rewritten.
func toTree(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeTree(data)
}

func decodeTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON document")
	}
	return tree, nil
}
