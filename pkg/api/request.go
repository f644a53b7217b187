package api

import (
	"fmt"
	"mime"
	"net/url"
	"sort"
	"strings"

	"github.com/bidster/bidster/pkg/casing"
)

// Params holds query parameters keyed in the client's camelCase convention.
// Slice values are sent as repeated keys; nil values are skipped.
type Params map[string]any

// Request is the outbound envelope. Params and Body use camelCase keys; they
// are converted to snake_case when the request is dispatched.
type Request struct {
	Method string
	Path   string
	Params Params
	// Body is any JSON-encodable value: a map, a slice or a struct with
	// camelCase json tags.
	Body any
	// AuthToken overrides the client's TokenSource for this request only.
	AuthToken string
}

// Response is the inbound envelope. When ContentType is JSON, Body holds the
// decoded document with camelCase keys.
type Response struct {
	StatusCode  int
	ContentType string
	Body        any
	// Raw is the undecoded payload as received from the server.
	Raw []byte
	// RequestID is the X-Request-ID sent with the request.
	RequestID string
}

// IsJSON reports whether the response declared a JSON content type.
func (r *Response) IsJSON() bool {
	return isJSONContentType(r.ContentType)
}

func isJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// encodeQuery converts params to snake_case and encodes them deterministically.
func encodeQuery(p Params) string {
	if len(p) == 0 {
		return ""
	}
	snake, _ := casing.SnakeKeys(map[string]any(p)).(map[string]any)

	keys := make([]string, 0, len(snake))
	for k := range snake {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		switch v := snake[k].(type) {
		case nil:
			continue
		case []any:
			for _, item := range v {
				q.Add(k, fmt.Sprint(item))
			}
		case []string:
			for _, item := range v {
				q.Add(k, item)
			}
		case []int:
			for _, item := range v {
				q.Add(k, fmt.Sprint(item))
			}
		default:
			q.Add(k, fmt.Sprint(v))
		}
	}
	return q.Encode()
}

// joinURL joins the API root and a resource path with exactly one slash.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
