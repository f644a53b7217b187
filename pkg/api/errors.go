package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bidster/bidster/pkg/util"
)

// maxMessageBody bounds how much of a non-JSON error body ends up in a message.
const maxMessageBody = 200

// Kind classifies an adapter failure.
type Kind int

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota + 1
	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP
	// KindDecode means the response body could not be decoded.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Sentinel errors matched by errors.Is against *Error values.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Error is returned by every Client method that fails.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	// Message is the server-provided error message for KindHTTP, or a short
	// description of the failure otherwise.
	Message string
	// Body is the camelCased error document, when the server sent JSON.
	Body any
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	case KindNetwork:
		return fmt.Sprintf("%s %s: cannot reach server: %v", e.Method, e.Path, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Message, e.Err)
		}
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match status sentinels.
func (e *Error) Is(target error) bool {
	if e.Kind != KindHTTP {
		return false
	}
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// serverMessage extracts the human-readable message from a camelCased error
// body. The backend uses {"error": "..."}; framework errors use {"detail": "..."}
// or {"non_field_errors": [...]}.
func serverMessage(body any, status int, raw []byte) string {
	if m, ok := body.(map[string]any); ok {
		for _, key := range []string{"error", "detail", "message"} {
			if s, ok := m[key].(string); ok && s != "" {
				return s
			}
		}
		if list, ok := m["nonFieldErrors"].([]any); ok && len(list) > 0 {
			if s, ok := list[0].(string); ok {
				return s
			}
		}
	}
	if text := util.TruncateBody(string(raw), maxMessageBody); text != "" {
		return fmt.Sprintf("server returned status %d: %s", status, text)
	}
	return fmt.Sprintf("server returned status %d", status)
}
