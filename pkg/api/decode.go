package api

import (
	"encoding/json"
	"errors"
)

var errNotJSON = errors.New("response is not JSON")

// DecodeInto decodes the camelCased response body into v, which should be a
// pointer to a type with camelCase json tags.
func DecodeInto(resp *Response, v any) error {
	if resp == nil || !resp.IsJSON() {
		return &Error{Kind: KindDecode, Message: "cannot decode response", Err: errNotJSON}
	}
	if resp.Body == nil {
		return nil
	}
	data, err := json.Marshal(resp.Body)
	if err != nil {
		return &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Message: "cannot re-encode response", Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Message: "response does not match schema", Err: err}
	}
	return nil
}

// Decode decodes the response body into a new T.
func Decode[T any](resp *Response) (T, error) {
	var out T
	err := DecodeInto(resp, &out)
	return out, err
}
