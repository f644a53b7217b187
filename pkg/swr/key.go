package swr

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key derives a cache key from a resource path and the parameters that make
// the query unique. Parameters are sorted by name; nil and empty-string
// values are omitted, so an unset filter and a blank one share a key.
func Key(path string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for name, v := range params {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return path
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(path)
	for i, name := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fmt.Sprint(params[name])))
	}
	return b.String()
}

// KeyPath returns the path component of a key built by Key.
func KeyPath(key string) string {
	path, _, _ := strings.Cut(key, "?")
	return path
}
