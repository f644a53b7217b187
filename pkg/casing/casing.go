// Package casing converts map keys between the client's camelCase convention
// and the server's snake_case convention.
//
// Conversions walk arbitrarily nested values: map[string]any, []any and
// []map[string]any are rewritten recursively; every other value is returned
// unchanged. Keys are rewritten, values never are.
//
// For keys made of lowercase words joined by single capitals ("startingBid")
// or single underscores ("starting_bid") the two directions are inverses of
// each other:
//
//	ToCamel(ToSnake("startingBid")) == "startingBid"
//	ToSnake(ToCamel("starting_bid")) == "starting_bid"
//
// Acronyms ("HTTPStatus") and digit words ("line_1") fall outside that
// domain and do not come back unchanged.
package casing

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToSnake converts a camelCase key to snake_case.
//
// An underscore is inserted before an uppercase letter that follows a
// lowercase letter or digit, and before the last capital of an acronym run
// that is followed by a lowercase letter ("imageURLPath" -> "image_url_path").
// Keys that are already snake_case are returned unchanged.
func ToSnake(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && needsBreak(runes, i) && runes[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func needsBreak(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	// End of an acronym: "URLPath" breaks before the "P".
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// ToCamel converts a snake_case key to camelCase.
//
// Leading underscores are kept so private-looking keys ("_meta") survive;
// repeated and trailing underscores are dropped. Keys without underscores are
// returned unchanged.
func ToCamel(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	lead := len(s) - len(strings.TrimLeft(s, "_"))
	parts := strings.Split(s[lead:], "_")

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:lead])
	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if first {
			b.WriteString(p)
			first = false
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(p[size:])
	}
	return b.String()
}

// SnakeKeys returns a copy of v with every map key converted by ToSnake.
func SnakeKeys(v any) any {
	return convert(v, ToSnake)
}

// CamelKeys returns a copy of v with every map key converted by ToCamel.
func CamelKeys(v any) any {
	return convert(v, ToCamel)
}

// Keys returns a copy of v with every map key rewritten by fn.
func Keys(v any, fn func(string) string) any {
	return convert(v, fn)
}

func convert(v any, fn func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		return convertMap(t, fn)
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = convertMap(m, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = convert(item, fn)
		}
		return out
	default:
		return v
	}
}

func convertMap(m map[string]any, fn func(string) string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[fn(k)] = convert(val, fn)
	}
	return out
}
