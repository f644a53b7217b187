package util

import "strings"

// MaxLogBodySize is the default maximum body size for logging (2KB).
const MaxLogBodySize = 2 * 1024

// TruncateBody trims surrounding whitespace from data and cuts it to maxSize
// bytes, appending "...(truncated)" when it was cut. The cut never splits a
// UTF-8 sequence. If maxSize <= 0, MaxLogBodySize is used.
func TruncateBody(data string, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxLogBodySize
	}
	data = strings.TrimSpace(data)
	if len(data) <= maxSize {
		return data
	}
	cut := maxSize
	for cut > 0 && !utf8Start(data[cut]) {
		cut--
	}
	return data[:cut] + "...(truncated)"
}

// utf8Start reports whether b can begin a UTF-8 sequence.
func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
