package bidster

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PageItem is one entry of a pager: a page number or an ellipsis.
type PageItem struct {
	Page     int
	Current  bool
	Ellipsis bool
}

// PageWindow lays out a pager for numPages pages around the 1-based current
// page. The first and last pages and pages within two of current are shown;
// pages exactly three away become ellipses.
func PageWindow(current, numPages int) []PageItem {
	var items []PageItem
	for p := 1; p <= numPages; p++ {
		dist := p - current
		if dist < 0 {
			dist = -dist
		}
		switch {
		case p == 1 || p == numPages || dist < 3:
			items = append(items, PageItem{Page: p, Current: p == current})
		case dist == 3:
			items = append(items, PageItem{Page: p, Ellipsis: true})
		}
	}
	return items
}

// PrevPage returns the page before page, if any.
func PrevPage(page int) (int, bool) {
	if page-1 > 0 {
		return page - 1, true
	}
	return page, false
}

// NextPage returns the page after page, if any.
func NextPage(page, numPages int) (int, bool) {
	if page+1 <= numPages {
		return page + 1, true
	}
	return page, false
}

// ShowingRange returns the 1-based positions of the first and last items on
// a page holding shown of count items.
func ShowingRange(page, limit, shown, count int) (from, to int) {
	if count == 0 || shown == 0 {
		return 0, 0
	}
	from = 1
	if page > 1 {
		from = (page-1)*limit + 1
	}
	to = limit * page
	if shown < limit {
		to = count
	}
	return from, to
}

// SummaryLength is how much of a description a map popup shows.
const SummaryLength = 40

// Marker is a listing placed on the map.
type Marker struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	CurrentBid int     `json:"currentBid"`
	ImageURL   string  `json:"imageUrl,omitempty"`
	Summary    string  `json:"summary"`
}

// MapMarkers places the listings that have both coordinates. A zero
// coordinate is a real position; only missing ones are skipped.
func MapMarkers(listings []MapListing) []Marker {
	markers := make([]Marker, 0, len(listings))
	for _, l := range listings {
		if !l.Latitude.Valid || !l.Longitude.Valid {
			continue
		}
		markers = append(markers, Marker{
			ID:         l.ID,
			Title:      l.Title,
			Latitude:   l.Latitude.Value,
			Longitude:  l.Longitude.Value,
			CurrentBid: l.CurrentBid,
			ImageURL:   l.ImageURL,
			Summary:    Truncate(l.Description, SummaryLength),
		})
	}
	return markers
}

// Truncate cuts s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// TimeAgo renders the age of t at now the way the server does: whole days
// when at least a day old, else hours, minutes or seconds of the remainder.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	secs := int((d % (24 * time.Hour)) / time.Second)
	switch {
	case days > 0:
		return fmt.Sprintf("%d days ago", days)
	case secs > 3600:
		return fmt.Sprintf("%d hours ago", secs/3600)
	case secs > 60:
		return fmt.Sprintf("%d minutes ago", secs/60)
	default:
		return fmt.Sprintf("%d seconds ago", secs)
	}
}

// capitalize upper-cases the first letter and lower-cases the rest. Casers
// carry state, so each call builds its own.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(string(r)) + cases.Lower(language.Und).String(s[size:])
}

// DisplayName is how a user is addressed: their capitalized full name, or
// whichever half is set, or the username.
func DisplayName(u User) string {
	first := capitalize(strings.TrimSpace(u.FirstName))
	last := capitalize(strings.TrimSpace(u.LastName))
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	default:
		return u.Username
	}
}
