package bidster

import (
	"strconv"

	"github.com/bidster/bidster/pkg/swr"
)

// Filter selects which listings a collection returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterClosed    Filter = "closed"
	FilterMy        Filter = "my"
	FilterWinner    Filter = "winner"
	FilterWatchlist Filter = "watchlist"
)

// Filters lists the filters the server understands, in menu order.
var Filters = []Filter{FilterActive, FilterClosed, FilterMy, FilterWinner, FilterWatchlist, FilterAll}

// Valid reports whether f is a known filter.
func (f Filter) Valid() bool {
	for _, known := range Filters {
		if f == known {
			return true
		}
	}
	return false
}

const (
	// DefaultListingLimit is the server's page size for listing collections.
	DefaultListingLimit = 8
	// DefaultCommentLimit is the server's page size for comments.
	DefaultCommentLimit = 10
)

// ListingsQuery selects a page of a listing collection. Zero fields take the
// server defaults.
type ListingsQuery struct {
	Filter Filter
	Query  string
	Page   int
	Limit  int
}

func (q ListingsQuery) normalized() ListingsQuery {
	if q.Filter == "" {
		q.Filter = FilterActive
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultListingLimit
	}
	return q
}

func (q ListingsQuery) params() map[string]any {
	q = q.normalized()
	return map[string]any{
		"filter": string(q.Filter),
		"query":  q.Query,
		"page":   q.Page,
		"limit":  q.Limit,
	}
}

const (
	pathToken       = "/token"
	pathRegister    = "/register"
	pathMe          = "/me"
	pathCategories  = "/categories"
	pathListings    = "/listings"
	pathWatchlist   = "/watchlist"
	pathMapListings = "/map_listings"
	pathDescribe    = "/ai/generate_description"
)

func listingPath(id int) string {
	return pathListings + "/" + strconv.Itoa(id)
}

func listingSubPath(id int, sub string) string {
	return listingPath(id) + "/" + sub
}

func categoryListingsPath(id int) string {
	return pathCategories + "/" + strconv.Itoa(id) + "/listings"
}

func userListingsPath(id int) string {
	return "/users/" + strconv.Itoa(id) + "/listings"
}

// MeKey is the cache key of the signed-in user's profile.
const MeKey = pathMe

// CategoriesKey is the cache key of the category list.
const CategoriesKey = pathCategories

// MapListingsKey is the cache key of the map view's listings.
const MapListingsKey = pathMapListings

// ListingsKey is the cache key of a page of all listings.
func ListingsKey(q ListingsQuery) string {
	return swr.Key(pathListings, q.params())
}

// ListingKey is the cache key of one listing.
func ListingKey(id int) string {
	return listingPath(id)
}

// CommentsKey is the cache key of a page of a listing's comments.
func CommentsKey(listingID, page int) string {
	if page < 1 {
		page = 1
	}
	return swr.Key(listingSubPath(listingID, "comments"), map[string]any{
		"page":  page,
		"limit": DefaultCommentLimit,
	})
}

// WatchlistKey is the cache key of a page of the user's watchlist.
func WatchlistKey(q ListingsQuery) string {
	return swr.Key(pathWatchlist, q.params())
}

// CategoryListingsKey is the cache key of a page of one category's listings.
func CategoryListingsKey(categoryID int, q ListingsQuery) string {
	return swr.Key(categoryListingsPath(categoryID), q.params())
}

// UserListingsKey is the cache key of a page of one user's listings.
func UserListingsKey(userID int, q ListingsQuery) string {
	return swr.Key(userListingsPath(userID), q.params())
}
