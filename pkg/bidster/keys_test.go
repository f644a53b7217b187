package bidster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "/listings?filter=active&limit=8&page=1", ListingsKey(ListingsQuery{}))
	assert.Equal(t, ListingsKey(ListingsQuery{}), ListingsKey(ListingsQuery{Filter: FilterActive, Page: 1, Limit: 8}))
	assert.Equal(t, "/listings?filter=my&limit=8&page=2&query=oak+desk", ListingsKey(ListingsQuery{Filter: FilterMy, Page: 2, Query: "oak desk"}))
	assert.Equal(t, "/listings/7", ListingKey(7))
	assert.Equal(t, "/listings/7/comments?limit=10&page=1", CommentsKey(7, 0))
	assert.Equal(t, "/watchlist?filter=active&limit=8&page=1", WatchlistKey(ListingsQuery{}))
	assert.Equal(t, "/categories/3/listings?filter=closed&limit=8&page=1", CategoryListingsKey(3, ListingsQuery{Filter: FilterClosed}))
	assert.Equal(t, "/users/4/listings?filter=active&limit=8&page=1", UserListingsKey(4, ListingsQuery{}))
}

func TestKeys_Distinct(t *testing.T) {
	keys := []string{
		ListingsKey(ListingsQuery{}),
		ListingsKey(ListingsQuery{Page: 2}),
		ListingsKey(ListingsQuery{Query: "desk"}),
		ListingsKey(ListingsQuery{Filter: FilterWinner}),
		WatchlistKey(ListingsQuery{}),
		CategoryListingsKey(1, ListingsQuery{}),
		CategoryListingsKey(2, ListingsQuery{}),
		UserListingsKey(1, ListingsQuery{}),
		CommentsKey(1, 1),
		CommentsKey(1, 2),
		CommentsKey(2, 1),
		ListingKey(1),
		CategoriesKey,
		MapListingsKey,
		MeKey,
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %q", k)
		seen[k] = true
	}
}

func TestFilter_Valid(t *testing.T) {
	for _, f := range Filters {
		assert.True(t, f.Valid(), f)
	}
	assert.False(t, Filter("mine").Valid())
}

func TestIsListingCollection(t *testing.T) {
	assert.True(t, isListingCollection("/listings"))
	assert.True(t, isListingCollection("/watchlist"))
	assert.True(t, isListingCollection("/categories/3/listings"))
	assert.True(t, isListingCollection("/users/3/listings"))
	assert.False(t, isListingCollection("/listings/3"))
	assert.False(t, isListingCollection("/categories"))
}
