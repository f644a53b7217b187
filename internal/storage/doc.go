// Package storage holds the state of the in-process marketplace backend used
// by bidstertest.
//
// Key types:
//
//   - Store: Interface over users, tokens, categories, listings, bids,
//     ratings, watchlists and comments
//   - InMemoryStore: Thread-safe in-memory implementation of Store
//   - ListingQuery: The filter/query combination accepted by listing views
//
// All getters return copies, so callers may read them without holding any
// lock. Listings and comments are ordered newest first.
package storage
