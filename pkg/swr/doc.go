// Package swr is a stale-while-revalidate cache for remote resources.
//
// A Coordinator keeps one entry per cache key. Subscribing to a key returns
// whatever the entry currently holds and starts a background fetch, unless a
// fetch for that key is already running. When the fetch completes every live
// subscriber is notified. A failed fetch keeps the last good value and
// records the error next to it.
//
//	c := swr.New()
//	defer c.Close()
//
//	key := swr.Key("/listings", map[string]any{"page": 1, "filter": "active"})
//	sub, snap := c.Subscribe(key, fetchListings, nil, func(s swr.Snapshot) {
//	    render(s.Data)
//	})
//	defer sub.Unsubscribe()
//
// Mutate writes a value without touching the network; Refetch re-runs the
// fetcher and waits for the result. Use provides the same operations typed
// with generics.
package swr
