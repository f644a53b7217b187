// Package api is the single choke point for HTTP traffic to the Bidster REST
// backend.
//
// Every call goes through Client.Do, which enforces two contracts so feature
// code never deals with auth headers or key casing:
//
//   - If the configured TokenSource yields a token, the request carries
//     "Authorization: Token <value>". A missing token is not an error here;
//     the server's 401 is returned to the caller as a KindHTTP error.
//   - Query parameters and JSON bodies are sent with snake_case keys, and JSON
//     response bodies are handed back with camelCase keys, at any nesting depth.
//
// Failures are normalized into *Error with a Kind: KindNetwork (no response),
// KindHTTP (non-2xx, carrying the status and the server's message) and
// KindDecode (the response claimed JSON but could not be parsed or did not fit
// the requested schema). The client never retries and never caches.
//
// Usage:
//
//	client := api.New("http://localhost:8000/api",
//	    api.WithTokenSource(sess),
//	    api.WithLogger(logger),
//	)
//	resp, err := client.Post(ctx, "/listings", map[string]any{"title": "Desk", "startingBid": 10})
//	listing, err := api.Decode[Listing](resp)
package api
