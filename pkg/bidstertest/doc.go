// Package bidstertest runs an in-process Bidster backend for tests.
//
// The server speaks the same wire format as the real one: snake_case JSON,
// decimal strings for coordinates, Django-style pagination and the
// "Authorization: Token <key>" scheme. State lives in an in-memory store
// that tests can seed directly.
//
// # Basic Usage
//
//	func TestBid(t *testing.T) {
//	    srv := bidstertest.New(t)
//
//	    alice, token := srv.SeedUser("alice", "password123")
//	    cat := srv.SeedCategory("Books")
//	    listing := srv.SeedListing(alice.ID, cat.ID, "Desk", 10)
//
//	    client := api.New(srv.APIURL(), api.WithTokenSource(api.TokenFunc(func() string { return token })))
//	    // ...
//
//	    srv.AssertCalled(t, "POST", "/api/listings/{id}/bids")
//	}
//
// The server is stopped automatically when the test completes.
//
// # Fault Injection
//
// Inject overrides the response for matching requests, optionally only a
// number of times, or delays them before they reach the real handler:
//
//	srv.Inject("GET", "/api/me").
//	    WithStatus(500).
//	    WithBody("<h1>Server Error</h1>").
//	    Once().
//	    Reply()
//
//	gate := make(chan struct{})
//	srv.Inject("GET", "/api/listings").WithGate(gate).Reply()
//
// # Request Assertions
//
// Every request is logged with its headers and body:
//
//	req, _ := srv.LastRequest()
//	req.AssertHeader(t, "Authorization", "Token "+token)
//	req.AssertJSONBody(t, `{"bid": 15}`)
package bidstertest
