// Package cli implements the bidster command line: signing in, browsing and
// searching listings, bidding, watching, commenting and managing your own
// listings against a Bidster server.
//
// Commands share one wiring path: configuration from cliconfig with the
// persistent flags applied, a session stored next to the global config, and
// a bidster.Service on top of the API client. List commands accept --where
// (an expr-lang boolean over each result's JSON fields) and --jsonpath.
package cli
