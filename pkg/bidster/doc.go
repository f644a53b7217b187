// Package bidster is the client-side domain layer for the Bidster auction
// marketplace.
//
// A Service wraps an api.Client and a session.Session. It validates input
// before anything reaches the network, decodes responses into typed models
// and keeps an swr.Coordinator in step with writes, so views subscribed to
// a listing see a new bid without refetching.
//
//	sess := session.New(session.NewFileStore(dir))
//	client := api.New(cfg.APIURL(), api.WithTokenSource(sess))
//	svc := bidster.NewService(client, sess)
//	defer svc.Close()
//
//	page, err := svc.Listings(ctx, bidster.ListingsQuery{Filter: bidster.FilterActive})
//
// Operations other than Login and Register need a stored token and fail
// with ErrUnauthenticated before sending a request when there is none.
package bidster
