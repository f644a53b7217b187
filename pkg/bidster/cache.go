package bidster

import (
	"context"
	"strings"

	"github.com/bidster/bidster/pkg/swr"
)

// listingChanged writes the server's copy of a listing into its own cache
// entry and into every cached page that shows it. No request is made.
func (s *Service) listingChanged(l *Listing) {
	if l.ID == 0 {
		return
	}
	s.stampListing(l)
	s.coord.Mutate(ListingKey(l.ID), l)

	for _, key := range s.coord.Keys() {
		if !isListingCollection(swr.KeyPath(key)) {
			continue
		}
		snap := s.coord.Get(key)
		if !snap.HasData || !pageShows(snap.Data, l.ID) {
			continue
		}
		s.coord.Update(key, func(current any, _ bool) any {
			return replaceInPage(current, l)
		})
	}
}

// revalidate refetches, in the background, every cached key under one of
// the given paths.
func (s *Service) revalidate(paths ...string) {
	for _, key := range s.coord.Keys() {
		path := swr.KeyPath(key)
		for _, p := range paths {
			if path == p {
				s.coord.Revalidate(key)
				break
			}
		}
	}
}

func isListingCollection(path string) bool {
	switch {
	case path == pathListings, path == pathWatchlist:
		return true
	case strings.HasPrefix(path, pathCategories+"/") && strings.HasSuffix(path, "/listings"):
		return true
	case strings.HasPrefix(path, "/users/") && strings.HasSuffix(path, "/listings"):
		return true
	}
	return false
}

func pageShows(data any, id int) bool {
	var results []Listing
	switch p := data.(type) {
	case *Page[Listing]:
		results = p.Results
	case *CategoryPage:
		results = p.Results
	}
	for _, r := range results {
		if r.ID == id {
			return true
		}
	}
	return false
}

func replaceIn(results []Listing, l *Listing) []Listing {
	out := make([]Listing, len(results))
	for i, r := range results {
		if r.ID == l.ID {
			out[i] = *l
		} else {
			out[i] = r
		}
	}
	return out
}

// replaceInPage copies the page so readers holding the old value see no
// change.
func replaceInPage(data any, l *Listing) any {
	switch p := data.(type) {
	case *Page[Listing]:
		cp := *p
		cp.Results = replaceIn(p.Results, l)
		return &cp
	case *CategoryPage:
		cp := *p
		cp.Results = replaceIn(p.Results, l)
		return &cp
	}
	return data
}

// ListingsResource subscribes to a page of all listings.
func (s *Service) ListingsResource(q ListingsQuery, onChange func(swr.Value[*Page[Listing]])) *swr.Resource[*Page[Listing]] {
	return swr.Use(s.coord, ListingsKey(q), s.listingsFetcher(q), nil, onChange)
}

func (s *Service) listingsFetcher(q ListingsQuery) func(context.Context) (*Page[Listing], error) {
	return func(ctx context.Context) (*Page[Listing], error) {
		return s.Listings(ctx, q)
	}
}

// RekeyListings moves a listings resource to a new query, as the search box
// and pager do.
func (s *Service) RekeyListings(r *swr.Resource[*Page[Listing]], q ListingsQuery) swr.Value[*Page[Listing]] {
	return r.Rekey(ListingsKey(q), s.listingsFetcher(q))
}

// WatchlistResource subscribes to a page of the watchlist.
func (s *Service) WatchlistResource(q ListingsQuery, onChange func(swr.Value[*Page[Listing]])) *swr.Resource[*Page[Listing]] {
	return swr.Use(s.coord, WatchlistKey(q), func(ctx context.Context) (*Page[Listing], error) {
		return s.Watchlist(ctx, q)
	}, nil, onChange)
}

// ListingResource subscribes to one listing.
func (s *Service) ListingResource(id int, onChange func(swr.Value[*Listing])) *swr.Resource[*Listing] {
	return swr.Use(s.coord, ListingKey(id), func(ctx context.Context) (*Listing, error) {
		return s.Listing(ctx, id)
	}, nil, onChange)
}

// CommentsResource subscribes to a page of a listing's comments.
func (s *Service) CommentsResource(listingID, page int, onChange func(swr.Value[*Page[Comment]])) *swr.Resource[*Page[Comment]] {
	return swr.Use(s.coord, CommentsKey(listingID, page), func(ctx context.Context) (*Page[Comment], error) {
		return s.Comments(ctx, listingID, page)
	}, nil, onChange)
}

// CategoriesResource subscribes to the category list.
func (s *Service) CategoriesResource(onChange func(swr.Value[[]Category])) *swr.Resource[[]Category] {
	return swr.Use(s.coord, CategoriesKey, s.Categories, nil, onChange)
}

// CategoryListingsResource subscribes to a page of one category's listings.
func (s *Service) CategoryListingsResource(categoryID int, q ListingsQuery, onChange func(swr.Value[*CategoryPage])) *swr.Resource[*CategoryPage] {
	return swr.Use(s.coord, CategoryListingsKey(categoryID, q), func(ctx context.Context) (*CategoryPage, error) {
		return s.CategoryListings(ctx, categoryID, q)
	}, nil, onChange)
}

// MapListingsResource subscribes to the map view's listings.
func (s *Service) MapListingsResource(onChange func(swr.Value[[]MapListing])) *swr.Resource[[]MapListing] {
	return swr.Use(s.coord, MapListingsKey, s.MapListings, nil, onChange)
}
