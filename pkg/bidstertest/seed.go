package bidstertest

import (
	"github.com/bidster/bidster/internal/storage"
)

// SeedUser registers a user and returns it with a fresh token.
func (s *Server) SeedUser(username, password string) (*storage.User, string) {
	s.t.Helper()
	return s.SeedUserWith(storage.User{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
	})
}

// SeedUserWith registers u and returns it with a fresh token.
func (s *Server) SeedUserWith(u storage.User) (*storage.User, string) {
	s.t.Helper()
	created, err := s.store.CreateUser(u)
	if err != nil {
		s.t.Fatalf("seed user %q: %v", u.Username, err)
	}
	return created, s.store.IssueToken(created.ID)
}

// Token issues a new token for an existing user.
func (s *Server) Token(userID int) string {
	return s.store.IssueToken(userID)
}

// SeedCategory adds a category.
func (s *Server) SeedCategory(name string) *storage.Category {
	s.t.Helper()
	c, err := s.store.CreateCategory(name)
	if err != nil {
		s.t.Fatalf("seed category %q: %v", name, err)
	}
	return c
}

// SeedListing adds an active listing.
func (s *Server) SeedListing(ownerID, categoryID int, title string, startingBid int) *storage.Listing {
	s.t.Helper()
	return s.SeedListingWith(storage.Listing{
		OwnerID:     ownerID,
		CategoryID:  categoryID,
		Title:       title,
		Description: "A " + title,
		StartingBid: startingBid,
	})
}

// SeedListingWith adds l as an active listing.
func (s *Server) SeedListingWith(l storage.Listing) *storage.Listing {
	s.t.Helper()
	created, err := s.store.CreateListing(l)
	if err != nil {
		s.t.Fatalf("seed listing %q: %v", l.Title, err)
	}
	return created
}

// SeedBid places a bid.
func (s *Server) SeedBid(listingID, userID, amount int) *storage.Bid {
	s.t.Helper()
	b, err := s.store.PlaceBid(listingID, userID, amount)
	if err != nil {
		s.t.Fatalf("seed bid %d on listing %d: %v", amount, listingID, err)
	}
	return b
}

// SeedComment adds a comment, or a reply when parentID is set.
func (s *Server) SeedComment(listingID, userID, parentID int, text string) *storage.Comment {
	s.t.Helper()
	c, err := s.store.AddComment(storage.Comment{ListingID: listingID, UserID: userID, ParentID: parentID, Text: text})
	if err != nil {
		s.t.Fatalf("seed comment on listing %d: %v", listingID, err)
	}
	return c
}
