package storage

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// --- Helpers ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func floatPtr(f float64) *float64 { return &f }

type fixture struct {
	store    *InMemoryStore
	alice    *User
	bob      *User
	category *Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewInMemoryStore(newFakeClock().Now)
	alice, err := store.CreateUser(User{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateUser(alice) error = %v", err)
	}
	bob, err := store.CreateUser(User{Username: "bob", Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateUser(bob) error = %v", err)
	}
	cat, err := store.CreateCategory("Furniture")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return &fixture{store: store, alice: alice, bob: bob, category: cat}
}

func (f *fixture) listing(t *testing.T, owner *User, title string, startingBid int) *Listing {
	t.Helper()
	l, err := f.store.CreateListing(Listing{
		OwnerID:     owner.ID,
		CategoryID:  f.category.ID,
		Title:       title,
		Description: title + " description",
		StartingBid: startingBid,
	})
	if err != nil {
		t.Fatalf("CreateListing(%q) error = %v", title, err)
	}
	return l
}

// --- Users and tokens ---

func TestInMemory_CreateUserUnique(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.CreateUser(User{Username: "alice"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("CreateUser(duplicate) error = %v, want ErrUsernameTaken", err)
	}
	if got := f.store.UserByUsername("bob"); got == nil || got.ID != f.bob.ID {
		t.Errorf("UserByUsername(bob) = %v", got)
	}
	if got := f.store.User(9999); got != nil {
		t.Errorf("User(9999) = %v, want nil", got)
	}
}

func TestInMemory_Tokens(t *testing.T) {
	f := newFixture(t)
	token := f.store.IssueToken(f.alice.ID)
	if token == "" {
		t.Fatal("IssueToken() returned empty token")
	}
	if got := f.store.UserForToken(token); got == nil || got.Username != "alice" {
		t.Errorf("UserForToken() = %v, want alice", got)
	}
	if got := f.store.UserForToken("bogus"); got != nil {
		t.Errorf("UserForToken(bogus) = %v, want nil", got)
	}
	if other := f.store.IssueToken(f.alice.ID); other == token {
		t.Error("IssueToken() returned the same token twice")
	}
}

// --- Categories ---

func TestInMemory_Categories(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.CreateCategory("Furniture"); !errors.Is(err, ErrCategoryTaken) {
		t.Errorf("CreateCategory(duplicate) error = %v", err)
	}
	if _, err := f.store.CreateCategory("Books"); err != nil {
		t.Fatalf("CreateCategory(Books) error = %v", err)
	}
	cats := f.store.Categories()
	if len(cats) != 2 || cats[0].Name != "Furniture" || cats[1].Name != "Books" {
		t.Errorf("Categories() = %v", cats)
	}
}

// --- Listings ---

func TestInMemory_ListingsNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.listing(t, f.alice, "Desk", 10)
	f.listing(t, f.alice, "Chair", 5)
	f.listing(t, f.bob, "Lamp", 3)

	got := f.store.Listings(ListingQuery{})
	titles := make([]string, len(got))
	for i, l := range got {
		titles[i] = l.Title
	}
	if fmt.Sprint(titles) != "[Lamp Chair Desk]" {
		t.Errorf("Listings() order = %v, want [Lamp Chair Desk]", titles)
	}
}

func TestInMemory_ListingFilters(t *testing.T) {
	f := newFixture(t)
	desk := f.listing(t, f.alice, "Oak Desk", 10)
	chair := f.listing(t, f.alice, "Chair", 5)
	lamp := f.listing(t, f.bob, "Desk Lamp", 3)

	if _, err := f.store.PlaceBid(desk.ID, f.bob.ID, 20); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}
	if _, err := f.store.CloseListing(desk.ID, f.alice.ID); err != nil {
		t.Fatalf("CloseListing() error = %v", err)
	}
	if _, err := f.store.ToggleWatch(chair.ID, f.bob.ID); err != nil {
		t.Fatalf("ToggleWatch() error = %v", err)
	}

	tests := []struct {
		name  string
		query ListingQuery
		want  []int
	}{
		{"all", ListingQuery{Filter: FilterAll}, []int{lamp.ID, chair.ID, desk.ID}},
		{"unknown behaves like all", ListingQuery{Filter: "bogus"}, []int{lamp.ID, chair.ID, desk.ID}},
		{"active", ListingQuery{Filter: FilterActive}, []int{lamp.ID, chair.ID}},
		{"closed", ListingQuery{Filter: FilterClosed}, []int{desk.ID}},
		{"my", ListingQuery{Filter: FilterMy, ViewerID: f.alice.ID}, []int{chair.ID, desk.ID}},
		{"winner", ListingQuery{Filter: FilterWinner, ViewerID: f.bob.ID}, []int{desk.ID}},
		{"winner for non-winner", ListingQuery{Filter: FilterWinner, ViewerID: f.alice.ID}, []int{}},
		{"watchlist", ListingQuery{Filter: FilterWatchlist, ViewerID: f.bob.ID}, []int{chair.ID}},
		{"query is case-insensitive", ListingQuery{Filter: FilterAll, Query: "desk"}, []int{lamp.ID, desk.ID}},
		{"query with filter", ListingQuery{Filter: FilterActive, Query: "DESK"}, []int{lamp.ID}},
		{"owner", ListingQuery{OwnerID: f.bob.ID}, []int{lamp.ID}},
		{"watched by", ListingQuery{WatchedBy: f.bob.ID, Filter: FilterAll}, []int{chair.ID}},
		{"category", ListingQuery{CategoryID: f.category.ID, Filter: FilterClosed}, []int{desk.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.store.Listings(tt.query)
			ids := make([]int, len(got))
			for i, l := range got {
				ids[i] = l.ID
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
				t.Errorf("Listings(%+v) = %v, want %v", tt.query, ids, tt.want)
			}
		})
	}
}

func TestInMemory_UpdateListingOwnerOnly(t *testing.T) {
	f := newFixture(t)
	desk := f.listing(t, f.alice, "Desk", 10)

	edit := *desk
	edit.Title = "Standing Desk"
	edit.Latitude = floatPtr(51.5)

	if _, err := f.store.UpdateListing(f.bob.ID, edit); !errors.Is(err, ErrNotOwner) {
		t.Errorf("UpdateListing(by bob) error = %v, want ErrNotOwner", err)
	}
	got, err := f.store.UpdateListing(f.alice.ID, edit)
	if err != nil {
		t.Fatalf("UpdateListing() error = %v", err)
	}
	if got.Title != "Standing Desk" || got.Latitude == nil || *got.Latitude != 51.5 {
		t.Errorf("UpdateListing() = %+v", got)
	}

	*edit.Latitude = 0
	if stored := f.store.Listing(desk.ID); *stored.Latitude != 51.5 {
		t.Error("store shares latitude pointer with caller")
	}
}

func TestInMemory_CreateListingUnknownCategory(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.CreateListing(Listing{OwnerID: f.alice.ID, CategoryID: 999, Title: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateListing(unknown category) error = %v, want ErrNotFound", err)
	}
}

// --- Bids ---

func TestInMemory_PlaceBid(t *testing.T) {
	f := newFixture(t)
	desk := f.listing(t, f.alice, "Desk", 10)

	if _, err := f.store.PlaceBid(desk.ID, f.bob.ID, 10); !errors.Is(err, ErrBidTooLow) {
		t.Errorf("PlaceBid(= starting bid) error = %v, want ErrBidTooLow", err)
	}
	if _, err := f.store.PlaceBid(desk.ID, f.bob.ID, 11); err != nil {
		t.Fatalf("PlaceBid(11) error = %v", err)
	}
	if _, err := f.store.PlaceBid(desk.ID, f.alice.ID, 11); !errors.Is(err, ErrBidTooLow) {
		t.Errorf("PlaceBid(= highest) error = %v, want ErrBidTooLow", err)
	}
	if _, err := f.store.PlaceBid(desk.ID, f.alice.ID, 15); err != nil {
		t.Fatalf("PlaceBid(15) error = %v", err)
	}

	if hb := f.store.HighestBid(desk.ID); hb == nil || hb.Amount != 15 {
		t.Errorf("HighestBid() = %v, want 15", hb)
	}
	if n := f.store.BidCount(desk.ID); n != 2 {
		t.Errorf("BidCount() = %d, want 2", n)
	}
	if _, err := f.store.PlaceBid(9999, f.bob.ID, 100); !errors.Is(err, ErrNotFound) {
		t.Errorf("PlaceBid(unknown) error = %v", err)
	}
}

func TestInMemory_CloseListingMarksWinner(t *testing.T) {
	f := newFixture(t)
	desk := f.listing(t, f.alice, "Desk", 10)
	_, _ = f.store.PlaceBid(desk.ID, f.bob.ID, 12)
	_, _ = f.store.PlaceBid(desk.ID, f.bob.ID, 20)

	if _, err := f.store.CloseListing(desk.ID, f.bob.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("CloseListing(by bob) error = %v, want ErrNotOwner", err)
	}
	closed, err := f.store.CloseListing(desk.ID, f.alice.ID)
	if err != nil {
		t.Fatalf("CloseListing() error = %v", err)
	}
	if closed.Active {
		t.Error("CloseListing() left listing active")
	}
	w := f.store.WinningBid(desk.ID)
	if w == nil || w.Amount != 20 || w.UserID != f.bob.ID {
		t.Errorf("WinningBid() = %v, want bob's 20", w)
	}
	if _, err := f.store.PlaceBid(desk.ID, f.bob.ID, 50); !errors.Is(err, ErrListingClosed) {
		t.Errorf("PlaceBid(closed) error = %v, want ErrListingClosed", err)
	}
}

func TestInMemory_CloseWithoutBids(t *testing.T) {
	f := newFixture(t)
	desk := f.listing(t, f.alice, "Desk", 10)
	if _, err := f.store.CloseListing(desk.ID, f.alice.ID); err != nil {
		t.Fatalf("CloseListing() error = %v", err)
	}
	if w := f.store.WinningBid(desk.ID); w != nil {
		t.Errorf("WinningBid() = %v, want nil", w)
	}
}

// --- Ratings and watchlist ---

func TestInMemory_Ratings(t *testing.T) {
	f := newFixture(t)
	desk := f.listing(t, f.alice, "Desk", 10)

	if avg := f.store.AverageRating(desk.ID); avg != 0 {
		t.Errorf("AverageRating() = %v, want 0", avg)
	}
	if err := f.store.Rate(desk.ID, f.alice.ID, 5); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if err := f.store.Rate(desk.ID, f.bob.ID, 2); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if err := f.store.Rate(desk.ID, f.bob.ID, 4); !errors.Is(err, ErrAlreadyRated) {
		t.Errorf("Rate(again) error = %v, want ErrAlreadyRated", err)
	}
	if avg := f.store.AverageRating(desk.ID); avg != 3.5 {
		t.Errorf("AverageRating() = %v, want 3.5", avg)
	}
	if r := f.store.UserRating(desk.ID, f.bob.ID); r != 2 {
		t.Errorf("UserRating() = %d, want 2", r)
	}
}

func TestInMemory_ToggleWatch(t *testing.T) {
	f := newFixture(t)
	desk := f.listing(t, f.alice, "Desk", 10)

	watched, err := f.store.ToggleWatch(desk.ID, f.bob.ID)
	if err != nil || !watched {
		t.Fatalf("ToggleWatch() = %v, %v, want true", watched, err)
	}
	if !f.store.IsWatched(desk.ID, f.bob.ID) {
		t.Error("IsWatched() = false after first toggle")
	}
	watched, _ = f.store.ToggleWatch(desk.ID, f.bob.ID)
	if watched || f.store.IsWatched(desk.ID, f.bob.ID) {
		t.Error("second toggle should unwatch")
	}
}

// --- Comments ---

func TestInMemory_CommentsAndReplies(t *testing.T) {
	f := newFixture(t)
	desk := f.listing(t, f.alice, "Desk", 10)
	lamp := f.listing(t, f.alice, "Lamp", 10)

	first, err := f.store.AddComment(Comment{ListingID: desk.ID, UserID: f.bob.ID, Text: "Is it oak?"})
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	second, _ := f.store.AddComment(Comment{ListingID: desk.ID, UserID: f.bob.ID, Text: "Still available?"})
	reply, err := f.store.AddComment(Comment{ListingID: desk.ID, UserID: f.alice.ID, ParentID: first.ID, Text: "Yes"})
	if err != nil {
		t.Fatalf("AddComment(reply) error = %v", err)
	}

	top := f.store.Comments(desk.ID, 0)
	if len(top) != 2 || top[0].ID != second.ID || top[1].ID != first.ID {
		t.Errorf("Comments(top) = %v", top)
	}
	replies := f.store.Comments(desk.ID, first.ID)
	if len(replies) != 1 || replies[0].ID != reply.ID {
		t.Errorf("Comments(replies) = %v", replies)
	}

	if _, err := f.store.AddComment(Comment{ListingID: lamp.ID, UserID: f.bob.ID, ParentID: first.ID, Text: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddComment(parent on other listing) error = %v, want ErrNotFound", err)
	}
}

// --- Reset and concurrency ---

func TestInMemory_Reset(t *testing.T) {
	f := newFixture(t)
	f.listing(t, f.alice, "Desk", 10)
	f.store.Reset()
	if len(f.store.Listings(ListingQuery{})) != 0 || len(f.store.Categories()) != 0 || f.store.User(f.alice.ID) != nil {
		t.Error("Reset() left state behind")
	}
}

func TestInMemory_ConcurrentBids(t *testing.T) {
	f := newFixture(t)
	desk := f.listing(t, f.alice, "Desk", 0)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(amount int) {
			defer wg.Done()
			_, _ = f.store.PlaceBid(desk.ID, f.bob.ID, amount)
		}(i)
	}
	wg.Wait()

	if hb := f.store.HighestBid(desk.ID); hb == nil || hb.Amount != 50 {
		t.Errorf("HighestBid() = %v, want 50", hb)
	}
}

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{User{Username: "jdoe", FirstName: "jANE", LastName: "doe"}, "Jane Doe"},
		{User{Username: "jdoe", FirstName: "jane"}, "Jane"},
		{User{Username: "jdoe", LastName: " DOE "}, "Doe"},
		{User{Username: "jdoe"}, "jdoe"},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}
