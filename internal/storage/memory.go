package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type watchKey struct {
	listingID int
	userID    int
}

// InMemoryStore is a thread-safe in-memory implementation of Store.
type InMemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	seq        map[string]int
	users      map[int]*User
	tokens     map[string]int
	categories map[int]*Category
	listings   map[int]*Listing
	bids       map[int][]*Bid
	ratings    map[watchKey]int
	watches    map[watchKey]bool
	comments   map[int]*Comment
}

// NewInMemoryStore creates a new InMemoryStore. A nil clock uses time.Now.
func NewInMemoryStore(now func() time.Time) *InMemoryStore {
	if now == nil {
		now = time.Now
	}
	s := &InMemoryStore{now: now}
	s.resetLocked()
	return s
}

func (s *InMemoryStore) resetLocked() {
	s.seq = make(map[string]int)
	s.users = make(map[int]*User)
	s.tokens = make(map[string]int)
	s.categories = make(map[int]*Category)
	s.listings = make(map[int]*Listing)
	s.bids = make(map[int][]*Bid)
	s.ratings = make(map[watchKey]int)
	s.watches = make(map[watchKey]bool)
	s.comments = make(map[int]*Comment)
}

// Reset removes all state.
func (s *InMemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// id returns the next ID for kind. Each kind numbers from 1, like a table.
func (s *InMemoryStore) id(kind string) int {
	s.seq[kind]++
	return s.seq[kind]
}

// CreateUser registers a user. Usernames are unique.
func (s *InMemoryStore) CreateUser(u User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userByUsernameLocked(u.Username) != nil {
		return nil, ErrUsernameTaken
	}
	u.ID = s.id("user")
	u.CreatedAt = s.now()
	s.users[u.ID] = &u
	out := u
	return &out, nil
}

// User returns a user by ID, or nil.
func (s *InMemoryStore) User(id int) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.users[id])
}

// UserByUsername returns a user by username, or nil.
func (s *InMemoryStore) UserByUsername(username string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.userByUsernameLocked(username))
}

func (s *InMemoryStore) userByUsernameLocked(username string) *User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// IssueToken creates a new auth token for the user.
func (s *InMemoryStore) IssueToken(userID int) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()
	return token
}

// UserForToken resolves a token, or returns nil.
func (s *InMemoryStore) UserForToken(token string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	if !ok {
		return nil
	}
	return copyUser(s.users[id])
}

// CreateCategory adds a category. Names are unique.
func (s *InMemoryStore) CreateCategory(name string) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return nil, ErrCategoryTaken
		}
	}
	c := &Category{ID: s.id("category"), Name: name, CreatedAt: s.now()}
	s.categories[c.ID] = c
	out := *c
	return &out, nil
}

// Category returns a category by ID, or nil.
func (s *InMemoryStore) Category(id int) *Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil
	}
	out := *c
	return &out
}

// Categories returns all categories in creation order.
func (s *InMemoryStore) Categories() []*Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Category, 0, len(s.categories))
	for _, c := range s.categories {
		out := *c
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// CreateListing stores a new active listing.
func (s *InMemoryStore) CreateListing(l Listing) (*Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[l.CategoryID]; !ok {
		return nil, ErrNotFound
	}
	l.ID = s.id("listing")
	l.Active = true
	l.Latitude = copyFloat(l.Latitude)
	l.Longitude = copyFloat(l.Longitude)
	l.CreatedAt = s.now()
	l.UpdatedAt = l.CreatedAt
	s.listings[l.ID] = &l
	return copyListing(&l), nil
}

// UpdateListing replaces the editable fields of a listing owned by editorID.
func (s *InMemoryStore) UpdateListing(editorID int, l Listing) (*Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.listings[l.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if cur.OwnerID != editorID {
		return nil, ErrNotOwner
	}
	if _, ok := s.categories[l.CategoryID]; !ok {
		return nil, ErrNotFound
	}
	cur.Title = l.Title
	cur.Description = l.Description
	cur.ImageURL = l.ImageURL
	cur.StartingBid = l.StartingBid
	cur.CategoryID = l.CategoryID
	cur.Latitude = copyFloat(l.Latitude)
	cur.Longitude = copyFloat(l.Longitude)
	cur.UpdatedAt = s.now()
	return copyListing(cur), nil
}

// Listing returns a listing by ID, or nil.
func (s *InMemoryStore) Listing(id int) *Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyListing(s.listings[id])
}

// Listings returns listings matching q, newest first.
func (s *InMemoryStore) Listings(q ListingQuery) []*Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Listing, 0)
	for _, l := range s.listings {
		if s.matches(l, q) {
			result = append(result, copyListing(l))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

// CloseListing deactivates a listing owned by userID and marks the highest
// bid as the winner.
func (s *InMemoryStore) CloseListing(listingID, userID int) (*Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return nil, ErrNotFound
	}
	if l.OwnerID != userID {
		return nil, ErrNotOwner
	}
	l.Active = false
	l.UpdatedAt = s.now()
	if hb := s.highestBidLocked(listingID); hb != nil {
		hb.Winner = true
	}
	return copyListing(l), nil
}

// PlaceBid records a bid greater than the current bid, which is the highest
// bid or the starting bid when there are none.
func (s *InMemoryStore) PlaceBid(listingID, userID, amount int) (*Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return nil, ErrNotFound
	}
	if !l.Active {
		return nil, ErrListingClosed
	}
	current := l.StartingBid
	if hb := s.highestBidLocked(listingID); hb != nil {
		current = hb.Amount
	}
	if amount <= current {
		return nil, ErrBidTooLow
	}
	b := &Bid{ID: s.id("bid"), ListingID: listingID, UserID: userID, Amount: amount, CreatedAt: s.now()}
	s.bids[listingID] = append(s.bids[listingID], b)
	out := *b
	return &out, nil
}

// HighestBid returns the highest bid, or nil.
func (s *InMemoryStore) HighestBid(listingID int) *Bid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBid(s.highestBidLocked(listingID))
}

func (s *InMemoryStore) highestBidLocked(listingID int) *Bid {
	var best *Bid
	for _, b := range s.bids[listingID] {
		if best == nil || b.Amount > best.Amount {
			best = b
		}
	}
	return best
}

// BidCount returns the number of bids on a listing.
func (s *InMemoryStore) BidCount(listingID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bids[listingID])
}

// WinningBid returns the bid marked as winner, or nil.
func (s *InMemoryStore) WinningBid(listingID int) *Bid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBid(s.winningBidLocked(listingID))
}

func (s *InMemoryStore) winningBidLocked(listingID int) *Bid {
	for _, b := range s.bids[listingID] {
		if b.Winner {
			return b
		}
	}
	return nil
}

// Rate records a rating; each user rates a listing once.
func (s *InMemoryStore) Rate(listingID, userID, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[listingID]; !ok {
		return ErrNotFound
	}
	key := watchKey{listingID, userID}
	if _, ok := s.ratings[key]; ok {
		return ErrAlreadyRated
	}
	s.ratings[key] = value
	return nil
}

// AverageRating returns the mean rating, or 0.
func (s *InMemoryStore) AverageRating(listingID int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, n := 0, 0
	for k, v := range s.ratings {
		if k.listingID == listingID {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// UserRating returns the user's rating of a listing, or 0.
func (s *InMemoryStore) UserRating(listingID, userID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratings[watchKey{listingID, userID}]
}

// ToggleWatch adds or removes a listing from a user's watchlist.
func (s *InMemoryStore) ToggleWatch(listingID, userID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[listingID]; !ok {
		return false, ErrNotFound
	}
	key := watchKey{listingID, userID}
	if s.watches[key] {
		delete(s.watches, key)
		return false, nil
	}
	s.watches[key] = true
	return true, nil
}

// IsWatched reports whether the user watches the listing.
func (s *InMemoryStore) IsWatched(listingID, userID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watches[watchKey{listingID, userID}]
}

// AddComment stores a comment or a reply. The parent must belong to the
// same listing.
func (s *InMemoryStore) AddComment(c Comment) (*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[c.ListingID]; !ok {
		return nil, ErrNotFound
	}
	if c.ParentID != 0 {
		parent, ok := s.comments[c.ParentID]
		if !ok || parent.ListingID != c.ListingID {
			return nil, ErrNotFound
		}
	}
	c.ID = s.id("comment")
	c.CreatedAt = s.now()
	s.comments[c.ID] = &c
	out := c
	return &out, nil
}

// Comments returns the comments on a listing with the given parent, newest
// first.
func (s *InMemoryStore) Comments(listingID, parentID int) []*Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Comment, 0)
	for _, c := range s.comments {
		if c.ListingID == listingID && c.ParentID == parentID {
			out := *c
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

func copyBid(b *Bid) *Bid {
	if b == nil {
		return nil
	}
	out := *b
	return &out
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyListing(l *Listing) *Listing {
	if l == nil {
		return nil
	}
	out := *l
	out.Latitude = copyFloat(l.Latitude)
	out.Longitude = copyFloat(l.Longitude)
	return &out
}

// Ensure InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)
