package storage

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Errors returned by Store implementations.
var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrCategoryTaken = errors.New("category already exists")
	ErrAlreadyRated  = errors.New("rating already exists")
	ErrBidTooLow     = errors.New("bid must be greater than the current bid")
	ErrListingClosed = errors.New("listing is closed")
	ErrNotOwner      = errors.New("not the owner of this listing")
)

// User is a registered account.
type User struct {
	ID        int
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// DisplayName is the capitalized full name, whichever half of it is set, or
// the username.
func (u *User) DisplayName() string {
	first := capitalize(strings.TrimSpace(u.FirstName))
	last := capitalize(strings.TrimSpace(u.LastName))
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return u.Username
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(string(r)) + cases.Lower(language.Und).String(s[size:])
}

// Category groups listings.
type Category struct {
	ID        int
	Name      string
	CreatedAt time.Time
}

// Listing is an item up for auction.
type Listing struct {
	ID          int
	OwnerID     int
	CategoryID  int
	Title       string
	Description string
	ImageURL    string
	StartingBid int
	Active      bool
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Bid is an offer on a listing. Winner is set on the highest bid when the
// listing is closed.
type Bid struct {
	ID        int
	ListingID int
	UserID    int
	Amount    int
	Winner    bool
	CreatedAt time.Time
}

// Comment is a remark on a listing. ParentID is 0 for top-level comments.
type Comment struct {
	ID        int
	ListingID int
	UserID    int
	ParentID  int
	Text      string
	CreatedAt time.Time
}

// Store defines the marketplace state operations.
type Store interface {
	// CreateUser registers a user. Usernames are unique.
	CreateUser(u User) (*User, error)
	// User returns a user by ID, or nil.
	User(id int) *User
	// UserByUsername returns a user by username, or nil.
	UserByUsername(username string) *User

	// IssueToken creates a new auth token for the user.
	IssueToken(userID int) string
	// UserForToken resolves a token, or returns nil.
	UserForToken(token string) *User

	// CreateCategory adds a category. Names are unique.
	CreateCategory(name string) (*Category, error)
	// Category returns a category by ID, or nil.
	Category(id int) *Category
	// Categories returns all categories in creation order.
	Categories() []*Category

	// CreateListing stores a new active listing.
	CreateListing(l Listing) (*Listing, error)
	// UpdateListing replaces the editable fields of a listing owned by editorID.
	UpdateListing(editorID int, l Listing) (*Listing, error)
	// Listing returns a listing by ID, or nil.
	Listing(id int) *Listing
	// Listings returns listings matching q, newest first.
	Listings(q ListingQuery) []*Listing
	// CloseListing deactivates a listing owned by userID and marks the
	// highest bid as the winner.
	CloseListing(listingID, userID int) (*Listing, error)

	// PlaceBid records a bid greater than the current bid.
	PlaceBid(listingID, userID, amount int) (*Bid, error)
	// HighestBid returns the highest bid, or nil.
	HighestBid(listingID int) *Bid
	// BidCount returns the number of bids on a listing.
	BidCount(listingID int) int
	// WinningBid returns the bid marked as winner, or nil.
	WinningBid(listingID int) *Bid

	// Rate records a rating; each user rates a listing once.
	Rate(listingID, userID, value int) error
	// AverageRating returns the mean rating, or 0.
	AverageRating(listingID int) float64
	// UserRating returns the user's rating of a listing, or 0.
	UserRating(listingID, userID int) int

	// ToggleWatch adds or removes a listing from a user's watchlist and
	// reports whether it is now watched.
	ToggleWatch(listingID, userID int) (bool, error)
	// IsWatched reports whether the user watches the listing.
	IsWatched(listingID, userID int) bool

	// AddComment stores a comment or a reply.
	AddComment(c Comment) (*Comment, error)
	// Comments returns the comments on a listing with the given parent
	// (0 for top level), newest first.
	Comments(listingID, parentID int) []*Comment

	// Reset removes all state.
	Reset()
}
