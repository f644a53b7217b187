package bidstertest

import (
	"strconv"
	"time"

	"github.com/bidster/bidster/internal/storage"
)

type meJSON struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
}

type categoryJSON struct {
	ID                 int    `json:"id"`
	Category           string `json:"category"`
	ActiveListingCount int    `json:"active_listing_count"`
}

type listingJSON struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	Active       bool      `json:"active"`
	StartingBid  int       `json:"starting_bid"`
	CurrentBid   int       `json:"current_bid"`
	TotalBids    int       `json:"total_bids"`
	Category     int       `json:"category"`
	CategoryName string    `json:"category_name"`
	User         int       `json:"user"`
	Username     string    `json:"username"`
	IsOwner      bool      `json:"is_owner"`
	Rating       float64   `json:"rating"`
	UserRating   int       `json:"user_rating"`
	IsWatched    bool      `json:"is_watched"`
	WinnerID     *int      `json:"winner_id"`
	WinnerName   *string   `json:"winner_name"`
	IsClosed     bool      `json:"is_closed"`
	Latitude     *string   `json:"latitude"`
	Longitude    *string   `json:"longitude"`
	CreatedAt    time.Time `json:"created_at"`
}

type mapListingJSON struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	CurrentBid  int     `json:"current_bid"`
	Latitude    *string `json:"latitude"`
	Longitude   *string `json:"longitude"`
}

type commentJSON struct {
	ID        int           `json:"id"`
	Comment   string        `json:"comment"`
	User      int           `json:"user"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	Replies   []commentJSON `json:"replies"`
}

type pageJSON struct {
	Count    int    `json:"count"`
	NumPages int    `json:"num_pages"`
	Results  any    `json:"results"`
	Category string `json:"category,omitempty"`
}

// decimal renders a coordinate as the server's six-place decimal string.
func decimal(f *float64) *string {
	if f == nil {
		return nil
	}
	s := strconv.FormatFloat(*f, 'f', 6, 64)
	return &s
}

func (s *Server) categoryView(c *storage.Category) categoryJSON {
	active := s.store.Listings(storage.ListingQuery{Filter: storage.FilterActive, CategoryID: c.ID})
	return categoryJSON{ID: c.ID, Category: c.Name, ActiveListingCount: len(active)}
}

func (s *Server) currentBid(l *storage.Listing) int {
	if hb := s.store.HighestBid(l.ID); hb != nil {
		return hb.Amount
	}
	return l.StartingBid
}

func (s *Server) listingView(l *storage.Listing, viewer *storage.User) listingJSON {
	v := listingJSON{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		ImageURL:    l.ImageURL,
		Active:      l.Active,
		StartingBid: l.StartingBid,
		CurrentBid:  s.currentBid(l),
		TotalBids:   s.store.BidCount(l.ID),
		Category:    l.CategoryID,
		User:        l.OwnerID,
		IsOwner:     l.OwnerID == viewer.ID,
		Rating:      s.store.AverageRating(l.ID),
		UserRating:  s.store.UserRating(l.ID, viewer.ID),
		IsWatched:   s.store.IsWatched(l.ID, viewer.ID),
		IsClosed:    !l.Active,
		Latitude:    decimal(l.Latitude),
		Longitude:   decimal(l.Longitude),
		CreatedAt:   l.CreatedAt,
	}
	if c := s.store.Category(l.CategoryID); c != nil {
		v.CategoryName = c.Name
	}
	if owner := s.store.User(l.OwnerID); owner != nil {
		v.Username = owner.Username
	}
	if wb := s.store.WinningBid(l.ID); wb != nil {
		id := wb.UserID
		v.WinnerID = &id
		if winner := s.store.User(wb.UserID); winner != nil {
			name := winner.Username
			v.WinnerName = &name
		}
	}
	return v
}

func (s *Server) mapListingView(l *storage.Listing) mapListingJSON {
	return mapListingJSON{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		ImageURL:    l.ImageURL,
		CurrentBid:  s.currentBid(l),
		Latitude:    decimal(l.Latitude),
		Longitude:   decimal(l.Longitude),
	}
}

func (s *Server) commentView(c *storage.Comment) commentJSON {
	v := commentJSON{
		ID:        c.ID,
		Comment:   c.Text,
		User:      c.UserID,
		CreatedAt: c.CreatedAt,
		Replies:   []commentJSON{},
	}
	if u := s.store.User(c.UserID); u != nil {
		v.Name = u.DisplayName()
	}
	for _, r := range s.store.Comments(c.ListingID, c.ID) {
		v.Replies = append(v.Replies, s.commentView(r))
	}
	return v
}
