package bidster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User is the signed-in user's profile as returned by /me.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
}

// Category groups listings. The server calls the name field "category".
type Category struct {
	ID                 int    `json:"id"`
	Name               string `json:"category"`
	ActiveListingCount int    `json:"activeListingCount,omitempty"`
}

// Coordinate is an optional latitude or longitude. The server encodes
// decimals as strings, so both strings and numbers are accepted.
type Coordinate struct {
	Value float64
	Valid bool
}

// Coord returns a valid coordinate.
func Coord(v float64) Coordinate {
	return Coordinate{Value: v, Valid: true}
}

// Ptr returns the value as a pointer, nil when unset.
func (c Coordinate) Ptr() *float64 {
	if !c.Valid {
		return nil
	}
	v := c.Value
	return &v
}

// MarshalJSON encodes the coordinate as a number or null.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON accepts a number, a numeric string, an empty string or null.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Coordinate{}
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*c = Coordinate{}
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", string(data), err)
	}
	*c = Coordinate{Value: v, Valid: true}
	return nil
}

func (c Coordinate) String() string {
	if !c.Valid {
		return ""
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// CategoryRef is a listing's category, which the server sends either as an
// ID or as an object.
type CategoryRef struct {
	ID   int
	Name string
}

// MarshalJSON encodes the reference as its ID.
func (r CategoryRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts an ID (number or string), an object or null.
func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = CategoryRef{}
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj Category
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = CategoryRef{ID: obj.ID, Name: obj.Name}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		id, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid category id %q", s)
		}
		*r = CategoryRef{ID: id}
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("invalid category reference %s: %w", string(data), err)
	}
	*r = CategoryRef{ID: id}
	return nil
}

// Listing is an auction item as seen by the requesting user.
type Listing struct {
	ID            int         `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	ImageURL      string      `json:"imageUrl"`
	Active        bool        `json:"active"`
	StartingBid   int         `json:"startingBid"`
	CurrentBid    int         `json:"currentBid"`
	TotalBids     int         `json:"totalBids"`
	Category      CategoryRef `json:"category"`
	CategoryName  string      `json:"categoryName"`
	User          int         `json:"user"`
	Username      string      `json:"username"`
	IsOwner       bool        `json:"isOwner"`
	Rating        float64     `json:"rating"`
	UserRating    int         `json:"userRating"`
	IsWatched     bool        `json:"isWatched"`
	WinnerID      *int        `json:"winnerId"`
	WinnerName    string      `json:"winnerName"`
	IsClosed      bool        `json:"isClosed"`
	Latitude      Coordinate  `json:"latitude"`
	Longitude     Coordinate  `json:"longitude"`
	CreatedAt     time.Time   `json:"createdAt"`
	PostedTimeAgo string      `json:"postedTimeAgo"`
}

// HasLocation reports whether both coordinates are set.
func (l *Listing) HasLocation() bool {
	return l.Latitude.Valid && l.Longitude.Valid
}

// WonBy reports whether userID won the closed listing.
func (l *Listing) WonBy(userID int) bool {
	return l.WinnerID != nil && *l.WinnerID == userID
}

// NextBid is the smallest bid the server will accept.
func (l *Listing) NextBid() int {
	return l.CurrentBid + 1
}

// MapListing is the reduced listing returned by /map_listings.
type MapListing struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	CurrentBid  int        `json:"currentBid"`
	Latitude    Coordinate `json:"latitude"`
	Longitude   Coordinate `json:"longitude"`
}

// Comment is a remark on a listing. Replies are nested one level deep.
type Comment struct {
	ID            int       `json:"id"`
	Comment       string    `json:"comment"`
	User          int       `json:"user"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"createdAt"`
	PostedTimeAgo string    `json:"postedTimeAgo"`
	Replies       []Comment `json:"replies"`
}

// Page is one page of a paginated collection.
type Page[T any] struct {
	Count    int `json:"count"`
	NumPages int `json:"numPages"`
	Results  []T `json:"results"`
}

// CategoryPage is a page of listings in one category.
type CategoryPage struct {
	Page[Listing]
	Category string `json:"category"`
}

// TokenResponse is returned by /token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Credentials sign a user in.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Registration creates an account.
type Registration struct {
	Username        string `json:"username" validate:"required,max=20"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ListingInput creates or replaces a listing. Nil coordinates are sent as
// null, which clears them on update.
type ListingInput struct {
	Title       string   `json:"title" validate:"required,max=64"`
	Description string   `json:"description" validate:"required"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
	StartingBid int      `json:"startingBid" validate:"gt=0"`
	Category    int      `json:"category" validate:"gt=0"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// InputFromListing returns the editable fields of l.
func InputFromListing(l *Listing) ListingInput {
	return ListingInput{
		Title:       l.Title,
		Description: l.Description,
		ImageURL:    l.ImageURL,
		StartingBid: l.StartingBid,
		Category:    l.Category.ID,
		Latitude:    l.Latitude.Ptr(),
		Longitude:   l.Longitude.Ptr(),
	}
}

type bidInput struct {
	Bid int `json:"bid" validate:"gt=0"`
}

type ratingInput struct {
	Rating int `json:"rating" validate:"gte=1,lte=5"`
}

type commentInput struct {
	Comment         string `json:"comment" validate:"required,max=256"`
	ParentCommentID *int   `json:"parentCommentId,omitempty"`
}

type categoryInput struct {
	Category string `json:"category" validate:"required,max=64"`
}

type describeInput struct {
	Title string `json:"title" validate:"required"`
}

type describeResponse struct {
	Description string `json:"description"`
}
