package bidster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bidster/bidster/pkg/api"
	"github.com/bidster/bidster/pkg/logging"
	"github.com/bidster/bidster/pkg/session"
	"github.com/bidster/bidster/pkg/swr"
)

// ErrUnauthenticated is returned when an operation needs a signed-in user
// and the session holds no valid token.
var ErrUnauthenticated = errors.New("not signed in")

// Transport sends API requests. *api.Client implements it.
type Transport interface {
	Do(ctx context.Context, req *api.Request) (*api.Response, error)
}

// Service performs marketplace operations for the session's user.
type Service struct {
	api       Transport
	sess      *session.Session
	coord     *swr.Coordinator
	ownsCoord bool
	logger    *slog.Logger
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCoordinator shares a cache coordinator with the service. Without one
// the service creates and owns its own.
func WithCoordinator(c *swr.Coordinator) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.coord = c
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for relative timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a service sending requests through transport on behalf
// of sess.
func NewService(transport Transport, sess *session.Session, opts ...ServiceOption) *Service {
	s := &Service{
		api:    transport,
		sess:   sess,
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Component(s.logger, "bidster")
	if s.coord == nil {
		s.coord = swr.New(swr.WithLogger(s.logger), swr.WithClock(s.now))
		s.ownsCoord = true
	}
	return s
}

// Coordinator returns the cache the service keeps in step with writes.
func (s *Service) Coordinator() *swr.Coordinator {
	return s.coord
}

// Session returns the session the service acts for.
func (s *Service) Session() *session.Session {
	return s.sess
}

// Close stops background revalidation if the service owns the coordinator.
func (s *Service) Close() {
	if s.ownsCoord {
		s.coord.Close()
	}
}

func (s *Service) requireAuth() error {
	if !s.sess.IsAuthenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func (s *Service) get(ctx context.Context, path string, params map[string]any, out any) error {
	return s.do(ctx, &api.Request{Method: http.MethodGet, Path: path, Params: params}, out)
}

func (s *Service) post(ctx context.Context, path string, body, out any) error {
	return s.do(ctx, &api.Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (s *Service) put(ctx context.Context, path string, body, out any) error {
	return s.do(ctx, &api.Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (s *Service) do(ctx context.Context, req *api.Request, out any) error {
	resp, err := s.api.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || !resp.IsJSON() {
		return nil
	}
	return api.DecodeInto(resp, out)
}

// Login exchanges credentials for a token, stores it and loads the user's
// profile. A failed profile load leaves the session signed out.
func (s *Service) Login(ctx context.Context, creds Credentials) (*User, error) {
	if err := validateInput(creds); err != nil {
		return nil, err
	}
	var tok TokenResponse
	if err := s.post(ctx, pathToken, creds, &tok); err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	if tok.Token == "" {
		return nil, errors.New("failed to sign in: server returned no token")
	}
	if err := s.sess.SetToken(tok.Token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	user, err := s.Me(ctx)
	if err != nil {
		_ = s.sess.Clear()
		return nil, err
	}
	s.logger.Info("signed in", "username", user.Username)
	return user, nil
}

// Logout forgets the token and profile.
func (s *Service) Logout() error {
	if err := s.sess.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Register creates an account. It does not sign in.
func (s *Service) Register(ctx context.Context, reg Registration) error {
	if err := validateInput(reg); err != nil {
		return err
	}
	if err := s.post(ctx, pathRegister, reg, nil); err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	return nil
}

// Me loads the signed-in user's profile and stores it in the session. A 401
// means the stored token is no longer valid: the session is cleared and
// ErrUnauthenticated is returned.
func (s *Service) Me(ctx context.Context) (*User, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var user User
	if err := s.get(ctx, pathMe, nil, &user); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			if clearErr := s.sess.Clear(); clearErr != nil {
				s.logger.Warn("failed to clear session", "error", clearErr)
			}
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user.DisplayName == "" {
		user.DisplayName = DisplayName(user)
	}
	if err := s.sess.SetUser(&session.Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		DisplayName: user.DisplayName,
	}); err != nil {
		return nil, fmt.Errorf("failed to store profile: %w", err)
	}
	s.coord.Mutate(MeKey, &user)
	return &user, nil
}

// Listings returns a page of all listings.
func (s *Service) Listings(ctx context.Context, q ListingsQuery) (*Page[Listing], error) {
	return s.listingPage(ctx, pathListings, q)
}

// Watchlist returns a page of the listings the user watches.
func (s *Service) Watchlist(ctx context.Context, q ListingsQuery) (*Page[Listing], error) {
	return s.listingPage(ctx, pathWatchlist, q)
}

// UserListings returns a page of the listings owned by userID.
func (s *Service) UserListings(ctx context.Context, userID int, q ListingsQuery) (*Page[Listing], error) {
	return s.listingPage(ctx, userListingsPath(userID), q)
}

func (s *Service) listingPage(ctx context.Context, path string, q ListingsQuery) (*Page[Listing], error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var page Page[Listing]
	if err := s.get(ctx, path, q.params(), &page); err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	s.stampListings(page.Results)
	return &page, nil
}

// CategoryListings returns a page of one category's listings.
func (s *Service) CategoryListings(ctx context.Context, categoryID int, q ListingsQuery) (*CategoryPage, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var page CategoryPage
	if err := s.get(ctx, categoryListingsPath(categoryID), q.params(), &page); err != nil {
		return nil, fmt.Errorf("failed to list category %d: %w", categoryID, err)
	}
	s.stampListings(page.Results)
	return &page, nil
}

// Listing returns one listing.
func (s *Service) Listing(ctx context.Context, id int) (*Listing, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var l Listing
	if err := s.get(ctx, listingPath(id), nil, &l); err != nil {
		return nil, fmt.Errorf("failed to load listing %d: %w", id, err)
	}
	s.stampListing(&l)
	return &l, nil
}

// MapListings returns every active listing for the map view.
func (s *Service) MapListings(ctx context.Context) ([]MapListing, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var out []MapListing
	if err := s.get(ctx, pathMapListings, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to load map listings: %w", err)
	}
	return out, nil
}

// CreateListing publishes a new listing owned by the user.
func (s *Service) CreateListing(ctx context.Context, in ListingInput) (*Listing, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var l Listing
	if err := s.post(ctx, pathListings, in, &l); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	s.stampListing(&l)
	if l.ID != 0 {
		s.coord.Mutate(ListingKey(l.ID), &l)
	}
	s.revalidate(pathListings, pathMapListings, userListingsPath(s.sess.UserID()), categoryListingsPath(in.Category))
	return &l, nil
}

// UpdateListing replaces a listing's editable fields. Only the owner may
// edit a listing.
func (s *Service) UpdateListing(ctx context.Context, id int, in ListingInput) (*Listing, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var l Listing
	if err := s.put(ctx, listingPath(id), in, &l); err != nil {
		return nil, fmt.Errorf("failed to update listing %d: %w", id, err)
	}
	s.listingChanged(&l)
	s.revalidate(pathMapListings)
	return &l, nil
}

// CloseListing ends the auction. The highest bidder, if any, wins.
func (s *Service) CloseListing(ctx context.Context, id int) (*Listing, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var l Listing
	if err := s.post(ctx, listingSubPath(id, "close"), nil, &l); err != nil {
		return nil, fmt.Errorf("failed to close listing %d: %w", id, err)
	}
	s.listingChanged(&l)
	s.revalidate(pathListings, pathWatchlist, pathMapListings)
	return &l, nil
}

// PlaceBid bids amount on a listing. The server rejects bids that do not
// exceed the current bid.
func (s *Service) PlaceBid(ctx context.Context, id, amount int) (*Listing, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	in := bidInput{Bid: amount}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var l Listing
	if err := s.post(ctx, listingSubPath(id, "bids"), in, &l); err != nil {
		return nil, fmt.Errorf("failed to bid on listing %d: %w", id, err)
	}
	s.listingChanged(&l)
	return &l, nil
}

// Rate rates a listing from 1 to 5. Each user may rate a listing once.
func (s *Service) Rate(ctx context.Context, id, rating int) (*Listing, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	in := ratingInput{Rating: rating}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var l Listing
	if err := s.post(ctx, listingSubPath(id, "ratings"), in, &l); err != nil {
		return nil, fmt.Errorf("failed to rate listing %d: %w", id, err)
	}
	s.listingChanged(&l)
	return &l, nil
}

// ToggleWatch adds the listing to the watchlist, or removes it if present.
func (s *Service) ToggleWatch(ctx context.Context, id int) (*Listing, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var l Listing
	if err := s.post(ctx, listingSubPath(id, "watch"), nil, &l); err != nil {
		return nil, fmt.Errorf("failed to toggle watch on listing %d: %w", id, err)
	}
	s.listingChanged(&l)
	s.revalidate(pathWatchlist)
	return &l, nil
}

// Comments returns a page of a listing's top-level comments with replies.
func (s *Service) Comments(ctx context.Context, listingID, page int) (*Page[Comment], error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	var out Page[Comment]
	params := map[string]any{"page": page, "limit": DefaultCommentLimit}
	if err := s.get(ctx, listingSubPath(listingID, "comments"), params, &out); err != nil {
		return nil, fmt.Errorf("failed to load comments for listing %d: %w", listingID, err)
	}
	for i := range out.Results {
		s.stampComment(&out.Results[i])
	}
	return &out, nil
}

// AddComment posts a comment, or a reply when parentID is set.
func (s *Service) AddComment(ctx context.Context, listingID int, text string, parentID *int) (*Comment, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	in := commentInput{Comment: strings.TrimSpace(text), ParentCommentID: parentID}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var c Comment
	if err := s.post(ctx, listingSubPath(listingID, "comments"), in, &c); err != nil {
		return nil, fmt.Errorf("failed to comment on listing %d: %w", listingID, err)
	}
	s.stampComment(&c)
	s.revalidate(listingSubPath(listingID, "comments"))
	return &c, nil
}

// Categories returns every category.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var out []Category
	if err := s.get(ctx, pathCategories, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return out, nil
}

// CreateCategory adds a category and appends it to the cached list, if
// the list has been fetched.
func (s *Service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	in := categoryInput{Category: strings.TrimSpace(name)}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var c Category
	if err := s.post(ctx, pathCategories, in, &c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	// A list never fetched stays empty; the first reader fetches it whole.
	if s.coord.Get(CategoriesKey).HasData {
		s.coord.Update(CategoriesKey, func(current any, _ bool) any {
			list, _ := current.([]Category)
			out := make([]Category, 0, len(list)+1)
			out = append(out, list...)
			return append(out, c)
		})
	}
	return &c, nil
}

// EnsureCategory returns the category whose name matches name ignoring case
// and spaces, creating it when there is none.
func (s *Service) EnsureCategory(ctx context.Context, name string) (*Category, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if c, ok := MatchCategory(cats, name); ok {
		return &c, nil
	}
	return s.CreateCategory(ctx, name)
}

// MatchCategory finds the category named name, ignoring case and spaces.
func MatchCategory(cats []Category, name string) (Category, bool) {
	want := normalizeCategory(name)
	for _, c := range cats {
		if normalizeCategory(c.Name) == want {
			return c, true
		}
	}
	return Category{}, false
}

func normalizeCategory(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// GenerateDescription asks the server to draft a description for a listing
// title.
func (s *Service) GenerateDescription(ctx context.Context, title string) (string, error) {
	if err := s.requireAuth(); err != nil {
		return "", err
	}
	in := describeInput{Title: strings.TrimSpace(title)}
	if err := validateInput(in); err != nil {
		return "", err
	}
	var out describeResponse
	if err := s.post(ctx, pathDescribe, in, &out); err != nil {
		return "", fmt.Errorf("failed to generate description: %w", err)
	}
	return strings.TrimSpace(out.Description), nil
}

func (s *Service) stampListings(ls []Listing) {
	for i := range ls {
		s.stampListing(&ls[i])
	}
}

func (s *Service) stampListing(l *Listing) {
	if !l.CreatedAt.IsZero() {
		l.PostedTimeAgo = TimeAgo(l.CreatedAt, s.now())
	}
}

func (s *Service) stampComment(c *Comment) {
	if !c.CreatedAt.IsZero() {
		c.PostedTimeAgo = TimeAgo(c.CreatedAt, s.now())
	}
	for i := range c.Replies {
		s.stampComment(&c.Replies[i])
	}
}
