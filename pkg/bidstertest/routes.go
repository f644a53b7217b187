package bidstertest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bidster/bidster/internal/storage"
	"github.com/bidster/bidster/pkg/httputil"
)

const (
	msgRequiredFields = "Please provide all the required fields"
	msgInvalidPage    = "Invalid page."
)

type authedHandler func(w http.ResponseWriter, r *http.Request, user *storage.User)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	p := APIPrefix

	mux.HandleFunc("POST "+p+"/token", s.handleToken)
	mux.HandleFunc("POST "+p+"/register", s.handleRegister)
	mux.HandleFunc("POST "+p+"/logout", s.auth(s.handleLogout))
	mux.HandleFunc("GET "+p+"/me", s.auth(s.handleMe))

	mux.HandleFunc("GET "+p+"/categories", s.auth(s.handleCategories))
	mux.HandleFunc("POST "+p+"/categories", s.auth(s.handleCreateCategory))
	mux.HandleFunc("GET "+p+"/categories/{id}/listings", s.auth(s.handleCategoryListings))

	mux.HandleFunc("GET "+p+"/listings", s.auth(s.handleListings))
	mux.HandleFunc("POST "+p+"/listings", s.auth(s.handleCreateListing))
	mux.HandleFunc("GET "+p+"/listings/{id}", s.auth(s.handleListing))
	mux.HandleFunc("PUT "+p+"/listings/{id}", s.auth(s.handleUpdateListing))
	mux.HandleFunc("POST "+p+"/listings/{id}/bids", s.auth(s.handleBid))
	mux.HandleFunc("POST "+p+"/listings/{id}/ratings", s.auth(s.handleRate))
	mux.HandleFunc("GET "+p+"/listings/{id}/comments", s.auth(s.handleComments))
	mux.HandleFunc("POST "+p+"/listings/{id}/comments", s.auth(s.handleAddComment))
	mux.HandleFunc("POST "+p+"/listings/{id}/watch", s.auth(s.handleWatch))
	mux.HandleFunc("POST "+p+"/listings/{id}/close", s.auth(s.handleClose))

	mux.HandleFunc("GET "+p+"/watchlist", s.auth(s.handleWatchlist))
	mux.HandleFunc("GET "+p+"/map_listings", s.auth(s.handleMapListings))
	mux.HandleFunc("GET "+p+"/users/{id}/listings", s.auth(s.handleUserListings))
	mux.HandleFunc("POST "+p+"/ai/generate_description", s.auth(s.handleDescribe))

	mux.HandleFunc(p+"/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteNotFound(w)
	})
	return mux
}

func (s *Server) auth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			httputil.WriteDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || scheme != "Token" {
			httputil.WriteDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		user := s.store.UserForToken(strings.TrimSpace(token))
		if user == nil {
			httputil.WriteDetail(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		next(w, r, user)
	}
}

// payload is a decoded JSON request object.
type payload map[string]any

func readBody(r *http.Request) (payload, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return payload{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var b payload
	if err := dec.Decode(&b); err != nil {
		return nil, err
	}
	if b == nil {
		b = payload{}
	}
	return b, nil
}

// readBodyOr400 writes a 400 and returns nil when the body is not a JSON
// object.
func readBodyOr400(w http.ResponseWriter, r *http.Request) payload {
	b, err := readBody(r)
	if err != nil {
		httputil.WriteDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return nil
	}
	return b
}

func (b payload) getString(key string) (string, bool) {
	switch v := b[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}
	return "", false
}

func (b payload) getInt(key string) (int, bool) {
	switch v := b[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

// coordinate reads an optional decimal. Absent, null and blank values are
// nil; ok is false when the value is not a number.
func (b payload) coordinate(key string) (v *float64, ok bool) {
	var raw string
	switch x := b[key].(type) {
	case nil:
		return nil, true
	case json.Number:
		raw = x.String()
	case string:
		raw = strings.TrimSpace(x)
		if raw == "" {
			return nil, true
		}
	default:
		return nil, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

// paginate slices items the way Django's Paginator does: an empty
// collection still has one page, and a page outside the range is an error.
func paginate[T any](items []T, page, limit int) ([]T, int, bool) {
	if limit < 1 {
		return nil, 0, false
	}
	numPages := (len(items) + limit - 1) / limit
	if numPages == 0 {
		numPages = 1
	}
	if page < 1 || page > numPages {
		return nil, numPages, false
	}
	start := (page - 1) * limit
	end := min(start+limit, len(items))
	return items[start:end], numPages, true
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	b := readBodyOr400(w, r)
	if b == nil {
		return
	}
	username, _ := b.getString("username")
	password, _ := b.getString("password")
	user := s.store.UserByUsername(username)
	if username == "" || user == nil || user.Password != password {
		httputil.WriteFieldErrors(w, "Unable to log in with provided credentials.")
		return
	}
	httputil.WriteOK(w, map[string]string{"token": s.store.IssueToken(user.ID)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	b := readBodyOr400(w, r)
	if b == nil {
		return
	}
	username, okU := b.getString("username")
	password, okP := b.getString("password")
	if !okU || !okP || username == "" || password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Please provide both username and password")
		return
	}
	confirm, _ := b.getString("confirm_password")
	if password != confirm {
		httputil.WriteError(w, http.StatusBadRequest, "Passwords do not match")
		return
	}
	email, _ := b.getString("email")
	first, _ := b.getString("first_name")
	last, _ := b.getString("last_name")
	_, err := s.store.CreateUser(storage.User{
		Username:  username,
		Password:  password,
		Email:     email,
		FirstName: first,
		LastName:  last,
	})
	if errors.Is(err, storage.ErrUsernameTaken) {
		httputil.WriteError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteSuccess(w, "User created successfully")
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, _ *storage.User) {
	httputil.WriteSuccess(w, "User logged out successfully")
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, user *storage.User) {
	httputil.WriteOK(w, meJSON{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		DisplayName: user.DisplayName(),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request, _ *storage.User) {
	cats := s.store.Categories()
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, s.categoryView(c))
	}
	httputil.WriteOK(w, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, _ *storage.User) {
	b := readBodyOr400(w, r)
	if b == nil {
		return
	}
	name, ok := b.getString("category")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		httputil.WriteError(w, http.StatusBadRequest, msgRequiredFields)
		return
	}
	c, err := s.store.CreateCategory(name)
	if errors.Is(err, storage.ErrCategoryTaken) {
		httputil.WriteError(w, http.StatusBadRequest, "Category already exists")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteCreated(w, s.categoryView(c))
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request, user *storage.User) {
	s.writeListingPage(w, r, user, storage.ListingQuery{}, "")
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request, user *storage.User) {
	s.writeListingPage(w, r, user, storage.ListingQuery{WatchedBy: user.ID}, "")
}

func (s *Server) handleCategoryListings(w http.ResponseWriter, r *http.Request, user *storage.User) {
	id, ok := pathID(r)
	var c *storage.Category
	if ok {
		c = s.store.Category(id)
	}
	if c == nil {
		httputil.WriteNotFound(w)
		return
	}
	s.writeListingPage(w, r, user, storage.ListingQuery{CategoryID: c.ID}, c.Name)
}

func (s *Server) handleUserListings(w http.ResponseWriter, r *http.Request, user *storage.User) {
	id, ok := pathID(r)
	if !ok || s.store.User(id) == nil {
		httputil.WriteNotFound(w)
		return
	}
	s.writeListingPage(w, r, user, storage.ListingQuery{OwnerID: id}, "")
}

func (s *Server) writeListingPage(w http.ResponseWriter, r *http.Request, viewer *storage.User, q storage.ListingQuery, category string) {
	params := r.URL.Query()
	q.Filter = params.Get("filter")
	if q.Filter == "" {
		q.Filter = storage.FilterActive
	}
	q.Query = params.Get("query")
	q.ViewerID = viewer.ID

	page, okPage := queryInt(r, "page", 1)
	limit, okLimit := queryInt(r, "limit", 8)
	if !okLimit || limit < 1 {
		httputil.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	all := s.store.Listings(q)
	results, numPages, ok := paginate(all, page, limit)
	if !okPage || !ok {
		httputil.WriteDetail(w, http.StatusNotFound, msgInvalidPage)
		return
	}
	views := make([]listingJSON, 0, len(results))
	for _, l := range results {
		views = append(views, s.listingView(l, viewer))
	}
	httputil.WriteOK(w, pageJSON{
		Count:    len(all),
		NumPages: numPages,
		Results:  views,
		Category: category,
	})
}

// listingOr404 resolves the {id} path value.
func (s *Server) listingOr404(w http.ResponseWriter, r *http.Request) *storage.Listing {
	id, ok := pathID(r)
	var l *storage.Listing
	if ok {
		l = s.store.Listing(id)
	}
	if l == nil {
		httputil.WriteNotFound(w)
	}
	return l
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request, user *storage.User) {
	l := s.listingOr404(w, r)
	if l == nil {
		return
	}
	httputil.WriteOK(w, s.listingView(l, user))
}

// listingInput reads the editable listing fields. It writes the error
// response and returns false on bad input.
func (s *Server) listingInput(w http.ResponseWriter, r *http.Request) (storage.Listing, bool) {
	b := readBodyOr400(w, r)
	if b == nil {
		return storage.Listing{}, false
	}
	title, okTitle := b.getString("title")
	desc, okDesc := b.getString("description")
	imageURL, okImage := b.getString("image_url")
	startingBid, okBid := b.getInt("starting_bid")
	categoryID, okCat := b.getInt("category")
	if !okTitle || !okDesc || !okImage || !okBid || !okCat || title == "" {
		httputil.WriteError(w, http.StatusBadRequest, msgRequiredFields)
		return storage.Listing{}, false
	}
	if s.store.Category(categoryID) == nil {
		httputil.WriteNotFound(w)
		return storage.Listing{}, false
	}
	lat, okLat := b.coordinate("latitude")
	lng, okLng := b.coordinate("longitude")
	if !okLat || !okLng {
		httputil.WriteError(w, http.StatusBadRequest, "A valid number is required for latitude and longitude")
		return storage.Listing{}, false
	}
	return storage.Listing{
		Title:       title,
		Description: desc,
		ImageURL:    imageURL,
		StartingBid: startingBid,
		CategoryID:  categoryID,
		Latitude:    lat,
		Longitude:   lng,
	}, true
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request, user *storage.User) {
	in, ok := s.listingInput(w, r)
	if !ok {
		return
	}
	in.OwnerID = user.ID
	l, err := s.store.CreateListing(in)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteCreated(w, s.listingView(l, user))
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request, user *storage.User) {
	cur := s.listingOr404(w, r)
	if cur == nil {
		return
	}
	if cur.OwnerID != user.ID {
		httputil.WriteError(w, http.StatusUnauthorized, "You are not authorized to edit this listing")
		return
	}
	in, ok := s.listingInput(w, r)
	if !ok {
		return
	}
	in.ID = cur.ID
	l, err := s.store.UpdateListing(user.ID, in)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteCreated(w, s.listingView(l, user))
}

func (s *Server) handleBid(w http.ResponseWriter, r *http.Request, user *storage.User) {
	l := s.listingOr404(w, r)
	if l == nil {
		return
	}
	b := readBodyOr400(w, r)
	if b == nil {
		return
	}
	amount, ok := b.getInt("bid")
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, msgRequiredFields)
		return
	}
	_, err := s.store.PlaceBid(l.ID, user.ID, amount)
	switch {
	case errors.Is(err, storage.ErrBidTooLow):
		httputil.WriteError(w, http.StatusBadRequest, "Bid must be greater than the current bid")
		return
	case errors.Is(err, storage.ErrListingClosed):
		httputil.WriteError(w, http.StatusBadRequest, "This listing is closed")
		return
	case err != nil:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteOK(w, s.listingView(s.store.Listing(l.ID), user))
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request, user *storage.User) {
	l := s.listingOr404(w, r)
	if l == nil {
		return
	}
	b := readBodyOr400(w, r)
	if b == nil {
		return
	}
	rating, ok := b.getInt("rating")
	if !ok || rating < 1 || rating > 5 {
		httputil.WriteError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	if err := s.store.Rate(l.ID, user.ID, rating); err != nil {
		if errors.Is(err, storage.ErrAlreadyRated) {
			httputil.WriteError(w, http.StatusBadRequest, "Rating already exists")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteOK(w, s.listingView(l, user))
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request, user *storage.User) {
	l := s.listingOr404(w, r)
	if l == nil {
		return
	}
	if _, err := s.store.ToggleWatch(l.ID, user.ID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteOK(w, s.listingView(l, user))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request, user *storage.User) {
	l := s.listingOr404(w, r)
	if l == nil {
		return
	}
	closed, err := s.store.CloseListing(l.ID, user.ID)
	if errors.Is(err, storage.ErrNotOwner) {
		httputil.WriteError(w, http.StatusUnauthorized, "You are not authorized to close this listing")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteOK(w, s.listingView(closed, user))
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request, _ *storage.User) {
	l := s.listingOr404(w, r)
	if l == nil {
		return
	}
	page, okPage := queryInt(r, "page", 1)
	limit, okLimit := queryInt(r, "limit", 10)
	if !okLimit || limit < 1 {
		httputil.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	all := s.store.Comments(l.ID, 0)
	results, numPages, ok := paginate(all, page, limit)
	if !okPage || !ok {
		httputil.WriteDetail(w, http.StatusNotFound, msgInvalidPage)
		return
	}
	views := make([]commentJSON, 0, len(results))
	for _, c := range results {
		views = append(views, s.commentView(c))
	}
	httputil.WriteOK(w, pageJSON{Count: len(all), NumPages: numPages, Results: views})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request, user *storage.User) {
	l := s.listingOr404(w, r)
	if l == nil {
		return
	}
	b := readBodyOr400(w, r)
	if b == nil {
		return
	}
	text, ok := b.getString("comment")
	if !ok || strings.TrimSpace(text) == "" {
		httputil.WriteError(w, http.StatusBadRequest, msgRequiredFields)
		return
	}
	parentID := 0
	if b["parent_comment_id"] != nil {
		if parentID, ok = b.getInt("parent_comment_id"); !ok {
			httputil.WriteError(w, http.StatusBadRequest, "parent_comment_id must be an integer")
			return
		}
	}
	c, err := s.store.AddComment(storage.Comment{ListingID: l.ID, UserID: user.ID, ParentID: parentID, Text: text})
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFound(w)
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteCreated(w, s.commentView(c))
}

func (s *Server) handleMapListings(w http.ResponseWriter, _ *http.Request, _ *storage.User) {
	listings := s.store.Listings(storage.ListingQuery{Filter: storage.FilterActive})
	out := make([]mapListingJSON, 0, len(listings))
	for _, l := range listings {
		out = append(out, s.mapListingView(l))
	}
	httputil.WriteOK(w, out)
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request, _ *storage.User) {
	b := readBodyOr400(w, r)
	if b == nil {
		return
	}
	title, ok := b.getString("title")
	if !ok || strings.TrimSpace(title) == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Please provide a title to generate description")
		return
	}
	httputil.WriteOK(w, map[string]string{"description": s.describe(title)})
}
