package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bidster/bidster/pkg/bidster"
)

var (
	listFilter string
	listQuery  string
	listPage   int
	listLimit  int

	commentsPage   int
	commentReplyTo int
)

// listingFields holds the create/edit flags.
var listingFields struct {
	title         string
	description   string
	imageURL      string
	startingBid   int
	category      string
	lat           float64
	lng           float64
	clearLocation bool
	generate      bool
}

var listingsCmd = &cobra.Command{
	Use:     "listings",
	Aliases: []string{"listing", "ls"},
	Short:   "Browse, create and bid on listings",
}

var listingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List listings",
	Long: `List a page of listings.

Filters: active (default), closed, my, winner, watchlist, all.`,
	Example: `  bidster listings list
  bidster listings list --filter closed --page 2
  bidster listings list -q lamp --where 'currentBid < 100'
  bidster listings list --jsonpath '$.results[*].title'`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		q, err := a.listingsQuery()
		if err != nil {
			return err
		}
		page, err := a.svc.Listings(ctx, q)
		if err != nil {
			return err
		}
		return emitListings(a, page, q)
	}),
}

var listingsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a listing",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		l, err := a.svc.Listing(ctx, id)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(l)
		}
		writeListing(a.out, l, a.sess.UserID())
		return nil
	}),
}

var listingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a listing",
	Long: `Create a listing. --category takes a category ID or name; a name that
does not exist yet is created.`,
	Example: `  bidster listings create --title "Desk lamp" --description "Brass, works" --starting-bid 15 --category Home
  bidster listings create --title "Road bike" --generate-description --starting-bid 200 --category Sports --lat 51.5 --lng -0.12`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		in := bidster.ListingInput{
			Title:       listingFields.title,
			Description: listingFields.description,
			ImageURL:    listingFields.imageURL,
			StartingBid: listingFields.startingBid,
		}
		if err := a.applyListingFlags(ctx, &in); err != nil {
			return err
		}
		l, err := a.svc.CreateListing(ctx, in)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(l)
		}
		fmt.Fprintf(a.out, "Created listing #%d %s.\n", l.ID, l.Title)
		return nil
	}),
}

var listingsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit one of your listings",
	Long:  `Edit a listing you own. Only the flags given are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		current, err := a.svc.Listing(ctx, id)
		if err != nil {
			return err
		}
		in := bidster.InputFromListing(current)
		if a.changed("title") {
			in.Title = listingFields.title
		}
		if a.changed("description") {
			in.Description = listingFields.description
		}
		if a.changed("image-url") {
			in.ImageURL = listingFields.imageURL
		}
		if a.changed("starting-bid") {
			in.StartingBid = listingFields.startingBid
		}
		if err := a.applyListingFlags(ctx, &in); err != nil {
			return err
		}
		if listingFields.clearLocation {
			in.Latitude, in.Longitude = nil, nil
		}
		l, err := a.svc.UpdateListing(ctx, id, in)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(l)
		}
		fmt.Fprintf(a.out, "Updated listing #%d %s.\n", l.ID, l.Title)
		return nil
	}),
}

var listingsCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close one of your listings and settle the winner",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		l, err := a.svc.CloseListing(ctx, id)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(l)
		}
		if l.WinnerName != "" {
			fmt.Fprintf(a.out, "Closed listing #%d %s. Winner: %s with %s.\n", l.ID, l.Title, l.WinnerName, money(l.CurrentBid))
		} else {
			fmt.Fprintf(a.out, "Closed listing #%d %s with no bids.\n", l.ID, l.Title)
		}
		return nil
	}),
}

var listingsBidCmd = &cobra.Command{
	Use:   "bid <id> [amount]",
	Short: "Bid on a listing",
	Long: `Bid on a listing. Without an amount the smallest accepted bid is placed,
one more than the current bid.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var amount int
		if len(args) == 2 {
			amount, err = strconv.Atoi(args[1])
			if err != nil || amount < 1 {
				return fmt.Errorf("bid amount must be a positive whole number, got %q", args[1])
			}
		} else {
			current, err := a.svc.Listing(ctx, id)
			if err != nil {
				return err
			}
			amount = current.NextBid()
		}
		l, err := a.svc.PlaceBid(ctx, id, amount)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(l)
		}
		fmt.Fprintf(a.out, "Bid of %s placed on #%d %s. Current bid: %s (%d bids).\n",
			money(amount), l.ID, l.Title, money(l.CurrentBid), l.TotalBids)
		return nil
	}),
}

var listingsRateCmd = &cobra.Command{
	Use:   "rate <id> <1-5>",
	Short: "Rate a listing",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("rating must be a number from 1 to 5, got %q", args[1])
		}
		l, err := a.svc.Rate(ctx, id, rating)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(l)
		}
		fmt.Fprintf(a.out, "Rated #%d %s %d/5. Average rating: %.1f.\n", l.ID, l.Title, rating, l.Rating)
		return nil
	}),
}

var listingsWatchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Add a listing to your watchlist, or remove it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		l, err := a.svc.ToggleWatch(ctx, id)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(l)
		}
		if l.IsWatched {
			fmt.Fprintf(a.out, "Added #%d %s to your watchlist.\n", l.ID, l.Title)
		} else {
			fmt.Fprintf(a.out, "Removed #%d %s from your watchlist.\n", l.ID, l.Title)
		}
		return nil
	}),
}

var listingsCommentsCmd = &cobra.Command{
	Use:   "comments <id>",
	Short: "Show the comments on a listing",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		page, err := a.svc.Comments(ctx, id, commentsPage)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(page)
		}
		if len(page.Results) == 0 {
			fmt.Fprintln(a.out, "No comments yet.")
			return nil
		}
		writeComments(a.out, page.Results, 0)
		writePager(a.out, max(commentsPage, 1), bidster.DefaultCommentLimit, len(page.Results), page.Count, page.NumPages, "comments")
		return nil
	}),
}

var listingsCommentCmd = &cobra.Command{
	Use:   "comment <id> <text>...",
	Short: "Comment on a listing",
	Example: `  bidster listings comment 3 Is this still available?
  bidster listings comment 3 --reply-to 12 Yes it is`,
	Args: cobra.MinimumNArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var parent *int
		if commentReplyTo > 0 {
			parent = &commentReplyTo
		}
		c, err := a.svc.AddComment(ctx, id, strings.Join(args[1:], " "), parent)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(c)
		}
		fmt.Fprintf(a.out, "Comment #%d added to listing #%d.\n", c.ID, id)
		return nil
	}),
}

var userListingsCmd = &cobra.Command{
	Use:   "user-listings [user-id]",
	Short: "List the listings of a user (default: you)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		userID := a.sess.UserID()
		if len(args) == 1 {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 {
				return fmt.Errorf("user ID must be a positive integer, got %q", args[0])
			}
			userID = id
		}
		if userID == 0 {
			me, err := a.svc.Me(ctx)
			if err != nil {
				return err
			}
			userID = me.ID
		}
		q, err := a.listingsQuery()
		if err != nil {
			return err
		}
		page, err := a.svc.UserListings(ctx, userID, q)
		if err != nil {
			return err
		}
		return emitListings(a, page, q)
	}),
}

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "List the listings you watch",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		q, err := a.listingsQuery()
		if err != nil {
			return err
		}
		page, err := a.svc.Watchlist(ctx, q)
		if err != nil {
			return err
		}
		return emitListings(a, page, q)
	}),
}

// listingsQuery builds the query from the list flags, with the configured
// page size as the default limit.
func (a *app) listingsQuery() (bidster.ListingsQuery, error) {
	q := bidster.ListingsQuery{
		Filter: bidster.Filter(listFilter),
		Query:  listQuery,
		Page:   max(listPage, 1),
		Limit:  listLimit,
	}
	if q.Filter == "" {
		q.Filter = bidster.FilterActive
	}
	if !q.Filter.Valid() {
		names := make([]string, len(bidster.Filters))
		for i, f := range bidster.Filters {
			names[i] = string(f)
		}
		return q, fmt.Errorf("unknown filter %q (valid: %s)", listFilter, strings.Join(names, ", "))
	}
	if q.Limit < 1 {
		q.Limit = a.cfg.PageSize
	}
	return q, nil
}

// changed reports whether the running command was given flag name.
func (a *app) changed(name string) bool {
	return a.cmd.Flags().Changed(name)
}

// applyListingFlags resolves the category, location and generated
// description flags into in.
func (a *app) applyListingFlags(ctx context.Context, in *bidster.ListingInput) error {
	if a.changed("category") {
		id, err := a.resolveCategory(ctx, listingFields.category, true)
		if err != nil {
			return err
		}
		in.Category = id
	}

	latSet, lngSet := a.changed("lat"), a.changed("lng")
	if latSet != lngSet {
		return errors.New("--lat and --lng must be given together")
	}
	if latSet {
		lat, lng := listingFields.lat, listingFields.lng
		in.Latitude, in.Longitude = &lat, &lng
	}

	if listingFields.generate && strings.TrimSpace(in.Description) == "" {
		if strings.TrimSpace(in.Title) == "" {
			return errors.New("--generate-description needs --title")
		}
		desc, err := a.svc.GenerateDescription(ctx, in.Title)
		if err != nil {
			return err
		}
		in.Description = desc
	}
	return nil
}

// resolveCategory accepts a category ID or name. With create set, an
// unknown name is created.
func (a *app) resolveCategory(ctx context.Context, ref string, create bool) (int, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return id, nil
	}
	if create {
		c, err := a.svc.EnsureCategory(ctx, ref)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	}
	cats, err := a.svc.Categories(ctx)
	if err != nil {
		return 0, err
	}
	c, ok := bidster.MatchCategory(cats, ref)
	if !ok {
		return 0, fmt.Errorf("no category named %q", ref)
	}
	return c.ID, nil
}

func addListFlags(cmd *cobra.Command, withFilter bool) {
	if withFilter {
		cmd.Flags().StringVar(&listFilter, "filter", "", "Listing filter: active, closed, my, winner, watchlist or all (default active)")
		cmd.Flags().StringVarP(&listQuery, "query", "q", "", "Search titles and descriptions")
	}
	cmd.Flags().IntVar(&listPage, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&listLimit, "limit", 0, "Listings per page (default: pageSize from config)")
	addFilterFlags(cmd)
}

func addListingFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&listingFields.title, "title", "", "Title (at most 64 characters)")
	f.StringVar(&listingFields.description, "description", "", "Description")
	f.StringVar(&listingFields.imageURL, "image-url", "", "Image URL")
	f.IntVar(&listingFields.startingBid, "starting-bid", 0, "Starting bid in whole dollars")
	f.StringVar(&listingFields.category, "category", "", "Category ID or name")
	f.Float64Var(&listingFields.lat, "lat", 0, "Latitude")
	f.Float64Var(&listingFields.lng, "lng", 0, "Longitude")
	f.BoolVar(&listingFields.generate, "generate-description", false, "Generate the description from the title when none is given")
}

func init() {
	rootCmd.AddCommand(listingsCmd, userListingsCmd, watchlistCmd)
	listingsCmd.AddCommand(
		listingsListCmd,
		listingsGetCmd,
		listingsCreateCmd,
		listingsEditCmd,
		listingsCloseCmd,
		listingsBidCmd,
		listingsRateCmd,
		listingsWatchCmd,
		listingsCommentsCmd,
		listingsCommentCmd,
	)

	addListFlags(listingsListCmd, true)
	addListFlags(userListingsCmd, true)
	addListFlags(watchlistCmd, false)

	addListingFieldFlags(listingsCreateCmd)
	addListingFieldFlags(listingsEditCmd)
	listingsEditCmd.Flags().BoolVar(&listingFields.clearLocation, "clear-location", false, "Remove the listing's location")

	for _, cmd := range []*cobra.Command{listingsGetCmd, listingsCreateCmd, listingsEditCmd, listingsCloseCmd,
		listingsBidCmd, listingsRateCmd, listingsWatchCmd, listingsCommentsCmd, listingsCommentCmd} {
		addJSONPathFlag(cmd)
	}

	listingsCommentsCmd.Flags().IntVar(&commentsPage, "page", 1, "Page number, starting at 1")
	listingsCommentCmd.Flags().IntVar(&commentReplyTo, "reply-to", 0, "ID of the comment to reply to")
}
