package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bidster/bidster/pkg/bidster"
	"github.com/bidster/bidster/pkg/cli/internal/output"
)

var (
	// Post-filters for list output
	whereExpr    string
	jsonPathExpr string
)

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&whereExpr, "where", "", `Keep results matching an expression, e.g. 'currentBid > 50 && !isClosed'`)
	addJSONPathFlag(cmd)
}

func addJSONPathFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&jsonPathExpr, "jsonpath", "", "Print only the values selected by a JSONPath, e.g. '$.results[*].title'")
}

func money(n int) string {
	return "$" + strconv.Itoa(n)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

func listingStatus(l *bidster.Listing) string {
	if !l.IsClosed {
		return "active"
	}
	if l.WinnerName != "" {
		return "closed, won by " + l.WinnerName
	}
	return "closed"
}

// emitJSON honours --jsonpath, printing scalar matches bare.
func (a *app) emitJSON(v any) error {
	if jsonPathExpr == "" {
		return output.JSON(a.out, v)
	}
	selected, err := output.JSONPath(v, jsonPathExpr)
	if err != nil {
		return err
	}
	switch s := selected.(type) {
	case string:
		_, err = fmt.Fprintln(a.out, s)
		return err
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok {
				fmt.Fprintln(a.out, str)
				continue
			}
			if err := output.JSON(a.out, item); err != nil {
				return err
			}
		}
		return nil
	}
	return output.JSON(a.out, selected)
}

func (a *app) structured() bool {
	return a.cfg.JSON || jsonPathExpr != ""
}

// emitList filters items with --where and prints them as JSON or through
// table.
func emitList[T any](a *app, items []T, table func(w io.Writer, items []T)) error {
	kept, err := output.Where(items, whereExpr)
	if err != nil {
		return err
	}
	if a.structured() {
		return a.emitJSON(kept)
	}
	table(a.out, kept)
	return nil
}

func emitListings(a *app, page *bidster.Page[bidster.Listing], q bidster.ListingsQuery) error {
	kept, err := output.Where(page.Results, whereExpr)
	if err != nil {
		return err
	}
	filtered := *page
	filtered.Results = kept
	if a.structured() {
		return a.emitJSON(filtered)
	}
	if len(kept) == 0 {
		fmt.Fprintln(a.out, "No listings found.")
		return nil
	}
	writeListingTable(a.out, kept)
	writePager(a.out, q.Page, q.Limit, len(page.Results), page.Count, page.NumPages, "listings")
	return nil
}

func writeListingTable(w io.Writer, listings []bidster.Listing) {
	tw := output.Table(w)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tBID\tBIDS\tSELLER\tSTATUS\tPOSTED")
	for i := range listings {
		l := &listings[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			l.ID, bidster.Truncate(l.Title, 32), l.CategoryName, money(l.CurrentBid),
			l.TotalBids, l.Username, listingStatus(l), l.PostedTimeAgo)
	}
	_ = tw.Flush()
}

func writePager(w io.Writer, page, limit, shown, count, numPages int, noun string) {
	from, to := bidster.ShowingRange(page, limit, shown, count)
	fmt.Fprintf(w, "\nShowing %d-%d of %d %s\n", from, to, count, noun)
	if numPages <= 1 {
		return
	}
	items := bidster.PageWindow(page, numPages)
	parts := make([]string, 0, len(items))
	for _, it := range items {
		switch {
		case it.Ellipsis:
			parts = append(parts, "...")
		case it.Current:
			parts = append(parts, "["+strconv.Itoa(it.Page)+"]")
		default:
			parts = append(parts, strconv.Itoa(it.Page))
		}
	}
	fmt.Fprintf(w, "Page %s", strings.Join(parts, " "))
	if next, ok := bidster.NextPage(page, numPages); ok {
		fmt.Fprintf(w, "  (next: --page %d)", next)
	}
	fmt.Fprintln(w)
}

func writeListing(w io.Writer, l *bidster.Listing, userID int) {
	fmt.Fprintf(w, "#%d %s\n", l.ID, l.Title)
	tw := output.Table(w)
	seller := l.Username
	if l.IsOwner {
		seller += " (you)"
	}
	fmt.Fprintf(tw, "  Category:\t%s\n", l.CategoryName)
	fmt.Fprintf(tw, "  Seller:\t%s\n", seller)
	fmt.Fprintf(tw, "  Status:\t%s\n", listingStatus(l))
	fmt.Fprintf(tw, "  Starting bid:\t%s\n", money(l.StartingBid))
	fmt.Fprintf(tw, "  Current bid:\t%s (%d bids)\n", money(l.CurrentBid), l.TotalBids)
	if l.IsClosed {
		if l.WonBy(userID) {
			fmt.Fprintf(tw, "  Result:\tYou won this auction\n")
		}
	} else {
		fmt.Fprintf(tw, "  Next bid:\tat least %s\n", money(l.NextBid()))
	}
	rating := fmt.Sprintf("%.1f", l.Rating)
	if l.UserRating > 0 {
		rating += fmt.Sprintf(" (you rated %d)", l.UserRating)
	}
	fmt.Fprintf(tw, "  Rating:\t%s\n", rating)
	if l.IsWatched {
		fmt.Fprintf(tw, "  Watching:\tyes\n")
	}
	if l.HasLocation() {
		fmt.Fprintf(tw, "  Location:\t%s, %s\n", l.Latitude, l.Longitude)
	}
	if l.ImageURL != "" {
		fmt.Fprintf(tw, "  Image:\t%s\n", l.ImageURL)
	}
	fmt.Fprintf(tw, "  Posted:\t%s\n", l.PostedTimeAgo)
	_ = tw.Flush()
	if l.Description != "" {
		fmt.Fprintf(w, "\n%s\n", l.Description)
	}
}

func writeComments(w io.Writer, comments []bidster.Comment, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, c := range comments {
		fmt.Fprintf(w, "%s%s, %s (#%d)\n", indent, c.Name, c.PostedTimeAgo, c.ID)
		for _, line := range strings.Split(c.Comment, "\n") {
			fmt.Fprintf(w, "%s  %s\n", indent, line)
		}
		writeComments(w, c.Replies, depth+1)
	}
}
