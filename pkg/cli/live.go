package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bidster/bidster/pkg/bidster"
	"github.com/bidster/bidster/pkg/debounce"
	"github.com/bidster/bidster/pkg/swr"
)

var (
	searchWindow time.Duration

	watchInterval time.Duration
	watchCount    int
)

var listingsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search listings, reading queries from stdin when none is given",
	Long: `Search active listings by title and description.

Without a query argument, each line read from stdin is a query. Lines that
arrive within --debounce of each other collapse into a single search for the
latest one, so piping keystroke-level input runs few requests.`,
	Example: `  bidster listings search lamp
  printf 'l\nla\nlamp\n' | bidster listings search`,
	RunE: withApp(runSearch),
}

var listingsWatchLiveCmd = &cobra.Command{
	Use:   "watch-live <id>",
	Short: "Follow a listing's bids until it closes",
	Long: `Poll a listing and print a line whenever its bids change. Stops when the
listing closes, after --count updates, or on interrupt.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runWatchLive),
}

type searchRequest struct {
	seq   int
	query string
}

func runSearch(ctx context.Context, a *app, args []string) error {
	q, err := a.listingsQuery()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		q.Query = strings.Join(args, " ")
		return a.search(ctx, q)
	}

	done := make(chan struct{})
	defer close(done)
	requests := make(chan searchRequest)
	d := debounce.New(searchWindow, func(r searchRequest) {
		select {
		case requests <- r:
		case <-done:
		}
	})
	defer d.Stop()

	eof := make(chan int, 1)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(a.in)
		n := 0
		for sc.Scan() {
			n++
			d.Trigger(searchRequest{seq: n, query: strings.TrimSpace(sc.Text())})
		}
		readErr <- sc.Err()
		eof <- n
	}()

	last, final := 0, -1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-eof:
			if err := <-readErr; err != nil {
				return fmt.Errorf("failed to read queries: %w", err)
			}
			if n == last {
				return nil
			}
			final = n
			go d.Flush()
		case r := <-requests:
			last = r.seq
			q.Query = r.query
			if err := a.search(ctx, q); err != nil {
				return err
			}
			if last == final {
				return nil
			}
		}
	}
}

func (a *app) search(ctx context.Context, q bidster.ListingsQuery) error {
	page, err := a.svc.Listings(ctx, q)
	if err != nil {
		return err
	}
	if !a.structured() {
		fmt.Fprintf(a.out, "Results for %q: %d\n", q.Query, page.Count)
	}
	return emitListings(a, page, q)
}

func runWatchLive(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	updates := make(chan swr.Value[*bidster.Listing], 16)
	res := a.svc.ListingResource(id, func(v swr.Value[*bidster.Listing]) {
		select {
		case updates <- v:
		default:
		}
	})
	defer res.Close()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	var last *bidster.Listing
	printed := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.svc.Coordinator().Revalidate(res.Key())
		case v := <-updates:
			if v.Err != nil {
				if !v.HasData {
					return v.Err
				}
				a.logger.Warn("refresh failed", "listing", id, "error", v.Err)
				continue
			}
			l := v.Data
			if l == nil || !bidsChanged(last, l) {
				continue
			}
			last = l
			printed++
			if err := a.printBidUpdate(l, v.UpdatedAt); err != nil {
				return err
			}
			if l.IsClosed || (watchCount > 0 && printed >= watchCount) {
				return nil
			}
		}
	}
}

func bidsChanged(prev, cur *bidster.Listing) bool {
	return prev == nil ||
		prev.CurrentBid != cur.CurrentBid ||
		prev.TotalBids != cur.TotalBids ||
		prev.IsClosed != cur.IsClosed
}

func (a *app) printBidUpdate(l *bidster.Listing, at time.Time) error {
	if a.structured() {
		return a.emitJSON(l)
	}
	fmt.Fprintf(a.out, "[%s] #%d %s: %s (%d bids), %s\n",
		at.Format(time.TimeOnly), l.ID, l.Title, money(l.CurrentBid), l.TotalBids, listingStatus(l))
	return nil
}

func init() {
	listingsCmd.AddCommand(listingsSearchCmd, listingsWatchLiveCmd)

	listingsSearchCmd.Flags().StringVar(&listFilter, "filter", "", "Listing filter (default active)")
	listingsSearchCmd.Flags().IntVar(&listLimit, "limit", 0, "Listings per page (default: pageSize from config)")
	listingsSearchCmd.Flags().DurationVar(&searchWindow, "debounce", debounce.DefaultWindow, "Quiet period before a query from stdin is searched")
	addFilterFlags(listingsSearchCmd)

	listingsWatchLiveCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "How often to poll the listing")
	listingsWatchLiveCmd.Flags().IntVar(&watchCount, "count", 0, "Stop after this many updates (0: until closed)")
	addJSONPathFlag(listingsWatchLiveCmd)
}
