package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bidster/bidster/pkg/bidster"
	"github.com/bidster/bidster/pkg/cli/internal/output"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "List the active listings that have a location",
	Long: `List the map markers for active listings: those with both a latitude
and a longitude. Listings without a location are left out.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		listings, err := a.svc.MapListings(ctx)
		if err != nil {
			return err
		}
		markers := bidster.MapMarkers(listings)
		return emitList(a, markers, func(w io.Writer, markers []bidster.Marker) {
			if len(markers) == 0 {
				fmt.Fprintln(w, "No listings with a location.")
				return
			}
			tw := output.Table(w)
			fmt.Fprintln(tw, "ID\tTITLE\tLATITUDE\tLONGITUDE\tBID\tSUMMARY")
			for _, m := range markers {
				fmt.Fprintf(tw, "%d\t%s\t%.6f\t%.6f\t%s\t%s\n",
					m.ID, m.Title, m.Latitude, m.Longitude, money(m.CurrentBid), m.Summary)
			}
			_ = tw.Flush()
			fmt.Fprintf(w, "\n%d of %d listings have a location\n", len(markers), len(listings))
		})
	}),
}

func init() {
	rootCmd.AddCommand(mapCmd)
	addFilterFlags(mapCmd)
}
