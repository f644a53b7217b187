package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bidster/bidster/pkg/bidster"
	"github.com/bidster/bidster/pkg/cli/internal/output"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category"},
	Short:   "Browse and create categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		cats, err := a.svc.Categories(ctx)
		if err != nil {
			return err
		}
		return emitList(a, cats, func(w io.Writer, cats []bidster.Category) {
			if len(cats) == 0 {
				fmt.Fprintln(w, "No categories.")
				return
			}
			tw := output.Table(w)
			fmt.Fprintln(tw, "ID\tNAME\tACTIVE LISTINGS")
			for _, c := range cats {
				fmt.Fprintf(tw, "%d\t%s\t%d\n", c.ID, c.Name, c.ActiveListingCount)
			}
			_ = tw.Flush()
		})
	}),
}

var categoriesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a category",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		c, err := a.svc.CreateCategory(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(c)
		}
		fmt.Fprintf(a.out, "Created category #%d %s.\n", c.ID, c.Name)
		return nil
	}),
}

var categoriesListingsCmd = &cobra.Command{
	Use:   "listings <id|name>",
	Short: "List the active listings in a category",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := a.resolveCategory(ctx, strings.Join(args, " "), false)
		if err != nil {
			return err
		}
		q, err := a.listingsQuery()
		if err != nil {
			return err
		}
		page, err := a.svc.CategoryListings(ctx, id, q)
		if err != nil {
			return err
		}
		if a.structured() {
			kept, err := output.Where(page.Results, whereExpr)
			if err != nil {
				return err
			}
			filtered := *page
			filtered.Results = kept
			return a.emitJSON(filtered)
		}
		fmt.Fprintf(a.out, "Category: %s\n\n", page.Category)
		return emitListings(a, &page.Page, q)
	}),
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.AddCommand(categoriesListCmd, categoriesCreateCmd, categoriesListingsCmd)

	addFilterFlags(categoriesListCmd)
	addJSONPathFlag(categoriesCreateCmd)
	addListFlags(categoriesListingsCmd, false)
}
