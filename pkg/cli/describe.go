package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:     "describe <title>...",
	Short:   "Generate a listing description from a title",
	Example: `  bidster describe Vintage brass desk lamp`,
	Args:    cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		desc, err := a.svc.GenerateDescription(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(map[string]string{"description": desc})
		}
		fmt.Fprintln(a.out, desc)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(describeCmd)
	addJSONPathFlag(describeCmd)
}
