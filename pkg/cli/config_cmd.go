package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bidster/bidster/pkg/cli/internal/output"
	"github.com/bidster/bidster/pkg/cliconfig"
	"github.com/bidster/bidster/pkg/session"
)

// configEntry is one resolved configuration value.
type configEntry struct {
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration and where each value came from",
	Long: `Show the effective configuration.

Values are resolved in this order, later sources winning:
  default, global (` + cliconfig.GlobalConfigDir + `/config.yaml in the user config directory),
  local (.bidsterrc.yaml), env (BIDSTER_*), flag.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		entries := make([]configEntry, 0, len(cliconfig.Keys))
		for _, key := range cliconfig.Keys {
			v, _ := cfg.Get(key)
			entries = append(entries, configEntry{Key: key, Value: v, Source: cfg.Sources[key]})
		}

		out := cmd.OutOrStdout()
		if cfg.JSON {
			return output.JSON(out, entries)
		}

		tw := output.Table(out)
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%v\t%s\n", e.Key, e.Value, e.Source)
		}
		_ = tw.Flush()

		if dir, err := cliconfig.ConfigDir(); err == nil {
			fmt.Fprintf(out, "\nSession file: %s\n", filepath.Join(dir, session.FileName))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
