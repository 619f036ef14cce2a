package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spiffcs/gitextract/internal/log"
	"github.com/spiffcs/gitextract/internal/output"
)

// NewCmdShow creates the show command.
func NewCmdShow() *cobra.Command {
	opts := NewOptions()

	cmd := &cobra.Command{
		Use:   "show <url>",
		Short: "Extract one item and print it with its comments",
		Long: `Extracts the item exactly like fetch (cache first), then prints its title,
state, author, body and every comment. Markdown is rendered for the terminal
unless NO_COLOR is set or output is not a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize(opts.Verbosity, os.Stderr)

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			rec, err := newExtractor(cfg, opts).Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return output.RenderRecord(rec, output.TerminalWidth(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache root directory (default from config, then git_data_cache)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Per-request HTTP timeout (default from config, then 30s)")
	cmd.Flags().BoolVar(&opts.RefetchCorrupt, "refetch-corrupt", false, "Refetch the item if its cache entry is unreadable")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	return cmd
}
