package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spiffcs/gitextract/internal/cache"
	"github.com/spiffcs/gitextract/internal/log"
	"github.com/spiffcs/gitextract/internal/output"
	"github.com/spiffcs/gitextract/internal/target"
)

// NewCmdResolve creates the resolve command.
func NewCmdResolve() *cobra.Command {
	opts := NewOptions()

	cmd := &cobra.Command{
		Use:   "resolve <url>...",
		Short: "Show how URLs resolve, without any network access",
		Long: `Show the platform, repository, cache location and matching token key
for each URL. Nothing is fetched and nothing is written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache root directory (default from config, then git_data_cache)")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	return cmd
}

func runResolve(cmd *cobra.Command, urls []string, opts *Options) error {
	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	format, err := resolveFormat(opts.Format, cfg)
	if err != nil {
		return err
	}

	store := cache.New(cfg.CacheDir)
	tokens := cfg.Tokens()

	items := make([]output.Resolution, 0, len(urls))
	var failed int
	for _, u := range urls {
		t, err := target.Parse(u)
		if err != nil {
			failed++
			items = append(items, output.Resolution{URL: u, Err: err})
			continue
		}
		dir := store.Key(t)
		key, _ := tokens.Match(t.Domain)
		items = append(items, output.Resolution{
			URL:      u,
			Target:   t,
			CacheDir: dir,
			Cached:   store.Exists(dir),
			TokenKey: key,
		})
	}

	if err := output.NewFormatter(format).FormatResolutions(items, cmd.OutOrStdout()); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d URLs could not be resolved", failed, len(urls))
	}
	return nil
}
