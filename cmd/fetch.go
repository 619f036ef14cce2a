package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spiffcs/gitextract/config"
	"github.com/spiffcs/gitextract/internal/cache"
	"github.com/spiffcs/gitextract/internal/extract"
	"github.com/spiffcs/gitextract/internal/log"
	"github.com/spiffcs/gitextract/internal/output"
	"github.com/spiffcs/gitextract/internal/provider"
)

// NewCmdFetch creates the fetch command.
func NewCmdFetch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <url>...",
		Short: "Fetch issues or pull requests (same as root gitextract)",
		Long: `Resolves each URL, returns the cached copy when present, and otherwise
fetches the item and its activity from the platform API and caches it.

Supported URL shapes:
  https://github.com/<owner>/<repo>/{issues|pull}/<n>
  https://<gitlab host>/<namespace>/<project>/-/{issues|merge_requests}/<n>
  https://bitbucket.org/<owner>/<repo>/{issues|pullrequests}/<n>
  https://codeberg.org/<owner>/<repo>/{issues|pulls}/<n>
  https://todo.sr.ht/~<owner>/<tracker>/<n>`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args, opts)
		},
	}

	addFetchFlags(cmd, opts)
	return cmd
}

// addFetchFlags adds the fetch-specific flags to a command.
func addFetchFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", opts.Workers, "Number of concurrent extractions")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache root directory (default from config, then git_data_cache)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Per-request HTTP timeout (default from config, then 30s)")
	cmd.Flags().BoolVar(&opts.RefetchCorrupt, "refetch-corrupt", false, "Refetch items whose cache entry is unreadable instead of failing")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
}

func runFetch(cmd *cobra.Command, urls []string, opts *Options) error {
	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	format, err := resolveFormat(opts.Format, cfg)
	if err != nil {
		return err
	}

	x := newExtractor(cfg, opts)

	log.Info("extracting", "urls", len(urls), "workers", opts.Workers, "cache_dir", cfg.CacheDir)

	results := x.ExtractAll(cmd.Context(), urls, opts.Workers, newProgress(os.Stderr, len(urls), opts.Verbosity))

	if err := output.NewFormatter(format).FormatRecords(results, cmd.OutOrStdout()); err != nil {
		return err
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.Debug("extraction failed", "url", r.URL, "error", r.Err)
		}
	}
	switch {
	case failed == 0:
		return nil
	case len(results) == 1:
		return results[0].Err
	default:
		return fmt.Errorf("%d of %d extractions failed", failed, len(results))
	}
}

// loadConfig loads the layered config and applies command-line overrides.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.CacheDir != "" {
		cfg.CacheDir = opts.CacheDir
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	return cfg, nil
}

func newExtractor(cfg *config.Config, opts *Options) *extract.Extractor {
	return extract.New(cache.New(cfg.CacheDir), cfg.Tokens(),
		extract.WithHTTPClient(provider.NewHTTPClient(cfg.Timeout)),
		extract.WithRefetchCorrupt(opts.RefetchCorrupt),
	)
}

func resolveFormat(flag string, cfg *config.Config) (output.Format, error) {
	if flag == "" {
		flag = cfg.DefaultFormat
	}
	return output.ParseFormat(flag)
}

// newProgress returns a progress callback that redraws a single status line
// on w. It is nil (no progress) unless w is a terminal, more than one URL was
// given and logging is quiet.
func newProgress(w *os.File, urls, verbosity int) extract.ProgressFunc {
	if urls < 2 || verbosity > 0 || !term.IsTerminal(int(w.Fd())) {
		return nil
	}
	return progressTo(w)
}

func progressTo(w io.Writer) extract.ProgressFunc {
	var mu sync.Mutex
	return func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\rExtracting: %d/%d", completed, total)
		if completed == total {
			fmt.Fprintln(w, " done")
		}
	}
}
