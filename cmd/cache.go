package cmd

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/gitextract/internal/cache"
	"github.com/spiffcs/gitextract/internal/duration"
	"github.com/spiffcs/gitextract/internal/format"
	"github.com/spiffcs/gitextract/internal/log"
	"github.com/spiffcs/gitextract/internal/output"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache() *cobra.Command {
	opts := NewOptions()

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the extraction cache",
	}

	cmd.PersistentFlags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache root directory (default from config, then git_data_cache)")

	cmd.AddCommand(newCmdCachePath(opts))
	cmd.AddCommand(newCmdCacheClear(opts))
	cmd.AddCommand(newCmdCacheStats(opts))
	cmd.AddCommand(newCmdCacheList(opts))
	cmd.AddCommand(newCmdCachePrune(opts))

	return cmd
}

func newCmdCachePath(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache root directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Root())
			return nil
		},
	}
}

func newCmdCacheClear(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", store.Root())
			return nil
		},
	}
}

func newCmdCacheStats(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			stats, err := store.Stats()
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}
			outFmt, err := output.ParseFormat(orDefault(opts.Format, string(output.FormatTable)))
			if err != nil {
				return err
			}
			return output.NewFormatter(outFmt).FormatCacheStats(store.Root(), stats, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	return cmd
}

func newCmdCacheList(opts *Options) *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached items, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return fmt.Errorf("failed to list cache: %w", err)
			}
			if since != "" {
				cutoff, err := duration.Cutoff(since, time.Now())
				if err != nil {
					return err
				}
				entries = slices.DeleteFunc(entries, func(e cache.Entry) bool {
					return e.ModTime.Before(cutoff)
				})
			}
			outFmt, err := output.ParseFormat(orDefault(opts.Format, string(output.FormatTable)))
			if err != nil {
				return err
			}
			return output.NewFormatter(outFmt).FormatCacheEntries(entries, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	cmd.Flags().StringVar(&since, "since", "", "Only list items cached within this age (e.g., 12h, 7d, 1mo)")
	return cmd
}

func newCmdCachePrune(opts *Options) *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached items older than an age",
		Long: `Delete cached items whose main.json is older than --older-than.
Pruned items are fetched again the next time they are requested.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan == "" {
				return fmt.Errorf("--older-than is required")
			}
			cutoff, err := duration.Cutoff(olderThan, time.Now())
			if err != nil {
				return err
			}
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			removed, err := store.Prune(cutoff)
			if err != nil {
				return err
			}
			var freed int64
			for _, e := range removed {
				freed += e.Bytes
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d items (%s)\n", len(removed), format.FormatBytes(freed))
			return nil
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "", "Age threshold (e.g., 30d, 6mo)")
	return cmd
}

// openStore resolves the cache root from flags and config.
func openStore(opts *Options) (*cache.Store, error) {
	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.CacheDir), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
