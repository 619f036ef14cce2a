package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "gitextract [url]...",
		Short: "Extract issues and pull requests from Git hosting platforms",
		Long: `A CLI tool that fetches an issue or pull request together with its
comments and timeline from GitHub, GitLab, Bitbucket, Codeberg (Forgejo) or
Sourcehut, and caches the raw API responses on disk.

Each item is stored as <cache_dir>/<domain>/<owner>/<repo>/<pr|issue>/<number>/
with main.json (the item) and activity.json (its comments/timeline).
Cached items are never fetched again.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runFetch(cmd, args, opts)
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add fetch flags to root command so `gitextract <url>` and `gitextract fetch <url>` work identically
	addFetchFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdFetch(opts))
	rootCmd.AddCommand(NewCmdResolve())
	rootCmd.AddCommand(NewCmdShow())
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
