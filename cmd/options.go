package cmd

import (
	"time"

	"github.com/spiffcs/gitextract/internal/constants"
)

// Options holds the shared command-line options for the gitextract CLI.
type Options struct {
	Format         string
	Verbosity      int
	Workers        int
	CacheDir       string        // overrides cache_dir from config when set
	Timeout        time.Duration // overrides timeout from config when non-zero
	RefetchCorrupt bool          // treat unreadable cache entries as misses
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Workers: constants.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithWorkers sets the number of concurrent extractions.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithCacheDir sets the cache root.
func WithCacheDir(dir string) Option {
	return func(o *Options) {
		o.CacheDir = dir
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithRefetchCorrupt makes corrupt cache entries count as misses.
func WithRefetchCorrupt(v bool) Option {
	return func(o *Options) {
		o.RefetchCorrupt = v
	}
}
