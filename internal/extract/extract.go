// Package extract orchestrates URL resolution, token lookup, the on-disk
// cache and the provider fetchers.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spiffcs/gitextract/internal/cache"
	"github.com/spiffcs/gitextract/internal/log"
	"github.com/spiffcs/gitextract/internal/provider"
	"github.com/spiffcs/gitextract/internal/target"
	"github.com/spiffcs/gitextract/internal/token"
)

// Record is the result of one extraction.
type Record struct {
	Target    target.Target `json:"target"`
	Dir       string        `json:"cache_dir"`
	Issue     any           `json:"issue"`
	Activity  any           `json:"activity"`
	FromCache bool          `json:"from_cache"`
}

// Extractor resolves URLs and returns cached or freshly fetched records.
type Extractor struct {
	cache          cache.Cacher
	tokens         token.Table
	fetchers       map[target.Engine]provider.Fetcher
	httpClient     *http.Client
	refetchCorrupt bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFetcher replaces the fetcher for one engine.
func WithFetcher(e target.Engine, f provider.Fetcher) Option {
	return func(x *Extractor) {
		if x.fetchers == nil {
			x.fetchers = map[target.Engine]provider.Fetcher{}
		}
		x.fetchers[e] = f
	}
}

// WithHTTPClient sets the client the default fetchers share.
func WithHTTPClient(c *http.Client) Option {
	return func(x *Extractor) {
		x.httpClient = c
	}
}

// WithRefetchCorrupt makes a corrupt cache entry count as a miss instead of
// failing the extraction.
func WithRefetchCorrupt(v bool) Option {
	return func(x *Extractor) {
		x.refetchCorrupt = v
	}
}

// New creates an Extractor. Engines without a fetcher supplied through
// WithFetcher get the default one.
func New(c cache.Cacher, tokens token.Table, opts ...Option) *Extractor {
	x := &Extractor{
		cache:  c,
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(x)
	}

	defaults := provider.Defaults(x.httpClient)
	if x.fetchers == nil {
		x.fetchers = defaults
	} else {
		for e, f := range defaults {
			if _, ok := x.fetchers[e]; !ok {
				x.fetchers[e] = f
			}
		}
	}
	return x
}

// Extract resolves rawURL and returns its record, from cache when present.
func (x *Extractor) Extract(ctx context.Context, rawURL string) (*Record, error) {
	t, err := target.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return x.ExtractTarget(ctx, t)
}

// ExtractTarget returns the record for an already resolved target. A cache
// hit performs no network I/O. A failed fetch writes nothing.
func (x *Extractor) ExtractTarget(ctx context.Context, t target.Target) (*Record, error) {
	dir := x.cache.Key(t)

	if x.cache.Exists(dir) {
		issue, activity, err := x.cache.Load(dir)
		switch {
		case err == nil:
			log.Info("loading from cache", "target", t.String(), "dir", dir)
			return &Record{Target: t, Dir: dir, Issue: issue, Activity: activity, FromCache: true}, nil
		case errors.Is(err, cache.ErrCorrupt) && x.refetchCorrupt:
			log.Warn("cache entry corrupt, refetching", "dir", dir, "error", err)
		default:
			return nil, err
		}
	}

	f, ok := x.fetchers[t.Engine]
	if !ok {
		return nil, fmt.Errorf("%w: no fetcher for engine %q", target.ErrUnsupportedPlatform, t.Engine)
	}

	tok, found := x.tokens.Lookup(t.Domain)
	if found {
		log.Debug("using token", "domain", t.Domain, "token", log.Mask(tok))
	} else {
		log.Debug("no token configured, proceeding without authentication", "domain", t.Domain)
	}

	log.Info("fetching from API", "target", t.String())

	res, err := f.Fetch(ctx, t, tok)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.String(), err)
	}

	if err := x.cache.Save(dir, res.Issue, res.Activity); err != nil {
		return nil, err
	}
	log.Info("saved to cache", "dir", dir)

	return &Record{Target: t, Dir: dir, Issue: res.Issue, Activity: res.Activity}, nil
}
