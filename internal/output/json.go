package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spiffcs/gitextract/internal/cache"
	"github.com/spiffcs/gitextract/internal/extract"
	"github.com/spiffcs/gitextract/internal/target"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

type recordJSON struct {
	URL       string         `json:"url"`
	Target    *target.Target `json:"target,omitempty"`
	CacheDir  string         `json:"cache_dir,omitempty"`
	FromCache bool           `json:"from_cache"`
	Issue     any            `json:"issue,omitempty"`
	Activity  any            `json:"activity,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type resolutionJSON struct {
	URL      string         `json:"url"`
	Target   *target.Target `json:"target,omitempty"`
	RepoURL  string         `json:"repo_url,omitempty"`
	CacheDir string         `json:"cache_dir,omitempty"`
	Cached   bool           `json:"cached"`
	TokenKey string         `json:"token_key,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type entryJSON struct {
	Dir      string    `json:"dir"`
	Domain   string    `json:"domain"`
	Owner    string    `json:"owner"`
	Repo     string    `json:"repo"`
	IsPR     bool      `json:"is_pr"`
	Number   int       `json:"number"`
	Bytes    int64     `json:"bytes"`
	ModTime  time.Time `json:"modified"`
	Complete bool      `json:"complete"`
}

type statsJSON struct {
	Root         string         `json:"root"`
	Total        int            `json:"total"`
	Issues       int            `json:"issues"`
	PullRequests int            `json:"pull_requests"`
	Incomplete   int            `json:"incomplete"`
	Bytes        int64          `json:"bytes"`
	ByDomain     map[string]int `json:"by_domain"`
}

func (f *JSONFormatter) encode(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatRecords outputs extraction results as a JSON array in input order.
func (f *JSONFormatter) FormatRecords(results []extract.BatchResult, w io.Writer) error {
	out := make([]recordJSON, 0, len(results))
	for _, r := range results {
		rec := recordJSON{URL: r.URL}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		if r.Record != nil {
			t := r.Record.Target
			rec.Target = &t
			rec.CacheDir = r.Record.Dir
			rec.FromCache = r.Record.FromCache
			rec.Issue = r.Record.Issue
			rec.Activity = r.Record.Activity
		}
		out = append(out, rec)
	}
	return f.encode(out, w)
}

// FormatResolutions outputs resolved targets as a JSON array.
func (f *JSONFormatter) FormatResolutions(items []Resolution, w io.Writer) error {
	out := make([]resolutionJSON, 0, len(items))
	for _, r := range items {
		res := resolutionJSON{URL: r.URL}
		if r.Err != nil {
			res.Error = r.Err.Error()
		} else {
			t := r.Target
			res.Target = &t
			res.RepoURL = t.RepoURL()
			res.CacheDir = r.CacheDir
			res.Cached = r.Cached
			res.TokenKey = r.TokenKey
		}
		out = append(out, res)
	}
	return f.encode(out, w)
}

// FormatCacheEntries outputs cache entries as a JSON array.
func (f *JSONFormatter) FormatCacheEntries(entries []cache.Entry, w io.Writer) error {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON(e))
	}
	return f.encode(out, w)
}

// FormatCacheStats outputs cache statistics as a JSON object.
func (f *JSONFormatter) FormatCacheStats(root string, stats *cache.Stats, w io.Writer) error {
	byDomain := stats.ByDomain
	if byDomain == nil {
		byDomain = map[string]int{}
	}
	return f.encode(statsJSON{
		Root:         root,
		Total:        stats.Total,
		Issues:       stats.Issues,
		PullRequests: stats.PullRequests,
		Incomplete:   stats.Incomplete,
		Bytes:        stats.Bytes,
		ByDomain:     byDomain,
	}, w)
}
