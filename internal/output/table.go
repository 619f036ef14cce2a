package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/gitextract/internal/cache"
	"github.com/spiffcs/gitextract/internal/extract"
	"github.com/spiffcs/gitextract/internal/format"
)

const defaultTableWidth = 100

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	// Width is the terminal width in columns. Zero means 100.
	Width int
}

func (f *TableFormatter) width() int {
	if f.Width <= 0 {
		return defaultTableWidth
	}
	return f.Width
}

// FormatRecords prints one row per input URL.
func (f *TableFormatter) FormatRecords(results []extract.BatchResult, w io.Writer) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No items extracted.")
		return nil
	}

	const (
		colStatus   = 7
		colItem     = 34
		colState    = 8
		colActivity = 8
	)
	colTitle := f.width() - colStatus - colItem - colState - colActivity - 8
	if colTitle < 20 {
		colTitle = 20
	}

	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		format.Fit("Status", colStatus),
		format.Fit("Item", colItem),
		format.Fit("State", colState),
		format.Fit("Activity", colActivity),
		"Title")
	fmt.Fprintln(w, strings.Repeat("-", colStatus+colItem+colState+colActivity+colTitle+8))

	var cached, fetched, failed int
	for _, r := range results {
		if r.Err != nil || r.Record == nil {
			failed++
			msg := "unknown error"
			if r.Err != nil {
				msg = format.SingleLine(r.Err.Error())
			}
			fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
				format.Fit(color.RedString("error"), colStatus),
				format.Fit(r.URL, colItem),
				format.Fit("", colState),
				format.Fit("", colActivity),
				color.RedString(format.Truncate(msg, colTitle)))
			continue
		}

		rec := r.Record
		status := color.GreenString("fetched")
		if rec.FromCache {
			status = color.CyanString("cached")
			cached++
		} else {
			fetched++
		}

		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			format.Fit(status, colStatus),
			format.Fit(rec.Target.String(), colItem),
			format.Fit(colorState(itemState(rec.Issue)), colState),
			format.Fit(activityCount(rec.Activity), colActivity),
			format.Truncate(format.SingleLine(itemTitle(rec.Issue)), colTitle))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d fetched, %d from cache, %d failed\n", fetched, cached, failed)
	return nil
}

func colorState(state string) string {
	switch state {
	case "open", "new", "reported", "confirmed":
		return color.GreenString(state)
	case "merged", "resolved", "fulfilled":
		return color.MagentaString(state)
	case "closed", "declined", "superseded":
		return color.RedString(state)
	default:
		return state
	}
}

// FormatCacheEntries lists cached items, newest first.
func (f *TableFormatter) FormatCacheEntries(entries []cache.Entry, w io.Writer) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Cache is empty.")
		return nil
	}

	sorted := make([]cache.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ModTime.After(sorted[j].ModTime)
	})

	const (
		colKind = 5
		colSize = 10
		colAge  = 5
	)
	colItem := f.width() - colKind - colSize - colAge - 6
	if colItem < 30 {
		colItem = 30
	}

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		format.Fit("Item", colItem),
		format.Fit("Kind", colKind),
		format.Fit("Size", colSize),
		"Age")
	fmt.Fprintln(w, strings.Repeat("-", colItem+colKind+colSize+colAge+6))

	now := time.Now()
	for _, e := range sorted {
		kind := "issue"
		if e.IsPR {
			kind = "pr"
		}
		item := fmt.Sprintf("%s/%s/%s#%d", e.Domain, e.Owner, e.Repo, e.Number)
		if !e.Complete {
			item += color.YellowString(" (incomplete)")
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			format.Fit(item, colItem),
			format.Fit(kind, colKind),
			format.Fit(format.FormatBytes(e.Bytes), colSize),
			format.FormatAge(now.Sub(e.ModTime)))
	}
	return nil
}

// FormatCacheStats prints cache totals and a per-domain breakdown.
func (f *TableFormatter) FormatCacheStats(root string, stats *cache.Stats, w io.Writer) error {
	fmt.Fprintf(w, "Cache directory: %s\n", root)
	fmt.Fprintf(w, "Entries:         %d (%d issues, %d pull requests)\n", stats.Total, stats.Issues, stats.PullRequests)
	fmt.Fprintf(w, "Size:            %s\n", format.FormatBytes(stats.Bytes))
	if stats.Incomplete > 0 {
		fmt.Fprintf(w, "Incomplete:      %s\n", color.YellowString("%d", stats.Incomplete))
	}

	if len(stats.ByDomain) == 0 {
		return nil
	}

	domains := make([]string, 0, len(stats.ByDomain))
	for d := range stats.ByDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	fmt.Fprintln(w, "\nBy domain:")
	for _, d := range domains {
		fmt.Fprintf(w, "  %s %d\n", format.Fit(d, 24), stats.ByDomain[d])
	}
	return nil
}
