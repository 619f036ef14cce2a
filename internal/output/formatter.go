package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/spiffcs/gitextract/internal/cache"
	"github.com/spiffcs/gitextract/internal/extract"
	"github.com/spiffcs/gitextract/internal/target"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

// Resolution describes what an extraction of URL would do, without doing it.
type Resolution struct {
	URL      string
	Target   target.Target
	CacheDir string
	Cached   bool
	TokenKey string // table key that matched, empty when none
	Err      error
}

// Formatter defines the interface for output formatters
type Formatter interface {
	FormatRecords(results []extract.BatchResult, w io.Writer) error
	FormatResolutions(items []Resolution, w io.Writer) error
	FormatCacheEntries(entries []cache.Entry, w io.Writer) error
	FormatCacheStats(root string, stats *cache.Stats, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	default:
		return &TableFormatter{Width: TerminalWidth()}
	}
}

// TerminalWidth returns the width of stdout, or 0 when it is not a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}
