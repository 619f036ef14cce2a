package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/spiffcs/gitextract/internal/extract"
)

var commentHeaderStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("39")).
	Bold(true)

// RenderRecord writes a readable view of one record: a heading, the item
// body and every activity entry that carries text, in provider order.
// Markdown is rendered with glamour unless colors are disabled, in which
// case the raw text is printed.
func RenderRecord(rec *extract.Record, width int, w io.Writer) error {
	if width <= 0 {
		width = defaultTableWidth
	}
	md := newMarkdown(width)

	title := itemTitle(rec.Issue)
	if title == "" {
		title = "(untitled)"
	}
	heading := fmt.Sprintf("%s  %s", rec.Target.String(), title)
	meta := strings.TrimSpace(strings.Join([]string{itemState(rec.Issue), itemAuthor(rec.Issue)}, "  "))
	if color.NoColor {
		fmt.Fprintln(w, heading)
		if meta != "" {
			fmt.Fprintln(w, meta)
		}
	} else {
		fmt.Fprintln(w, headingStyle.Render(heading))
		if meta != "" {
			fmt.Fprintln(w, dimStyle.Render(meta))
		}
	}

	if body := itemBody(rec.Issue); body != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, md(body))
	}

	entries, _ := rec.Activity.([]any)
	for _, e := range entries {
		text := itemBody(e)
		if text == "" {
			continue
		}
		author := itemAuthor(e)
		if author == "" {
			author = "unknown"
		}
		fmt.Fprintln(w)
		if color.NoColor {
			fmt.Fprintf(w, "--- %s\n", author)
		} else {
			fmt.Fprintln(w, commentHeaderStyle.Render("▸ "+author))
		}
		fmt.Fprintln(w, md(text))
	}
	return nil
}

// newMarkdown returns a renderer that falls back to the raw text when
// colors are off or glamour fails.
func newMarkdown(width int) func(string) string {
	if color.NoColor {
		return strings.TrimSpace
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithEnvironmentConfig(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return strings.TrimSpace
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return strings.TrimSpace(s)
		}
		return strings.TrimSpace(out)
	}
}
