package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Width(10).
			PaddingLeft(2)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// FormatResolutions prints one detail block per URL.
func (f *TableFormatter) FormatResolutions(items []Resolution, w io.Writer) error {
	blocks := make([]string, 0, len(items))
	for _, r := range items {
		blocks = append(blocks, renderResolution(r))
	}
	_, err := fmt.Fprintln(w, strings.Join(blocks, "\n\n"))
	return err
}

func renderResolution(r Resolution) string {
	if r.Err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			headingStyle.Render(r.URL),
			row("error", errorStyle.Render(r.Err.Error())),
		)
	}

	t := r.Target
	kind := "issue"
	if t.IsPR {
		kind = "pull request"
	}

	cached := dimStyle.Render("not cached")
	if r.Cached {
		cached = valueStyle.Render("cached")
	}

	tokenKey := dimStyle.Render("none (unauthenticated)")
	if r.TokenKey != "" {
		tokenKey = valueStyle.Render(r.TokenKey)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headingStyle.Render(t.String()),
		row("engine", valueStyle.Render(string(t.Engine))),
		row("kind", valueStyle.Render(kind)),
		row("repo", valueStyle.Render(t.RepoURL())),
		row("cache", valueStyle.Render(r.CacheDir)+" "+cached),
		row("token", tokenKey),
	)
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}
