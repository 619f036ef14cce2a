package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spiffcs/gitextract/internal/extract"
	"github.com/spiffcs/gitextract/internal/target"
)

func TestRenderRecordPlain(t *testing.T) {
	noColor(t)

	rec := &extract.Record{
		Target: target.Target{Engine: target.EngineGitHub, Domain: "github.com", Owner: "o", Repo: "r", Number: 1},
		Issue: map[string]any{
			"title":  "Crash on start",
			"state":  "OPEN",
			"author": map[string]any{"login": "alice"},
			"body":   "Steps:\n\n1. run it",
		},
		Activity: []any{
			map[string]any{"body": "same here", "author": map[string]any{"login": "bob"}},
			map[string]any{"commit": map[string]any{"oid": "abc"}},
			map[string]any{"text": "anonymous note"},
		},
	}

	var buf bytes.Buffer
	if err := RenderRecord(rec, 80, &buf); err != nil {
		t.Fatalf("RenderRecord: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"github.com/o/r#1", "Crash on start", "open  alice", "1. run it", "--- bob", "same here", "--- unknown", "anonymous note"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "---") != 2 {
		t.Errorf("entries without text should be skipped:\n%s", out)
	}
}

func TestItemBodyAndAuthor(t *testing.T) {
	tests := []struct {
		name       string
		v          any
		body, user string
	}{
		{"github", map[string]any{"body": "b", "author": map[string]any{"login": "gh"}}, "b", "gh"},
		{"gitlab", map[string]any{"description": "d", "author": map[string]any{"username": "gl"}}, "d", "gl"},
		{"bitbucket", map[string]any{"content": map[string]any{"raw": "r"}, "reporter": map[string]any{"display_name": "Bb"}}, "r", "Bb"},
		{"forgejo", map[string]any{"body": "f", "user": map[string]any{"login": "fj"}}, "f", "fj"},
		{"sourcehut", map[string]any{"description": "s", "submitter": map[string]any{"canonicalName": "~sh"}}, "s", "~sh"},
		{"not an object", []any{}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := itemBody(tt.v); got != tt.body {
				t.Errorf("itemBody = %q, want %q", got, tt.body)
			}
			if got := itemAuthor(tt.v); got != tt.user {
				t.Errorf("itemAuthor = %q, want %q", got, tt.user)
			}
		})
	}
}
