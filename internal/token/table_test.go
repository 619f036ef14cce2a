package token

import (
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLookup(t *testing.T) {
	table := Table{
		{Domain: "gitlab", Token: "generic-gitlab"},
		{Domain: "gitlab.com", Token: "gitlab-com"},
		{Domain: "github.com", Token: "gh"},
		{Domain: "redox-os.org", Token: "redox"},
	}

	tests := []struct {
		name   string
		domain string
		want   string
		wantOK bool
	}{
		{"exact match", "github.com", "gh", true},
		{"exact beats earlier substring", "gitlab.com", "gitlab-com", true},
		{"first substring in order wins", "gitlab.redox-os.org", "generic-gitlab", true},
		{"substring on suffix", "www.github.com", "gh", true},
		{"no match", "codeberg.org", "", false},
		{"empty domain", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Lookup(tt.domain)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.domain, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLookupOrderSensitive(t *testing.T) {
	a := Table{{Domain: "redox-os.org", Token: "first"}, {Domain: "gitlab", Token: "second"}}
	b := Table{{Domain: "gitlab", Token: "second"}, {Domain: "redox-os.org", Token: "first"}}

	if got, _ := a.Lookup("gitlab.redox-os.org"); got != "first" {
		t.Errorf("a.Lookup = %q, want first", got)
	}
	if got, _ := b.Lookup("gitlab.redox-os.org"); got != "second" {
		t.Errorf("b.Lookup = %q, want second", got)
	}
}

func TestLookupEmptyKeyMatchesEverything(t *testing.T) {
	table := Table{{Domain: "", Token: "catch-all"}, {Domain: "gitlab", Token: "gl"}, {Domain: "github.com", Token: "gh"}}

	if got, ok := table.Lookup("gitlab.example.org"); !ok || got != "catch-all" {
		t.Errorf("Lookup(gitlab.example.org) = (%q, %v), want catch-all", got, ok)
	}
	if got, _ := table.Lookup("github.com"); got != "gh" {
		t.Errorf("Lookup(github.com) = %q, exact match should win", got)
	}
	if key, ok := table.Match("codeberg.org"); !ok || key != "" {
		t.Errorf("Match(codeberg.org) = (%q, %v), want empty key", key, ok)
	}
}

func TestLookupEmptyTable(t *testing.T) {
	var table Table
	if tok, ok := table.Lookup("github.com"); ok || tok != "" {
		t.Errorf("empty table Lookup = (%q, %v), want absent", tok, ok)
	}
}

func TestMatch(t *testing.T) {
	table := Table{{Domain: "gitlab", Token: "x"}, {Domain: "gitlab.com", Token: "y"}}

	key, ok := table.Match("gitlab.com")
	if !ok || key != "gitlab.com" {
		t.Errorf("Match(gitlab.com) = (%q, %v), want exact key", key, ok)
	}
	key, ok = table.Match("gitlab.example.org")
	if !ok || key != "gitlab" {
		t.Errorf("Match(gitlab.example.org) = (%q, %v), want gitlab", key, ok)
	}
}

func TestSetAndMerge(t *testing.T) {
	base := Table{{Domain: "a", Token: "1"}, {Domain: "b", Token: "2"}}
	merged := base.Merge(Table{{Domain: "b", Token: "20"}, {Domain: "c", Token: "3"}})

	want := Table{{Domain: "a", Token: "1"}, {Domain: "b", Token: "20"}, {Domain: "c", Token: "3"}}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("Merge() = %+v, want %+v", merged, want)
	}
	if base[1].Token != "2" {
		t.Errorf("Merge() mutated receiver: %+v", base)
	}
	if got := merged.Domains(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Domains() = %v", got)
	}
}

func TestYAMLKeepsOrder(t *testing.T) {
	doc := `
git_domains:
  zeta.example: z
  gitlab.com: glpat
  alpha.example: a
  github.com: ghp
`
	var cfg struct {
		GitDomains Table `yaml:"git_domains"`
	}
	if err := yaml.Unmarshal([]byte(doc), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := []string{"zeta.example", "gitlab.com", "alpha.example", "github.com"}
	if got := cfg.GitDomains.Domains(); !reflect.DeepEqual(got, want) {
		t.Errorf("domains = %v, want %v", got, want)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Index(string(out), "zeta.example") > strings.Index(string(out), "github.com") {
		t.Errorf("Marshal lost order:\n%s", out)
	}
}

func TestYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"sequence instead of mapping", "git_domains:\n  - github.com\n"},
		{"duplicate key", "git_domains:\n  github.com: a\n  github.com: b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg struct {
				GitDomains Table `yaml:"git_domains"`
			}
			if err := yaml.Unmarshal([]byte(tt.doc), &cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestYAMLNullValues(t *testing.T) {
	var cfg struct {
		GitDomains Table `yaml:"git_domains"`
	}
	if err := yaml.Unmarshal([]byte("git_domains:\n  github.com:\n"), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(cfg.GitDomains) != 1 || cfg.GitDomains[0].Token != "" {
		t.Errorf("GitDomains = %+v, want one empty token", cfg.GitDomains)
	}
}
