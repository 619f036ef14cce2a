// Package token maps Git hosting domains to access tokens.
package token

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one domain -> credential pair.
type Entry struct {
	Domain string
	Token  string
}

// Table is an ordered domain -> credential mapping.
//
// Order matters: Lookup falls back to the first entry whose domain is a
// substring of the requested domain. A short key such as "com" will match
// almost everything, and an empty key matches every domain, so keys should
// be as specific as possible.
type Table []Entry

// Lookup returns the credential for domain. An exact key match always wins;
// otherwise the first entry, in table order, whose key is contained in domain
// is used. ok is false when nothing matches, which callers treat as
// unauthenticated access rather than an error.
func (t Table) Lookup(domain string) (token string, ok bool) {
	if e, found := t.exact(domain); found {
		return e.Token, true
	}
	for _, e := range t {
		if strings.Contains(domain, e.Domain) {
			return e.Token, true
		}
	}
	return "", false
}

// Match is like Lookup but returns the table key that matched, for diagnostics.
func (t Table) Match(domain string) (key string, ok bool) {
	if e, found := t.exact(domain); found {
		return e.Domain, true
	}
	for _, e := range t {
		if strings.Contains(domain, e.Domain) {
			return e.Domain, true
		}
	}
	return "", false
}

func (t Table) exact(domain string) (Entry, bool) {
	for _, e := range t {
		if e.Domain == domain {
			return e, true
		}
	}
	return Entry{}, false
}

// Set replaces the token for an existing domain in place, or appends a new entry.
func (t *Table) Set(domain, tok string) {
	for i := range *t {
		if (*t)[i].Domain == domain {
			(*t)[i].Token = tok
			return
		}
	}
	*t = append(*t, Entry{Domain: domain, Token: tok})
}

// Merge returns a copy of t with every entry of other applied via Set.
// Entries already in t keep their position; new ones are appended in order.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t), len(t)+len(other))
	copy(out, t)
	for _, e := range other {
		out.Set(e.Domain, e.Token)
	}
	return out
}

// Domains returns the table keys in order.
func (t Table) Domains() []string {
	out := make([]string, len(t))
	for i, e := range t {
		out[i] = e.Domain
	}
	return out
}

// UnmarshalYAML decodes a YAML mapping while keeping document order.
func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*t = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: git_domains must be a mapping of domain to token", node.Line)
	}

	out := make(Table, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]

		var domain, tok string
		if err := k.Decode(&domain); err != nil {
			return fmt.Errorf("line %d: invalid domain key: %w", k.Line, err)
		}
		if v.Kind == yaml.ScalarNode && v.Tag == "!!null" {
			tok = ""
		} else if err := v.Decode(&tok); err != nil {
			return fmt.Errorf("line %d: invalid token for %q: %w", v.Line, domain, err)
		}

		if seen[domain] {
			return fmt.Errorf("line %d: duplicate domain %q", k.Line, domain)
		}
		seen[domain] = true
		out = append(out, Entry{Domain: domain, Token: tok})
	}

	*t = out
	return nil
}

// MarshalYAML encodes the table as an ordered YAML mapping.
func (t Table) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range t {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Domain},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Token},
		)
	}
	return node, nil
}
