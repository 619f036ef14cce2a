package output

import (
	"fmt"
	"strings"
)

// itemTitle finds the human title in a provider's issue object. Sourcehut
// calls it "subject"; everyone else "title".
func itemTitle(issue any) string {
	obj, ok := issue.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"title", "subject"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// itemState normalises the provider's state field to lower case, reporting
// merged pull requests as "merged" where the provider uses a separate flag.
func itemState(issue any) string {
	obj, ok := issue.(map[string]any)
	if !ok {
		return ""
	}
	if merged, ok := obj["merged"].(bool); ok && merged {
		return "merged"
	}
	for _, key := range []string{"state", "status"} {
		if s, ok := obj[key].(string); ok && s != "" {
			s = strings.ToLower(s)
			if s == "opened" {
				s = "open"
			}
			return s
		}
	}
	return ""
}

// activityCount returns the number of activity entries, or "-" when the
// activity is not a list.
func activityCount(activity any) string {
	if list, ok := activity.([]any); ok {
		return fmt.Sprintf("%d", len(list))
	}
	return "-"
}

// lookup walks nested objects along path and returns the string found there.
func lookup(v any, path ...string) string {
	for _, key := range path {
		obj, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		v = obj[key]
	}
	s, _ := v.(string)
	return s
}

// firstOf returns the first non-empty string among the candidate paths.
func firstOf(v any, paths ...[]string) string {
	for _, p := range paths {
		if s := lookup(v, p...); s != "" {
			return s
		}
	}
	return ""
}

// textPaths are where the providers keep markdown text: GitHub, GitLab notes
// and Forgejo use "body"; GitLab items and Sourcehut tickets "description";
// Bitbucket "content.raw" (PRs also carry "description"); Sourcehut comments
// "text".
var textPaths = [][]string{
	{"body"},
	{"description"},
	{"content", "raw"},
	{"text"},
}

var authorPaths = [][]string{
	{"author", "login"},
	{"author", "username"},
	{"author", "display_name"},
	{"user", "login"},
	{"user", "display_name"},
	{"reporter", "display_name"},
	{"submitter", "canonicalName"},
	{"author", "canonicalName"},
}

func itemBody(v any) string   { return firstOf(v, textPaths...) }
func itemAuthor(v any) string { return firstOf(v, authorPaths...) }
