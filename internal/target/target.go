// Package target resolves issue and pull request web URLs into the
// provider-neutral identity used for fetching and caching.
package target

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Engine identifies a hosting platform's API dialect.
type Engine string

const (
	EngineGitHub    Engine = "github"
	EngineGitLab    Engine = "gitlab"
	EngineBitbucket Engine = "bitbucket"
	EngineForgejo   Engine = "forgejo"
	EngineSourcehut Engine = "sourcehut"
)

// AllEngines returns every supported engine in resolution order.
func AllEngines() []Engine {
	return []Engine{EngineGitHub, EngineGitLab, EngineBitbucket, EngineForgejo, EngineSourcehut}
}

var (
	// ErrInvalidURL is returned when a URL belongs to a known platform but
	// does not have the shape of an issue or pull request URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnsupportedPlatform is returned when the host matches no known platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Target is the resolved identity of one issue or pull request.
type Target struct {
	Engine Engine `json:"engine"`
	Scheme string `json:"scheme,omitempty"`
	Domain string `json:"domain"`
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	IsPR   bool   `json:"is_pr"`
	Number int    `json:"number"`
}

// RepoURL returns the web URL of the repository the item belongs to.
func (t Target) RepoURL() string {
	scheme := t.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, t.Domain, t.Owner, t.Repo)
}

// Kind returns "pr" or "issue".
func (t Target) Kind() string {
	if t.IsPR {
		return "pr"
	}
	return "issue"
}

func (t Target) String() string {
	sep := "#"
	if t.IsPR {
		sep = "!"
	}
	return fmt.Sprintf("%s/%s/%s%s%d", t.Domain, t.Owner, t.Repo, sep, t.Number)
}

// gitlabPattern is matched against the whole URL. Both path groups are lazy
// so that the first group takes one segment and the second takes the rest of
// the namespace up to "/-/".
var gitlabPattern = regexp.MustCompile(`gitlab\..*?/(.*?)/(.*?)/-/(issues|merge_requests)/(\d+)`)

// Parse resolves a web URL into a Target. It performs no I/O.
//
// Platforms are recognised by substring match on the lowercased host, in
// this order: github.com, gitlab, bitbucket.org, codeberg.org, sr.ht.
func Parse(rawURL string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s: %v", ErrInvalidURL, rawURL, err)
	}

	domain := strings.ToLower(u.Host)
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	t := Target{Scheme: u.Scheme, Domain: domain}

	switch {
	case strings.Contains(domain, "github.com"):
		t.Engine = EngineGitHub
		err = parsePath(&t, parts, "issues", "pull")

	case strings.Contains(domain, "gitlab"):
		t.Engine = EngineGitLab
		err = parseGitLab(&t, rawURL)

	case strings.Contains(domain, "bitbucket.org"):
		t.Engine = EngineBitbucket
		err = parsePath(&t, parts, "issues", "pullrequests", "pull-requests")

	case strings.Contains(domain, "codeberg.org"):
		t.Engine = EngineForgejo
		err = parsePath(&t, parts, "issues", "pulls")

	case strings.Contains(domain, "sr.ht"):
		t.Engine = EngineSourcehut
		err = parseSourcehut(&t, parts)

	default:
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, domain)
	}

	if err == nil {
		err = checkSegments(t.Owner, t.Repo)
	}
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s URL %s: %v", ErrInvalidURL, t.Engine, rawURL, err)
	}
	return t, nil
}

// checkSegments rejects owner and repo path segments that are empty or
// would move a cache key out of its directory. GitLab repos may span
// several segments; each is checked.
func checkSegments(owner, repo string) error {
	for _, name := range append([]string{owner}, strings.Split(repo, "/")...) {
		if name == "" || name == "." || name == ".." || strings.ContainsRune(name, '\\') {
			return fmt.Errorf("invalid path segment %q", name)
		}
	}
	return nil
}

// parsePath handles the owner/repo/<kind>/<number> layout shared by
// GitHub, Bitbucket and Forgejo. The first prKinds entry is the canonical
// name; the rest are aliases.
func parsePath(t *Target, parts []string, issueKind string, prKinds ...string) error {
	if len(parts) < 4 {
		return fmt.Errorf("expected owner/repo/%s|%s/<number>", issueKind, prKinds[0])
	}

	switch {
	case parts[2] == issueKind:
		t.IsPR = false
	case slices.Contains(prKinds, parts[2]):
		t.IsPR = true
	default:
		return fmt.Errorf("unknown item kind %q", parts[2])
	}

	n, err := parseNumber(parts[3])
	if err != nil {
		return err
	}

	t.Owner = parts[0]
	t.Repo = parts[1]
	t.Number = n
	return nil
}

func parseGitLab(t *Target, rawURL string) error {
	m := gitlabPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return fmt.Errorf("expected <namespace>/<project>/-/issues|merge_requests/<number>")
	}

	n, err := parseNumber(m[4])
	if err != nil {
		return err
	}

	t.Owner = m[1]
	t.Repo = m[2]
	t.IsPR = m[3] == "merge_requests"
	t.Number = n
	return nil
}

// parseSourcehut handles ~owner/tracker/<number>. Sourcehut tickets have no
// pull request counterpart.
func parseSourcehut(t *Target, parts []string) error {
	if len(parts) < 3 {
		return fmt.Errorf("expected ~owner/tracker/<number>")
	}

	n, err := parseNumber(parts[2])
	if err != nil {
		return err
	}

	t.Owner = strings.ReplaceAll(parts[0], "~", "")
	t.Repo = parts[1]
	t.IsPR = false
	t.Number = n
	return nil
}

func parseNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("item number %q is not numeric", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("item number %d is not positive", n)
	}
	return n, nil
}
