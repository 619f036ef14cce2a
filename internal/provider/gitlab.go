package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spiffcs/gitextract/internal/constants"
	"github.com/spiffcs/gitextract/internal/target"
)

// GitLab fetches issues and merge requests through the REST v4 API.
type GitLab struct {
	endpoint
}

var _ Fetcher = (*GitLab)(nil)

// NewGitLab creates a GitLab fetcher. The API host is the target's domain
// unless WithBaseURL is given.
func NewGitLab(opts ...Option) *GitLab {
	return &GitLab{endpoint: newEndpoint(opts)}
}

// Fetch loads the item, then its first page of notes, and injects the notes
// into the item under "notes".
func (g *GitLab) Fetch(ctx context.Context, t target.Target, token string) (*Result, error) {
	r := requester{engine: target.EngineGitLab, client: authorize(g.endpoint.client, authPrivateToken, token)}

	kind := "issues"
	if t.IsPR {
		kind = "merge_requests"
	}
	itemURL := fmt.Sprintf("%s/api/v4/projects/%s/%s/%d",
		g.hostBase(t), url.PathEscape(t.Owner+"/"+t.Repo), kind, t.Number)

	issue, err := r.get(ctx, itemURL)
	if err != nil {
		return nil, err
	}

	notesURL := itemURL + "/notes?per_page=" + strconv.Itoa(constants.GitLabNotesPerPage)
	notes, err := r.get(ctx, notesURL)
	if err != nil {
		return nil, err
	}

	obj, ok := issue.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected %s response for %s: not an object", target.EngineGitLab, t.String())
	}
	obj["notes"] = notes

	return &Result{Issue: obj, Activity: notes}, nil
}
