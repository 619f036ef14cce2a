package provider

import (
	"context"
	"fmt"

	"github.com/spiffcs/gitextract/internal/target"
)

// Forgejo fetches issues and pull requests from Forgejo and Gitea hosts
// through the REST v1 API.
type Forgejo struct {
	endpoint
}

var _ Fetcher = (*Forgejo)(nil)

// NewForgejo creates a Forgejo fetcher.
func NewForgejo(opts ...Option) *Forgejo {
	return &Forgejo{endpoint: newEndpoint(opts)}
}

// Fetch loads the item and its timeline. The timeline response is kept as is.
func (f *Forgejo) Fetch(ctx context.Context, t target.Target, token string) (*Result, error) {
	r := requester{engine: target.EngineForgejo, client: authorize(f.endpoint.client, authToken, token)}

	kind := "issues"
	if t.IsPR {
		kind = "pulls"
	}
	itemURL := fmt.Sprintf("%s/api/v1/repos/%s/%s/%s/%d", f.hostBase(t), t.Owner, t.Repo, kind, t.Number)

	issue, err := r.get(ctx, itemURL)
	if err != nil {
		return nil, err
	}

	timeline, err := r.get(ctx, itemURL+"/timeline")
	if err != nil {
		return nil, err
	}

	return &Result{Issue: issue, Activity: timeline}, nil
}
