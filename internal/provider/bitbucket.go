package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/spiffcs/gitextract/internal/target"
)

const bitbucketAPI = "https://api.bitbucket.org"

// Bitbucket fetches issues and pull requests through the REST 2.0 API.
type Bitbucket struct {
	endpoint
}

var _ Fetcher = (*Bitbucket)(nil)

// NewBitbucket creates a Bitbucket fetcher for api.bitbucket.org.
func NewBitbucket(opts ...Option) *Bitbucket {
	return &Bitbucket{endpoint: newEndpoint(opts)}
}

// Fetch loads the item and then follows its links.comments.href. A token of
// the form user:password is sent as HTTP Basic, anything else as a bearer.
func (b *Bitbucket) Fetch(ctx context.Context, t target.Target, token string) (*Result, error) {
	scheme := authBearer
	if strings.Contains(token, ":") {
		scheme = authBasic
	}
	r := requester{engine: target.EngineBitbucket, client: authorize(b.endpoint.client, scheme, token)}

	base := b.baseURL
	if base == "" {
		base = bitbucketAPI
	}
	kind := "issues"
	if t.IsPR {
		kind = "pullrequests"
	}
	itemURL := fmt.Sprintf("%s/2.0/repositories/%s/%s/%s/%d", base, t.Owner, t.Repo, kind, t.Number)

	issue, err := r.get(ctx, itemURL)
	if err != nil {
		return nil, err
	}

	commentsURL, _ := dig(issue, "links", "comments", "href").(string)
	if commentsURL == "" {
		return nil, fmt.Errorf("%s response for %s has no links.comments.href", target.EngineBitbucket, t.String())
	}

	comments, err := r.get(ctx, commentsURL)
	if err != nil {
		return nil, err
	}

	return &Result{Issue: issue, Activity: listOrEmpty(dig(comments, "values"))}, nil
}
