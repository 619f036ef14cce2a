package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/gitextract/internal/constants"
	"github.com/spiffcs/gitextract/internal/log"
	"github.com/spiffcs/gitextract/internal/target"
)

// rateLimitLowWatermark is the remaining-request count below which the
// GitHub rate limit is reported at info level.
const rateLimitLowWatermark = 100

// GitHub fetches issues and pull requests through the GraphQL API.
type GitHub struct {
	endpoint
}

var _ Fetcher = (*GitHub)(nil)

// NewGitHub creates a GitHub fetcher. WithBaseURL replaces
// https://api.github.com/ (useful for GitHub Enterprise and tests).
func NewGitHub(opts ...Option) *GitHub {
	return &GitHub{endpoint: newEndpoint(opts)}
}

func (g *GitHub) client(token string) (*gh.Client, error) {
	authed := authorize(g.endpoint.client, authBearer, token)

	hc := *authed
	hc.Transport = &rateLimitTransport{base: authed.Transport}

	client := gh.NewClient(&hc)
	client.UserAgent = constants.UserAgent

	if g.baseURL != "" {
		base, err := url.Parse(g.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", g.baseURL, err)
		}
		if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
			base.Path += "/"
		}
		client.BaseURL = base
	}
	return client, nil
}

// Fetch runs the issueOrPullRequest query. The node becomes the issue and its
// timeline nodes the activity.
func (g *GitHub) Fetch(ctx context.Context, t target.Target, token string) (*Result, error) {
	client, err := g.client(token)
	if err != nil {
		return nil, err
	}

	body := graphqlRequest{
		Query: githubItemQuery,
		Variables: map[string]any{
			"owner":  t.Owner,
			"repo":   t.Repo,
			"number": t.Number,
		},
	}

	req, err := client.NewRequest(http.MethodPost, "graphql", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub request: %w", err)
	}

	log.Debug("provider request", "engine", target.EngineGitHub, "method", http.MethodPost, "url", req.URL.String())

	var resp graphqlResponse
	r, err := client.Do(ctx, req, &resp)
	if err != nil {
		return nil, githubError(err)
	}

	var data any
	if len(resp.Data) > 0 {
		if data, err = decodeJSON(resp.Data); err != nil {
			return nil, fmt.Errorf("failed to parse GitHub response: %w", err)
		}
	}

	node, ok := dig(data, "repository", "issueOrPullRequest").(map[string]any)
	if !ok {
		msg := joinGraphQLErrors(resp.Errors)
		if msg == "" {
			msg = fmt.Sprintf("no issue or pull request #%d in %s/%s", t.Number, t.Owner, t.Repo)
		}
		return nil, &ProviderError{Engine: target.EngineGitHub, Status: r.StatusCode, Body: msg}
	}
	if len(resp.Errors) > 0 {
		log.Warn("GitHub GraphQL returned partial errors", "target", t.String(), "errors", joinGraphQLErrors(resp.Errors))
	}

	return &Result{
		Issue:    node,
		Activity: listOrEmpty(dig(node, "timelineItems", "nodes")),
	}, nil
}

// githubError maps go-github's error types onto ProviderError so callers see
// one error shape for every engine.
func githubError(err error) error {
	var (
		errResp  *gh.ErrorResponse
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		resp     *http.Response
		fallback string
	)
	switch {
	case errors.As(err, &rateErr):
		resp, fallback = rateErr.Response, rateErr.Message
	case errors.As(err, &abuseErr):
		resp, fallback = abuseErr.Response, abuseErr.Message
	case errors.As(err, &errResp):
		resp, fallback = errResp.Response, errResp.Message
	default:
		return fmt.Errorf("%s request failed: %w", target.EngineGitHub, err)
	}

	if resp == nil {
		return fmt.Errorf("%s request failed: %w", target.EngineGitHub, err)
	}

	body := fallback
	if resp.Body != nil {
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyBytes+1)); readErr == nil && len(data) > 0 {
			body = clip(data)
		}
	}
	return &ProviderError{Engine: target.EngineGitHub, Status: resp.StatusCode, Body: body}
}

// rateLimitTransport logs GitHub's rate limit headers on every response.
type rateLimitTransport struct {
	base http.RoundTripper
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	switch {
	case remaining < 0 || limit <= 0:
	case remaining <= rateLimitLowWatermark:
		log.Info("GitHub rate limit low", "remaining", remaining, "limit", limit, "resets_at", resetAt.Format(time.RFC3339))
	default:
		log.Trace("GitHub rate limit", "remaining", remaining, "limit", limit)
	}

	return resp, nil
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			remaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			resetAt = time.Unix(n, 0)
		}
	}

	return remaining, limit, resetAt
}
