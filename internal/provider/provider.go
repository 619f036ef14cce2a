// Package provider fetches an issue or pull request and its activity from a
// Git hosting platform, returning the platform's own JSON shapes.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spiffcs/gitextract/internal/constants"
	"github.com/spiffcs/gitextract/internal/target"
)

// ErrTicketNotFound is returned by the Sourcehut fetcher when the query
// succeeds but resolves to no ticket.
var ErrTicketNotFound = errors.New("ticket not found")

// Result is one fetched item. Issue and Activity are decoded JSON values
// (maps, slices, json.Number, strings, bools and nil) in the provider's shape.
type Result struct {
	Issue    any
	Activity any
}

// Fetcher fetches one item for a resolved target. An empty token means the
// requests are sent without credentials.
type Fetcher interface {
	Fetch(ctx context.Context, t target.Target, token string) (*Result, error)
}

// ProviderError is returned for any non-2xx response from a provider.
type ProviderError struct {
	Engine target.Engine
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Engine, e.Status, e.Body)
}

// endpoint carries the settings every fetcher shares.
type endpoint struct {
	client  *http.Client
	baseURL string
}

// Option configures a fetcher.
type Option func(*endpoint)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(c *http.Client) Option {
	return func(e *endpoint) {
		e.client = c
	}
}

// WithBaseURL overrides the API root. For GitLab, Forgejo and Sourcehut the
// default is derived from the target's domain; for GitHub and Bitbucket it
// is the public API host.
func WithBaseURL(u string) Option {
	return func(e *endpoint) {
		e.baseURL = u
	}
}

func newEndpoint(opts []Option) endpoint {
	e := endpoint{}
	for _, opt := range opts {
		opt(&e)
	}
	if e.client == nil {
		e.client = NewHTTPClient(constants.DefaultRequestTimeout)
	}
	return e
}

// hostBase returns the configured base URL, or https://<domain>.
func (e endpoint) hostBase(t target.Target) string {
	if e.baseURL != "" {
		return e.baseURL
	}
	return "https://" + t.Domain
}

// Defaults returns the standard fetcher for every engine, all sharing client.
func Defaults(client *http.Client) map[target.Engine]Fetcher {
	return map[target.Engine]Fetcher{
		target.EngineGitHub:    NewGitHub(WithHTTPClient(client)),
		target.EngineGitLab:    NewGitLab(WithHTTPClient(client)),
		target.EngineBitbucket: NewBitbucket(WithHTTPClient(client)),
		target.EngineForgejo:   NewForgejo(WithHTTPClient(client)),
		target.EngineSourcehut: NewSourcehut(WithHTTPClient(client)),
	}
}
