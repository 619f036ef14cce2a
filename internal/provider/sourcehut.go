package provider

import (
	"context"
	"fmt"

	"github.com/spiffcs/gitextract/internal/target"
)

// Sourcehut fetches todo.sr.ht tickets through the GraphQL API.
type Sourcehut struct {
	endpoint
}

var _ Fetcher = (*Sourcehut)(nil)

// NewSourcehut creates a Sourcehut fetcher. Queries go to
// https://<domain>/query unless WithBaseURL is given.
func NewSourcehut(opts ...Option) *Sourcehut {
	return &Sourcehut{endpoint: newEndpoint(opts)}
}

// Fetch runs the ticket query. A null user, tracker or ticket is reported as
// ErrTicketNotFound.
func (s *Sourcehut) Fetch(ctx context.Context, t target.Target, token string) (*Result, error) {
	r := requester{engine: target.EngineSourcehut, client: authorize(s.endpoint.client, authBearer, token)}

	body := graphqlRequest{
		Query: sourcehutTicketQuery,
		Variables: map[string]any{
			"username":    t.Owner,
			"trackerName": t.Repo,
			"ticketId":    t.Number,
		},
	}

	resp, err := r.post(ctx, s.hostBase(t)+"/query", body)
	if err != nil {
		return nil, err
	}

	ticket, ok := dig(resp, "data", "user", "tracker", "ticket").(map[string]any)
	if !ok {
		if errs := graphqlErrorsFrom(resp); len(errs) > 0 {
			return nil, fmt.Errorf("%w: %s: %s", ErrTicketNotFound, t.String(), joinGraphQLErrors(errs))
		}
		return nil, fmt.Errorf("%w: %s", ErrTicketNotFound, t.String())
	}

	return &Result{Issue: ticket, Activity: listOrEmpty(dig(ticket, "comments", "results"))}, nil
}
