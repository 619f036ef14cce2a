package provider

import (
	"encoding/json"
	"strings"
)

// githubItemQuery selects an issue or pull request with its timeline. Only
// issues carry cross-referenced events; only pull requests carry mergedAt.
const githubItemQuery = `
query($owner: String!, $repo: String!, $number: Int!) {
  repository(owner: $owner, name: $repo) {
    issueOrPullRequest(number: $number) {
      ... on Issue {
        id: databaseId
        number
        title
        state
        author { login }
        body
        labels(first: 20) { nodes { name } }
        milestone { title }
        url
        timelineItems(first: 100) {
          nodes {
            ... on IssueComment {
              id: databaseId
              body
            }
            ... on ReferencedEvent {
              commit { oid url }
            }
            ... on CrossReferencedEvent {
              source {
                ... on PullRequest { number url }
              }
            }
          }
        }
      }
      ... on PullRequest {
        id: databaseId
        number
        title
        state
        author { login }
        body
        labels(first: 20) { nodes { name } }
        milestone { title }
        url
        mergedAt
        timelineItems(first: 100) {
          nodes {
            ... on IssueComment {
              id: databaseId
              body
            }
            ... on ReferencedEvent {
              commit { oid url }
            }
          }
        }
      }
    }
  }
}`

// sourcehutTicketQuery selects one todo.sr.ht ticket with its comments.
const sourcehutTicketQuery = `
query($username: String!, $trackerName: String!, $ticketId: Int!) {
  user(username: $username) {
    tracker(name: $trackerName) {
      ticket(id: $ticketId) {
        id
        subject
        status
        submitter { canonicalName }
        description
        labels { name }
        created
        updated
        comments {
          results {
            id
            text
            submitter { canonicalName }
            created
          }
        }
      }
    }
  }
}`

// graphqlRequest represents a GraphQL request payload.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse represents a generic GraphQL response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func joinGraphQLErrors(errs []graphqlError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Type != "" {
			msgs = append(msgs, e.Type+": "+e.Message)
			continue
		}
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// graphqlErrorsFrom pulls the "errors" array out of an already decoded
// GraphQL response body.
func graphqlErrorsFrom(v any) []graphqlError {
	list, ok := dig(v, "errors").([]any)
	if !ok {
		return nil
	}
	errs := make([]graphqlError, 0, len(list))
	for _, item := range list {
		msg, _ := dig(item, "message").(string)
		typ, _ := dig(item, "type").(string)
		errs = append(errs, graphqlError{Message: msg, Type: typ})
	}
	return errs
}
