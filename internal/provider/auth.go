package provider

import (
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// authScheme selects how a token is attached to requests.
type authScheme int

const (
	authBearer       authScheme = iota // Authorization: Bearer <token>
	authToken                          // Authorization: token <token> (Forgejo/Gitea)
	authPrivateToken                   // PRIVATE-TOKEN: <token> (GitLab)
	authBasic                          // HTTP Basic from "user:pass"
)

// authorize returns a client that sends tok on every request using scheme.
// An empty token returns base unchanged so requests go out anonymously.
// The returned client keeps base's timeout, redirect policy and cookie jar.
func authorize(base *http.Client, scheme authScheme, tok string) *http.Client {
	if tok == "" {
		return base
	}

	var rt http.RoundTripper
	switch scheme {
	case authBearer:
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}),
			Base:   base.Transport,
		}
	case authToken:
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "token"}),
			Base:   base.Transport,
		}
	case authPrivateToken:
		rt = &headerTransport{base: base.Transport, set: func(r *http.Request) {
			r.Header.Set("PRIVATE-TOKEN", tok)
		}}
	case authBasic:
		user, pass, _ := strings.Cut(tok, ":")
		rt = &headerTransport{base: base.Transport, set: func(r *http.Request) {
			r.SetBasicAuth(user, pass)
		}}
	default:
		return base
	}

	return &http.Client{
		Transport:     rt,
		Timeout:       base.Timeout,
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
	}
}

// headerTransport sets credentials on a clone of each request.
type headerTransport struct {
	base http.RoundTripper
	set  func(*http.Request)
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	t.set(r)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
