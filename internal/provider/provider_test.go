package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spiffcs/gitextract/internal/constants"
	"github.com/spiffcs/gitextract/internal/target"
)

// recorded is one request seen by the fake API.
type recorded struct {
	Method string
	Path   string // escaped
	Query  string
	Header http.Header
	Body   string
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recorded
}

func (f *fakeAPI) record(r *http.Request) recorded {
	body, _ := io.ReadAll(r.Body)
	rec := recorded{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   string(body),
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	return rec
}

func (f *fakeAPI) all() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

// newFakeAPI serves routes keyed by escaped path. Unknown paths return 404.
func newFakeAPI(t *testing.T, routes map[string]func(w http.ResponseWriter, rec recorded)) (*httptest.Server, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := api.record(r)
		h, ok := routes[rec.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
			return
		}
		h(w, rec)
	}))
	t.Cleanup(srv.Close)
	return srv, api
}

func jsonReply(body string) func(w http.ResponseWriter, rec recorded) {
	return func(w http.ResponseWriter, _ recorded) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func statusReply(status int, body string) func(w http.ResponseWriter, rec recorded) {
	return func(w http.ResponseWriter, _ recorded) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func mustParse(t *testing.T, raw string) target.Target {
	t.Helper()
	tg, err := target.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return tg
}

func TestGitHubFetch(t *testing.T) {
	srv, api := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		"/graphql": jsonReply(`{"data":{"repository":{"issueOrPullRequest":{
			"id": 987654321,
			"number": 12345,
			"title": "ICE in borrowck",
			"timelineItems": {"nodes": [{"id": 1, "body": "same here"}, {}]}
		}}}}`),
	})

	g := NewGitHub(WithBaseURL(srv.URL))
	res, err := g.Fetch(context.Background(), mustParse(t, "https://github.com/rust-lang/rust/issues/12345"), "ghp_secret")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	reqs := api.all()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer ghp_secret" {
		t.Errorf("Authorization = %q", got)
	}

	var sent struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.Unmarshal([]byte(req.Body), &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if !strings.Contains(sent.Query, "issueOrPullRequest(number: $number)") {
		t.Error("query does not select issueOrPullRequest")
	}
	wantVars := map[string]any{"owner": "rust-lang", "repo": "rust", "number": float64(12345)}
	if !reflect.DeepEqual(sent.Variables, wantVars) {
		t.Errorf("variables = %v, want %v", sent.Variables, wantVars)
	}

	issue := res.Issue.(map[string]any)
	if issue["id"] != json.Number("987654321") {
		t.Errorf("issue id = %#v, want json.Number", issue["id"])
	}
	activity := res.Activity.([]any)
	if len(activity) != 2 {
		t.Errorf("activity has %d nodes, want 2", len(activity))
	}
}

func TestGitHubFetchNoTimeline(t *testing.T) {
	srv, _ := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		"/graphql": jsonReply(`{"data":{"repository":{"issueOrPullRequest":{"number": 1}}}}`),
	})

	res, err := NewGitHub(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://github.com/o/r/pull/1"), "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(res.Activity, []any{}) {
		t.Errorf("activity = %#v, want empty list", res.Activity)
	}
}

func TestGitHubFetchNullNode(t *testing.T) {
	srv, _ := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		"/graphql": jsonReply(`{"data":{"repository":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a Repository"}]}`),
	})

	_, err := NewGitHub(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://github.com/o/missing/issues/1"), "tok")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if !strings.Contains(perr.Body, "Could not resolve to a Repository") {
		t.Errorf("body = %q, want GraphQL message", perr.Body)
	}
}

func TestGitHubFetchUnauthorized(t *testing.T) {
	srv, _ := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		"/graphql": statusReply(http.StatusUnauthorized, `{"message":"Bad credentials"}`),
	})

	_, err := NewGitHub(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://github.com/o/r/issues/1"), "bad")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if perr.Status != http.StatusUnauthorized || perr.Engine != target.EngineGitHub {
		t.Errorf("ProviderError = %+v", perr)
	}
	if !strings.Contains(perr.Body, "Bad credentials") {
		t.Errorf("body = %q", perr.Body)
	}
}

func TestGitLabFetch(t *testing.T) {
	const base = "/api/v4/projects/group%2Fsub%2Fproject/merge_requests/7"
	srv, api := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		base:            jsonReply(`{"iid": 7, "title": "Add feature"}`),
		base + "/notes": jsonReply(`[{"id": 1, "body": "LGTM", "system": false}]`),
	})

	tg := mustParse(t, "https://gitlab.com/group/sub/project/-/merge_requests/7")
	res, err := NewGitLab(WithBaseURL(srv.URL)).Fetch(context.Background(), tg, "glpat-x")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	reqs := api.all()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	for _, r := range reqs {
		if got := r.Header.Get("PRIVATE-TOKEN"); got != "glpat-x" {
			t.Errorf("%s PRIVATE-TOKEN = %q", r.Path, got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("%s unexpected Authorization %q", r.Path, got)
		}
	}
	if reqs[1].Query != "per_page=100" {
		t.Errorf("notes query = %q, want per_page=100", reqs[1].Query)
	}

	issue := res.Issue.(map[string]any)
	if !reflect.DeepEqual(issue["notes"], res.Activity) {
		t.Errorf("notes not injected: %#v", issue["notes"])
	}
	if len(res.Activity.([]any)) != 1 {
		t.Errorf("activity = %#v", res.Activity)
	}
}

func TestGitLabNotesFailure(t *testing.T) {
	const base = "/api/v4/projects/o%2Fr/issues/3"
	srv, _ := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		base:            jsonReply(`{"iid": 3}`),
		base + "/notes": statusReply(http.StatusForbidden, `{"message":"403 Forbidden"}`),
	})

	_, err := NewGitLab(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://gitlab.com/o/r/-/issues/3"), "")
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Status != http.StatusForbidden {
		t.Fatalf("error = %v, want 403 ProviderError", err)
	}
}

func TestBitbucketFetch(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		checkAuth func(t *testing.T, r recorded)
	}{
		{
			name:  "bearer",
			token: "app-token",
			checkAuth: func(t *testing.T, r recorded) {
				if got := r.Header.Get("Authorization"); got != "Bearer app-token" {
					t.Errorf("%s Authorization = %q", r.Path, got)
				}
			},
		},
		{
			name:  "basic",
			token: "alice:app:password",
			checkAuth: func(t *testing.T, r recorded) {
				req := &http.Request{Header: r.Header}
				user, pass, ok := req.BasicAuth()
				if !ok || user != "alice" || pass != "app:password" {
					t.Errorf("%s basic auth = %q %q %v", r.Path, user, pass, ok)
				}
			},
		},
		{
			name:  "anonymous",
			token: "",
			checkAuth: func(t *testing.T, r recorded) {
				if got := r.Header.Get("Authorization"); got != "" {
					t.Errorf("%s Authorization = %q, want none", r.Path, got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var srvURL string
			srv, api := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
				"/2.0/repositories/team/app/pullrequests/3": func(w http.ResponseWriter, rec recorded) {
					_, _ = w.Write([]byte(`{"id": 3, "links": {"comments": {"href": "` + srvURL + `/elsewhere/comments?page=1"}}}`))
				},
				"/elsewhere/comments": jsonReply(`{"values": [{"id": 10}, {"id": 11}], "pagelen": 10}`),
			})
			srvURL = srv.URL

			res, err := NewBitbucket(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://bitbucket.org/team/app/pullrequests/3"), tt.token)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}

			reqs := api.all()
			if len(reqs) != 2 {
				t.Fatalf("expected 2 requests, got %d", len(reqs))
			}
			if reqs[1].Query != "page=1" {
				t.Errorf("comments href not followed verbatim: query %q", reqs[1].Query)
			}
			for _, r := range reqs {
				tt.checkAuth(t, r)
			}
			if len(res.Activity.([]any)) != 2 {
				t.Errorf("activity = %#v", res.Activity)
			}
		})
	}
}

func TestBitbucketMissingCommentsLink(t *testing.T) {
	srv, _ := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		"/2.0/repositories/team/app/issues/4": jsonReply(`{"id": 4}`),
	})

	_, err := NewBitbucket(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://bitbucket.org/team/app/issues/4"), "t")
	if err == nil || !strings.Contains(err.Error(), "links.comments.href") {
		t.Errorf("error = %v, want missing link error", err)
	}
}

func TestForgejoFetch(t *testing.T) {
	srv, api := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		"/api/v1/repos/forgejo/forgejo/pulls/42":          jsonReply(`{"number": 42, "merged": true}`),
		"/api/v1/repos/forgejo/forgejo/pulls/42/timeline": jsonReply(`[{"type": "comment"}, {"type": "label"}]`),
	})

	res, err := NewForgejo(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://codeberg.org/forgejo/forgejo/pulls/42"), "cb-token")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	for _, r := range api.all() {
		if got := r.Header.Get("Authorization"); got != "token cb-token" {
			t.Errorf("%s Authorization = %q", r.Path, got)
		}
	}
	if len(res.Activity.([]any)) != 2 {
		t.Errorf("activity = %#v", res.Activity)
	}
}

func TestForgejoTimelineFailure(t *testing.T) {
	srv, _ := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		"/api/v1/repos/o/r/issues/1": jsonReply(`{"number": 1}`),
	})

	_, err := NewForgejo(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://codeberg.org/o/r/issues/1"), "")
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Status != http.StatusNotFound {
		t.Fatalf("error = %v, want 404 ProviderError", err)
	}
}

func TestSourcehutFetch(t *testing.T) {
	srv, api := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		"/query": jsonReply(`{"data":{"user":{"tracker":{"ticket":{
			"id": 5, "subject": "Crash",
			"comments": {"results": [{"id": 1, "text": "confirmed"}]}
		}}}}}`),
	})

	res, err := NewSourcehut(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://todo.sr.ht/~foo/bar/5"), "srht-tok")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	req := api.all()[0]
	if got := req.Header.Get("Authorization"); got != "Bearer srht-tok" {
		t.Errorf("Authorization = %q", got)
	}
	var sent graphqlRequest
	if err := json.Unmarshal([]byte(req.Body), &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if sent.Variables["username"] != "foo" || sent.Variables["trackerName"] != "bar" || sent.Variables["ticketId"] != float64(5) {
		t.Errorf("variables = %v", sent.Variables)
	}
	if len(res.Activity.([]any)) != 1 {
		t.Errorf("activity = %#v", res.Activity)
	}
}

func TestSourcehutTicketNotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null ticket", `{"data":{"user":{"tracker":{"ticket":null}}}}`},
		{"null tracker", `{"data":{"user":{"tracker":null}}}`},
		{"null user with errors", `{"data":{"user":null},"errors":[{"message":"no such user"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
				"/query": jsonReply(tt.body),
			})
			_, err := NewSourcehut(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://todo.sr.ht/~foo/bar/9"), "")
			if !errors.Is(err, ErrTicketNotFound) {
				t.Errorf("error = %v, want ErrTicketNotFound", err)
			}
		})
	}
}

func TestErrorBodyTruncated(t *testing.T) {
	long := strings.Repeat("x", 100<<10)
	srv, _ := newFakeAPI(t, map[string]func(http.ResponseWriter, recorded){
		"/api/v1/repos/o/r/issues/1": statusReply(http.StatusInternalServerError, long),
	})

	_, err := NewForgejo(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://codeberg.org/o/r/issues/1"), "")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v", err)
	}
	if len(perr.Body) >= len(long) || !strings.HasSuffix(perr.Body, "...(truncated)") {
		t.Errorf("body not truncated: %d bytes", len(perr.Body))
	}
}

func TestOversizedResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pad": "`))
		_, _ = io.CopyN(w, strings.NewReader(strings.Repeat("x", constants.MaxResponseBytes)), constants.MaxResponseBytes)
		_, _ = w.Write([]byte(`"}`))
	}))
	defer srv.Close()

	_, err := NewForgejo(WithBaseURL(srv.URL)).Fetch(context.Background(), mustParse(t, "https://codeberg.org/o/r/issues/1"), "")
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("error = %v, want size limit error", err)
	}
}

func TestAuthorizeKeepsTimeout(t *testing.T) {
	base := NewHTTPClient(7 * time.Second)
	for _, scheme := range []authScheme{authBearer, authToken, authPrivateToken, authBasic} {
		if got := authorize(base, scheme, "tok").Timeout; got != 7*time.Second {
			t.Errorf("scheme %d: Timeout = %v", scheme, got)
		}
	}
	if authorize(base, authBearer, "") != base {
		t.Error("empty token should return the base client")
	}
}

func TestDefaultsCoverEveryEngine(t *testing.T) {
	fetchers := Defaults(nil)
	for _, e := range target.AllEngines() {
		if fetchers[e] == nil {
			t.Errorf("no fetcher for %s", e)
		}
	}
}

func TestDig(t *testing.T) {
	v := map[string]any{"a": map[string]any{"b": []any{1}}}
	if got := dig(v, "a", "b"); !reflect.DeepEqual(got, []any{1}) {
		t.Errorf("dig(a,b) = %v", got)
	}
	if got := dig(v, "a", "b", "c"); got != nil {
		t.Errorf("dig through list = %v, want nil", got)
	}
	if got := dig(nil, "a"); got != nil {
		t.Errorf("dig(nil) = %v", got)
	}
}
