// Package constants provides a centralized location for the fixed values
// and magic numbers used throughout gitextract.
package constants

import "time"

// Cache layout constants
const (
	// DefaultCacheDir is the cache root used when neither config nor flags set one.
	// It is relative to the working directory.
	DefaultCacheDir = "git_data_cache"

	// IssueFile holds the issue or pull request payload.
	IssueFile = "main.json"

	// ActivityFile holds the comment/event timeline payload.
	ActivityFile = "activity.json"

	// KindPR and KindIssue are the item-kind directory names.
	KindPR    = "pr"
	KindIssue = "issue"
)

// HTTP constants
const (
	// DefaultRequestTimeout bounds every provider HTTP request.
	DefaultRequestTimeout = 30 * time.Second

	// MaxResponseBytes caps how much of a provider response body is read.
	MaxResponseBytes = 32 << 20

	// MaxErrorBodyBytes caps how much of an error body is kept in a ProviderError.
	MaxErrorBodyBytes = 64 << 10

	// UserAgent is sent on every request that does not go through go-github.
	UserAgent = "gitextract"
)

// Provider page sizes. None of the fetchers paginate; these bound the single page.
const (
	// GitHubTimelineLimit is the number of timeline items requested per issue/PR.
	GitHubTimelineLimit = 100

	// GitHubLabelLimit is the number of labels requested per issue/PR.
	GitHubLabelLimit = 20

	// GitLabNotesPerPage is the per_page value for the notes call.
	GitLabNotesPerPage = 100
)

// Concurrency constants
const (
	// DefaultWorkers is the number of extractions run at once by a batch fetch.
	DefaultWorkers = 4
)
