package cache

import "time"

// Entry describes one cached item as found on disk.
type Entry struct {
	Dir      string
	Domain   string
	Owner    string
	Repo     string
	IsPR     bool
	Number   int
	Bytes    int64
	ModTime  time.Time // main.json modification time
	Complete bool      // activity.json present
}

// Stats contains cache statistics
type Stats struct {
	Total        int
	Issues       int
	PullRequests int
	Incomplete   int // entries with main.json but no activity.json
	Bytes        int64
	ByDomain     map[string]int
}
