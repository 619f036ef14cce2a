// Package cache persists fetched issue and activity payloads on disk.
//
// Layout: <root>/<domain>/<owner>/<repo>/<pr|issue>/<number>/{main,activity}.json
package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spiffcs/gitextract/internal/constants"
	"github.com/spiffcs/gitextract/internal/log"
	"github.com/spiffcs/gitextract/internal/target"
)

// ErrCorrupt is returned by Load when a cache entry reports present but one
// of its payload files is missing or is not valid JSON.
var ErrCorrupt = errors.New("cache entry corrupt")

// Cacher defines the interface for caching operations.
// This interface enables mocking the cache in unit tests.
type Cacher interface {
	Key(t target.Target) string
	Exists(dir string) bool
	Load(dir string) (issue, activity any, err error)
	Save(dir string, issue, activity any) error
}

// Ensure Store implements Cacher interface.
var _ Cacher = (*Store)(nil)

// Store is a directory-per-item JSON cache.
type Store struct {
	root string
}

// New creates a store rooted at root. An empty root selects constants.DefaultCacheDir.
// The directory is created lazily on first Save.
func New(root string) *Store {
	if root == "" {
		root = constants.DefaultCacheDir
	}
	return &Store{root: root}
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Key returns the cache directory for t. It depends only on the domain,
// owner (with any "~" removed), repo, kind and number, so a Target parsed
// from a URL and one built by hand map to the same place.
func (s *Store) Key(t target.Target) string {
	owner := strings.ReplaceAll(t.Owner, "~", "")
	return filepath.Join(s.root, t.Domain, owner, t.Repo, t.Kind(), strconv.Itoa(t.Number))
}

// Exists reports whether dir holds a cached issue payload. Only main.json is
// checked; a missing activity.json is detected by Load.
func (s *Store) Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, constants.IssueFile))
	return err == nil && !info.IsDir()
}

// Load reads both payloads from dir.
func (s *Store) Load(dir string) (issue, activity any, err error) {
	issue, err = readJSON(filepath.Join(dir, constants.IssueFile))
	if err != nil {
		return nil, nil, err
	}
	activity, err = readJSON(filepath.Join(dir, constants.ActivityFile))
	if err != nil {
		return nil, nil, err
	}
	return issue, activity, nil
}

// Save writes both payloads to dir, creating it as needed. activity.json is
// written before main.json so that an interrupted save is seen as a miss.
func (s *Store) Save(dir string, issue, activity any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	activityData, err := json.MarshalIndent(activity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode activity: %w", err)
	}
	issueData, err := json.MarshalIndent(issue, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode issue: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(dir, constants.ActivityFile), activityData); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, constants.IssueFile), issueData); err != nil {
		return err
	}

	log.Debug("saved to cache", "dir", dir, "issueBytes", len(issueData), "activityBytes", len(activityData))
	return nil
}

// Clear removes every cached entry.
func (s *Store) Clear() error {
	clean := filepath.Clean(s.root)
	if clean == "." || clean == string(filepath.Separator) {
		return fmt.Errorf("refusing to clear cache root %q", s.root)
	}
	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// List returns every cache entry under the root, in lexical path order.
// Directories that do not contain main.json are skipped.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == s.root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || d.Name() != constants.IssueFile {
			return nil
		}

		dir := filepath.Dir(path)
		entry, ok := s.entryFor(dir)
		if !ok {
			log.Debug("skipping unrecognised cache path", "dir", dir)
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk cache: %w", err)
	}

	return entries, nil
}

// Prune removes every entry whose main.json is older than before and
// returns the removed entries. Emptied parent directories are left in place.
func (s *Store) Prune(before time.Time) ([]Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	var removed []Entry
	for _, e := range entries {
		if !e.ModTime.Before(before) {
			continue
		}
		if err := os.RemoveAll(e.Dir); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Dir, err)
		}
		log.Debug("pruned cache entry", "dir", e.Dir, "modified", e.ModTime)
		removed = append(removed, e)
	}
	return removed, nil
}

// Stats summarises the cache contents.
func (s *Store) Stats() (*Stats, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByDomain: make(map[string]int)}
	for _, e := range entries {
		stats.Total++
		if e.IsPR {
			stats.PullRequests++
		} else {
			stats.Issues++
		}
		if !e.Complete {
			stats.Incomplete++
		}
		stats.Bytes += e.Bytes
		stats.ByDomain[e.Domain]++
	}
	return stats, nil
}

// entryFor rebuilds the identity of a cache directory from its path.
// The repo may span several segments (GitLab subgroups), so it is taken as
// everything between the owner and the kind.
func (s *Store) entryFor(dir string) (Entry, bool) {
	rel, err := filepath.Rel(s.root, dir)
	if err != nil {
		return Entry{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 5 {
		return Entry{}, false
	}

	n := len(parts)
	number, err := strconv.Atoi(parts[n-1])
	if err != nil {
		return Entry{}, false
	}
	kind := parts[n-2]
	if kind != constants.KindPR && kind != constants.KindIssue {
		return Entry{}, false
	}

	entry := Entry{
		Dir:    dir,
		Domain: parts[0],
		Owner:  parts[1],
		Repo:   strings.Join(parts[2:n-2], "/"),
		IsPR:   kind == constants.KindPR,
		Number: number,
	}

	if info, err := os.Stat(filepath.Join(dir, constants.IssueFile)); err == nil {
		entry.Bytes += info.Size()
		entry.ModTime = info.ModTime()
	}
	if info, err := os.Stat(filepath.Join(dir, constants.ActivityFile)); err == nil {
		entry.Bytes += info.Size()
		entry.Complete = true
	}

	return entry, true
}

// readJSON decodes a whole file as a single JSON value. Numbers are kept as
// json.Number so large ids round-trip exactly.
func readJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}

	v, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	return v, nil
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set mode on %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
