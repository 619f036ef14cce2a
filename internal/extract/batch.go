package extract

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/gitextract/internal/constants"
	"github.com/spiffcs/gitextract/internal/target"
)

// ProgressFunc is called as batch extractions complete.
type ProgressFunc func(completed, total int)

// BatchResult is the outcome for one input URL.
type BatchResult struct {
	URL    string
	Record *Record
	Err    error
}

// ExtractAll extracts every URL with at most workers running at once.
// Results are returned in input order; a failure on one URL does not stop
// the others. URLs resolving to the same cache entry are extracted once.
func (x *Extractor) ExtractAll(ctx context.Context, urls []string, workers int, onProgress ProgressFunc) []BatchResult {
	if workers <= 0 {
		workers = constants.DefaultWorkers
	}

	results := make([]BatchResult, len(urls))

	// group input indexes by cache key
	type job struct {
		target  target.Target
		indexes []int
	}
	var jobs []*job
	byKey := map[string]*job{}

	for i, u := range urls {
		results[i].URL = u

		t, err := target.Parse(u)
		if err != nil {
			results[i].Err = err
			continue
		}

		key := x.cache.Key(t)
		if j, ok := byKey[key]; ok {
			j.indexes = append(j.indexes, i)
			continue
		}
		j := &job{target: t, indexes: []int{i}}
		byKey[key] = j
		jobs = append(jobs, j)
	}

	total := len(jobs)
	var completed int32
	report := func() {
		if onProgress != nil {
			onProgress(int(atomic.AddInt32(&completed, 1)), total)
		}
	}
	if onProgress != nil {
		onProgress(0, total)
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for _, j := range jobs {
		g.Go(func() error {
			rec, err := x.ExtractTarget(ctx, j.target)
			// each job owns its own indexes
			for _, i := range j.indexes {
				results[i].Record = rec
				results[i].Err = err
			}
			report()
			return nil
		})
	}
	_ = g.Wait()

	return results
}
