package downloader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/keanucz/jellysync/internal/jellyfin"
)

// Summary totals a batch of results.
type Summary struct {
	Downloaded int
	Existing   int
	DryRun     int
	Bytes      int64 // bytes written by this run
	Planned    int64 // bytes written or, in a dry run, that would be
}

// Summarize counts outcomes. Results left empty by a failed batch are ignored.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Path == "" {
			continue
		}
		switch r.Outcome {
		case Downloaded:
			s.Downloaded++
			s.Bytes += r.Bytes
			s.Planned += r.Bytes
		case SkippedExisting:
			s.Existing++
		case SkippedDryRun:
			s.DryRun++
			s.Planned += r.Bytes
		}
	}
	return s
}

// DownloadAll runs DownloadOne for every item concurrently, bounded by the
// engine pool. The first failure cancels the rest and is returned together
// with whatever results completed; results keep the order of items.
func (e *Engine) DownloadAll(ctx context.Context, items []jellyfin.Leaf) ([]Result, error) {
	results := make([]Result, len(items))
	doneBefore, failedBefore := e.pool.Stats()

	logInfo(e.opts.Log, "download batch started", "items", len(items), "workers", e.pool.Size())

	g, ctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			res, err := e.DownloadOne(ctx, item)
			if err != nil {
				log(e.opts.Log, "download failed", "id", item.ItemInfo().ID, "error", err)
				return err
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()

	done, failed := e.pool.Stats()
	logInfo(e.opts.Log, "download batch finished", "completed", done-doneBefore, "failed", failed-failedBefore)
	return results, err
}
