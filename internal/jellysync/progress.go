package jellysync

import (
	"io"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/keanucz/jellysync/internal/downloader"
)

var (
	skipColor     = color.New(color.FgYellow)
	downloadColor = color.New(color.FgGreen)
)

// reporter prints one status line per item and, when bars is set, a
// progress bar per transfer. With bars, status lines are written through the
// bar container so they land above the running bars.
type reporter struct {
	mu   sync.Mutex
	out  io.Writer
	bars *mpb.Progress
}

func newReporter(out io.Writer, bars *mpb.Progress) *reporter {
	return &reporter{out: out, bars: bars}
}

func (r *reporter) Skipped(path string, outcome downloader.Outcome, _ int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome {
	case downloader.SkippedExisting:
		r.printf(skipColor, "Skipping %s because file already exists\n", path)
	case downloader.SkippedDryRun:
		r.printf(skipColor, "Skipping %s because dry-run flag is set\n", path)
	}
}

func (r *reporter) Started(path string, size int64) downloader.Tracker {
	r.mu.Lock()
	r.printf(downloadColor, "Downloading %s (%s)\n", path, humanize.IBytes(uint64(size)))
	r.mu.Unlock()

	if r.bars == nil {
		return silentTracker{}
	}
	bar := r.bars.AddBar(size,
		mpb.PrependDecorators(decor.Name(filepath.Base(path), decor.WCSyncSpaceR)),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
			decor.OnComplete(decor.Percentage(decor.WCSyncSpace), " done"),
		),
	)
	return barTracker{bar: bar}
}

// printf must be called with mu held.
func (r *reporter) printf(c *color.Color, format string, args ...any) {
	if r.bars != nil {
		// Fails with mpb.DoneError once the container has shut down.
		if _, err := c.Fprintf(r.bars, format, args...); err == nil {
			return
		}
	}
	c.Fprintf(r.out, format, args...)
}

type barTracker struct {
	bar *mpb.Bar
}

func (t barTracker) Advance(n int) { t.bar.IncrBy(n) }

func (t barTracker) Done(err error) {
	if err != nil {
		t.bar.Abort(false)
		return
	}
	// Completes the bar even when the body was empty.
	t.bar.SetTotal(-1, true)
}

type silentTracker struct{}

func (silentTracker) Advance(int) {}
func (silentTracker) Done(error)  {}
