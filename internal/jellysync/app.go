// Package jellysync ties the catalog client, resolver and download engine
// together behind the commands of the CLI.
package jellysync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/vbauerster/mpb/v8"

	"github.com/keanucz/jellysync/internal/downloader"
	"github.com/keanucz/jellysync/internal/jellyfin"
	"github.com/keanucz/jellysync/internal/pool"
)

// Catalog is the part of the Jellyfin client the commands need.
type Catalog interface {
	jellyfin.Catalog
	GetItemJSON(ctx context.Context, id string) (json.RawMessage, error)
	SearchItems(ctx context.Context, query string, types []jellyfin.ItemType) ([]jellyfin.Item, error)
	OpenDownload(ctx context.Context, id string) (*http.Response, error)
}

// Logger interface for logging operations.
// Compatible with github.com/charmbracelet/log.Logger.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// Options configure an App.
type Options struct {
	Out io.Writer // results and status lines
	Err io.Writer // spinners and progress bars
	// Fs is rooted at the media directory.
	Fs   afero.Fs
	Pool *pool.Pool

	DryRun                bool
	UseContentDisposition bool
	// Progress enables the metadata spinner and per-file bars.
	Progress bool
	Log      Logger
}

// App runs the user-facing operations.
type App struct {
	catalog Catalog
	opts    Options
}

// New creates an App. Nil writers discard output.
func New(catalog Catalog, opts Options) *App {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Err == nil {
		opts.Err = io.Discard
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	return &App{catalog: catalog, opts: opts}
}

// Download resolves id to its leaves and downloads every one of them. The
// first failure stops the batch.
func (a *App) Download(ctx context.Context, id string) (downloader.Summary, error) {
	spinner := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(a.opts.Err),
		progressbar.OptionSetDescription("Collecting metadata..."),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(a.opts.Progress),
	)

	resolver := jellyfin.NewResolver(a.catalog)
	resolver.OnFetch = func(jellyfin.Item) { _ = spinner.Add(1) }
	leaves, err := resolver.Resolve(ctx, id)
	_ = spinner.Finish()
	if err != nil {
		return downloader.Summary{}, err
	}
	fmt.Fprintf(a.opts.Out, "✔ Collected %d items.\n", len(leaves))

	var bars *mpb.Progress
	if a.opts.Progress {
		bars = mpb.NewWithContext(ctx, mpb.WithOutput(a.opts.Err), mpb.WithWidth(40))
	}

	engine := downloader.New(a.catalog, a.opts.Fs, a.opts.Pool, downloader.Options{
		DryRun:                a.opts.DryRun,
		UseContentDisposition: a.opts.UseContentDisposition,
		Log:                   a.opts.Log,
		Reporter:              newReporter(a.opts.Out, bars),
	})
	results, err := engine.DownloadAll(ctx, leaves)
	if bars != nil {
		bars.Wait()
	}

	summary := downloader.Summarize(results)
	if err != nil {
		return summary, err
	}
	a.printSummary(summary)
	return summary, nil
}

func (a *App) printSummary(s downloader.Summary) {
	if a.opts.DryRun {
		fmt.Fprintf(a.opts.Out, "Dry run: %d to download (%s), %d already present.\n",
			s.DryRun, humanize.IBytes(uint64(s.Planned)), s.Existing)
		return
	}
	fmt.Fprintf(a.opts.Out, "Downloaded %d items (%s), %d already present.\n",
		s.Downloaded, humanize.IBytes(uint64(s.Bytes)), s.Existing)
}
