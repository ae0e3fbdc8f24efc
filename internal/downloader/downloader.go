package downloader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/keanucz/jellysync/internal/jellyfin"
	"github.com/keanucz/jellysync/internal/pool"
)

// Source opens the byte stream of an item.
type Source interface {
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

// Outcome is what happened to a single item.
type Outcome int

const (
	Downloaded Outcome = iota
	SkippedExisting
	SkippedDryRun
)

func (o Outcome) String() string {
	switch o {
	case Downloaded:
		return "downloaded"
	case SkippedExisting:
		return "skipped (exists)"
	case SkippedDryRun:
		return "skipped (dry run)"
	default:
		return "unknown"
	}
}

// Result captures what was done for one item.
type Result struct {
	Outcome Outcome
	Path    string // relative to the engine filesystem root
	Bytes   int64
}

// Options control how items are written.
type Options struct {
	DryRun bool
	// UseContentDisposition names files after the server-supplied filename
	// and places them at the filesystem root instead of the planned layout.
	UseContentDisposition bool
	Log                   Logger
	Reporter              Reporter
}

// Engine streams leaves from a Source into a filesystem.
type Engine struct {
	source Source
	fs     afero.Fs
	pool   *pool.Pool
	opts   Options
}

// New creates an Engine. fs is rooted at the media directory; a nil pool
// falls back to the default size.
func New(source Source, fs afero.Fs, p *pool.Pool, opts Options) *Engine {
	if p == nil {
		p = pool.New(pool.DefaultSize)
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	return &Engine{source: source, fs: fs, pool: p, opts: opts}
}

// DownloadOne fetches a single leaf. The permit is held from opening the
// stream until the file is in place, so at most pool-size transfers run at once.
func (e *Engine) DownloadOne(ctx context.Context, item jellyfin.Leaf) (Result, error) {
	var res Result
	err := e.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = e.download(ctx, item)
		return err
	})
	return res, err
}

func (e *Engine) download(ctx context.Context, item jellyfin.Leaf) (Result, error) {
	logger := e.opts.Log
	id := item.ItemInfo().ID

	resp, err := e.source.OpenDownload(ctx, id)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	target, err := e.targetPath(item, resp)
	if err != nil {
		return Result{}, err
	}

	size := resp.ContentLength
	if size < 0 {
		return Result{}, &jellyfin.MalformedResponseError{URL: responseURL(resp), Reason: "missing Content-Length"}
	}
	log(logger, "download response", "id", id, "path", target, "bytes", size)

	switch fi, err := e.fs.Stat(target); {
	case err == nil && !fi.IsDir() && fi.Size() == size:
		e.opts.Reporter.Skipped(target, SkippedExisting, size)
		return Result{Outcome: SkippedExisting, Path: target, Bytes: size}, nil
	case err == nil:
		logWarn(logger, "existing file is incomplete, downloading again", "path", target, "have", fi.Size(), "want", size)
	case !errors.Is(err, os.ErrNotExist):
		return Result{}, &FilesystemError{Op: "stat", Path: target, Err: err}
	}

	if e.opts.DryRun {
		e.opts.Reporter.Skipped(target, SkippedDryRun, size)
		return Result{Outcome: SkippedDryRun, Path: target, Bytes: size}, nil
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return Result{}, &FilesystemError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	tmp := target + ".tmp"
	tracker := e.opts.Reporter.Started(target, size)
	written, err := e.writeTemp(tmp, resp.Body, tracker)
	if err == nil && written != size {
		err = fmt.Errorf("%s: received %d of %d bytes: %w", responseURL(resp), written, size, io.ErrUnexpectedEOF)
	}
	tracker.Done(err)
	if err != nil {
		// The partial temp file is left behind; the target stays untouched.
		return Result{}, err
	}

	if err := e.fs.Rename(tmp, target); err != nil {
		return Result{}, &FilesystemError{Op: "rename", Path: target, Err: err}
	}
	logInfo(logger, "downloaded", "path", target, "bytes", written)
	return Result{Outcome: Downloaded, Path: target, Bytes: written}, nil
}

func (e *Engine) targetPath(item jellyfin.Leaf, resp *http.Response) (string, error) {
	if !e.opts.UseContentDisposition {
		return PlanPath(item)
	}
	name, err := FilenameFromContentDisposition(resp.Header.Get("Content-Disposition"))
	if err != nil {
		var malformed *jellyfin.MalformedResponseError
		if errors.As(err, &malformed) {
			malformed.URL = responseURL(resp)
		}
		return "", err
	}
	return name, nil
}

// writeTemp streams body into path and returns the number of bytes read.
func (e *Engine) writeTemp(path string, body io.Reader, tracker Tracker) (int64, error) {
	file, err := e.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, &FilesystemError{Op: "create", Path: path, Err: err}
	}

	fw := &fsWriter{w: file}
	// Use buffered writer for better I/O performance (64KB buffer)
	buffered := bufio.NewWriterSize(fw, 64*1024)
	reader := &progressReader{reader: body, tracker: tracker}

	_, copyErr := io.Copy(buffered, reader)
	// Flush even after a read failure so the temp file holds every received byte.
	flushErr := buffered.Flush()
	closeErr := file.Close()

	switch {
	case fw.err != nil:
		return reader.downloaded, &FilesystemError{Op: "write", Path: path, Err: fw.err}
	case copyErr != nil:
		return reader.downloaded, fmt.Errorf("read body: %w", copyErr)
	case flushErr != nil:
		return reader.downloaded, &FilesystemError{Op: "write", Path: path, Err: flushErr}
	case closeErr != nil:
		return reader.downloaded, &FilesystemError{Op: "close", Path: path, Err: closeErr}
	}
	return reader.downloaded, nil
}

func responseURL(resp *http.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return ""
}
