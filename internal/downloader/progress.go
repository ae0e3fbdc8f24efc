package downloader

import "io"

// Tracker follows the transfer of a single file.
type Tracker interface {
	// Advance is called with the length of every chunk read.
	Advance(n int)
	// Done is called once when the transfer ends; err is nil on success.
	Done(err error)
}

// Reporter receives human-facing status for each item handled by the engine.
type Reporter interface {
	Skipped(path string, outcome Outcome, size int64)
	Started(path string, size int64) Tracker
}

type nopReporter struct{}

func (nopReporter) Skipped(string, Outcome, int64) {}
func (nopReporter) Started(string, int64) Tracker  { return nopTracker{} }

type nopTracker struct{}

func (nopTracker) Advance(int) {}
func (nopTracker) Done(error)  {}

// progressReader wraps an io.Reader and reports progress.
type progressReader struct {
	reader     io.Reader
	downloaded int64
	tracker    Tracker
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		pr.tracker.Advance(n)
	}
	return n, err
}

// fsWriter remembers write failures so they can be told apart from read
// failures on the network side of a copy.
type fsWriter struct {
	w   io.Writer
	err error
}

func (fw *fsWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err != nil && fw.err == nil {
		fw.err = err
	}
	return n, err
}
