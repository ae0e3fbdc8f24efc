// Package network builds the HTTP client shared by the catalog client and the
// download engine.
package network

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Logger is the subset of github.com/charmbracelet/log.Logger used here.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// Options configure the client.
type Options struct {
	// MaxConnsPerHost caps open connections to the server; usually the pool size.
	MaxConnsPerHost int
	// Retries is the number of retries after a transport-level failure.
	Retries int
	// HeaderTimeout bounds the wait for response headers. Bodies are not
	// time-limited so large files can stream.
	HeaderTimeout time.Duration
	Log           Logger
}

// DefaultOptions mirror the limits the server is known to tolerate.
func DefaultOptions() Options {
	return Options{
		MaxConnsPerHost: 20,
		Retries:         5,
		HeaderTimeout:   30 * time.Second,
	}
}

// New returns an *http.Client that retries connection-level failures only.
// Any response, whatever its status, is handed back to the caller untouched.
func New(opts Options) *http.Client {
	defaults := DefaultOptions()
	if opts.MaxConnsPerHost <= 0 {
		opts.MaxConnsPerHost = defaults.MaxConnsPerHost
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.HeaderTimeout <= 0 {
		opts.HeaderTimeout = defaults.HeaderTimeout
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.CheckRetry = transportErrorsOnly
	rc.HTTPClient = &http.Client{Transport: newTransport(opts)}
	if opts.Log != nil {
		rc.Logger = leveledLogger{opts.Log}
	} else {
		rc.Logger = nil
	}

	return rc.StandardClient()
}

func newTransport(opts Options) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = opts.MaxConnsPerHost
	t.MaxConnsPerHost = opts.MaxConnsPerHost
	t.IdleConnTimeout = 90 * time.Second
	t.ResponseHeaderTimeout = opts.HeaderTimeout
	t.ExpectContinueTimeout = time.Second
	return t
}

// transportErrorsOnly retries when no response was received. Status codes are
// the catalog client's business and are never retried here.
func transportErrorsOnly(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// leveledLogger adapts a charmbracelet-style logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	// retryablehttp is chatty at info level; every request would be logged.
	l.log.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn(msg, keysAndValues...)
}
