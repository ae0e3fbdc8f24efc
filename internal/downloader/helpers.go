package downloader

import "fmt"

// FilesystemError is a local filesystem operation that failed.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// log is a helper that safely logs debug messages when logger is available.
func log(logger Logger, msg string, keyvals ...any) {
	if logger != nil {
		logger.Debug(msg, keyvals...)
	}
}

// logInfo is a helper that safely logs info messages when logger is available.
func logInfo(logger Logger, msg string, keyvals ...any) {
	if logger != nil {
		logger.Info(msg, keyvals...)
	}
}

// logWarn is a helper that safely logs warning messages when logger is available.
func logWarn(logger Logger, msg string, keyvals ...any) {
	if logger != nil {
		logger.Warn(msg, keyvals...)
	}
}
