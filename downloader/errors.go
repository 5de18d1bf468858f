package downloader

import (
	"errors"
	"fmt"
)

var (
	ErrCancelled        = errors.New("download cancelled")
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrInvalidMode      = errors.New("invalid media mode")
	ErrEmptyFilename    = errors.New("empty filename")
	ErrInvalidWorkers   = errors.New("worker count must be at least 1")
)

var _ error = &DownloadError{}

// DownloadError is an error which contains data about which file failed to download and why.
type DownloadError struct {
	err      error
	filename string
	attempts int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("couldn't download file (name=%s, attempts=%d): %s", e.filename, e.attempts, e.err)
}

func (e *DownloadError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.err}
}

func newDownloadError(err error, filename string, attempts int) *DownloadError {
	return &DownloadError{
		err:      err,
		filename: filename,
		attempts: attempts,
	}
}
