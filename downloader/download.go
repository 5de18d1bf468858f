package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"github.com/handsomefox/threaddl/api"
	"github.com/handsomefox/threaddl/internal/metrics"
)

// partialSuffix marks files that are still being written.
const partialSuffix = ".part"

var errIdleTimeout = errors.New("no data received within the idle timeout")

// Task downloads single files: it resolves the target name, then requests
// and streams the file with a bounded number of attempts.
type Task struct {
	client       *api.Client
	reservations *Reservations
	metrics      *metrics.Metrics
	cfg          Config
}

func NewTask(client *api.Client, reservations *Reservations, m *metrics.Metrics, cfg Config) *Task {
	if reservations == nil {
		reservations = NewReservations()
	}
	return &Task{
		client:       client,
		reservations: reservations,
		metrics:      m,
		cfg:          cfg.withDefaults(),
	}
}

// Run executes the job and returns its outcome. It never panics on network or disk errors;
// they end up in Outcome.Err.
func (t *Task) Run(ctx context.Context, job DownloadJob, stop *StopSignal) (out Outcome) {
	started := time.Now()
	out = Outcome{URL: job.Ref.URL, Filename: job.Ref.Filename}
	defer func() {
		t.metrics.RecordOutcome(out.Status.String(), time.Since(started))
	}()

	name, skip, err := t.reservations.Reserve(job.Dir, job.Ref.Filename, job.SkipExisting)
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		return out
	}
	out.Filename = name
	out.Path = filepath.Join(job.Dir, name)
	if skip {
		out.Status = StatusSkipped
		return out
	}
	defer t.reservations.Release(job.Dir, name)

	attempts := 0
	backoff := retry.WithMaxRetries(uint64(t.cfg.Attempts-1), retry.NewConstant(t.cfg.Backoff))
	err = retry.Do(stop.Context(), backoff, func(_ context.Context) error {
		if stop.Stopped() {
			return ErrCancelled
		}
		attempts++
		t.metrics.RecordAttempt()

		n, err := t.fetch(ctx, job.Ref.URL, out.Path, stop)
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				return err
			}
			log.Debug().
				Err(err).
				Str("url", job.Ref.URL).
				Int("attempt", attempts).
				Msg("download attempt failed")
			return retry.RetryableError(err)
		}
		out.Bytes = n
		return nil
	})

	switch {
	case err == nil:
		out.Status = StatusSaved
		log.Debug().Int64("written_bytes", out.Bytes).Str("path", out.Path).Msg("wrote to disk")
	case stop.Stopped() && (errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)):
		out.Status = StatusCancelled
		out.Err = ErrCancelled
	case errors.Is(err, ErrCancelled):
		out.Status = StatusCancelled
		out.Err = err
	default:
		out.Status = StatusFailed
		out.Retries = attempts
		out.Err = newDownloadError(err, name, attempts)
	}

	return out
}

// fetch requests the link and streams it to path. The body goes to a partial file first
// which is renamed on success and removed on any error.
func (t *Task) fetch(ctx context.Context, link, path string, stop *StopSignal) (int64, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	idle := time.AfterFunc(t.cfg.IdleTimeout, func() { cancel(errIdleTimeout) })
	defer idle.Stop()

	res, err := t.client.GetURL(ctx, link)
	if err != nil {
		return 0, withCause(ctx, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, api.StatusError(link, res.StatusCode)
	}

	partial := path + partialSuffix
	file, err := os.OpenFile(partial, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, appFilePerm)
	if err != nil {
		return 0, fmt.Errorf("%w: couldn't create file(name=%s)", err, partial)
	}

	n, err := t.stream(file, res.Body, stop, func() { idle.Reset(t.cfg.IdleTimeout) })
	if cerr := file.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(partial); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			log.Err(rerr).Str("path", partial).Msg("failed to remove partial file")
		}
		return n, withCause(ctx, err)
	}

	if err := os.Rename(partial, path); err != nil {
		_ = os.Remove(partial)
		return n, fmt.Errorf("%w: couldn't move file into place(name=%s)", err, path)
	}

	return n, nil
}

// stream copies src to dst in chunks, checking the stop signal before every chunk.
func (t *Task) stream(dst io.Writer, src io.Reader, stop *StopSignal, progress func()) (int64, error) {
	buf := make([]byte, t.cfg.ChunkSize)
	var written int64
	for {
		if stop.Stopped() {
			return written, ErrCancelled
		}

		nr, rerr := src.Read(buf)
		if nr > 0 {
			progress()
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			t.metrics.RecordBytes(nw)
			if werr != nil {
				return written, werr
			}
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// withCause replaces a bare context error with the reason the context was cancelled.
func withCause(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && !errors.Is(err, cause) && errors.Is(cause, errIdleTimeout) {
		return fmt.Errorf("%w: %w", cause, err)
	}
	return err
}
