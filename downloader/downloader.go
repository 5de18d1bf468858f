// Package downloader turns a thread URL into files on disk: it orders the extracted links,
// resolves collision-free names and runs the downloads sequentially or on a worker pool,
// reporting every step through Hooks.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/handsomefox/threaddl/api"
	"github.com/handsomefox/threaddl/internal/metrics"
)

var ErrBusy = errors.New("a download is already running")

// Request describes one run.
type Request struct {
	URL          string
	BaseDir      string
	Mode         MediaMode
	Workers      int
	SkipExisting bool
	Sequential   bool
}

// Downloader drives runs. Only one run may be active at a time; Stop cancels it.
type Downloader struct {
	client       *api.Client
	metrics      *metrics.Metrics
	reservations *Reservations
	cfg          Config

	mu    sync.Mutex
	stop  *StopSignal
	hooks Hooks
}

func New(client *api.Client, cfg Config, m *metrics.Metrics) *Downloader {
	if client == nil {
		client = api.DefaultClient()
	}
	return &Downloader{
		client:       client,
		metrics:      m,
		reservations: NewReservations(),
		cfg:          cfg.withDefaults(),
	}
}

// Stop requests the active run to stop. It reports whether there was a run to stop.
func (d *Downloader) Stop() bool {
	d.mu.Lock()
	stop, hooks := d.stop, d.hooks
	d.mu.Unlock()

	if stop == nil || !stop.Stop() {
		return false
	}
	hooks.Log(msgStopRequested)
	hooks.Status(statusStopping)
	return true
}

// Download runs req to completion, cancellation or failure.
//
// Per-file failures are reported as outcomes and do not make Download fail; the returned error
// is only set when the run could not proceed at all. hooks.Done is called exactly once
// before Download returns, whatever happens.
func (d *Downloader) Download(ctx context.Context, req Request, hooks Hooks) (summary Summary, err error) {
	if hooks == nil {
		hooks = NopHooks
	}

	stop := NewStopSignal(ctx)
	if !d.begin(stop, hooks) {
		hooks.Log(fmt.Sprintf(msgGeneralError, ErrBusy))
		hooks.Done()
		return summary, ErrBusy
	}

	logger := log.With().Str("run_id", uuid.NewString()).Logger()

	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("download panicked: %v", v)
			logger.Error().Interface("panic", v).Msg("download run panicked")
		}
		if err != nil {
			hooks.Log(fmt.Sprintf(msgGeneralError, err))
		}

		summary.Stopped = summary.Stopped || stop.Stopped()
		switch {
		case summary.Stopped:
			hooks.Log(msgStopped)
			hooks.Status(statusStopped)
		case err == nil:
			hooks.Log(msgDone)
			hooks.Status(statusDone)
		}

		d.end(stop)
		d.metrics.RecordRun(runResult(summary, err))
		logger.Info().
			Int64("saved", summary.Saved).
			Int64("skipped", summary.Skipped).
			Int64("cancelled", summary.Cancelled).
			Int64("failed", summary.Failed).
			Bool("stopped", summary.Stopped).
			Msg("finished downloading")

		hooks.Done()
	}()

	thread, err := api.ParseThread(req.URL)
	if err != nil {
		return summary, err
	}
	tc := ThreadContext{Thread: thread, BaseDir: req.BaseDir}

	mode := req.Mode
	if mode == "" {
		mode = ModeAllMedia
	}

	hooks.Log(fmt.Sprintf(msgStartUserAgent, d.client.UserAgent()))
	hooks.Log(fmt.Sprintf(msgSource, thread.Site, thread.ID))
	logger.Info().
		Str("site", thread.Site.String()).
		Str("thread_id", thread.ID).
		Str("mode", string(mode)).
		Str("dir", tc.Dir()).
		Msg("download started")

	if err := EnsureDir(tc.Dir()); err != nil {
		return summary, err
	}

	s := &session{
		d:      d,
		tc:     tc,
		req:    req,
		stop:   stop,
		hooks:  hooks,
		logger: logger,
		orch:   NewOrchestrator(NewTask(d.client, d.reservations, d.metrics, d.cfg), req.Workers, req.Sequential),
	}
	return s.run(ctx, mode), nil
}

// Check counts the images and videos of a thread without downloading anything.
func (d *Downloader) Check(ctx context.Context, rawURL string, logf func(string)) (images, videos int, err error) {
	if logf == nil {
		logf = func(string) {}
	}
	logf(fmt.Sprintf(msgCheckingURL, rawURL))

	thread, err := api.ParseThread(rawURL)
	if err != nil {
		return 0, 0, fmt.Errorf("check url: %w", err)
	}

	images = len(d.links(ctx, thread, api.ImageExtensions, "images", logf))
	videos = len(d.links(ctx, thread, api.VideoExtensions, "videos", logf))
	return images, videos, nil
}

func (d *Downloader) links(ctx context.Context, thread api.Thread, exts []string, kind string, logf func(string)) []api.MediaReference {
	refs := d.client.MediaLinks(ctx, thread, exts, logf)
	d.metrics.RecordLinks(thread.Site.String(), kind, len(refs))
	return refs
}

func (d *Downloader) begin(stop *StopSignal, hooks Hooks) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return false
	}
	d.stop, d.hooks = stop, hooks
	return true
}

func (d *Downloader) end(stop *StopSignal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop == stop {
		d.stop, d.hooks = nil, nil
	}
	stop.release()
}

// session holds what one run needs while it walks through the media groups.
type session struct {
	d      *Downloader
	tc     ThreadContext
	req    Request
	stop   *StopSignal
	hooks  Hooks
	logger zerolog.Logger
	orch   *Orchestrator
}

func (s *session) run(ctx context.Context, mode MediaMode) Summary {
	var summary Summary
	s.hooks.Status(statusFetching)

	switch mode {
	case ModeAllMedia:
		images := s.d.links(ctx, s.tc.Thread, api.ImageExtensions, "images", s.hooks.Log)
		videos := s.d.links(ctx, s.tc.Thread, api.VideoExtensions, "videos", s.hooks.Log)
		s.hooks.Log(fmt.Sprintf(msgFoundImages, len(images)))
		s.hooks.Log(fmt.Sprintf(msgFoundVideos, len(videos)))

		summary.add(s.group(ctx, images, imagesSubfolder))
		if len(videos) != 0 && !s.stop.Stopped() {
			summary.add(s.group(ctx, videos, videosSubfolder))
		}
	case ModeAllImages:
		images := s.d.links(ctx, s.tc.Thread, api.ImageExtensions, "images", s.hooks.Log)
		s.hooks.Log(fmt.Sprintf(msgFoundImages, len(images)))
		summary.add(s.group(ctx, images, imagesSubfolder))
	case ModeAllVideos:
		videos := s.d.links(ctx, s.tc.Thread, api.VideoExtensions, "videos", s.hooks.Log)
		s.hooks.Log(fmt.Sprintf(msgFoundVideos, len(videos)))
		summary.add(s.group(ctx, videos, videosSubfolder))
	default:
		ext := string(mode)
		refs := s.d.links(ctx, s.tc.Thread, []string{ext}, ext, s.hooks.Log)
		s.hooks.Log(fmt.Sprintf(msgFoundFiles, ext, len(refs)))
		if len(refs) == 0 {
			s.hooks.Log(msgNoExtFiles)
			break
		}
		summary.add(s.group(ctx, refs, ext))
	}

	summary.Stopped = summary.Stopped || s.stop.Stopped()
	return summary
}

// group downloads one media group into <thread dir>/<subfolder> in post order.
func (s *session) group(ctx context.Context, refs []api.MediaReference, subfolder string) Summary {
	if len(refs) == 0 {
		return Summary{}
	}

	dir := filepath.Join(s.tc.Dir(), subfolder)
	if err := EnsureDir(dir); err != nil {
		s.hooks.Log(fmt.Sprintf(msgGeneralError, err))
		return Summary{}
	}

	sorted := SortByPostOrder(refs)
	jobs := make([]DownloadJob, 0, len(sorted))
	for _, ref := range sorted {
		jobs = append(jobs, DownloadJob{Ref: ref, Dir: dir, SkipExisting: s.req.SkipExisting})
	}

	s.logger.Debug().Str("dir", dir).Int("jobs", len(jobs)).Msg("starting media group")
	return s.orch.Run(ctx, jobs, s.stop, s.hooks)
}

func runResult(s Summary, err error) string {
	switch {
	case err != nil:
		return "error"
	case s.Stopped:
		return "stopped"
	default:
		return "completed"
	}
}
