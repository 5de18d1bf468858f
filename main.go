package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog/log"

	"github.com/handsomefox/threaddl/api"
	"github.com/handsomefox/threaddl/config"
	"github.com/handsomefox/threaddl/downloader"
	"github.com/handsomefox/threaddl/internal/metrics"
	"github.com/handsomefox/threaddl/logging"
)

func main() {
	var args AppArguments
	p := arg.MustParse(&args)

	if args.URL == "" {
		p.Fail("you must provide a thread url")
	}

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		p.Fail(err.Error())
	}
	args.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		p.Fail(err.Error())
	}

	logging.Setup(cfg.App.Verbose, os.Stderr)
	log.Debug().Any("app_arguments", args).Send()

	if err := run(context.Background(), &args, cfg); err != nil {
		log.Fatal().Err(err).Msg("error running the app")
	}
}

func run(ctx context.Context, args *AppArguments, cfg config.Config) error {
	m := metrics.New()
	if cfg.App.MetricsAddr != "" {
		stop := serveMetrics(cfg.App.MetricsAddr, m)
		defer stop()
	}

	client := api.DefaultClient().
		WithTimeout(cfg.HTTP.FileTimeout).
		WithPageTimeout(cfg.HTTP.PageTimeout).
		WithUserAgent(api.NewUserAgentProvider(cfg.HTTP.UserAgent)).
		WithRateLimit(cfg.HTTP.RateLimit)
	dl := downloader.New(client, cfg.DownloaderConfig(), m)

	if args.Check {
		images, videos, err := dl.Check(ctx, args.URL, func(msg string) { log.Info().Msg(msg) })
		if err != nil {
			return err
		}
		log.Info().Int("images", images).Int("videos", videos).Msg("thread checked")
		return nil
	}

	mode, err := downloader.ParseMediaMode(cfg.Download.Mode)
	if err != nil {
		return err
	}
	if err := downloader.EnsureDir(cfg.Download.Dir); err != nil {
		return err
	}

	// The first signal asks the run to stop, the second one exits right away.
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		if _, ok := <-sigs; !ok {
			return
		}
		dl.Stop()
		if _, ok := <-sigs; ok {
			log.Warn().Msg("interrupted twice, exiting")
			os.Exit(130)
		}
	}()

	rep := newReporter(os.Stderr, !args.NoProgress && !cfg.App.Verbose)
	summary, err := dl.Download(ctx, downloader.Request{
		URL:          args.URL,
		BaseDir:      cfg.Download.Dir,
		Mode:         mode,
		Workers:      cfg.Download.Workers,
		SkipExisting: cfg.Download.SkipExisting,
		Sequential:   cfg.Download.Sequential,
	}, rep)
	if err != nil {
		return err
	}

	log.Info().
		Int64("saved", summary.Saved).
		Int64("skipped", summary.Skipped).
		Int64("failed", summary.Failed).
		Int64("cancelled", summary.Cancelled).
		Msg("Finished downloading")

	return nil
}

// serveMetrics exposes /metrics until the returned function is called.
func serveMetrics(addr string, m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	log.Debug().Str("addr", addr).Msg("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
