package main

import (
	"github.com/handsomefox/threaddl/config"
)

// AppArguments are the command line arguments. Values left empty fall back
// to the config file and the environment.
type AppArguments struct {
	URL          string  `arg:"positional" help:"thread url (2ch.su, arhivach.vc, 4chan.org)"`
	SaveDir      string  `arg:"-d,--dir" help:"directory the thread folder is created in"`
	Mode         string  `arg:"-m,--mode" help:"all_media, all_images, all_videos or a single extension such as webm"`
	Workers      int     `arg:"-w,--workers" help:"number of parallel downloads"`
	Sequential   bool    `arg:"-s,--sequential" help:"download one file at a time, in post order"`
	SkipExisting bool    `arg:"--skip-existing" help:"leave files that are already on disk untouched"`
	Check        bool    `arg:"--check" help:"only count the images and videos of the thread"`
	ConfigPath   string  `arg:"-c,--config" help:"path to a YAML config file"`
	UserAgent    string  `arg:"--user-agent" help:"fixed User-Agent header, \"none\" to disable it"`
	RateLimit    float64 `arg:"--rps" help:"maximum requests per second, 0 is unlimited"`
	MetricsAddr  string  `arg:"--metrics-addr" help:"serve Prometheus metrics on this address, e.g. :9090"`
	Verbose      bool    `arg:"-v,--verbose" help:"enable debug logging"`
	NoProgress   bool    `arg:"--no-progress" help:"don't draw a progress bar"`
}

func (AppArguments) Description() string {
	return "threaddl downloads the images and videos of an imageboard thread"
}

// apply overrides the loaded configuration with every argument that was set.
func (a *AppArguments) apply(cfg *config.Config) {
	if a.SaveDir != "" {
		cfg.Download.Dir = a.SaveDir
	}
	if a.Mode != "" {
		cfg.Download.Mode = a.Mode
	}
	if a.Workers != 0 {
		cfg.Download.Workers = a.Workers
	}
	if a.Sequential {
		cfg.Download.Sequential = true
	}
	if a.SkipExisting {
		cfg.Download.SkipExisting = true
	}
	if a.UserAgent != "" {
		cfg.HTTP.UserAgent = a.UserAgent
	}
	if a.RateLimit != 0 {
		cfg.HTTP.RateLimit = a.RateLimit
	}
	if a.MetricsAddr != "" {
		cfg.App.MetricsAddr = a.MetricsAddr
	}
	if a.Verbose {
		cfg.App.Verbose = true
	}
}
