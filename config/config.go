// Package config loads the application configuration: built-in defaults,
// then an optional YAML file, then THREADDL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/handsomefox/threaddl/downloader"
)

// Config holds the application configuration.
type Config struct {
	Download Download `yaml:"download"`
	HTTP     HTTP     `yaml:"http"`
	App      App      `yaml:"app"`
}

// Download holds the defaults of a run.
type Download struct {
	Dir          string        `yaml:"dir"           env:"THREADDL_DIR"`
	Mode         string        `yaml:"mode"          env:"THREADDL_MODE"`
	Workers      int           `yaml:"workers"       env:"THREADDL_WORKERS"`
	Sequential   bool          `yaml:"sequential"    env:"THREADDL_SEQUENTIAL"`
	SkipExisting bool          `yaml:"skip_existing" env:"THREADDL_SKIP_EXISTING"`
	Attempts     int           `yaml:"attempts"      env:"THREADDL_ATTEMPTS"`
	Backoff      time.Duration `yaml:"backoff"       env:"THREADDL_BACKOFF"`
	ChunkSize    int           `yaml:"chunk_size"    env:"THREADDL_CHUNK_SIZE"`
}

// HTTP holds request settings.
type HTTP struct {
	UserAgent   string        `yaml:"user_agent"   env:"THREADDL_USER_AGENT"` // "" is random, "none" disables the header
	FileTimeout time.Duration `yaml:"file_timeout" env:"THREADDL_FILE_TIMEOUT"`
	PageTimeout time.Duration `yaml:"page_timeout" env:"THREADDL_PAGE_TIMEOUT"`
	RateLimit   float64       `yaml:"rate_limit"   env:"THREADDL_RATE_LIMIT"` // requests per second, 0 is unlimited
}

// App holds application-wide configuration.
type App struct {
	Verbose     bool   `yaml:"verbose"      env:"THREADDL_VERBOSE"`
	MetricsAddr string `yaml:"metrics_addr" env:"THREADDL_METRICS_ADDR"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Download: Download{
			Dir:        ".",
			Mode:       string(downloader.ModeAllMedia),
			Workers:    downloader.DefaultWorkers,
			Attempts:   downloader.DefaultAttempts,
			Backoff:    downloader.DefaultBackoff,
			ChunkSize:  downloader.DefaultChunkSize,
			Sequential: false,
		},
		HTTP: HTTP{
			FileTimeout: 10 * time.Second,
			PageTimeout: 15 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies the environment.
// An empty path or a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		case len(data) != 0:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse yaml: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate rejects values the downloader can't work with.
func (c Config) Validate() error {
	if c.Download.Workers < 1 {
		return fmt.Errorf("%w: got %d", downloader.ErrInvalidWorkers, c.Download.Workers)
	}
	if c.Download.Attempts < 1 {
		return fmt.Errorf("invalid attempts: %d (must be >= 1)", c.Download.Attempts)
	}
	if c.Download.Backoff < 0 || c.HTTP.FileTimeout < 0 || c.HTTP.PageTimeout < 0 {
		return errors.New("durations can not be negative")
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("invalid rate_limit: %v (must be >= 0)", c.HTTP.RateLimit)
	}
	if _, err := downloader.ParseMediaMode(c.Download.Mode); err != nil {
		return err
	}
	return nil
}

// DownloaderConfig converts the loaded values into the downloader engine settings.
func (c Config) DownloaderConfig() downloader.Config {
	return downloader.Config{
		Attempts:    c.Download.Attempts,
		Backoff:     c.Download.Backoff,
		IdleTimeout: c.HTTP.FileTimeout,
		ChunkSize:   c.Download.ChunkSize,
	}
}
