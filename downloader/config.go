package downloader

import (
	"time"
)

const (
	DefaultWorkers     = 3
	DefaultAttempts    = 3
	DefaultBackoff     = 2 * time.Second
	DefaultIdleTimeout = 10 * time.Second
	DefaultChunkSize   = 32 * 1024
)

// Config is the configuration data for the Downloader that does not change between runs.
type Config struct {
	// Attempts is how many times a file is requested before it is reported as failed.
	Attempts int
	// Backoff is the pause between two attempts.
	Backoff time.Duration
	// IdleTimeout aborts an attempt when no body bytes arrive for that long.
	IdleTimeout time.Duration
	// ChunkSize is the read buffer size; stop requests are checked between chunks.
	ChunkSize int
}

// DefaultConfig returns the configuration used when nothing else is specified.
func DefaultConfig() Config {
	return Config{
		Attempts:    DefaultAttempts,
		Backoff:     DefaultBackoff,
		IdleTimeout: DefaultIdleTimeout,
		ChunkSize:   DefaultChunkSize,
	}
}

// withDefaults fills zero values so a partially filled Config is still usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Attempts < 1 {
		c.Attempts = d.Attempts
	}
	if c.Backoff < 0 {
		c.Backoff = 0
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	return c
}
