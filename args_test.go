package main

import (
	"testing"

	"github.com/alexflint/go-arg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handsomefox/threaddl/config"
)

func TestArgsApply(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg config.Config)
	}{
		{
			name: "nothing set keeps the config",
			args: []string{"https://2ch.su/b/res/1.html"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name: "download flags",
			args: []string{"-d", "/tmp/out", "-m", "webm", "-w", "8", "-s", "--skip-existing", "https://2ch.su/b/res/1.html"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "/tmp/out", cfg.Download.Dir)
				assert.Equal(t, "webm", cfg.Download.Mode)
				assert.Equal(t, 8, cfg.Download.Workers)
				assert.True(t, cfg.Download.Sequential)
				assert.True(t, cfg.Download.SkipExisting)
			},
		},
		{
			name: "http and app flags",
			args: []string{"--user-agent", "none", "--rps", "2.5", "--metrics-addr", ":9090", "-v", "https://2ch.su/b/res/1.html"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "none", cfg.HTTP.UserAgent)
				assert.InDelta(t, 2.5, cfg.HTTP.RateLimit, 1e-9)
				assert.Equal(t, ":9090", cfg.App.MetricsAddr)
				assert.True(t, cfg.App.Verbose)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var args AppArguments
			p, err := arg.NewParser(arg.Config{}, &args)
			require.NoError(t, err)
			require.NoError(t, p.Parse(tt.args))
			assert.Equal(t, "https://2ch.su/b/res/1.html", args.URL)

			cfg := config.Default()
			args.apply(&cfg)
			require.NoError(t, cfg.Validate())
			tt.check(t, cfg)
		})
	}
}
