package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// reporter renders the events of a run: log lines go to zerolog,
// progress is drawn as a bar per media group.
type reporter struct {
	mu      sync.Mutex
	out     io.Writer
	showBar bool
	bar     *progressbar.ProgressBar
	done    chan struct{}
}

func newReporter(out io.Writer, showBar bool) *reporter {
	return &reporter{
		out:     out,
		showBar: showBar,
		done:    make(chan struct{}),
	}
}

func (r *reporter) Log(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		_ = r.bar.Clear()
	}
	log.Info().Msg(message)
	if r.bar != nil {
		_ = r.bar.RenderBlank()
	}
}

func (r *reporter) Progress(done, total int) {
	if !r.showBar {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if done == 0 || r.bar == nil {
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetItsString("file"),
			progressbar.OptionShowIts(),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = r.bar.Set(done)

	if done == total {
		_ = r.bar.Finish()
		fmt.Fprintln(r.out)
		r.bar = nil
	}
}

func (r *reporter) Status(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		r.bar.Describe(message)
		return
	}
	log.Debug().Str("status", message).Send()
}

func (r *reporter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		_ = r.bar.Exit()
		r.bar = nil
	}
	close(r.done)
}
