package downloader

import (
	"context"
	"sync/atomic"
)

// StopSignal is the cancellation token of a single run.
//
// Transfers poll Stopped between chunks, sleeping retries wait on Context.
// A signal is never reused; every run allocates a new one.
type StopSignal struct {
	stopped atomic.Bool
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewStopSignal(parent context.Context) *StopSignal {
	ctx, cancel := context.WithCancel(parent)
	return &StopSignal{parent: parent, ctx: ctx, cancel: cancel}
}

// Stop requests cancellation. It reports whether this call was the one that set the signal.
func (s *StopSignal) Stop() bool {
	if !s.stopped.CompareAndSwap(false, true) {
		return false
	}
	s.cancel()
	return true
}

// Stopped reports whether Stop was called or the parent context ended.
func (s *StopSignal) Stopped() bool {
	return s.stopped.Load() || s.parent.Err() != nil
}

// Context is cancelled once Stop is called or the parent context is done.
func (s *StopSignal) Context() context.Context {
	return s.ctx
}

// release frees the context resources without marking the signal as stopped.
func (s *StopSignal) release() {
	s.cancel()
}
