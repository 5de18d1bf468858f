package downloader

import (
	"sync/atomic"
)

// Summary is the statistics of a finished run.
type Summary struct {
	Saved     int64
	Skipped   int64
	Cancelled int64
	Failed    int64
	Stopped   bool
}

// Total is the number of reported outcomes.
func (s Summary) Total() int64 {
	return s.Saved + s.Skipped + s.Cancelled + s.Failed
}

func (s *Summary) add(o Summary) {
	s.Saved += o.Saved
	s.Skipped += o.Skipped
	s.Cancelled += o.Cancelled
	s.Failed += o.Failed
	s.Stopped = s.Stopped || o.Stopped
}

// stats is updated by the reporting goroutine and may be read by anyone.
type stats struct {
	saved     atomic.Int64
	skipped   atomic.Int64
	cancelled atomic.Int64
	failed    atomic.Int64
}

func (s *stats) record(o Outcome) {
	switch o.Status {
	case StatusSaved:
		s.saved.Add(1)
	case StatusSkipped:
		s.skipped.Add(1)
	case StatusCancelled:
		s.cancelled.Add(1)
	default:
		s.failed.Add(1)
	}
}

func (s *stats) summary() Summary {
	return Summary{
		Saved:     s.saved.Load(),
		Skipped:   s.skipped.Load(),
		Cancelled: s.cancelled.Load(),
		Failed:    s.failed.Load(),
	}
}
