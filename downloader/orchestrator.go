package downloader

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs a sorted list of jobs either one by one or on a bounded pool of workers.
// In both modes outcomes are reported in the order of the job list.
type Orchestrator struct {
	task       *Task
	workers    int
	sequential bool
}

func NewOrchestrator(task *Task, workers int, sequential bool) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		task:       task,
		workers:    workers,
		sequential: sequential,
	}
}

// Run downloads the jobs and reports every outcome through hooks.
// It returns once every started job has finished. Per-job failures never stop the batch;
// the stop signal prevents jobs that were not handed to a worker yet from starting.
func (o *Orchestrator) Run(ctx context.Context, jobs []DownloadJob, stop *StopSignal, hooks Hooks) Summary {
	if len(jobs) == 0 {
		return Summary{Stopped: stop.Stopped()}
	}

	hooks.Log(msgSequential)
	r := &reporter{hooks: hooks, total: len(jobs)}
	hooks.Progress(0, r.total)

	if o.sequential || o.workers == 1 {
		o.runSequential(ctx, jobs, stop, r)
	} else {
		o.runParallel(ctx, jobs, stop, r)
	}

	summary := r.stats.summary()
	summary.Stopped = stop.Stopped()
	return summary
}

func (o *Orchestrator) runSequential(ctx context.Context, jobs []DownloadJob, stop *StopSignal, r *reporter) {
	for _, job := range jobs {
		if stop.Stopped() {
			log.Debug().Int("remaining", r.total-r.done).Msg("stop requested, not starting further jobs")
			return
		}
		r.report(o.runJob(ctx, job, stop))
	}
}

// runParallel hands jobs to the pool in list order. Every job owns a one-slot channel;
// the reporter drains the channels in list order, so job i+1 is never reported before job i.
// Jobs abandoned because of a stop request get their channel closed instead.
func (o *Orchestrator) runParallel(ctx context.Context, jobs []DownloadJob, stop *StopSignal, r *reporter) {
	slots := make([]chan Outcome, len(jobs))
	for i := range slots {
		slots[i] = make(chan Outcome, 1)
	}

	g := new(errgroup.Group)
	g.SetLimit(o.workers)

	fed := make(chan struct{})
	go func() {
		defer close(fed)
		for i, job := range jobs {
			if stop.Stopped() {
				for _, slot := range slots[i:] {
					close(slot)
				}
				return
			}
			i, job := i, job
			g.Go(func() error {
				if stop.Stopped() {
					close(slots[i])
					return nil
				}
				slots[i] <- o.runJob(ctx, job, stop)
				return nil
			})
		}
	}()

	for _, slot := range slots {
		out, ok := <-slot
		if !ok {
			continue
		}
		r.report(out)
	}

	<-fed
	_ = g.Wait()
}

// runJob shields the batch from a panicking task.
func (o *Orchestrator) runJob(ctx context.Context, job DownloadJob, stop *StopSignal) (out Outcome) {
	defer func() {
		if v := recover(); v != nil {
			log.Error().Interface("panic", v).Str("url", job.Ref.URL).Msg("download task panicked")
			out = Outcome{
				URL:      job.Ref.URL,
				Filename: job.Ref.Filename,
				Status:   StatusFailed,
				Err:      fmt.Errorf("task panicked: %v", v),
			}
		}
	}()
	return o.task.Run(ctx, job, stop)
}

// reporter emits one log, progress and status event per outcome. It is only used
// from the goroutine driving Run.
type reporter struct {
	hooks Hooks
	stats stats
	total int
	done  int
}

func (r *reporter) report(out Outcome) {
	r.done++
	r.stats.record(out)
	r.hooks.Log(out.Message())
	r.hooks.Progress(r.done, r.total)
	r.hooks.Status(fmt.Sprintf(statusDownloading, r.done, r.total))
}
