// Package runner drives one action run: connect, trigger, wait for the build
// to start, report it and optionally wait for its result.
package runner

import (
	"context"
	"fmt"

	"jenkinsaction/internal/config"
	"jenkinsaction/internal/engine"
	"jenkinsaction/internal/logger"
	"jenkinsaction/internal/poll"
	"jenkinsaction/internal/report"
	"jenkinsaction/internal/urlrewrite"
)

// Runner executes the trigger workflow against a CI server
type Runner struct {
	cfg      *config.Config
	server   engine.Server
	target   urlrewrite.Target
	reporter *report.Reporter
	clock    poll.Clock
}

// Option customizes a Runner
type Option func(*Runner)

// WithClock replaces the wall clock used while polling
func WithClock(clock poll.Clock) Option {
	return func(r *Runner) {
		r.clock = clock
	}
}

// New creates a Runner. Every URL the server reports is rewritten onto the
// host, port and path of the configured Jenkins URL.
func New(cfg *config.Config, server engine.Server, reporter *report.Reporter, opts ...Option) (*Runner, error) {
	target, err := urlrewrite.NewTarget(cfg.Jenkins.URL)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:      cfg,
		server:   server,
		target:   target,
		reporter: reporter,
		clock:    poll.RealClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run triggers the configured job and returns nil once the build started
// (and, when waiting, succeeded)
func (r *Runner) Run(ctx context.Context) error {
	version, err := r.server.Connect(ctx)
	if err != nil {
		return err
	}
	logger.Info("Successfully connected to Jenkins.", "version", version)

	job, err := r.server.GetJob(ctx, r.cfg.Jenkins.JobName)
	if err != nil {
		return err
	}
	jobRef := *job
	if jobRef.URL, err = r.target.Rewrite(job.URL); err != nil {
		return err
	}

	item, err := r.server.TriggerBuild(ctx, jobRef, r.cfg.Jenkins.Parameters)
	if err != nil {
		return err
	}
	queued := *item
	if queued.URL, err = r.target.Rewrite(item.URL); err != nil {
		return err
	}
	logger.Info("Requested to build job.", "job", jobRef.Name, "queue_item", queued.URL)

	build, err := r.awaitStart(ctx, queued)
	if err != nil {
		return err
	}

	if err := r.reporter.BuildURL(build.URL); err != nil {
		return err
	}

	if !r.cfg.Wait {
		logger.Info("Not waiting for build to finish.")
		return nil
	}

	return r.awaitResult(ctx, *build)
}

// awaitStart polls the queue item until it turns into a build
func (r *Runner) awaitStart(ctx context.Context, item engine.QueueItem) (*engine.Build, error) {
	p := poll.Poller{
		Interval: r.cfg.Poll.IntervalDuration(),
		Timeout:  r.cfg.Poll.StartTimeoutDuration(),
		Clock:    r.clock,
		OnWait: func(int) {
			logger.Info(fmt.Sprintf("Build not started yet. Waiting %d seconds.", r.cfg.Poll.Interval))
		},
	}

	build, outcome, err := poll.Until(ctx, p, func(ctx context.Context) (engine.Build, bool, error) {
		b, err := r.server.ResolveBuild(ctx, item)
		if err != nil || b == nil {
			return engine.Build{}, false, err
		}

		started := *b
		if started.URL, err = r.target.Rewrite(b.URL); err != nil {
			return engine.Build{}, false, err
		}
		return started, true, nil
	})
	if err != nil {
		return nil, err
	}
	if outcome == poll.TimedOut {
		return nil, &engine.TimeoutError{Phase: engine.PhaseStart, Waited: p.Timeout}
	}

	return &build, nil
}

// awaitResult polls build until it reaches a terminal status
func (r *Runner) awaitResult(ctx context.Context, build engine.Build) error {
	p := poll.Poller{
		Interval: r.cfg.Poll.IntervalDuration(),
		Timeout:  r.cfg.Poll.TimeoutDuration(),
		Clock:    r.clock,
		OnWait: func(int) {
			logger.Info(fmt.Sprintf("Build not finished yet. Waiting %d seconds. %s", r.cfg.Poll.Interval, build.URL))
		},
	}

	status, outcome, err := poll.Until(ctx, p, func(ctx context.Context) (engine.Status, bool, error) {
		status, err := r.server.GetResult(ctx, build)
		if err != nil {
			return engine.StatusPending, false, err
		}
		return status, status.Terminal(), nil
	})
	if err != nil {
		return err
	}
	if outcome == poll.TimedOut {
		return &engine.TimeoutError{Phase: engine.PhaseCompletion, Waited: p.Timeout, URL: build.URL}
	}
	if status.Failed() {
		return &engine.BuildFailureError{Status: status, URL: build.URL}
	}

	logger.Info("Build successful 🎉", "url", build.URL)
	return nil
}
