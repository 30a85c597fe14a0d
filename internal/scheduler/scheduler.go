// Package scheduler fans figure compilations out across a bounded pool of
// workers and aggregates the results of a run.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	builderrors "git.home.luguber.info/inful/tikzbuild/internal/errors"
	"git.home.luguber.info/inful/tikzbuild/internal/figures"
	"git.home.luguber.info/inful/tikzbuild/internal/metrics"
)

// Result captures the outcome of one figure compilation. It is created by the
// compiler and never mutated afterwards.
type Result struct {
	Job         figures.Job
	Succeeded   bool
	ExitCode    int
	ErrorOutput string
	TimedOut    bool
	Duration    time.Duration
}

// Summary aggregates all results of one run.
type Summary struct {
	RunID           string
	TotalConsidered int
	TotalSkipped    int
	TotalCompiled   int
	Failures        []Result // ordered by completion time
	Duration        time.Duration
}

// Failed reports whether the run as a whole failed.
func (s *Summary) Failed() bool {
	return len(s.Failures) > 0
}

// Compiler compiles a single figure. A failed compilation is a normal
// outcome, reported through the Result, never through a panic or error.
type Compiler interface {
	Compile(ctx context.Context, job figures.Job) Result
}

// StalenessChecker decides whether a job's artifact needs recompilation.
type StalenessChecker interface {
	NeedsRecompile(job figures.Job) (bool, error)
}

// Scheduler distributes jobs across a fixed-size worker pool.
type Scheduler struct {
	compiler    Compiler
	checker     StalenessChecker
	concurrency int
	recorder    metrics.Recorder
}

// New creates a scheduler. Concurrency must be a positive integer; it is
// validated at run time so the error surfaces through the normal path.
func New(compiler Compiler, checker StalenessChecker, concurrency int) *Scheduler {
	return &Scheduler{
		compiler:    compiler,
		checker:     checker,
		concurrency: concurrency,
		recorder:    metrics.NoopRecorder{},
	}
}

// WithRecorder sets a metrics recorder.
func (s *Scheduler) WithRecorder(r metrics.Recorder) *Scheduler {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Run partitions jobs by staleness, verifies output-target uniqueness, and
// compiles every stale job exactly once across the worker pool. Individual
// compile failures never abort the run; they are collected into the summary.
func (s *Scheduler) Run(ctx context.Context, jobs []figures.Job) (*Summary, error) {
	if s.concurrency < 1 {
		return nil, builderrors.NewValidationError(
			"concurrency must be a positive integer", nil).
			WithContext("jobs", s.concurrency)
	}

	summary := &Summary{
		RunID:           uuid.NewString(),
		TotalConsidered: len(jobs),
	}
	started := time.Now()

	// Staleness is decided once, up front, from a consistent snapshot of
	// filesystem state. Jobs judged fresh here are never reconsidered
	// mid-run.
	var toCompile []figures.Job
	for _, job := range jobs {
		stale, err := s.checker.NeedsRecompile(job)
		if err != nil {
			// Let the compile step surface the underlying problem as a
			// recorded failure instead of silently skipping the figure.
			slog.Warn("Staleness check failed, forcing recompilation",
				"source", job.SourcePath, "error", err)
			stale = true
		}
		if stale {
			toCompile = append(toCompile, job)
		} else {
			summary.TotalSkipped++
		}
	}

	// Two jobs writing the same artifact concurrently would corrupt it.
	if err := figures.DetectDuplicateTargets(toCompile); err != nil {
		return nil, builderrors.Wrap(err,
			builderrors.CategoryConfig, builderrors.SeverityFatal,
			"duplicate output targets")
	}

	s.recorder.AddSkipped(summary.TotalSkipped)
	s.recorder.SetWorkerConcurrency(s.concurrency)

	slog.Info("Starting compile run",
		"run_id", summary.RunID,
		"considered", summary.TotalConsidered,
		"stale", len(toCompile),
		"skipped", summary.TotalSkipped,
		"workers", s.concurrency)

	for result := range s.dispatch(ctx, toCompile) {
		s.record(result)
		if result.Succeeded {
			summary.TotalCompiled++
		} else {
			summary.Failures = append(summary.Failures, result)
		}
	}

	summary.Duration = time.Since(started)
	s.recorder.ObserveRunDuration(summary.Duration)
	outcome := "success"
	if summary.Failed() {
		outcome = "failed"
	}
	s.recorder.IncRunOutcome(outcome)

	slog.Info("Compile run finished",
		"run_id", summary.RunID,
		"compiled", summary.TotalCompiled,
		"failed", len(summary.Failures),
		"skipped", summary.TotalSkipped,
		"duration", summary.Duration)

	return summary, nil
}

// dispatch drains jobs through a channel claimed by exactly s.concurrency
// workers and returns a channel delivering results in completion order. The
// returned channel is closed once every job has been attempted exactly once.
func (s *Scheduler) dispatch(ctx context.Context, jobs []figures.Job) <-chan Result {
	workers := s.concurrency
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan figures.Job)
	resultCh := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if ctx.Err() != nil {
					resultCh <- Result{
						Job:         job,
						ExitCode:    -1,
						ErrorOutput: "run canceled before compilation",
					}
					continue
				}
				resultCh <- s.compiler.Compile(ctx, job)
			}
		}()
	}

	go func() {
		for _, job := range jobs {
			jobCh <- job
		}
		close(jobCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	return resultCh
}

func (s *Scheduler) record(result Result) {
	label := metrics.ResultSuccess
	switch {
	case result.TimedOut:
		label = metrics.ResultTimeout
	case !result.Succeeded:
		label = metrics.ResultFailed
	}
	s.recorder.IncCompileResult(label)
	s.recorder.ObserveCompileDuration(result.Duration, label)
}
