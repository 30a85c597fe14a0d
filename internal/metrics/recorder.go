// Package metrics provides observability hooks for compile runs.
//
// Components receive a Recorder through injection and default to
// NoopRecorder, so metrics impose no overhead and no nil checks unless a real
// implementation (Prometheus) is wired in, typically by watch mode.
package metrics

import "time"

// ResultLabel enumerates per-figure compile outcomes for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultTimeout ResultLabel = "timeout"
)

// Recorder defines observability hooks for scheduler and compile metrics.
// All methods must be safe on the zero value so injection stays optional.
type Recorder interface {
	ObserveCompileDuration(d time.Duration, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncCompileResult(result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|failed
	AddSkipped(n int)
	SetWorkerConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCompileDuration(time.Duration, ResultLabel) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                  {}
func (NoopRecorder) IncCompileResult(ResultLabel)                      {}
func (NoopRecorder) IncRunOutcome(string)                              {}
func (NoopRecorder) AddSkipped(int)                                    {}
func (NoopRecorder) SetWorkerConcurrency(int)                          {}
