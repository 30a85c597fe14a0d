package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderImplementsRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}

	// All hooks must be callable without effect.
	r.ObserveCompileDuration(time.Second, ResultSuccess)
	r.ObserveRunDuration(time.Second)
	r.IncCompileResult(ResultFailed)
	r.IncRunOutcome("success")
	r.AddSkipped(3)
	r.SetWorkerConcurrency(8)
}

func TestPrometheusRecorder_NilReceiverIsSafe(t *testing.T) {
	var p *PrometheusRecorder

	p.ObserveCompileDuration(time.Second, ResultSuccess)
	p.IncCompileResult(ResultSuccess)
	p.AddSkipped(1)
	p.SetWorkerConcurrency(4)
}

func TestPrometheusRecorder_RecordsCounters(t *testing.T) {
	reg := prom.NewRegistry()
	p := NewPrometheusRecorder(reg)

	p.IncCompileResult(ResultSuccess)
	p.IncCompileResult(ResultSuccess)
	p.IncCompileResult(ResultFailed)
	p.AddSkipped(5)
	p.SetWorkerConcurrency(4)
	p.IncRunOutcome("failed")

	require.Equal(t, 2.0, testutil.ToFloat64(p.compileResults.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(p.compileResults.WithLabelValues("failed")))
	require.Equal(t, 5.0, testutil.ToFloat64(p.skipped))
	require.Equal(t, 4.0, testutil.ToFloat64(p.workerConcurrency))
	require.Equal(t, 1.0, testutil.ToFloat64(p.runOutcome.WithLabelValues("failed")))
}
