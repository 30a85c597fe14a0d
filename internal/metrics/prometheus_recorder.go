package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	compileDuration   *prom.HistogramVec
	runDuration       prom.Histogram
	compileResults    *prom.CounterVec
	runOutcome        *prom.CounterVec
	skipped           prom.Counter
	workerConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.compileDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "tikzbuild",
			Name:      "compile_duration_seconds",
			Help:      "Duration of individual figure compilations",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "tikzbuild",
			Name:      "run_duration_seconds",
			Help:      "Total duration of a full build run",
			Buckets:   prom.DefBuckets,
		})
		pr.compileResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tikzbuild",
			Name:      "compile_results_total",
			Help:      "Figure compile counts by outcome",
		}, []string{"result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tikzbuild",
			Name:      "run_outcomes_total",
			Help:      "Build run outcomes by final status",
		}, []string{"outcome"})
		pr.skipped = prom.NewCounter(prom.CounterOpts{
			Namespace: "tikzbuild",
			Name:      "figures_skipped_total",
			Help:      "Figures skipped because their artifact was up to date",
		})
		pr.workerConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "tikzbuild",
			Name:      "worker_concurrency",
			Help:      "Configured worker concurrency for the last run",
		})
		reg.MustRegister(pr.compileDuration, pr.runDuration, pr.compileResults,
			pr.runOutcome, pr.skipped, pr.workerConcurrency)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveCompileDuration(d time.Duration, result ResultLabel) {
	if p == nil || p.compileDuration == nil {
		return
	}
	p.compileDuration.WithLabelValues(string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCompileResult(result ResultLabel) {
	if p == nil || p.compileResults == nil {
		return
	}
	p.compileResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddSkipped(n int) {
	if p == nil || p.skipped == nil {
		return
	}
	p.skipped.Add(float64(n))
}

func (p *PrometheusRecorder) SetWorkerConcurrency(n int) {
	if p == nil || p.workerConcurrency == nil {
		return
	}
	p.workerConcurrency.Set(float64(n))
}
