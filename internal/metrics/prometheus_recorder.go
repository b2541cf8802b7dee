package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once         sync.Once
	fileDuration *prom.HistogramVec
	fileResults  *prom.CounterVec
	findings     *prom.CounterVec
	runDuration  prom.Histogram
	runOutcome   *prom.CounterVec
	workers      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.fileDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mdlinkcheck",
			Name:      "file_duration_seconds",
			Help:      "Time to read, parse and verify one document",
			Buckets:   prom.DefBuckets,
		}, []string{"backend"})
		pr.fileResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdlinkcheck",
			Name:      "files_total",
			Help:      "Files seen by result",
		}, []string{"result"})
		pr.findings = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdlinkcheck",
			Name:      "findings_total",
			Help:      "Broken links found by reason",
		}, []string{"reason"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdlinkcheck",
			Name:      "run_duration_seconds",
			Help:      "Total scan duration",
			Buckets:   prom.DefBuckets,
		})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdlinkcheck",
			Name:      "run_outcomes_total",
			Help:      "Scan outcomes by final status",
		}, []string{"outcome"})
		pr.workers = prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdlinkcheck",
			Name:      "workers",
			Help:      "Worker count of the last scan",
		})
		reg.MustRegister(pr.fileDuration, pr.fileResults, pr.findings, pr.runDuration, pr.runOutcome, pr.workers)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveFileDuration(backend string, d time.Duration) {
	if p == nil || p.fileDuration == nil {
		return
	}
	p.fileDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFileResult(result ResultLabel) {
	if p == nil || p.fileResults == nil {
		return
	}
	p.fileResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncFinding(reason string) {
	if p == nil || p.findings == nil {
		return
	}
	p.findings.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetWorkers(n int) {
	if p == nil || p.workers == nil {
		return
	}
	p.workers.Set(float64(n))
}
