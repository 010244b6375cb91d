package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	evaluations    *prom.CounterVec
	fires          *prom.CounterVec
	fetchFailures  *prom.CounterVec
	loadDuration   prom.Histogram
	reloads        *prom.CounterVec
	queueDepth     prom.Gauge
	buildDuration  *prom.HistogramVec
	buildOutcomes  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.evaluations = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "buildcontrol",
			Name:      "trigger_evaluations_total",
			Help:      "Trigger evaluations by project and trigger",
		}, []string{"project", "trigger"})
		pr.fires = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "buildcontrol",
			Name:      "trigger_fires_total",
			Help:      "Integration requests fired by project and trigger",
		}, []string{"project", "trigger"})
		pr.fetchFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "buildcontrol",
			Name:      "fetch_failures_total",
			Help:      "Remote modification-time checks that failed",
		}, []string{"url"})
		pr.loadDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "buildcontrol",
			Name:      "config_load_duration_seconds",
			Help:      "Duration of full configuration loads",
			Buckets:   prom.DefBuckets,
		})
		pr.reloads = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "buildcontrol",
			Name:      "config_reloads_total",
			Help:      "Configuration reloads by result",
		}, []string{"result"})
		pr.queueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "buildcontrol",
			Name:      "build_queue_depth",
			Help:      "Integration requests currently queued",
		})
		pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "buildcontrol",
			Name:      "build_duration_seconds",
			Help:      "Duration of individual builds",
			Buckets:   prom.DefBuckets,
		}, []string{"project"})
		pr.buildOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "buildcontrol",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"project", "outcome"})
		reg.MustRegister(pr.evaluations, pr.fires, pr.fetchFailures, pr.loadDuration, pr.reloads, pr.queueDepth, pr.buildDuration, pr.buildOutcomes)
	})
	return pr
}

func (p *PrometheusRecorder) IncTriggerEvaluation(project, trigger string) {
	if p == nil || p.evaluations == nil {
		return
	}
	p.evaluations.WithLabelValues(project, trigger).Inc()
}

func (p *PrometheusRecorder) IncTriggerFire(project, trigger string) {
	if p == nil || p.fires == nil {
		return
	}
	p.fires.WithLabelValues(project, trigger).Inc()
}

func (p *PrometheusRecorder) IncFetchFailure(url string) {
	if p == nil || p.fetchFailures == nil {
		return
	}
	p.fetchFailures.WithLabelValues(url).Inc()
}

func (p *PrometheusRecorder) ObserveConfigLoadDuration(d time.Duration) {
	if p == nil || p.loadDuration == nil {
		return
	}
	p.loadDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncConfigReload(result ReloadResult) {
	if p == nil || p.reloads == nil {
		return
	}
	p.reloads.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil || p.queueDepth == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveBuildDuration(project string, d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.WithLabelValues(project).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(project, outcome string) {
	if p == nil || p.buildOutcomes == nil {
		return
	}
	p.buildOutcomes.WithLabelValues(project, outcome).Inc()
}
