package metrics

import "time"

// ReloadResult enumerates configuration reload outcomes for counters.
type ReloadResult string

const (
	ReloadApplied  ReloadResult = "applied"
	ReloadRejected ReloadResult = "rejected"
)

// Recorder defines observability hooks for the configuration pipeline and the
// trigger engine. Implementations may forward to Prometheus, OpenTelemetry,
// etc. All methods must be safe for nil receivers when using the NoopRecorder
// (allowing optional injection).
type Recorder interface {
	IncTriggerEvaluation(project, trigger string)
	IncTriggerFire(project, trigger string)
	IncFetchFailure(url string)
	ObserveConfigLoadDuration(d time.Duration)
	IncConfigReload(result ReloadResult)
	SetQueueDepth(n int)
	ObserveBuildDuration(project string, d time.Duration)
	IncBuildOutcome(project, outcome string) // outcome: success|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncTriggerEvaluation(string, string)        {}
func (NoopRecorder) IncTriggerFire(string, string)              {}
func (NoopRecorder) IncFetchFailure(string)                     {}
func (NoopRecorder) ObserveConfigLoadDuration(time.Duration)    {}
func (NoopRecorder) IncConfigReload(ReloadResult)               {}
func (NoopRecorder) SetQueueDepth(int)                          {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, string)             {}
