package trigger

import (
	"context"
	"sync"
	"time"

	"git.home.luguber.info/inful/buildcontrol/internal/project"
)

// Condition decides whether a due trigger actually fires. Implementations are
// called under the owning trigger's lock and may keep per-trigger state.
type Condition interface {
	// ShouldFire reports whether to fire, and the modification timestamp that
	// justified it (zero when not applicable).
	ShouldFire(ctx context.Context, now time.Time) (bool, time.Time)
	// Completed commits any pending baseline after the triggered build
	// finishes.
	Completed()
}

// alwaysFire is the interval-only condition.
type alwaysFire struct{}

func (alwaysFire) ShouldFire(context.Context, time.Time) (bool, time.Time) { return true, time.Time{} }
func (alwaysFire) Completed()                                              {}

// PollingTrigger is the base evaluator: it tracks elapsed time against an
// interval and delegates the fire decision to a condition strategy.
type PollingTrigger struct {
	mu sync.Mutex

	name        string
	projectName string
	interval    time.Duration
	condition   Condition
	buildCond   project.BuildCondition

	next time.Time
}

// NewPollingTrigger creates an evaluator with an explicit condition strategy.
// The first due tick is one interval after start.
func NewPollingTrigger(projectName, name string, interval time.Duration, buildCond project.BuildCondition, condition Condition, start time.Time) *PollingTrigger {
	if condition == nil {
		condition = alwaysFire{}
	}
	return &PollingTrigger{
		name:        name,
		projectName: projectName,
		interval:    interval,
		condition:   condition,
		buildCond:   buildCond,
		next:        start.Add(interval),
	}
}

// NewIntervalTrigger creates the interval-only evaluator from its spec.
func NewIntervalTrigger(projectName string, spec project.IntervalTriggerSpec, start time.Time) *PollingTrigger {
	return NewPollingTrigger(projectName, spec.TriggerName(), spec.Interval(), spec.Condition(), alwaysFire{}, start)
}

func (t *PollingTrigger) Name() string    { return t.name }
func (t *PollingTrigger) Project() string { return t.projectName }

// NextBuild reports when the trigger next becomes due.
func (t *PollingTrigger) NextBuild() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// Evaluate advances the schedule and consults the condition strategy. The next
// due time moves to now+interval in a single step, so ticks missed while the
// host was busy coalesce instead of queueing.
func (t *PollingTrigger) Evaluate(ctx context.Context, now time.Time) *IntegrationRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Before(t.next) {
		return nil
	}
	t.next = now.Add(t.interval)

	fire, modifiedAt := t.condition.ShouldFire(ctx, now)
	if !fire {
		return nil
	}
	return newRequest(t.projectName, t.name, t.buildCond, now, modifiedAt)
}

// IntegrationCompleted commits the condition's pending baseline.
func (t *PollingTrigger) IntegrationCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.condition.Completed()
}
