// Package trigger implements the polling evaluators that decide, on each
// scheduler tick, whether a project build should start.
package trigger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/buildcontrol/internal/project"
)

// IntegrationRequest is emitted by a fired trigger and consumed by the build
// pipeline.
type IntegrationRequest struct {
	ID        string                 `json:"id"`
	Project   string                 `json:"project"`
	Source    string                 `json:"source"`
	Condition project.BuildCondition `json:"build_condition"`
	FiredAt   time.Time              `json:"fired_at"`
	// ModifiedAt carries the remote modification timestamp that caused the
	// fire, when the source trigger tracks one.
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// Trigger is a stateful polling evaluator. State mutation is single-writer:
// only the owning instance mutates its own state, in response to Evaluate and
// IntegrationCompleted.
type Trigger interface {
	// Name identifies the trigger in requests and logs.
	Name() string
	// Project names the project the trigger belongs to.
	Project() string
	// Evaluate is called once per scheduler tick. It returns a request when
	// the trigger fires, nil otherwise.
	Evaluate(ctx context.Context, now time.Time) *IntegrationRequest
	// IntegrationCompleted is invoked once the triggered build finishes,
	// letting the trigger commit any baseline it was tracking.
	IntegrationCompleted()
	// NextBuild reports when the trigger next becomes due.
	NextBuild() time.Time
}

// NewForcedRequest builds an unconditional request outside any trigger, for
// operator-initiated builds.
func NewForcedRequest(projectName string) *IntegrationRequest {
	return newRequest(projectName, "forced", project.ForceBuild, time.Now(), time.Time{})
}

func newRequest(projectName, source string, condition project.BuildCondition, now, modifiedAt time.Time) *IntegrationRequest {
	return &IntegrationRequest{
		ID:         uuid.NewString(),
		Project:    projectName,
		Source:     source,
		Condition:  condition,
		FiredAt:    now,
		ModifiedAt: modifiedAt,
	}
}
