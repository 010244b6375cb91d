// Package project defines the typed configuration graph materialized from a
// validated configuration document: projects, their trigger specifications,
// and their task specifications.
package project

import "time"

// BuildCondition classifies how a fired build should be treated.
type BuildCondition string

const (
	// IfModificationExists builds only when modifications are present.
	IfModificationExists BuildCondition = "IfModificationExists"
	// ForceBuild builds unconditionally.
	ForceBuild BuildCondition = "ForceBuild"
)

// Configuration is the materialized project graph. It is immutable once
// returned by the loader.
type Configuration struct {
	Projects []*Project
}

// Project returns the named project, or nil.
func (c *Configuration) Project(name string) *Project {
	for _, p := range c.Projects {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Project is one configured build project.
type Project struct {
	Name     string
	Queue    string
	Triggers []TriggerSpec
	Tasks    []TaskSpec
}

// TriggerSpec is the configuration of one trigger, before instantiation into
// a polling evaluator.
type TriggerSpec interface {
	TriggerName() string
	Interval() time.Duration
	Condition() BuildCondition
}

// IntervalTriggerSpec fires on a fixed cadence.
type IntervalTriggerSpec struct {
	Name           string
	Seconds        int
	BuildCondition BuildCondition
}

func (s IntervalTriggerSpec) TriggerName() string       { return s.Name }
func (s IntervalTriggerSpec) Interval() time.Duration   { return time.Duration(s.Seconds) * time.Second }
func (s IntervalTriggerSpec) Condition() BuildCondition { return s.BuildCondition }

// URLTriggerSpec fires when a remote resource's modification time advances.
type URLTriggerSpec struct {
	IntervalTriggerSpec
	URL           string
	FireOnStartup bool
}

// TaskSpec is the configuration of one task. Task execution itself is handled
// by an external runner.
type TaskSpec interface {
	Kind() string
}

// ExecTaskSpec runs an external command.
type ExecTaskSpec struct {
	Command       string
	Args          string
	BaseDirectory string
}

func (ExecTaskSpec) Kind() string { return "exec" }

// NoopTaskSpec does nothing. Useful as a placeholder while wiring projects.
type NoopTaskSpec struct{}

func (NoopTaskSpec) Kind() string { return "noop" }
