package trigger

import (
	"fmt"
	"log/slog"
	"time"

	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
	"git.home.luguber.info/inful/buildcontrol/internal/project"
)

// FromSpec instantiates the evaluator for a configured trigger. start anchors
// the first due tick; it is normally the moment the configuration was
// materialized.
func FromSpec(projectName string, spec project.TriggerSpec, fetcher LastModifiedFetcher, log *slog.Logger, start time.Time) (Trigger, error) {
	switch s := spec.(type) {
	case project.URLTriggerSpec:
		return NewURLTrigger(projectName, s, fetcher, log, start), nil
	case project.IntervalTriggerSpec:
		return NewIntervalTrigger(projectName, s, start), nil
	default:
		return nil, bcerrors.InternalError(fmt.Sprintf("no evaluator for trigger spec %T", spec), nil).
			WithContext("project", projectName)
	}
}

// ForProject instantiates every trigger of a project.
func ForProject(p *project.Project, fetcher LastModifiedFetcher, log *slog.Logger, start time.Time) ([]Trigger, error) {
	triggers := make([]Trigger, 0, len(p.Triggers))
	for _, spec := range p.Triggers {
		tr, err := FromSpec(p.Name, spec, fetcher, log, start)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, tr)
	}
	return triggers, nil
}
