package project

import (
	"strconv"

	"git.home.luguber.info/inful/buildcontrol/internal/configuration"
	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
)

// NewRegistry populates a decoder registry with every tag of the bundled
// schema. The registry is built once at process start.
func NewRegistry() *configuration.Registry {
	reg := configuration.NewRegistry()
	reg.Register(configuration.TagRoot, decodeRoot)
	reg.Register(configuration.TagProject, decodeProject)
	reg.Register(configuration.TagTriggers, decodeCollection)
	reg.Register(configuration.TagTasks, decodeCollection)
	reg.Register(configuration.TagIntervalTrigger, decodeIntervalTrigger)
	reg.Register(configuration.TagURLTrigger, decodeURLTrigger)
	reg.Register(configuration.TagExecTask, decodeExecTask)
	reg.Register(configuration.TagNoopTask, decodeNoopTask)
	return reg
}

func decodeRoot(m *configuration.Materializer, el *configuration.Element, location string) (any, error) {
	children, err := m.DecodeChildren(el, location)
	if err != nil {
		return nil, err
	}
	cfg := &Configuration{}
	for _, child := range children {
		if p, ok := child.(*Project); ok {
			cfg.Projects = append(cfg.Projects, p)
		}
	}
	return cfg, nil
}

func decodeProject(m *configuration.Materializer, el *configuration.Element, location string) (any, error) {
	name, ok := el.Attr(configuration.AttrName)
	if !ok || name == "" {
		return nil, bcerrors.InvalidAttribute(el.Name, configuration.AttrName, "required").
			WithContext("location", location)
	}
	p := &Project{Name: name}
	p.Queue, _ = el.Attr(configuration.AttrQueue)

	// Children are materialized before the project is finalized.
	children, err := m.DecodeChildren(el, location)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		switch nodes := child.(type) {
		case []any:
			for _, node := range nodes {
				switch n := node.(type) {
				case TriggerSpec:
					p.Triggers = append(p.Triggers, n)
				case TaskSpec:
					p.Tasks = append(p.Tasks, n)
				}
			}
		}
	}
	return p, nil
}

// decodeCollection materializes a triggers/tasks container into its children.
func decodeCollection(m *configuration.Materializer, el *configuration.Element, location string) (any, error) {
	return m.DecodeChildren(el, location)
}

func decodeIntervalTrigger(m *configuration.Materializer, el *configuration.Element, location string) (any, error) {
	spec, err := decodeIntervalSpec(el, location)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

func decodeURLTrigger(m *configuration.Materializer, el *configuration.Element, location string) (any, error) {
	base, err := decodeIntervalSpec(el, location)
	if err != nil {
		return nil, err
	}
	target, ok := el.Attr(configuration.AttrURLRef)
	if !ok || target == "" {
		return nil, bcerrors.InvalidAttribute(el.Name, configuration.AttrURLRef, "required").
			WithContext("location", location)
	}
	fireOnStartup, err := boolAttr(el, configuration.AttrFireOnStartup, false, location)
	if err != nil {
		return nil, err
	}
	return URLTriggerSpec{
		IntervalTriggerSpec: base,
		URL:                 target,
		FireOnStartup:       fireOnStartup,
	}, nil
}

func decodeIntervalSpec(el *configuration.Element, location string) (IntervalTriggerSpec, error) {
	seconds, err := intAttr(el, configuration.AttrSeconds, location)
	if err != nil {
		return IntervalTriggerSpec{}, err
	}

	condition := IfModificationExists
	if raw, ok := el.Attr(configuration.AttrBuildCondition); ok {
		switch raw {
		case string(IfModificationExists):
			condition = IfModificationExists
		case string(ForceBuild):
			condition = ForceBuild
		default:
			return IntervalTriggerSpec{}, bcerrors.InvalidAttribute(el.Name, configuration.AttrBuildCondition, "unknown build condition").
				WithContext("location", location)
		}
	}

	name, ok := el.Attr(configuration.AttrName)
	if !ok || name == "" {
		// Unnamed triggers report under their tag name.
		name = el.Name
	}
	return IntervalTriggerSpec{Name: name, Seconds: seconds, BuildCondition: condition}, nil
}

func decodeExecTask(m *configuration.Materializer, el *configuration.Element, location string) (any, error) {
	command, ok := el.Attr(configuration.AttrCommand)
	if !ok || command == "" {
		return nil, bcerrors.InvalidAttribute(el.Name, configuration.AttrCommand, "required").
			WithContext("location", location)
	}
	task := ExecTaskSpec{Command: command}
	task.Args, _ = el.Attr(configuration.AttrArgs)
	task.BaseDirectory, _ = el.Attr(configuration.AttrBaseDirectory)
	return task, nil
}

func decodeNoopTask(m *configuration.Materializer, el *configuration.Element, location string) (any, error) {
	return NoopTaskSpec{}, nil
}

func intAttr(el *configuration.Element, name, location string) (int, error) {
	raw, ok := el.Attr(name)
	if !ok {
		return 0, bcerrors.InvalidAttribute(el.Name, name, "required").
			WithContext("location", location)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, bcerrors.InvalidAttribute(el.Name, name, "not an integer").
			WithContext("location", location)
	}
	if n <= 0 {
		return 0, bcerrors.InvalidAttribute(el.Name, name, "must be positive").
			WithContext("location", location)
	}
	return n, nil
}

func boolAttr(el *configuration.Element, name string, fallback bool, location string) (bool, error) {
	raw, ok := el.Attr(name)
	if !ok {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, bcerrors.InvalidAttribute(el.Name, name, "not a boolean").
			WithContext("location", location)
	}
	return b, nil
}
