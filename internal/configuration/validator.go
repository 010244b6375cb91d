package configuration

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// EventSeverity classifies a validation event.
type EventSeverity string

const (
	SeverityInfo  EventSeverity = "info"
	SeverityError EventSeverity = "error"
)

// ValidationEvent is a single validation problem. Events are collected across
// the whole document; the fatal-vs-warning policy belongs to the caller.
type ValidationEvent struct {
	Severity EventSeverity
	Message  string
	// Location is a slash path into the document, e.g.
	// buildcontrol/project[1]/triggers/intervalTrigger[2].
	Location string
	Line     int
}

func (e ValidationEvent) String() string {
	return fmt.Sprintf("%s: %s (%s)", e.Severity, e.Message, e.Location)
}

// ValidationObserver receives each event as it is found.
type ValidationObserver func(ValidationEvent)

// Validator checks a merged document against the bundled schema.
type Validator struct {
	schema    *Schema
	observers []ValidationObserver
}

// NewValidator creates a validator. A nil schema uses DefaultSchema.
func NewValidator(schema *Schema) *Validator {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Validator{schema: schema}
}

// OnEvent registers an observer notified for every validation event.
func (v *Validator) OnEvent(obs ValidationObserver) {
	if obs != nil {
		v.observers = append(v.observers, obs)
	}
}

// Validate walks the whole document and returns every event found, in document
// order. It never aborts on the first problem.
func (v *Validator) Validate(doc *Document) []ValidationEvent {
	var events []ValidationEvent
	emit := func(sev EventSeverity, loc string, line int, format string, args ...any) {
		ev := ValidationEvent{Severity: sev, Message: fmt.Sprintf(format, args...), Location: loc, Line: line}
		events = append(events, ev)
		for _, obs := range v.observers {
			obs(ev)
		}
	}

	root := doc.Root
	if root.Name != v.schema.RootTag {
		emit(SeverityError, root.Name, root.Line, "root element must be <%s>, found <%s>", v.schema.RootTag, root.Name)
		return events
	}

	v.validateElement(root, root.Name, emit)
	v.validateProjectNames(root, emit)
	return events
}

type emitFunc func(sev EventSeverity, loc string, line int, format string, args ...any)

// validateElement checks one element's attributes and children, then recurses.
func (v *Validator) validateElement(el *Element, loc string, emit emitFunc) {
	rule, known := v.schema.Elements[el.Name]
	if !known {
		emit(SeverityError, loc, el.Line, "unknown element <%s>", el.Name)
		return
	}

	for name, attrRule := range rule.Attributes {
		val, present := el.Attr(name)
		if !present {
			if attrRule.Required {
				emit(SeverityError, loc, el.Line, "<%s> requires attribute %q", el.Name, name)
			}
			continue
		}
		v.validateAttrValue(el, name, val, attrRule, loc, emit)
	}
	for name := range el.Attrs {
		if _, ok := rule.Attributes[name]; !ok {
			emit(SeverityError, loc, el.Line, "<%s> has unknown attribute %q", el.Name, name)
		}
	}

	for _, required := range rule.RequiredChildren {
		if el.FirstChild(required) == nil {
			emit(SeverityError, loc, el.Line, "<%s> requires at least one <%s> child", el.Name, required)
		}
	}

	ordinals := map[string]int{}
	for _, child := range el.Children {
		ordinals[child.Name]++
		childLoc := fmt.Sprintf("%s/%s[%d]", loc, child.Name, ordinals[child.Name])
		if rule.Children == nil || !rule.Children[child.Name] {
			emit(SeverityError, childLoc, child.Line, "element <%s> is not allowed inside <%s>", child.Name, el.Name)
			continue
		}
		v.validateElement(child, childLoc, emit)
	}

	if el.Name == TagProject && el.FirstChild(TagTriggers) == nil {
		emit(SeverityInfo, loc, el.Line, "project has no triggers; it will only build when forced")
	}
}

// validateAttrValue checks a present attribute against its rule.
func (v *Validator) validateAttrValue(el *Element, name, val string, rule AttrRule, loc string, emit emitFunc) {
	switch rule.Kind {
	case AttrInt:
		n, err := strconv.Atoi(val)
		if err != nil {
			emit(SeverityError, loc, el.Line, "attribute %q must be an integer, got %q", name, val)
			return
		}
		if rule.Positive && n <= 0 {
			emit(SeverityError, loc, el.Line, "attribute %q must be positive, got %d", name, n)
		}
	case AttrBool:
		if _, err := strconv.ParseBool(val); err != nil {
			emit(SeverityError, loc, el.Line, "attribute %q must be a boolean, got %q", name, val)
		}
	case AttrEnum:
		for _, allowed := range rule.Enum {
			if val == allowed {
				return
			}
		}
		emit(SeverityError, loc, el.Line, "attribute %q must be one of %s, got %q", name, strings.Join(rule.Enum, "|"), val)
	case AttrURL:
		u, err := url.Parse(val)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			emit(SeverityError, loc, el.Line, "attribute %q must be an absolute http(s) URL, got %q", name, val)
		}
	}
}

// validateProjectNames reports duplicate project names across the document.
func (v *Validator) validateProjectNames(root *Element, emit emitFunc) {
	seen := map[string]int{}
	for i, p := range root.ChildrenNamed(TagProject) {
		name, ok := p.Attr(AttrName)
		if !ok || name == "" {
			continue // the missing-attribute event is already reported
		}
		if first, dup := seen[name]; dup {
			loc := fmt.Sprintf("%s/%s[%d]", root.Name, TagProject, i+1)
			emit(SeverityError, loc, p.Line, "duplicate project name %q (first defined at project[%d])", name, first)
			continue
		}
		seen[name] = i + 1
	}
}
