package configuration

import (
	"log/slog"
	"os"
	"time"

	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
	"git.home.luguber.info/inful/buildcontrol/internal/logfields"
)

// Loader orchestrates the configuration pipeline: existence check, subfile
// expansion, schema validation, materialization. Repeated calls with an
// unchanged file produce an equivalent typed graph.
type Loader struct {
	resolver     *Resolver
	validator    *Validator
	materializer *Materializer
	log          *slog.Logger
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithSchema replaces the bundled schema.
func WithSchema(s *Schema) LoaderOption {
	return func(l *Loader) { l.validator = NewValidator(s) }
}

// WithLogger injects the structured logger used by the pipeline.
func WithLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
		l.resolver = NewResolver(log)
	}
}

// NewLoader creates a loader over the given decoder registry.
func NewLoader(registry *Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		resolver:     NewResolver(nil),
		validator:    NewValidator(nil),
		materializer: NewMaterializer(registry),
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnSubfileLoaded registers an observer notified for every included file.
func (l *Loader) OnSubfileLoaded(obs SubfileObserver) {
	l.resolver.OnSubfileLoaded(obs)
}

// OnValidationEvent registers an observer notified for every validation event,
// informational and error alike.
func (l *Loader) OnValidationEvent(obs ValidationObserver) {
	l.validator.OnEvent(obs)
}

// Load runs the full pipeline on the given path. Any error-severity validation
// event aborts the load; informational events do not. All failures carry the
// originating file path.
func (l *Loader) Load(path string) (any, error) {
	start := time.Now()

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, bcerrors.ConfigurationFileMissing(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, bcerrors.ConfigurationFileMissing(path)
	}
	defer f.Close()

	doc, err := l.resolver.Expand(f, path)
	if err != nil {
		return nil, err
	}

	events := l.validator.Validate(doc)
	errorCount := 0
	for _, ev := range events {
		if ev.Severity == SeverityError {
			errorCount++
		}
	}
	if errorCount > 0 {
		l.log.Warn("configuration rejected by schema validation",
			logfields.Path(path), logfields.Violations(errorCount))
		return nil, bcerrors.SchemaViolations(path, errorCount).
			WithContext("events", events)
	}

	cfg, err := l.materializer.Materialize(doc)
	if err != nil {
		if bce, ok := err.(*bcerrors.BuildControlError); ok {
			return nil, bce.WithContext("path", path)
		}
		return nil, err
	}

	l.log.Debug("configuration loaded",
		logfields.Path(path),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return cfg, nil
}

// ViolationEvents extracts the collected validation events from a
// schema-violation error, when present.
func ViolationEvents(err error) []ValidationEvent {
	bce, ok := err.(*bcerrors.BuildControlError)
	if !ok || bce.Context == nil {
		return nil
	}
	events, _ := bce.Context["events"].([]ValidationEvent)
	return events
}
