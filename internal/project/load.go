package project

import (
	"git.home.luguber.info/inful/buildcontrol/internal/configuration"
	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
)

// Loader wraps the generic configuration pipeline with this package's decoder
// registry and a typed result.
type Loader struct {
	inner *configuration.Loader
}

// NewLoader creates a typed configuration loader.
func NewLoader(opts ...configuration.LoaderOption) *Loader {
	return &Loader{inner: configuration.NewLoader(NewRegistry(), opts...)}
}

// OnSubfileLoaded registers an observer notified for every included file.
func (l *Loader) OnSubfileLoaded(obs configuration.SubfileObserver) {
	l.inner.OnSubfileLoaded(obs)
}

// OnValidationEvent registers an observer notified for every validation event.
func (l *Loader) OnValidationEvent(obs configuration.ValidationObserver) {
	l.inner.OnValidationEvent(obs)
}

// Load runs the full pipeline and returns the typed project graph.
func (l *Loader) Load(path string) (*Configuration, error) {
	node, err := l.inner.Load(path)
	if err != nil {
		return nil, err
	}
	cfg, ok := node.(*Configuration)
	if !ok {
		return nil, bcerrors.InternalError("root decoder produced an unexpected type", nil).
			WithContext("path", path)
	}
	return cfg, nil
}
