package daemon

import (
	"context"
	"time"

	"git.home.luguber.info/inful/buildcontrol/internal/metrics"
	"git.home.luguber.info/inful/buildcontrol/internal/trigger"
)

// meteredFetcher counts failed remote modification checks. Failures stay
// contained in the trigger; the counter is the only external signal.
type meteredFetcher struct {
	inner    trigger.LastModifiedFetcher
	recorder metrics.Recorder
}

func (f meteredFetcher) LastModified(ctx context.Context, url string) (time.Time, error) {
	modified, err := f.inner.LastModified(ctx, url)
	if err != nil {
		f.recorder.IncFetchFailure(url)
	}
	return modified, err
}
