package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
	"git.home.luguber.info/inful/buildcontrol/internal/logfields"
	"git.home.luguber.info/inful/buildcontrol/internal/project"
)

// DefaultFetchTimeout bounds the remote modification-time lookup so a slow
// resource cannot stall the scheduler tick.
const DefaultFetchTimeout = 10 * time.Second

// LastModifiedFetcher reports a remote resource's last-modification time.
type LastModifiedFetcher interface {
	LastModified(ctx context.Context, url string) (time.Time, error)
}

// HTTPFetcher queries the resource with a HEAD request and reads the
// Last-Modified header. No response body is processed.
type HTTPFetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewHTTPFetcher creates a fetcher with the default timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: http.DefaultClient, Timeout: DefaultFetchTimeout}
}

// LastModified implements LastModifiedFetcher.
func (f *HTTPFetcher) LastModified(ctx context.Context, url string) (time.Time, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return time.Time{}, bcerrors.NetworkTimeout(url, err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return time.Time{}, bcerrors.NetworkTimeout(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return time.Time{}, bcerrors.WrapRetryable(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			bcerrors.KindNetwork, bcerrors.SeverityWarning, "resource check failed").
			WithContext("url", url)
	}

	header := resp.Header.Get("Last-Modified")
	if header == "" {
		return time.Time{}, bcerrors.WrapRetryable(
			fmt.Errorf("response carries no Last-Modified header"),
			bcerrors.KindNetwork, bcerrors.SeverityWarning, "resource check failed").
			WithContext("url", url)
	}
	lm, err := http.ParseTime(header)
	if err != nil {
		return time.Time{}, bcerrors.WrapRetryable(err, bcerrors.KindNetwork, bcerrors.SeverityWarning, "resource check failed").
			WithContext("url", url)
	}
	return lm, nil
}

// urlCondition fires when the remote modification time advances past the
// baseline committed at the last completed build. Fetch failures are local:
// logged, treated as no-fire, never escalated to the scheduler.
type urlCondition struct {
	url           string
	fetcher       LastModifiedFetcher
	fireOnStartup bool
	log           *slog.Logger

	// seen distinguishes "never observed" from "observed, unchanged"; the
	// modification time is not persisted across restarts.
	seen     bool
	baseline time.Time
	pending  time.Time
}

func (c *urlCondition) ShouldFire(ctx context.Context, now time.Time) (bool, time.Time) {
	modified, err := c.fetcher.LastModified(ctx, c.url)
	if err != nil {
		c.log.Warn("remote modification check failed; skipping tick",
			logfields.URL(c.url), logfields.Error(err))
		return false, time.Time{}
	}

	first := !c.seen
	c.seen = true

	if !modified.After(c.baseline) {
		return false, time.Time{}
	}
	if first && !c.fireOnStartup {
		// Suppress the spurious build on the first poll after a restart, but
		// advance the baseline so later changes are detected.
		c.baseline = modified
		return false, time.Time{}
	}

	c.pending = modified
	return true, modified
}

func (c *urlCondition) Completed() {
	if !c.pending.IsZero() {
		c.baseline = c.pending
		c.pending = time.Time{}
	}
}

// NewURLTrigger creates the remote-resource evaluator from its spec. A nil
// fetcher uses the HTTP implementation; a nil logger uses slog.Default.
func NewURLTrigger(projectName string, spec project.URLTriggerSpec, fetcher LastModifiedFetcher, log *slog.Logger, start time.Time) *PollingTrigger {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	if log == nil {
		log = slog.Default()
	}
	cond := &urlCondition{
		url:           spec.URL,
		fetcher:       fetcher,
		fireOnStartup: spec.FireOnStartup,
		log:           log,
	}
	return NewPollingTrigger(projectName, spec.TriggerName(), spec.Interval(), spec.Condition(), cond, start)
}
