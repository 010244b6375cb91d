// Package daemon runs the build-control server: it loads and watches the
// configuration document, evaluates triggers on a scheduler tick, and feeds
// fired integration requests through a bounded build queue.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/buildcontrol/internal/configuration"
	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
	"git.home.luguber.info/inful/buildcontrol/internal/eventstore"
	"git.home.luguber.info/inful/buildcontrol/internal/logfields"
	"git.home.luguber.info/inful/buildcontrol/internal/metrics"
	"git.home.luguber.info/inful/buildcontrol/internal/project"
	"git.home.luguber.info/inful/buildcontrol/internal/publish"
	"git.home.luguber.info/inful/buildcontrol/internal/settings"
	"git.home.luguber.info/inful/buildcontrol/internal/trigger"
)

// Daemon coordinates the configuration pipeline, the trigger engine, and the
// build queue.
type Daemon struct {
	settings  *settings.Settings
	log       *slog.Logger
	loader    *project.Loader
	fetcher   trigger.LastModifiedFetcher
	recorder  metrics.Recorder
	registry  *prom.Registry
	journal   eventstore.Store
	publisher publish.Publisher
	runner    Runner
	queue     *BuildQueue
	scheduler *Scheduler
	watcher   *ConfigWatcher

	metricsServer *http.Server

	// reloadMu serializes reloads; mu guards the active graph.
	reloadMu sync.Mutex
	mu       sync.RWMutex
	config   *project.Configuration
	triggers []trigger.Trigger

	// subfiles collected by the resolver during the most recent load.
	subfileMu sync.Mutex
	subfiles  []string
}

// Option configures optional daemon collaborators.
type Option func(*Daemon)

// WithFetcher overrides the remote modification-time fetcher.
func WithFetcher(f trigger.LastModifiedFetcher) Option {
	return func(d *Daemon) { d.fetcher = f }
}

// WithJournal overrides the operational journal.
func WithJournal(s eventstore.Store) Option {
	return func(d *Daemon) { d.journal = s }
}

// WithPublisher overrides the integration-request publisher.
func WithPublisher(p publish.Publisher) Option {
	return func(d *Daemon) { d.publisher = p }
}

// WithRunner overrides the task runner used by queue workers.
func WithRunner(r Runner) Option {
	return func(d *Daemon) { d.runner = r }
}

// New creates a daemon from settings. Collaborators not overridden by options
// are constructed from the settings: a sqlite journal, a NATS publisher when
// enabled, and the HTTP fetcher.
func New(cfg *settings.Settings, log *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		cfg = settings.Default()
	}
	if log == nil {
		log = slog.Default()
	}

	d := &Daemon{
		settings: cfg,
		log:      log,
		registry: prom.NewRegistry(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.fetcher == nil {
		d.fetcher = trigger.NewHTTPFetcher()
	}
	if d.recorder == nil {
		if cfg.Metrics.Enabled {
			d.recorder = metrics.NewPrometheusRecorder(d.registry)
		} else {
			d.recorder = metrics.NoopRecorder{}
		}
	}
	d.fetcher = meteredFetcher{inner: d.fetcher, recorder: d.recorder}
	if d.journal == nil {
		store, err := eventstore.NewSQLiteStore(cfg.Journal.Path)
		if err != nil {
			return nil, bcerrors.Wrap(err, bcerrors.KindDaemon, bcerrors.SeverityFatal, "open journal")
		}
		d.journal = store
	}
	if d.publisher == nil {
		pub, err := publish.FromSettings(cfg.NATS, log)
		if err != nil {
			return nil, bcerrors.Wrap(err, bcerrors.KindDaemon, bcerrors.SeverityFatal, "connect publisher")
		}
		d.publisher = pub
	}

	d.loader = project.NewLoader(configuration.WithLogger(log))
	d.loader.OnSubfileLoaded(d.recordSubfile)

	d.queue = NewBuildQueue(cfg.Queue.Size, cfg.Queue.Workers, d.runner, log).
		WithRecorder(d.recorder)
	d.queue.OnComplete(d.buildCompleted)

	scheduler, err := NewScheduler(log)
	if err != nil {
		return nil, bcerrors.Wrap(err, bcerrors.KindDaemon, bcerrors.SeverityFatal, "create scheduler")
	}
	d.scheduler = scheduler

	watcher, err := NewConfigWatcher(cfg.ConfigPath, d.reloadFromWatcher, log)
	if err != nil {
		return nil, bcerrors.Wrap(err, bcerrors.KindDaemon, bcerrors.SeverityFatal, "create config watcher")
	}
	d.watcher = watcher

	return d, nil
}

// Start loads the configuration and brings up all components. It fails fast
// when the initial load is invalid; a daemon that never had a valid
// configuration has nothing to fall back to.
func (d *Daemon) Start(ctx context.Context) error {
	cfg, triggers, err := d.loadConfiguration()
	if err != nil {
		return err
	}
	d.install(cfg, triggers)

	d.queue.Start(ctx)

	if err := d.scheduler.ScheduleEvaluation(d.settings.PollInterval, func(now time.Time) {
		d.EvaluateTriggers(ctx, now)
	}); err != nil {
		return bcerrors.Wrap(err, bcerrors.KindDaemon, bcerrors.SeverityFatal, "schedule evaluation")
	}
	d.scheduler.Start(ctx)

	if err := d.watcher.Start(ctx); err != nil {
		return bcerrors.Wrap(err, bcerrors.KindDaemon, bcerrors.SeverityFatal, "start config watcher")
	}

	if d.settings.Metrics.Enabled {
		d.startMetricsServer()
	}

	d.log.Info("daemon started",
		logfields.Path(d.settings.ConfigPath),
		slog.Int("projects", len(cfg.Projects)),
		slog.Int("triggers", len(triggers)))
	return nil
}

// Stop shuts down all components in reverse start order.
func (d *Daemon) Stop(ctx context.Context) error {
	d.log.Info("stopping daemon")

	if d.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := d.metricsServer.Shutdown(shutdownCtx); err != nil {
			d.log.Error("metrics server shutdown failed", logfields.Error(err))
		}
	}

	_ = d.watcher.Stop(ctx)
	if err := d.scheduler.Stop(ctx); err != nil {
		d.log.Error("scheduler shutdown failed", logfields.Error(err))
	}
	d.queue.Stop(ctx)

	if err := d.publisher.Close(); err != nil {
		d.log.Error("publisher shutdown failed", logfields.Error(err))
	}
	if err := d.journal.Close(); err != nil {
		d.log.Error("journal shutdown failed", logfields.Error(err))
	}

	d.log.Info("daemon stopped")
	return nil
}

// Config returns the active configuration graph.
func (d *Daemon) Config() *project.Configuration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Triggers returns the active trigger evaluators.
func (d *Daemon) Triggers() []trigger.Trigger {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.triggers
}

// Queue exposes the build queue for status surfaces.
func (d *Daemon) Queue() *BuildQueue { return d.queue }

// EvaluateTriggers runs one evaluation pass over all active triggers and
// enqueues the requests that fired.
func (d *Daemon) EvaluateTriggers(ctx context.Context, now time.Time) {
	for _, tr := range d.Triggers() {
		d.recorder.IncTriggerEvaluation(tr.Project(), tr.Name())
		req := tr.Evaluate(ctx, now)
		if req == nil {
			continue
		}
		d.recorder.IncTriggerFire(req.Project, req.Source)
		d.dispatch(ctx, req)
	}
}

// ForceBuild enqueues an unconditional build for the named project.
func (d *Daemon) ForceBuild(ctx context.Context, projectName string) error {
	cfg := d.Config()
	if cfg == nil || cfg.Project(projectName) == nil {
		return bcerrors.New(bcerrors.KindDaemon, bcerrors.SeverityError,
			fmt.Sprintf("unknown project %q", projectName))
	}

	req := trigger.NewForcedRequest(projectName)
	d.journalEvent(ctx, projectName, eventstore.TypeForcedBuild, req, nil)
	d.dispatch(ctx, req)
	return nil
}

// dispatch turns a fired request into a queued job, journals it, and
// publishes it.
func (d *Daemon) dispatch(ctx context.Context, req *trigger.IntegrationRequest) {
	cfg := d.Config()
	p := cfg.Project(req.Project)
	if p == nil {
		// Trigger outlived its project across a reload; drop the request.
		d.log.Warn("dropping request for removed project", logfields.Project(req.Project))
		return
	}

	d.journalEvent(ctx, req.Project, eventstore.TypeTriggerFired, req, map[string]string{
		"trigger": req.Source,
	})
	if err := d.publisher.PublishRequest(req); err != nil {
		d.log.Warn("failed to publish integration request",
			logfields.Project(req.Project), logfields.Error(err))
	}

	job := &BuildJob{
		ID:        req.ID,
		Request:   req,
		Tasks:     p.Tasks,
		CreatedAt: time.Now(),
	}
	if err := d.queue.Enqueue(job); err != nil {
		d.log.Error("failed to enqueue build job",
			logfields.Project(req.Project), logfields.Error(err))
	}
}

// buildCompleted runs on the queue worker after each job. It commits trigger
// baselines and journals the outcome.
func (d *Daemon) buildCompleted(job *BuildJob) {
	for _, tr := range d.Triggers() {
		if tr.Project() == job.Request.Project && tr.Name() == job.Request.Source {
			tr.IntegrationCompleted()
		}
	}

	eventType := eventstore.TypeBuildCompleted
	if job.Status == JobStatusFailed {
		eventType = eventstore.TypeBuildFailed
	}
	d.journalEvent(context.Background(), job.Request.Project, eventType, job, nil)
}

// Reload loads the configuration document again and swaps the active graph.
// A failed load keeps the previous graph untouched.
func (d *Daemon) Reload(ctx context.Context) error {
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()

	cfg, triggers, err := d.loadConfiguration()
	if err != nil {
		d.recorder.IncConfigReload(metrics.ReloadRejected)
		d.journalEvent(ctx, "", eventstore.TypeConfigRejected, map[string]string{
			"error": err.Error(),
		}, nil)
		return err
	}

	d.install(cfg, triggers)
	d.recorder.IncConfigReload(metrics.ReloadApplied)
	d.journalEvent(ctx, "", eventstore.TypeConfigReloaded, map[string]int{
		"projects": len(cfg.Projects),
	}, nil)

	d.log.Info("configuration reloaded",
		logfields.Path(d.settings.ConfigPath),
		slog.Int("projects", len(cfg.Projects)))
	return nil
}

func (d *Daemon) reloadFromWatcher(ctx context.Context) {
	if err := d.Reload(ctx); err != nil {
		d.log.Error("configuration reload rejected; keeping previous configuration",
			logfields.Path(d.settings.ConfigPath), logfields.Error(err))
	}
}

// loadConfiguration runs the full pipeline and instantiates triggers for the
// resulting graph.
func (d *Daemon) loadConfiguration() (*project.Configuration, []trigger.Trigger, error) {
	d.subfileMu.Lock()
	d.subfiles = nil
	d.subfileMu.Unlock()

	start := time.Now()
	cfg, err := d.loader.Load(d.settings.ConfigPath)
	d.recorder.ObserveConfigLoadDuration(time.Since(start))
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	var triggers []trigger.Trigger
	for _, p := range cfg.Projects {
		ts, err := trigger.ForProject(p, d.fetcher, d.log, now)
		if err != nil {
			return nil, nil, err
		}
		triggers = append(triggers, ts...)
	}
	return cfg, triggers, nil
}

// install swaps the active graph and refreshes the watch set.
func (d *Daemon) install(cfg *project.Configuration, triggers []trigger.Trigger) {
	d.mu.Lock()
	d.config = cfg
	d.triggers = triggers
	d.mu.Unlock()

	d.subfileMu.Lock()
	subfiles := make([]string, len(d.subfiles))
	copy(subfiles, d.subfiles)
	d.subfileMu.Unlock()
	d.watcher.SetSubfiles(subfiles)
}

func (d *Daemon) recordSubfile(path string) {
	d.subfileMu.Lock()
	d.subfiles = append(d.subfiles, path)
	d.subfileMu.Unlock()
}

func (d *Daemon) journalEvent(ctx context.Context, projectName, eventType string, payload any, metadata map[string]string) {
	data, err := json.Marshal(payload)
	if err != nil {
		d.log.Error("failed to marshal journal payload", logfields.Error(err))
		return
	}
	if err := d.journal.Append(ctx, projectName, eventType, data, metadata); err != nil {
		d.log.Error("failed to append journal event",
			logfields.Project(projectName), logfields.Error(err))
	}
}

func (d *Daemon) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	d.metricsServer = &http.Server{
		Addr:              d.settings.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		d.log.Info("metrics server listening", slog.String("addr", d.settings.Metrics.Listen))
		if err := d.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.log.Error("metrics server failed", logfields.Error(err))
		}
	}()
}
