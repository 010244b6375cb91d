package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/buildcontrol/internal/logfields"
	"git.home.luguber.info/inful/buildcontrol/internal/metrics"
	"git.home.luguber.info/inful/buildcontrol/internal/project"
	"git.home.luguber.info/inful/buildcontrol/internal/trigger"
)

// JobStatus represents the current status of a build job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// BuildJob carries one integration request through the queue, together with
// the tasks resolved at enqueue time so a configuration reload cannot change a
// job already in flight.
type BuildJob struct {
	ID          string                      `json:"id"`
	Request     *trigger.IntegrationRequest `json:"request"`
	Tasks       []project.TaskSpec          `json:"-"`
	Status      JobStatus                   `json:"status"`
	CreatedAt   time.Time                   `json:"created_at"`
	StartedAt   *time.Time                  `json:"started_at,omitempty"`
	CompletedAt *time.Time                  `json:"completed_at,omitempty"`
	Duration    time.Duration               `json:"duration,omitempty"`
	Error       string                      `json:"error,omitempty"`

	cancel context.CancelFunc
}

// BuildQueue is a bounded queue of integration requests processed by a fixed
// worker pool.
type BuildQueue struct {
	jobs        chan *BuildJob
	workers     int
	maxSize     int
	mu          sync.RWMutex
	active      map[string]*BuildJob
	history     []*BuildJob
	historySize int
	stopChan    chan struct{}
	wg          sync.WaitGroup

	runner     Runner
	recorder   metrics.Recorder
	log        *slog.Logger
	onComplete func(job *BuildJob)
}

// NewBuildQueue creates a queue with the specified capacity and worker count.
func NewBuildQueue(maxSize, workers int, runner Runner, log *slog.Logger) *BuildQueue {
	if maxSize <= 0 {
		maxSize = 64
	}
	if workers <= 0 {
		workers = 2
	}
	if runner == nil {
		runner = NewTaskRunner(log)
	}
	if log == nil {
		log = slog.Default()
	}

	return &BuildQueue{
		jobs:        make(chan *BuildJob, maxSize),
		workers:     workers,
		maxSize:     maxSize,
		active:      make(map[string]*BuildJob),
		history:     make([]*BuildJob, 0),
		historySize: 50,
		stopChan:    make(chan struct{}),
		runner:      runner,
		recorder:    metrics.NoopRecorder{},
		log:         log,
	}
}

// WithRecorder injects a metrics recorder. Must be called before Start.
func (bq *BuildQueue) WithRecorder(rec metrics.Recorder) *BuildQueue {
	if rec != nil {
		bq.recorder = rec
	}
	return bq
}

// OnComplete registers a callback invoked after each job finishes, whatever
// the outcome. Must be called before Start.
func (bq *BuildQueue) OnComplete(fn func(job *BuildJob)) { bq.onComplete = fn }

// Start begins processing jobs with the configured number of workers.
func (bq *BuildQueue) Start(ctx context.Context) {
	bq.log.Info("starting build queue",
		slog.Int("workers", bq.workers), slog.Int("max_size", bq.maxSize))

	for i := 0; i < bq.workers; i++ {
		bq.wg.Add(1)
		go bq.worker(ctx, fmt.Sprintf("worker-%d", i))
	}
}

// Stop gracefully shuts down the queue, cancelling active jobs.
func (bq *BuildQueue) Stop(ctx context.Context) {
	bq.log.Info("stopping build queue")

	close(bq.stopChan)

	bq.mu.Lock()
	for _, job := range bq.active {
		if job.cancel != nil {
			job.cancel()
		}
	}
	bq.mu.Unlock()

	bq.wg.Wait()
	bq.log.Info("build queue stopped")
}

// Enqueue adds a job built from a fired integration request.
func (bq *BuildQueue) Enqueue(job *BuildJob) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if job.Request == nil {
		return fmt.Errorf("job carries no integration request")
	}

	job.Status = JobStatusQueued

	select {
	case bq.jobs <- job:
		bq.recorder.SetQueueDepth(len(bq.jobs))
		bq.log.Info("build job enqueued",
			logfields.JobID(job.ID),
			logfields.Project(job.Request.Project),
			logfields.Trigger(job.Request.Source))
		return nil
	default:
		return fmt.Errorf("build queue is full")
	}
}

// Length returns the current queue length.
func (bq *BuildQueue) Length() int {
	return len(bq.jobs)
}

// ActiveJobs returns a copy of currently running jobs.
func (bq *BuildQueue) ActiveJobs() []*BuildJob {
	bq.mu.RLock()
	defer bq.mu.RUnlock()

	active := make([]*BuildJob, 0, len(bq.active))
	for _, job := range bq.active {
		active = append(active, job)
	}
	return active
}

// History returns recent completed jobs.
func (bq *BuildQueue) History() []*BuildJob {
	bq.mu.RLock()
	defer bq.mu.RUnlock()

	history := make([]*BuildJob, len(bq.history))
	copy(history, bq.history)
	return history
}

func (bq *BuildQueue) worker(ctx context.Context, workerID string) {
	defer bq.wg.Done()

	bq.log.Debug("build worker started", logfields.Worker(workerID))

	for {
		select {
		case <-ctx.Done():
			return
		case <-bq.stopChan:
			return
		case job := <-bq.jobs:
			if job != nil {
				bq.processJob(ctx, job, workerID)
			}
		}
	}
}

func (bq *BuildQueue) processJob(ctx context.Context, job *BuildJob, workerID string) {
	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel
	defer cancel()

	startTime := time.Now()
	job.StartedAt = &startTime
	job.Status = JobStatusRunning

	bq.mu.Lock()
	bq.active[job.ID] = job
	bq.mu.Unlock()
	bq.recorder.SetQueueDepth(len(bq.jobs))

	bq.log.Info("build job started",
		logfields.JobID(job.ID),
		logfields.Project(job.Request.Project),
		logfields.Worker(workerID))

	err := bq.runner.Run(jobCtx, job)

	endTime := time.Now()
	job.CompletedAt = &endTime
	job.Duration = endTime.Sub(*job.StartedAt)

	bq.mu.Lock()
	delete(bq.active, job.ID)
	bq.addToHistory(job)
	bq.mu.Unlock()

	bq.recorder.ObserveBuildDuration(job.Request.Project, job.Duration)
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
		bq.recorder.IncBuildOutcome(job.Request.Project, "failed")
		bq.log.Error("build job failed",
			logfields.JobID(job.ID),
			logfields.Project(job.Request.Project),
			logfields.DurationMS(float64(job.Duration.Milliseconds())),
			logfields.Error(err))
	} else {
		job.Status = JobStatusCompleted
		bq.recorder.IncBuildOutcome(job.Request.Project, "success")
		bq.log.Info("build job completed",
			logfields.JobID(job.ID),
			logfields.Project(job.Request.Project),
			logfields.DurationMS(float64(job.Duration.Milliseconds())))
	}

	if bq.onComplete != nil {
		bq.onComplete(job)
	}
}

// addToHistory appends a completed job, maintaining the size limit.
func (bq *BuildQueue) addToHistory(job *BuildJob) {
	bq.history = append(bq.history, job)
	if len(bq.history) > bq.historySize {
		copy(bq.history, bq.history[len(bq.history)-bq.historySize:])
		bq.history = bq.history[:bq.historySize]
	}
}
