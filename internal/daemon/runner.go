package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
	"git.home.luguber.info/inful/buildcontrol/internal/logfields"
	"git.home.luguber.info/inful/buildcontrol/internal/project"
)

// Runner executes the tasks of a project when an integration request is
// processed. Implementations are called from queue workers concurrently.
type Runner interface {
	Run(ctx context.Context, job *BuildJob) error
}

// TaskRunner executes a project's configured tasks in document order. An exec
// task failure aborts the remaining tasks.
type TaskRunner struct {
	log *slog.Logger
}

// NewTaskRunner creates a runner logging to the given logger; nil uses
// slog.Default.
func NewTaskRunner(log *slog.Logger) *TaskRunner {
	if log == nil {
		log = slog.Default()
	}
	return &TaskRunner{log: log}
}

// Run implements Runner.
func (r *TaskRunner) Run(ctx context.Context, job *BuildJob) error {
	for i, task := range job.Tasks {
		if err := r.runTask(ctx, job, i, task); err != nil {
			return err
		}
	}
	return nil
}

func (r *TaskRunner) runTask(ctx context.Context, job *BuildJob, index int, task project.TaskSpec) error {
	switch t := task.(type) {
	case project.ExecTaskSpec:
		return r.runExec(ctx, job, t)
	case project.NoopTaskSpec:
		r.log.Debug("noop task",
			logfields.Project(job.Request.Project), logfields.JobID(job.ID))
		return nil
	default:
		return bcerrors.InternalError(fmt.Sprintf("no runner for task %T at index %d", task, index), nil).
			WithContext("project", job.Request.Project)
	}
}

func (r *TaskRunner) runExec(ctx context.Context, job *BuildJob, t project.ExecTaskSpec) error {
	var args []string
	if t.Args != "" {
		args = strings.Fields(t.Args)
	}

	cmd := exec.CommandContext(ctx, t.Command, args...)
	if t.BaseDirectory != "" {
		cmd.Dir = t.BaseDirectory
	}

	r.log.Info("running task",
		logfields.Project(job.Request.Project),
		logfields.JobID(job.ID),
		slog.String("command", t.Command))

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("task %q failed: %w: %s", t.Command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
