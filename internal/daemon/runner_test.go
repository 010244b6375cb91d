package daemon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildcontrol/internal/project"
	"git.home.luguber.info/inful/buildcontrol/internal/trigger"
)

func runnerJob(tasks ...project.TaskSpec) *BuildJob {
	return &BuildJob{
		ID:      "job",
		Request: trigger.NewForcedRequest("website"),
		Tasks:   tasks,
	}
}

func TestTaskRunner_NoopSucceeds(t *testing.T) {
	r := NewTaskRunner(nil)
	require.NoError(t, r.Run(context.Background(), runnerJob(project.NoopTaskSpec{})))
}

func TestTaskRunner_ExecRunsCommand(t *testing.T) {
	r := NewTaskRunner(nil)
	job := runnerJob(project.ExecTaskSpec{Command: "true"})
	require.NoError(t, r.Run(context.Background(), job))
}

func TestTaskRunner_ExecFailureAbortsRemainingTasks(t *testing.T) {
	r := NewTaskRunner(nil)
	job := runnerJob(
		project.ExecTaskSpec{Command: "false"},
		project.NoopTaskSpec{},
	)
	err := r.Run(context.Background(), job)
	require.Error(t, err)
	require.Contains(t, err.Error(), "false")
}

func TestTaskRunner_ExecHonorsBaseDirectory(t *testing.T) {
	dir := t.TempDir()
	r := NewTaskRunner(nil)
	job := runnerJob(project.ExecTaskSpec{Command: "ls", BaseDirectory: dir})
	require.NoError(t, r.Run(context.Background(), job))
}

func TestTaskRunner_EmptyTaskListSucceeds(t *testing.T) {
	r := NewTaskRunner(nil)
	require.NoError(t, r.Run(context.Background(), runnerJob()))
}
