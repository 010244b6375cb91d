package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildcontrol/internal/eventstore"
	"git.home.luguber.info/inful/buildcontrol/internal/publish"
	"git.home.luguber.info/inful/buildcontrol/internal/settings"
	"git.home.luguber.info/inful/buildcontrol/internal/trigger"
)

const daemonFixture = `<buildcontrol>
	<project name="website">
		<triggers>
			<intervalTrigger name="cadence" seconds="30"/>
		</triggers>
		<tasks>
			<noop/>
		</tasks>
	</project>
</buildcontrol>`

// stubDaemonFetcher keeps URL triggers quiet in daemon tests.
type stubDaemonFetcher struct{ modified time.Time }

func (s stubDaemonFetcher) LastModified(ctx context.Context, url string) (time.Time, error) {
	return s.modified, nil
}

func newTestDaemon(t *testing.T, fixture string) (*Daemon, string) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "buildcontrol.xml")
	require.NoError(t, os.WriteFile(configPath, []byte(fixture), 0o644))

	cfg := settings.Default()
	cfg.ConfigPath = configPath
	cfg.Metrics.Enabled = false

	d, err := New(cfg, nil,
		WithJournal(eventstore.NopStore{}),
		WithPublisher(publish.NopPublisher{}),
		WithFetcher(stubDaemonFetcher{}),
	)
	require.NoError(t, err)
	return d, configPath
}

func TestDaemon_ReloadInstallsGraph(t *testing.T) {
	d, _ := newTestDaemon(t, daemonFixture)

	require.NoError(t, d.Reload(context.Background()))
	cfg := d.Config()
	require.NotNil(t, cfg)
	require.Len(t, cfg.Projects, 1)
	require.Len(t, d.Triggers(), 1)
}

// A rejected reload keeps the previous graph in service.
func TestDaemon_FailedReloadKeepsPreviousGraph(t *testing.T) {
	d, configPath := newTestDaemon(t, daemonFixture)
	require.NoError(t, d.Reload(context.Background()))

	require.NoError(t, os.WriteFile(configPath, []byte(`<buildcontrol><project/></buildcontrol>`), 0o644))
	require.Error(t, d.Reload(context.Background()))

	cfg := d.Config()
	require.NotNil(t, cfg)
	require.NotNil(t, cfg.Project("website"))
}

func TestDaemon_EvaluateTriggersEnqueuesFiredRequests(t *testing.T) {
	d, _ := newTestDaemon(t, daemonFixture)
	require.NoError(t, d.Reload(context.Background()))

	// Workers are not started, so fired requests stay visible in the queue.
	d.EvaluateTriggers(context.Background(), time.Now().Add(31*time.Second))
	require.Equal(t, 1, d.Queue().Length())

	// Same change window: the trigger already advanced past it.
	d.EvaluateTriggers(context.Background(), time.Now().Add(32*time.Second))
	require.Equal(t, 1, d.Queue().Length())
}

func TestDaemon_ForceBuild(t *testing.T) {
	d, _ := newTestDaemon(t, daemonFixture)
	require.NoError(t, d.Reload(context.Background()))

	require.NoError(t, d.ForceBuild(context.Background(), "website"))
	require.Equal(t, 1, d.Queue().Length())
}

func TestDaemon_ForceBuildUnknownProject(t *testing.T) {
	d, _ := newTestDaemon(t, daemonFixture)
	require.NoError(t, d.Reload(context.Background()))

	require.Error(t, d.ForceBuild(context.Background(), "ghost"))
	require.Equal(t, 0, d.Queue().Length())
}

func TestDaemon_JournalsFiredTriggers(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	configPath := filepath.Join(t.TempDir(), "buildcontrol.xml")
	require.NoError(t, os.WriteFile(configPath, []byte(daemonFixture), 0o644))

	cfg := settings.Default()
	cfg.ConfigPath = configPath
	cfg.Metrics.Enabled = false

	d, err := New(cfg, nil,
		WithJournal(store),
		WithPublisher(publish.NopPublisher{}),
		WithFetcher(stubDaemonFetcher{}),
	)
	require.NoError(t, err)
	require.NoError(t, d.Reload(context.Background()))

	d.EvaluateTriggers(context.Background(), time.Now().Add(31*time.Second))

	events, err := store.GetByProject(context.Background(), "website")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, eventstore.TypeTriggerFired, events[0].Type())
	require.Equal(t, "cadence", events[0].Metadata()["trigger"])
}

func TestDaemon_BuildCompletedCommitsTriggerBaseline(t *testing.T) {
	d, _ := newTestDaemon(t, daemonFixture)
	require.NoError(t, d.Reload(context.Background()))

	job := &BuildJob{
		ID:      "job-1",
		Request: trigger.NewForcedRequest("website"),
		Status:  JobStatusCompleted,
	}
	require.NotPanics(t, func() { d.buildCompleted(job) })
}
