package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeSettings(t, "config_path: projects.xml\n")

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "projects.xml", s.ConfigPath)
	require.Equal(t, time.Second, s.PollInterval)
	require.Equal(t, 64, s.Queue.Size)
	require.Equal(t, 2, s.Queue.Workers)
	require.Equal(t, ":9190", s.Metrics.Listen)
	require.Equal(t, "buildcontrol.integration", s.NATS.Subject)
	require.Equal(t, "buildcontrol.db", s.Journal.Path)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("BC_SUBJECT", "ci.requests")
	path := writeSettings(t, "nats:\n  enabled: true\n  subject: ${BC_SUBJECT}\n")

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ci.requests", s.NATS.Subject)
}

func TestLoad_RejectsTinyPollInterval(t *testing.T) {
	path := writeSettings(t, "poll_interval: 10ms\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "poll_interval")
}

func TestLoad_RejectsMoreWorkersThanSlots(t *testing.T) {
	path := writeSettings(t, "queue:\n  size: 2\n  workers: 8\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
