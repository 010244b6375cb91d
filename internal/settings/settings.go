// Package settings loads the server's own runtime settings. These are
// operator-facing knobs (listen addresses, queue sizing, journal location) and
// are deliberately separate from the project configuration document the server
// watches and reloads.
package settings

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings represents the server runtime settings.
type Settings struct {
	// ConfigPath is the project configuration document to load and watch.
	ConfigPath string `yaml:"config_path"`

	// PollInterval is the scheduler tick driving trigger evaluation.
	PollInterval time.Duration `yaml:"poll_interval"`

	Queue   QueueSettings   `yaml:"queue"`
	Metrics MetricsSettings `yaml:"metrics"`
	NATS    NATSSettings    `yaml:"nats"`
	Journal JournalSettings `yaml:"journal"`
}

// QueueSettings sizes the build queue and its worker pool.
type QueueSettings struct {
	Size    int `yaml:"size"`
	Workers int `yaml:"workers"`
}

// MetricsSettings controls the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// NATSSettings controls publication of fired integration requests.
type NATSSettings struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// JournalSettings locates the operational journal database.
type JournalSettings struct {
	Path string `yaml:"path"`
}

// Default returns settings with all defaults applied.
func Default() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

// Load reads settings from a YAML file. A .env file next to the working
// directory is loaded first so ${VAR} references in the YAML can resolve.
// Existing process environment is never overwritten.
func Load(path string) (*Settings, error) {
	// Best effort; a missing .env is the common case.
	_ = godotenv.Load(".env", ".env.local")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var s Settings
	if err := yaml.Unmarshal([]byte(expanded), &s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) applyDefaults() {
	if s.ConfigPath == "" {
		s.ConfigPath = "buildcontrol.xml"
	}
	if s.PollInterval <= 0 {
		s.PollInterval = time.Second
	}
	if s.Queue.Size <= 0 {
		s.Queue.Size = 64
	}
	if s.Queue.Workers <= 0 {
		s.Queue.Workers = 2
	}
	if s.Metrics.Listen == "" {
		s.Metrics.Listen = ":9190"
	}
	if s.NATS.URL == "" {
		s.NATS.URL = "nats://127.0.0.1:4222"
	}
	if s.NATS.Subject == "" {
		s.NATS.Subject = "buildcontrol.integration"
	}
	if s.Journal.Path == "" {
		s.Journal.Path = "buildcontrol.db"
	}
}

// Validate checks the settings for operator mistakes defaults cannot absorb.
func (s *Settings) Validate() error {
	if s.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("poll_interval %s is below the 100ms floor", s.PollInterval)
	}
	if s.Queue.Workers > s.Queue.Size {
		return fmt.Errorf("queue.workers (%d) exceeds queue.size (%d)", s.Queue.Workers, s.Queue.Size)
	}
	if s.NATS.Enabled && s.NATS.Subject == "" {
		return fmt.Errorf("nats.subject must be set when nats is enabled")
	}
	return nil
}
