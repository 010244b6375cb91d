// Package publish announces fired integration requests on the message bus so
// external dashboards and downstream automation can react to them.
package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/buildcontrol/internal/logfields"
	"git.home.luguber.info/inful/buildcontrol/internal/retry"
	"git.home.luguber.info/inful/buildcontrol/internal/settings"
	"git.home.luguber.info/inful/buildcontrol/internal/trigger"
)

// Publisher announces integration requests. Implementations must tolerate
// being called from queue workers concurrently.
type Publisher interface {
	PublishRequest(req *trigger.IntegrationRequest) error
	Close() error
}

// NopPublisher discards requests; used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishRequest(*trigger.IntegrationRequest) error { return nil }
func (NopPublisher) Close() error                                     { return nil }

// NATSPublisher publishes integration requests as JSON on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
	policy  retry.Policy
}

// NewNATSPublisher connects to the configured NATS server.
func NewNATSPublisher(cfg settings.NATSSettings, log *slog.Logger) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("nats publishing is disabled")
	}
	if log == nil {
		log = slog.Default()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("buildcontrol"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	log.Info("nats publisher initialized",
		logfields.URL(cfg.URL), logfields.Subject(cfg.Subject))

	return &NATSPublisher{conn: conn, subject: cfg.Subject, log: log, policy: retry.DefaultPolicy()}, nil
}

// PublishRequest implements Publisher. Transient publish failures are retried
// with backoff; a request that still cannot be published is reported to the
// caller, who logs and moves on.
func (p *NATSPublisher) PublishRequest(req *trigger.IntegrationRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal integration request: %w", err)
	}

	var publishErr error
	for attempt := 0; attempt <= p.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(p.policy.Delay(attempt))
		}
		if publishErr = p.conn.Publish(p.subject, data); publishErr == nil {
			break
		}
	}
	if publishErr != nil {
		return fmt.Errorf("publish integration request: %w", publishErr)
	}

	p.log.Debug("published integration request",
		logfields.Project(req.Project),
		logfields.Trigger(req.Source),
		logfields.RequestID(req.ID))
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
			return err
		}
	}
	return nil
}

// FromSettings returns a Publisher matching the configuration: a NATS
// publisher when enabled, the nop publisher otherwise.
func FromSettings(cfg settings.NATSSettings, log *slog.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return NopPublisher{}, nil
	}
	return NewNATSPublisher(cfg, log)
}
