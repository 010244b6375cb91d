package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for the periodic trigger-evaluation tick.
type Scheduler struct {
	scheduler gocron.Scheduler
	log       *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(log *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{scheduler: s, log: log}, nil
}

// ScheduleEvaluation registers the evaluation tick at the given interval. The
// tick function receives the wall-clock time of the tick.
func (s *Scheduler) ScheduleEvaluation(interval time.Duration, tick func(now time.Time)) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { tick(time.Now()) }),
		gocron.WithName("trigger-evaluation"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create evaluation job: %w", err)
	}
	return nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.log.Info("stopping scheduler")
	return s.scheduler.Shutdown()
}
