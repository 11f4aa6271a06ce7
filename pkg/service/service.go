package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/growatorchard/leadsync/pkg/observability"
	"github.com/growatorchard/leadsync/pkg/pipeline"
	"github.com/growatorchard/leadsync/pkg/schedule"
)

// Runner is the slice of the pipeline the watcher drives.
type Runner interface {
	RunOnce(ctx context.Context) (pipeline.Result, error)
}

// Service defines the public interface for the watcher loop.
type Service interface {
	// Start begins evaluating the schedule at the configured interval
	Start(ctx context.Context) error

	// Stop gracefully shuts down the watcher loop
	Stop() error
}

// service polls the clock and fires the pipeline when a check slot is due.
// The evaluation cadence is deliberately much finer than the slot spacing,
// so a slot is never missed by more than one tick.
type service struct {
	log      logrus.FieldLogger
	clock    *schedule.Clock
	runner   Runner
	interval time.Duration
	now      func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// NewService creates a watcher loop around a clock and a pipeline runner.
func NewService(log logrus.FieldLogger, clock *schedule.Clock, runner Runner, interval time.Duration) Service {
	return &service{
		log:      log.WithField("service", "watcher"),
		clock:    clock,
		runner:   runner,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start begins the evaluation loop.
func (s *service) Start(ctx context.Context) error {
	s.wg.Add(1)

	go s.tickLoop(ctx)

	s.log.WithField("interval", s.interval.String()).Info("Watcher service started")

	return nil
}

// Stop signals the loop to exit and waits for the in-flight evaluation.
func (s *service) Stop() error {
	s.log.Info("Stopping watcher service")

	close(s.done)
	s.wg.Wait()

	return nil
}

func (s *service) tickLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Evaluate immediately so a restart inside the check window catches up
	// without waiting a full tick.
	s.evaluate(ctx)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evaluate(ctx)
		}
	}
}

// evaluate runs one schedule decision and, when due, one pipeline pass.
func (s *service) evaluate(ctx context.Context) {
	now := s.now()

	due, err := s.clock.DueNow(ctx, now)
	if err != nil {
		observability.RecordScheduleEvaluation("error")
		s.log.WithError(err).Error("Schedule evaluation failed")

		return
	}

	if !due {
		observability.RecordScheduleEvaluation("not_due")

		return
	}

	observability.RecordScheduleEvaluation("due")

	started := s.now()

	res, err := s.runner.RunOnce(ctx)
	if err != nil {
		observability.RecordRun("scheduled", "error", started)
		s.log.WithError(err).Error("Scheduled pipeline run failed")

		return
	}

	observability.RecordRun("scheduled", "success", started)
	observability.RecordMessages(res.Committed, res.Skipped, res.Failed)

	if res.Committed > 0 {
		s.clock.MarkSatisfied(s.now())
		s.log.WithFields(logrus.Fields{
			"committed": res.Committed,
			"rows":      res.Rows,
		}).Info("Day satisfied; remaining slots suppressed")
	} else {
		s.log.WithFields(logrus.Fields{
			"matched": res.Matched,
			"skipped": res.Skipped,
			"failed":  res.Failed,
		}).Info("Run committed nothing; fallback slot stays armed")
	}
}

// parseTickInterval converts a schedule string to a duration.
// Supports @every format (e.g., "@every 30s", "@every 5m") and standard
// cron expressions, for which the steady-state interval is derived.
func parseTickInterval(spec string) (time.Duration, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	sched, err := parser.Parse(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid check interval: %w", err)
	}

	if len(spec) > 7 && spec[:6] == "@every" {
		duration, err := time.ParseDuration(spec[7:])
		if err != nil {
			return 0, fmt.Errorf("failed to parse @every duration: %w", err)
		}

		return duration, nil
	}

	now := time.Now()
	next1 := sched.Next(now)
	next2 := sched.Next(next1)

	return next2.Sub(next1), nil
}

// Verify interface compliance at compile time
var _ Service = (*service)(nil)
