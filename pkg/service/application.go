package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/growatorchard/leadsync/pkg/ledger"
	"github.com/growatorchard/leadsync/pkg/mail"
	"github.com/growatorchard/leadsync/pkg/observability"
	"github.com/growatorchard/leadsync/pkg/pipeline"
	"github.com/growatorchard/leadsync/pkg/schedule"
	"github.com/growatorchard/leadsync/pkg/storage"
	"github.com/growatorchard/leadsync/pkg/transform"
)

// ErrShutdownErrors is returned when errors occur during shutdown
var ErrShutdownErrors = errors.New("errors during shutdown")

// Application encapsulates the watcher application: configuration, component
// wiring, and lifecycle.
type Application struct {
	config *Config
	logger *logrus.Logger

	redisClient *redis.Client
	lock        *ledger.InstanceLock
	ledger      ledger.Ledger
	mailbox     mail.Client
	store       storage.Client
	pipeline    *pipeline.Pipeline
	clock       *schedule.Clock
	watcher     Service

	lockHeld bool
}

// NewApplication creates a new watcher application.
func NewApplication(cfg *Config, logger *logrus.Logger) *Application {
	return &Application{
		config: cfg,
		logger: logger,
	}
}

// Setup validates the configuration and wires every component, without
// acquiring the instance lock or starting the loop. One-shot commands use
// the application in this state.
func (a *Application) Setup(ctx context.Context) error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.redisClient = redis.NewClient(&redis.Options{Addr: a.config.Redis.Address})

	if err := a.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	a.lock = ledger.NewInstanceLock(a.logger, &a.config.Redis, a.redisClient)
	a.ledger = ledger.New(a.logger, &a.config.Redis, a.redisClient)

	mailbox, err := mail.NewGmailClient(a.logger, &a.config.Mail)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	a.mailbox = mailbox

	store, err := storage.NewGoogleClient(a.logger, &a.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	a.store = store

	transformer := transform.NewTransformer(a.logger, a.config.Pipeline.MaxRowsToProcess)

	namer, err := pipeline.NewNamer(&a.config.Pipeline)
	if err != nil {
		return fmt.Errorf("failed to build artifact namer: %w", err)
	}

	strategy := pipeline.NewCommitStrategy(a.logger, a.store, &a.config.Storage, transformer, namer, time.Now)

	a.pipeline = pipeline.New(a.logger, pipeline.Deps{
		Mail:        a.mailbox,
		Storage:     a.store,
		Ledger:      a.ledger,
		Transformer: transformer,
		Strategy:    strategy,
		Namer:       namer,
	}, a.config.Mail.Query(), a.config.Storage.DriveFolderID)

	clock, err := schedule.NewClock(a.logger, &a.config.Schedule, a.ledger)
	if err != nil {
		return fmt.Errorf("failed to build schedule clock: %w", err)
	}

	a.clock = clock

	a.logger.Info("Application components wired")

	return nil
}

// Start wires the application, acquires the single-instance lock, and starts
// the metrics server and the watcher loop.
func (a *Application) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}

	if err := a.acquireLock(ctx); err != nil {
		return err
	}

	observability.StartMetricsServer(a.config.MetricsAddr)

	interval, err := parseTickInterval(a.config.Schedule.CheckInterval)
	if err != nil {
		return err
	}

	a.watcher = NewService(a.logger, a.clock, a.pipeline, interval)

	if err := a.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	a.logger.Info("Watcher started successfully")

	return nil
}

// RunOnce acquires the instance lock if needed and executes one pipeline
// pass, regardless of the schedule. Call Setup first.
func (a *Application) RunOnce(ctx context.Context) (pipeline.Result, error) {
	if err := a.acquireLock(ctx); err != nil {
		return pipeline.Result{}, err
	}

	started := time.Now()

	res, err := a.pipeline.RunOnce(ctx)
	if err != nil {
		observability.RecordRun("manual", "error", started)

		return res, err
	}

	observability.RecordRun("manual", "success", started)
	observability.RecordMessages(res.Committed, res.Skipped, res.Failed)

	return res, nil
}

// ScheduleStatus reports the clock's view of the given instant. Call Setup
// first.
func (a *Application) ScheduleStatus(ctx context.Context, now time.Time) (schedule.Status, error) {
	return a.clock.Status(ctx, now)
}

// NextFire returns the next slot instant within the horizon. Call Setup
// first.
func (a *Application) NextFire(now time.Time, within time.Duration) (time.Time, bool) {
	return a.clock.NextFire(now, within)
}

// CheckAuth verifies credentials against both providers. Call Setup first.
func (a *Application) CheckAuth(ctx context.Context) error {
	if err := a.mailbox.CheckAuth(ctx); err != nil {
		return fmt.Errorf("mail auth check failed: %w", err)
	}

	if err := a.store.CheckAuth(ctx); err != nil {
		return fmt.Errorf("storage auth check failed: %w", err)
	}

	return nil
}

func (a *Application) acquireLock(ctx context.Context) error {
	if a.lockHeld {
		return nil
	}

	if err := a.lock.Acquire(ctx); err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}

	a.lockHeld = true

	return nil
}

// Stop gracefully shuts down the application: watcher loop first, then the
// lock, then the ledger's Redis connection.
func (a *Application) Stop() error {
	a.logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error

	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop watcher: %w", err))
		}
	}

	if a.lockHeld {
		if err := a.lock.Release(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to release instance lock: %w", err))
		}

		a.lockHeld = false
	}

	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close ledger: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrShutdownErrors, errs)
	}

	a.logger.Info("Shutdown complete")

	return nil
}
