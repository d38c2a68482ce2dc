package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appreport "github.com/erp/reportdispatch/internal/application/report"
	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Dispatcher runs one dispatch pass over every active schedule
type Dispatcher interface {
	RunDispatch(ctx context.Context, now time.Time) (*report.Summary, error)
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Spec is a standard five-field cron expression evaluated in UTC
	Spec string

	// RunTimeout bounds a whole dispatch run
	RunTimeout time.Duration
}

// DefaultCronTriggerConfig returns a trigger firing at the top of every hour
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Spec:       "0 * * * *",
		RunTimeout: 30 * time.Minute,
	}
}

// Validate checks the cron expression and timeout
func (c CronTriggerConfig) Validate() error {
	if c.RunTimeout <= 0 {
		return fmt.Errorf("%w: run timeout must be positive", ErrInvalidConfig)
	}
	if _, err := cron.ParseStandard(c.Spec); err != nil {
		return fmt.Errorf("%w: cron spec %q: %v", ErrInvalidConfig, c.Spec, err)
	}
	return nil
}

// CronTrigger fires the dispatcher on a cron schedule.
// A fire that overlaps a still running dispatch is skipped.
type CronTrigger struct {
	config     CronTriggerConfig
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	engine    *cron.Cron
	baseCtx   context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	isRunning bool
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, dispatcher Dispatcher, logger *zap.Logger) (*CronTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:     config,
		dispatcher: dispatcher,
		logger:     logger.Named("cron-trigger"),
		now:        time.Now,
	}, nil
}

// Start registers the dispatch job and starts the cron engine
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return ErrAlreadyRunning
	}

	engine := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := engine.AddFunc(c.config.Spec, c.Fire); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c.baseCtx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.engine = engine
	c.isRunning = true
	engine.Start()

	c.logger.Info("Cron trigger started",
		zap.String("spec", c.config.Spec),
		zap.Duration("run_timeout", c.config.RunTimeout),
	)
	return nil
}

// Stop stops the engine and waits for an in-flight dispatch or ctx, whichever ends first
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	engine, cancel := c.engine, c.cancel
	c.mu.Unlock()

	done := engine.Stop()
	select {
	case <-done.Done():
		cancel()
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		cancel()
		c.logger.Warn("Cron trigger stop timed out, cancelled in-flight dispatch")
		return ctx.Err()
	}
}

// IsRunning reports whether the engine is started
func (c *CronTrigger) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}

// NextFire returns the next time the job fires, or the zero time when stopped
func (c *CronTrigger) NextFire() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isRunning {
		return time.Time{}
	}
	entries := c.engine.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Fire runs a single dispatch under the run timeout
func (c *CronTrigger) Fire() {
	c.mu.Lock()
	base := c.baseCtx
	c.mu.Unlock()
	if base == nil {
		base = context.Background()
	}

	ctx, cancel := context.WithTimeout(base, c.config.RunTimeout)
	defer cancel()

	now := c.now()
	c.logger.Debug("Cron fired", zap.Time("now", now))

	summary, err := c.dispatcher.RunDispatch(ctx, now)
	switch {
	case errors.Is(err, appreport.ErrDispatchInProgress):
		c.logger.Warn("Skipping cron fire, dispatch already in progress")
	case err != nil:
		c.logger.Error("Scheduled dispatch failed", zap.Error(err))
	default:
		c.logger.Info("Scheduled dispatch completed",
			zap.Int("total_active", summary.TotalActive),
			zap.Int("sent", summary.SentCount),
			zap.Int("skipped", len(summary.Skipped)),
		)
	}
}
