// Package scheduler runs delayed and periodic work: the debounced autosave
// and the nightly report.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const reportTimeout = 2 * time.Minute

// Reporter produces the nightly report and mirrors the snapshot.
type Reporter interface {
	DailySummary(ctx context.Context) (string, error)
	PublishLatest(ctx context.Context) (int, error)
}

// Notifier delivers report text.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Options configures the nightly job. A nil Notifier skips the message and
// Publish false skips the sheet.
type Options struct {
	Schedule string
	Location *time.Location
	Notifier Notifier
	Publish  bool
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reporter Reporter
	opts     Options
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(reporter Reporter, opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	// Standard 5 field cron expressions, evaluated in the farm's timezone.
	c := cron.New(cron.WithLocation(opts.Location))

	return &Scheduler{
		cron:     c,
		reporter: reporter,
		opts:     opts,
		logger:   logger,
	}
}

// Enabled reports whether the nightly job has anything to do.
func (s *Scheduler) Enabled() bool {
	return s.opts.Notifier != nil || s.opts.Publish
}

// Start schedules the nightly job and starts the scheduler.
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		s.logger.Info("no report integrations configured, scheduler idle")
		return nil
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.opts.Schedule))
	if _, err := s.cron.AddFunc(s.opts.Schedule, s.runNightly); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runNightly() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := s.RunDailyReport(ctx); err != nil {
		s.logger.Error("daily report failed", zap.Error(err))
		return
	}
	s.logger.Info("daily report completed")
}

// RunDailyReport sends the summary and publishes the sheet concurrently. Both
// run to completion and every failure is reported.
func (s *Scheduler) RunDailyReport(ctx context.Context) error {
	var g errgroup.Group
	errs := make([]error, 2)

	if s.opts.Notifier != nil {
		g.Go(func() error {
			text, err := s.reporter.DailySummary(ctx)
			if err != nil {
				errs[0] = fmt.Errorf("build daily summary: %w", err)
				return nil
			}
			if err := s.opts.Notifier.Notify(ctx, text); err != nil {
				errs[0] = fmt.Errorf("send daily summary: %w", err)
			}
			return nil
		})
	}
	if s.opts.Publish {
		g.Go(func() error {
			n, err := s.reporter.PublishLatest(ctx)
			if err != nil {
				errs[1] = fmt.Errorf("publish snapshot: %w", err)
				return nil
			}
			s.logger.Info("snapshot published", zap.Int("rows", n))
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}
