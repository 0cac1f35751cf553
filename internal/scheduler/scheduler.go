package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/service"
)

// Job is the daily batch the scheduler triggers
type Job interface {
	RunScheduled(ctx context.Context) (*service.RunSummary, error)
}

// Options configures the daily trigger
type Options struct {
	Hour     int
	Window   time.Duration
	Location *time.Location
	Now      func() time.Time
}

// Scheduler runs the job once per day inside the window starting at Hour
type Scheduler struct {
	job    Job
	guard  RunGuard
	logger *zap.Logger

	hour   int
	window time.Duration
	loc    *time.Location
	now    func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	ctx     context.Context
	stopped bool
	wg      sync.WaitGroup
}

// New creates a scheduler; it does nothing until Start
func New(job Job, guard RunGuard, logger *zap.Logger, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Window <= 0 {
		opts.Window = 15 * time.Minute
	}
	return &Scheduler{
		job:    job,
		guard:  guard,
		logger: logger,
		hour:   opts.Hour,
		window: opts.Window,
		loc:    opts.Location,
		now:    opts.Now,
		cron:   cron.NewWithLocation(opts.Location),
	}
}

// InWindow reports whether t falls in [hour:00, hour:00+window) of its own day
func InWindow(t time.Time, hour int, window time.Duration) bool {
	start := time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
	return !t.Before(start) && t.Before(start.Add(window))
}

// Start registers the daily trigger and launches a catch-up tick in the
// background in case the process starts inside today's window. It does not
// wait for the catch-up batch.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	spec := fmt.Sprintf("0 0 %d * * *", s.hour)
	if err := s.cron.AddFunc(spec, s.fire); err != nil {
		return fmt.Errorf("failed to register daily trigger %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("spec", spec),
		zap.String("timezone", s.loc.String()),
		zap.Duration("window", s.window),
	)

	ctx, ok := s.begin()
	if ok {
		go func() {
			defer s.wg.Done()
			s.tick(ctx)
		}()
	}
	return nil
}

// Stop halts the trigger and waits for a running batch to finish. No batch
// starts after Stop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cron.Stop()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// begin registers a batch with the wait group unless the scheduler is stopped.
// Add happens under mu so it never races with the Wait in Stop.
func (s *Scheduler) begin() (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, false
	}
	s.wg.Add(1)
	if s.ctx == nil {
		return context.Background(), true
	}
	return s.ctx, true
}

// fire is the cron callback
func (s *Scheduler) fire() {
	ctx, ok := s.begin()
	if !ok {
		return
	}
	defer s.wg.Done()
	s.tick(ctx)
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Tick(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
	}
}

// Tick runs the job if now is inside the window and today has not been
// claimed yet. It reports whether the job ran.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	now := s.now().In(s.loc)
	if !InWindow(now, s.hour, s.window) {
		s.logger.Debug("outside scheduled window", zap.Time("now", now))
		return false, nil
	}

	day := now.Format("2006-01-02")
	acquired, err := s.guard.TryAcquire(ctx, day)
	if err != nil {
		return false, fmt.Errorf("failed to claim scheduled run for %s: %w", day, err)
	}
	if !acquired {
		s.logger.Info("scheduled run already done today", zap.String("day", day))
		return false, nil
	}

	summary, err := s.job.RunScheduled(ctx)
	if err != nil {
		return true, err
	}
	s.logger.Info("scheduled run finished",
		zap.String("day", day),
		zap.Int("saved", summary.Saved),
		zap.Bool("backed_up", summary.BackedUp),
	)
	return true, nil
}
