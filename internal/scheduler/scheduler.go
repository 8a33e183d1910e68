// Package scheduler runs the daily notification job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/robfig/cron/v3"
)

// Job is the unit the scheduler triggers
type Job interface {
	Run(ctx context.Context) (*domain.JobSummary, error)
}

// Config holds scheduler configuration
type Config struct {
	Enabled  bool
	Schedule string // standard 5-field cron expression
	Location *time.Location
	// Timeout bounds a single run; zero means no limit
	Timeout time.Duration
}

// Scheduler owns a cron instance with a single notification entry.
// Overlapping ticks are skipped while a run is still in progress.
type Scheduler struct {
	cron     *cron.Cron
	job      Job
	config   Config
	mu       sync.Mutex
	ctx      context.Context
	started  bool
	stopped  chan struct{}
	stopOnce sync.Once
}

// New creates a Scheduler for job. Nothing runs until Start.
func New(cfg Config, job Job) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		job:     job,
		config:  cfg,
		ctx:     context.Background(),
		stopped: make(chan struct{}),
	}
}

// Start registers the job and starts the cron loop. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		log.Println("[Scheduler] Disabled by config")
		s.stopOnce.Do(func() { close(s.stopped) })
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() { _, _ = s.RunOnce() }); err != nil {
		return fmt.Errorf("invalid notification schedule %q: %w", s.config.Schedule, err)
	}

	s.ctx = ctx
	s.started = true
	s.cron.Start()
	log.Printf("[Scheduler] Started, notification job at %q", s.config.Schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunOnce executes the job immediately with the scheduler's context and timeout
func (s *Scheduler) RunOnce() (*domain.JobSummary, error) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	summary, err := s.job.Run(ctx)
	if err != nil {
		log.Printf("[Scheduler] Notification job failed: %v", err)
	}
	return summary, err
}

// Stop waits for a running job to finish and stops the cron loop. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		log.Println("[Scheduler] Stopping...")
		<-s.cron.Stop().Done()
		close(s.stopped)
		log.Println("[Scheduler] Stopped")
	})
}

// Done returns a channel that is closed when the scheduler has fully stopped
func (s *Scheduler) Done() <-chan struct{} {
	return s.stopped
}

// Next reports the next scheduled run, zero when not started
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
