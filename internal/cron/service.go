package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
)

const defaultTick = time.Hour

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	// Interval is the tick between scheduling passes. Jobs with their own
	// period are skipped on ticks where they are not yet due.
	Interval time.Duration
}

// Service runs the marketplace maintenance jobs under a cluster-wide lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	tick     time.Duration
	now      func() time.Time

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	}

	registry := params.Registry
	if registry == nil {
		registry, _ = NewRegistry()
	}
	tick := params.Interval
	if tick <= 0 {
		tick = defaultTick
	}

	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		tick:     tick,
		now:      time.Now,
		lastRun:  map[string]time.Time{},
	}, nil
}

// Run schedules jobs until ctx is canceled. The first pass runs immediately.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		if err := s.runDue(ctx); err != nil {
			s.logg.Error(ctx, "cron pass failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes every registered job regardless of schedule and returns
// the combined job errors.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runJobs(ctx, s.registry.Jobs())
}

func (s *Service) runDue(ctx context.Context) error {
	due := s.dueJobs()
	if len(due) == 0 {
		return nil
	}
	err := s.runJobs(ctx, due)
	// per-job failures are already logged and counted
	var lockErr lockError
	if errors.As(err, &lockErr) {
		return err
	}
	return nil
}

func (s *Service) dueJobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var due []Job
	for _, job := range s.registry.Jobs() {
		last, ran := s.lastRun[job.Name()]
		if !ran || now.Sub(last) >= jobPeriod(job) {
			due = append(due, job)
		}
	}
	return due
}

type lockError struct{ err error }

func (e lockError) Error() string { return fmt.Sprintf("cron lock: %v", e.err) }
func (e lockError) Unwrap() error { return e.err }

func (s *Service) runJobs(ctx context.Context, jobs []Job) error {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return lockError{err: err}
	}
	if !acquired {
		s.logg.Info(ctx, "cron lock held by another worker, skipping pass")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "cron lock release failed", err)
		}
	}()

	var errs error
	for _, job := range jobs {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		errs = multierr.Append(errs, s.execute(ctx, job))
	}
	return errs
}

func (s *Service) execute(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})

	started, clock := s.now(), time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(clock)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	s.metrics.Record(name, elapsed, err)
	if err != nil {
		s.logg.Error(jobCtx, "cron job failed", err)
		return fmt.Errorf("%s: %w", name, err)
	}

	// failed jobs stay due and retry on the next tick
	s.mu.Lock()
	s.lastRun[name] = started
	s.mu.Unlock()

	s.logg.Info(jobCtx, "cron job completed")
	return nil
}
