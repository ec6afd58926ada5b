package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/hirfahq/hirfa-backend/pkg/logger"
	"github.com/hirfahq/hirfa-backend/pkg/metrics"
)

const (
	defaultTick  = time.Minute
	defaultEvery = 24 * time.Hour
)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Metrics  *metrics.CronJobMetrics
	Tick     time.Duration
	Now      func() time.Time
}

// Service executes registered entries, each on its own cadence. The loop
// wakes every tick and runs whichever jobs are due, sequentially and in
// registration order, so escrow releases can run every few minutes while
// reconciliation sweeps run daily.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	metrics  *metrics.CronJobMetrics
	tick     time.Duration
	now      func() time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	tick := params.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		metrics:  params.Metrics,
		tick:     tick,
		now:      now,
	}, nil
}

// Run starts the scheduling loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	next := make(map[string]time.Time)
	s.runDue(ctx, next)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx, next)
		}
	}
}

// runDue executes every entry whose next-run time has passed and schedules
// its following run. An entry whose lock is held elsewhere still waits a full
// interval before the next attempt.
func (s *Service) runDue(ctx context.Context, next map[string]time.Time) {
	now := s.now()
	for _, entry := range s.registry.Entries() {
		name := entry.Job.Name()
		if due, ok := next[name]; ok && now.Before(due) {
			continue
		}
		s.runEntry(ctx, entry)
		every := entry.Every
		if every <= 0 {
			every = defaultEvery
		}
		next[name] = now.Add(every)
	}
}

func (s *Service) runEntry(ctx context.Context, entry Entry) {
	if entry.Lock != nil {
		locked, err := entry.Lock.Acquire(ctx)
		if err != nil {
			s.logg.Error(s.logg.WithJobName(ctx, entry.Job.Name()), "lock acquire failed", err)
			return
		}
		if !locked {
			s.logg.Info(s.logg.WithJobName(ctx, entry.Job.Name()), "another worker holds the job lock; skipping")
			return
		}
		defer func() {
			if relErr := entry.Lock.Release(ctx); relErr != nil {
				s.logg.Error(s.logg.WithJobName(ctx, entry.Job.Name()), "failed to release job lock", relErr)
			}
		}()
	}
	s.runJob(ctx, entry.Job)
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithJobName(ctx, job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.observeDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.recordFailure(job.Name())
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.recordSuccess(job.Name())
}

func (s *Service) observeDuration(job string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(job, duration)
}

func (s *Service) recordSuccess(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(job)
}

func (s *Service) recordFailure(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(job)
}
