package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/angelmondragon/invoicetrack-backend/pkg/metrics"
)

const (
	defaultInterval = time.Hour
	// lockReleaseTimeout bounds the release call issued after ctx is done.
	lockReleaseTimeout = 5 * time.Second
)

// ServiceParams configure the maintenance service. JobTimeout defaults to
// the interval so one slow job cannot overlap the next cycle.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.MaintenanceMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs invoice maintenance jobs on a fixed cadence. Only the replica
// holding the lock runs a cycle.
type Service struct {
	logg       *logger.Logger
	jobs       *Registry
	lock       Lock
	metrics    *metrics.MaintenanceMetrics
	interval   time.Duration
	jobTimeout time.Duration
	now        func() time.Time
}

// cycleReport summarises one maintenance cycle for the completion log line.
type cycleReport struct {
	skipped bool
	ran     int
	failed  []string
	elapsed time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Lock == nil:
		return nil, fmt.Errorf("lock required")
	}
	svc := &Service{
		logg:       params.Logger,
		jobs:       params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
		now:        time.Now,
	}
	if svc.jobs == nil {
		svc.jobs = NewRegistry()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.jobTimeout <= 0 || svc.jobTimeout > svc.interval {
		svc.jobTimeout = svc.interval
	}
	return svc, nil
}

// Run executes one cycle immediately, then one per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"interval_s": int64(s.interval.Seconds()),
		"jobs":       s.jobs.Names(),
	})
	s.logg.Info(ctx, "maintenance service started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "maintenance cycle failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "maintenance service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire maintenance lock: %w", err)
	}
	if !acquired {
		s.logCycle(ctx, cycleReport{skipped: true})
		return nil
	}
	defer s.releaseLock(ctx)

	started := s.now()
	report := cycleReport{}
	for _, job := range s.jobs.Jobs() {
		report.ran++
		if err := s.runJob(ctx, job); err != nil {
			report.failed = append(report.failed, job.Name())
		}
	}
	report.elapsed = s.now().Sub(started)
	s.logCycle(ctx, report)
	return nil
}

// runJob isolates one job under its own deadline. A failing job never stops
// the rest of the cycle.
func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	jobCtx = s.logg.WithField(jobCtx, "job", job.Name())

	started := s.now()
	err := job.Run(jobCtx)
	elapsed := s.now().Sub(started)
	s.metrics.ObserveRun(job.Name(), elapsed, err)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "maintenance job failed", err)
		return err
	}
	s.logg.Debug(jobCtx, "maintenance job finished")
	return nil
}

// releaseLock runs on a detached context so a shutdown mid-cycle still hands
// the lease back instead of waiting for it to expire.
func (s *Service) releaseLock(ctx context.Context) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()
	if err := s.lock.Release(releaseCtx); err != nil {
		s.logg.Error(ctx, "release maintenance lock", err)
	}
}

func (s *Service) logCycle(ctx context.Context, report cycleReport) {
	if report.skipped {
		s.logg.Debug(ctx, "maintenance lock held by another replica")
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"jobs_run":    report.ran,
		"jobs_failed": len(report.failed),
		"duration_ms": report.elapsed.Milliseconds(),
	})
	if len(report.failed) > 0 {
		ctx = s.logg.WithField(ctx, "failed_jobs", report.failed)
		s.logg.Warn(ctx, "maintenance cycle finished with failures")
		return
	}
	s.logg.Info(ctx, "maintenance cycle finished")
}
