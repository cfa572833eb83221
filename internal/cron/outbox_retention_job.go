package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/angelmondragon/invoicetrack-backend/pkg/metrics"
	"gorm.io/gorm"
)

const (
	outboxRetentionJobName = "outbox-retention"
	outboxRetentionDays    = 30
	dlqRetentionDays       = 90
	outboxMinAttempts      = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type dlqRetentionRepo interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configure the invoice event cleanup. MinAttempts
// should match the publisher's max attempts so only abandoned rows go.
// DeadLetters is optional; without it dead-lettered events are kept forever.
type OutboxRetentionJobParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Repository   outboxRetentionRepo
	DeadLetters  dlqRetentionRepo
	Metrics      *metrics.MaintenanceMetrics
	Retention    time.Duration
	DLQRetention time.Duration
	MinAttempts  int
}

// outboxRetentionJob trims delivered invoice events and aged dead letters.
// Invoice records and their history are never touched.
type outboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	events      outboxRetentionRepo
	deadLetters dlqRetentionRepo
	metrics     *metrics.MaintenanceMetrics
	keepEvents  time.Duration
	keepDLQ     time.Duration
	minAttempts int
	now         func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Repository == nil:
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		events:      params.Repository,
		deadLetters: params.DeadLetters,
		metrics:     params.Metrics,
		keepEvents:  params.Retention,
		keepDLQ:     params.DLQRetention,
		minAttempts: params.MinAttempts,
		now:         time.Now,
	}
	if job.keepEvents <= 0 {
		job.keepEvents = outboxRetentionDays * 24 * time.Hour
	}
	if job.keepDLQ <= 0 {
		job.keepDLQ = dlqRetentionDays * 24 * time.Hour
	}
	if job.minAttempts <= 0 {
		job.minAttempts = outboxMinAttempts
	}
	return job, nil
}

func (j *outboxRetentionJob) Name() string { return outboxRetentionJobName }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	eventCutoff := now.Add(-j.keepEvents)
	dlqCutoff := now.Add(-j.keepDLQ)

	var events, deadLetters int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if events, err = j.events.DeletePublishedBefore(ctx, tx, eventCutoff, j.minAttempts); err != nil {
			return fmt.Errorf("outbox events: %w", err)
		}
		if j.deadLetters == nil {
			return nil
		}
		if deadLetters, err = j.deadLetters.DeleteFailedBefore(ctx, tx, dlqCutoff); err != nil {
			return fmt.Errorf("dead letters: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}

	j.metrics.AddRowsDeleted(j.Name(), events+deadLetters)
	ctx = j.logg.WithFields(ctx, map[string]any{
		"event_cutoff":     eventCutoff,
		"min_attempts":     j.minAttempts,
		"events_deleted":   events,
		"dlq_rows_deleted": deadLetters,
	})
	j.logg.Info(ctx, "outbox retention pass done")
	return nil
}
