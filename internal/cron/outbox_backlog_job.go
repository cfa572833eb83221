package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
)

const outboxBacklogJobName = "outbox-backlog"

type pendingCounter interface {
	CountPending() (int64, error)
}

type deadLetterCounter interface {
	CountByReason(ctx context.Context) (map[enums.OutboxDLQErrorReason]int64, error)
}

// NewOutboxBacklogJob warns when more than threshold invoice events are
// waiting for the publisher. dlq is optional; when set, dead-lettered totals
// are attached to the log line.
func NewOutboxBacklogJob(logg *logger.Logger, repo pendingCounter, dlq deadLetterCounter, threshold int64) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return &outboxBacklogJob{logg: logg, repo: repo, dlq: dlq, threshold: threshold}, nil
}

type outboxBacklogJob struct {
	logg      *logger.Logger
	repo      pendingCounter
	dlq       deadLetterCounter
	threshold int64
}

func (j *outboxBacklogJob) Name() string { return outboxBacklogJobName }

func (j *outboxBacklogJob) Run(ctx context.Context) error {
	pending, err := j.repo.CountPending()
	if err != nil {
		return fmt.Errorf("count pending outbox rows: %w", err)
	}
	fields := map[string]any{
		"pending":   pending,
		"threshold": j.threshold,
	}
	if j.dlq != nil {
		counts, err := j.dlq.CountByReason(ctx)
		if err != nil {
			return fmt.Errorf("count dead-lettered outbox rows: %w", err)
		}
		for reason, total := range counts {
			fields["dead_lettered_"+string(reason)] = total
		}
	}
	logCtx := j.logg.WithFields(ctx, fields)
	if j.threshold > 0 && pending > j.threshold {
		j.logg.Warn(logCtx, "outbox backlog above threshold")
		return nil
	}
	j.logg.Debug(logCtx, "outbox backlog within threshold")
	return nil
}
