package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicetrack-backend/pkg/db/models"
	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
)

// DomainEvent is one invoice lifecycle change waiting to be queued. EventID
// is optional; callers that can derive a stable id (record, revision,
// operation) set it so subscribers can drop redeliveries.
type DomainEvent struct {
	EventID       string
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	Data          any
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("invalid outbox event type %q", e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("invalid outbox aggregate type %q", e.AggregateType)
	case e.AggregateID == "":
		return errors.New("aggregate id required")
	}
	return nil
}

// Service queues invoice events in outbox_events.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit queues event inside tx so it is only published if tx commits. An
// empty AggregateType defaults to invoice.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if event.AggregateType == "" {
		event.AggregateType = enums.AggregateInvoice
	}
	if err := event.validate(); err != nil {
		return err
	}

	envelope, err := s.envelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("queue %s for %s: %w", event.EventType, event.AggregateID, err)
	}

	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":   envelope.EventID,
			"event_type": event.EventType,
			"record_id":  event.AggregateID,
		}), "invoice event queued")
	}
	return nil
}

func (s *Service) envelope(event DomainEvent) (PayloadEnvelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return PayloadEnvelope{}, fmt.Errorf("encode %s payload: %w", event.EventType, err)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}
	eventID := event.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	return PayloadEnvelope{
		Version:    EnvelopeVersion,
		EventID:    eventID,
		OccurredAt: occurredAt.UTC(),
		Data:       data,
	}, nil
}
