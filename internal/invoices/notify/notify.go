package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/invoicetrack-backend/internal/invoices"
	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/angelmondragon/invoicetrack-backend/pkg/outbox"
	"github.com/angelmondragon/invoicetrack-backend/pkg/outbox/payloads"
	redisclient "github.com/angelmondragon/invoicetrack-backend/pkg/redis"
)

// Payload is the wire form of a lifecycle event shared by every channel.
func Payload(event invoices.Event) payloads.InvoiceLifecycleEvent {
	return payloads.InvoiceLifecycleEvent{
		RecordID:        event.RecordID,
		Operation:       event.Operation,
		State:           event.Invoice.State(),
		Revision:        event.Revision,
		Action:          event.Invoice.Action,
		TxnHash:         event.TxnHash,
		PreviousTxnHash: event.Invoice.PreviousTxnHash,
		VendorID:        event.Invoice.VendorID,
		OccurredAt:      event.OccurredAt,
	}
}

// EventID is stable for one accepted mutation: the record, the revision it
// produced and the operation. Redelivered copies share it.
func EventID(event invoices.Event) string {
	return fmt.Sprintf("%s:%d:%s", event.RecordID, event.Revision, event.Operation)
}

// LogNotifier writes each event to the structured log.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) (*LogNotifier, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &LogNotifier{logg: logg}, nil
}

func (n *LogNotifier) Notify(ctx context.Context, event invoices.Event) error {
	ctx = n.logg.WithFields(ctx, map[string]any{
		"event":     string(event.Operation),
		"record_id": event.RecordID,
		"revision":  event.Revision,
		"txn_hash":  event.TxnHash,
	})
	n.logg.Info(ctx, "invoice event")
	return nil
}

// RedisNotifier publishes each event as JSON on a pub/sub channel.
type RedisNotifier struct {
	publisher redisclient.Publisher
	channel   string
}

func NewRedisNotifier(publisher redisclient.Publisher, channel string) (*RedisNotifier, error) {
	if publisher == nil {
		return nil, errors.New("redis publisher required")
	}
	if channel == "" {
		return nil, errors.New("redis channel required")
	}
	return &RedisNotifier{publisher: publisher, channel: channel}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, event invoices.Event) error {
	body, err := json.Marshal(Payload(event))
	if err != nil {
		return fmt.Errorf("encode invoice event: %w", err)
	}
	return n.publisher.Publish(ctx, n.channel, body)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OutboxNotifier queues events in outbox_events for the outbox publisher to
// relay to Pub/Sub.
type OutboxNotifier struct {
	db     txRunner
	outbox *outbox.Service
}

func NewOutboxNotifier(db txRunner, svc *outbox.Service) (*OutboxNotifier, error) {
	if db == nil {
		return nil, errors.New("database client required")
	}
	if svc == nil {
		return nil, errors.New("outbox service required")
	}
	return &OutboxNotifier{db: db, outbox: svc}, nil
}

func (n *OutboxNotifier) Notify(ctx context.Context, event invoices.Event) error {
	eventType, err := enums.EventTypeForOperation(event.Operation)
	if err != nil {
		return err
	}
	return n.db.WithTx(ctx, func(tx *gorm.DB) error {
		return n.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventID:       EventID(event),
			EventType:     eventType,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   event.RecordID,
			Data:          Payload(event),
			OccurredAt:    event.OccurredAt,
		})
	})
}

// Multi fans an event out to several notifiers and joins their errors.
type Multi []invoices.Notifier

func (m Multi) Notify(ctx context.Context, event invoices.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
