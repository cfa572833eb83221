package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/db/models"
	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
	"github.com/angelmondragon/invoicetrack-backend/pkg/outbox"
	"github.com/angelmondragon/invoicetrack-backend/pkg/outbox/payloads"
)

// EventDescriptor routes one invoice event type to its topic.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	Operation     enums.InvoiceOperation
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// ResolvedEvent is an outbox row decoded and checked against its descriptor.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry knows every invoice lifecycle event the publisher may relay.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks rows that will fail the same way on every attempt;
// the publisher dead-letters them immediately.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func nonRetryable(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

// NewEventRegistry registers one descriptor per invoice operation, all routed
// to the invoice topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topic := strings.TrimSpace(cfg.InvoiceTopic)
	if topic == "" {
		return nil, fmt.Errorf("invoice topic is required")
	}
	reg := &EventRegistry{entries: map[enums.OutboxEventType]EventDescriptor{}}
	for _, op := range enums.InvoiceOperations() {
		eventType, err := enums.EventTypeForOperation(op)
		if err != nil {
			return nil, err
		}
		reg.entries[eventType] = EventDescriptor{
			EventType:     eventType,
			Operation:     op,
			AggregateType: enums.AggregateInvoice,
			Topic:         topic,
		}
	}
	return reg, nil
}

// Resolve decodes the row's envelope and lifecycle payload. The payload must
// name the same record as aggregate_id and the operation its event type
// stands for.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, nonRetryable("unsupported event type %s", event.EventType)
	}
	if desc.AggregateType != event.AggregateType {
		return nil, nonRetryable("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	}
	recordID := strings.TrimSpace(event.AggregateID)
	if recordID == "" {
		return nil, nonRetryable("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nonRetryable("payload missing for %s", event.EventType)
	}

	var payload payloads.InvoiceLifecycleEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nonRetryable("decode %s payload: %w", event.EventType, err)
	}
	if payload.RecordID != "" && payload.RecordID != recordID {
		return nil, nonRetryable("payload record %s does not match aggregate %s", payload.RecordID, recordID)
	}
	if payload.Operation != "" && payload.Operation != desc.Operation {
		return nil, nonRetryable("payload operation %s does not match event type %s", payload.Operation, event.EventType)
	}

	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: &payload}, nil
}
