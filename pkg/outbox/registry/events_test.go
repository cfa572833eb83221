package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/db/models"
	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
	"github.com/angelmondragon/invoicetrack-backend/pkg/outbox"
	"github.com/angelmondragon/invoicetrack-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	payloadBytes := mustMarshal(t, payloads.InvoiceLifecycleEvent{
		RecordID:  "INV-1",
		Operation: enums.InvoiceOperationFinanced,
		State:     enums.InvoiceStateFinanced,
		Revision:  3,
		TxnHash:   "h3",
	})

	event := models.OutboxEvent{
		EventType:     enums.EventInvoiceFinanced,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   "INV-1",
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "invoice-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	if resolved.Descriptor.EventType != enums.EventInvoiceFinanced {
		t.Fatalf("unexpected event type %s", resolved.Descriptor.EventType)
	}
	payload, ok := resolved.Payload.(*payloads.InvoiceLifecycleEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.RecordID != "INV-1" || payload.Revision != 3 || payload.Operation != enums.InvoiceOperationFinanced {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
	if resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing occurred_at")
	}
}

func TestEventRegistryCoversEveryOperation(t *testing.T) {
	reg := newTestEventRegistry(t)
	for _, op := range enums.InvoiceOperations() {
		eventType, err := enums.EventTypeForOperation(op)
		if err != nil {
			t.Fatalf("event type for %s: %v", op, err)
		}
		desc, ok := reg.entries[eventType]
		if !ok {
			t.Fatalf("expected %s to be registered", eventType)
		}
		if desc.Operation != op {
			t.Fatalf("descriptor for %s carries operation %s", eventType, desc.Operation)
		}
	}
}

func TestEventRegistryResolveRejectsMismatchedPayload(t *testing.T) {
	reg := newTestEventRegistry(t)

	wrongRecord := models.OutboxEvent{
		EventType:     enums.EventInvoicePaid,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   "INV-1",
		Payload:       mustEnvelope(t, mustMarshal(t, payloads.InvoiceLifecycleEvent{RecordID: "INV-2", Operation: enums.InvoiceOperationPaid})),
	}
	requireNonRetryable(t, reg, wrongRecord)

	wrongOperation := models.OutboxEvent{
		EventType:     enums.EventInvoicePaid,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   "INV-1",
		Payload:       mustEnvelope(t, mustMarshal(t, payloads.InvoiceLifecycleEvent{RecordID: "INV-1", Operation: enums.InvoiceOperationVoided})),
	}
	requireNonRetryable(t, reg, wrongOperation)
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatal("expected missing topic to fail")
	}
}

func TestEventRegistryResolveUnknownEvent(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.OutboxEventType("invoice_archived"),
		AggregateType: enums.AggregateInvoice,
		AggregateID:   "INV-1",
		Payload:       mustEnvelope(t, []byte(`{"record_id":"INV-1"}`)),
	}

	requireNonRetryable(t, reg, event)
}

func TestEventRegistryResolveAggregateMismatch(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventInvoiceCreated,
		AggregateType: enums.OutboxAggregateType("vendor"),
		AggregateID:   "INV-1",
		Payload:       mustEnvelope(t, []byte(`{"record_id":"INV-1"}`)),
	}

	requireNonRetryable(t, reg, event)
}

func TestEventRegistryResolveMissingAggregateID(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventInvoiceCreated,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   " ",
		Payload:       mustEnvelope(t, []byte(`{}`)),
	}

	requireNonRetryable(t, reg, event)
}

func TestEventRegistryResolveNullPayload(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventInvoiceCreated,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   "INV-1",
		Payload:       mustEnvelope(t, []byte("null")),
	}

	requireNonRetryable(t, reg, event)
}

func requireNonRetryable(t *testing.T, reg *EventRegistry, event models.OutboxEvent) {
	t.Helper()
	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %T", err)
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{InvoiceTopic: "invoice-topic"})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}
