package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateInvoice OutboxAggregateType = "invoice"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateInvoice,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventInvoiceCreated          OutboxEventType = "invoice_created"
	EventInvoiceAcknowledged     OutboxEventType = "invoice_acknowledged"
	EventInvoicePaid             OutboxEventType = "invoice_paid"
	EventInvoiceRejected         OutboxEventType = "invoice_rejected"
	EventInvoiceVoided           OutboxEventType = "invoice_voided"
	EventInvoiceFinanced         OutboxEventType = "invoice_financed"
	EventInvoicePaymentConfirmed OutboxEventType = "invoice_payment_confirmed"
	EventInvoiceTrackingUpdated  OutboxEventType = "invoice_tracking_updated"
	EventInvoiceCopyDeleted      OutboxEventType = "invoice_copy_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventInvoiceCreated,
	EventInvoiceAcknowledged,
	EventInvoicePaid,
	EventInvoiceRejected,
	EventInvoiceVoided,
	EventInvoiceFinanced,
	EventInvoicePaymentConfirmed,
	EventInvoiceTrackingUpdated,
	EventInvoiceCopyDeleted,
}

var eventTypeByOperation = map[InvoiceOperation]OutboxEventType{
	InvoiceOperationCreated:          EventInvoiceCreated,
	InvoiceOperationAcknowledged:     EventInvoiceAcknowledged,
	InvoiceOperationPaid:             EventInvoicePaid,
	InvoiceOperationRejected:         EventInvoiceRejected,
	InvoiceOperationVoided:           EventInvoiceVoided,
	InvoiceOperationFinanced:         EventInvoiceFinanced,
	InvoiceOperationPaymentConfirmed: EventInvoicePaymentConfirmed,
	InvoiceOperationTrackingUpdated:  EventInvoiceTrackingUpdated,
	InvoiceOperationDeleted:          EventInvoiceCopyDeleted,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// EventTypeForOperation returns the outbox event type emitted for an invoice operation.
func EventTypeForOperation(op InvoiceOperation) (OutboxEventType, error) {
	if eventType, ok := eventTypeByOperation[op]; ok {
		return eventType, nil
	}
	return "", fmt.Errorf("no event type for operation %q", op)
}

// OutboxDLQErrorReason records why the publisher stopped retrying an invoice
// event and moved it to outbox_dlq.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts marks rows that exhausted their publish attempts.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable marks rows the registry could not decode or route.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseOutboxDLQErrorReason converts raw input into OutboxDLQErrorReason.
func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	for _, candidate := range validOutboxDLQErrorReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dlq error reason %q", value)
}
