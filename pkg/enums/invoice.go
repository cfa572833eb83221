package enums

import "fmt"

// InvoiceOperation tags each accepted mutation in history and notifications.
type InvoiceOperation string

const (
	InvoiceOperationCreated          InvoiceOperation = "Created"
	InvoiceOperationAcknowledged     InvoiceOperation = "Acknowledged"
	InvoiceOperationPaid             InvoiceOperation = "Paid"
	InvoiceOperationRejected         InvoiceOperation = "Rejected"
	InvoiceOperationVoided           InvoiceOperation = "Voided"
	InvoiceOperationFinanced         InvoiceOperation = "Financed"
	InvoiceOperationPaymentConfirmed InvoiceOperation = "PaymentConfirmed"
	InvoiceOperationTrackingUpdated  InvoiceOperation = "TrackingUpdated"
	InvoiceOperationDeleted          InvoiceOperation = "Deleted"
)

var validInvoiceOperations = []InvoiceOperation{
	InvoiceOperationCreated,
	InvoiceOperationAcknowledged,
	InvoiceOperationPaid,
	InvoiceOperationRejected,
	InvoiceOperationVoided,
	InvoiceOperationFinanced,
	InvoiceOperationPaymentConfirmed,
	InvoiceOperationTrackingUpdated,
	InvoiceOperationDeleted,
}

func (o InvoiceOperation) IsValid() bool {
	for _, candidate := range validInvoiceOperations {
		if candidate == o {
			return true
		}
	}
	return false
}

// InvoiceOperations lists every operation in lifecycle order.
func InvoiceOperations() []InvoiceOperation {
	return append([]InvoiceOperation(nil), validInvoiceOperations...)
}

func ParseInvoiceOperation(value string) (InvoiceOperation, error) {
	for _, candidate := range validInvoiceOperations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice operation %q", value)
}

// InvoiceState is the single lifecycle state derived from an invoice's flags.
type InvoiceState string

const (
	InvoiceStateOpen             InvoiceState = "open"
	InvoiceStateAcknowledged     InvoiceState = "acknowledged"
	InvoiceStateFinanced         InvoiceState = "financed"
	InvoiceStatePaid             InvoiceState = "paid"
	InvoiceStatePaymentConfirmed InvoiceState = "payment_confirmed"
	InvoiceStateRejected         InvoiceState = "rejected"
	InvoiceStateVoided           InvoiceState = "voided"
)

var validInvoiceStates = []InvoiceState{
	InvoiceStateOpen,
	InvoiceStateAcknowledged,
	InvoiceStateFinanced,
	InvoiceStatePaid,
	InvoiceStatePaymentConfirmed,
	InvoiceStateRejected,
	InvoiceStateVoided,
}

func (s InvoiceState) IsValid() bool {
	for _, candidate := range validInvoiceStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// InvoiceStates lists every state in lifecycle order.
func InvoiceStates() []InvoiceState {
	out := make([]InvoiceState, len(validInvoiceStates))
	copy(out, validInvoiceStates)
	return out
}

// CopySide identifies which party's copy of an invoice is being marked deleted.
type CopySide string

const (
	CopySideSent     CopySide = "sent"
	CopySideReceived CopySide = "received"
)

func (c CopySide) IsValid() bool {
	return c == CopySideSent || c == CopySideReceived
}

func ParseCopySide(value string) (CopySide, error) {
	side := CopySide(value)
	if !side.IsValid() {
		return "", fmt.Errorf("invalid copy side %q", value)
	}
	return side, nil
}
