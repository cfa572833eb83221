package invoices

import (
	"context"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
)

// MutateFunc applies a guarded change to a loaded invoice. Returning an error
// aborts the write and leaves the record and history untouched.
type MutateFunc func(inv *Invoice) error

// Store owns current invoices and their history. Every write commits the
// record and its history entry together or not at all.
type Store interface {
	Get(ctx context.Context, recordID string) (*Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	Count(ctx context.Context) (int64, error)
	History(ctx context.Context, recordID string) ([]HistoryEntry, error)

	// Create persists a new invoice with revision 1 and its first history entry.
	// It returns ErrAlreadyExists when the record id is taken.
	Create(ctx context.Context, inv Invoice, op enums.InvoiceOperation) (*Invoice, error)

	// Update loads the invoice, runs mutate on a copy and, when it succeeds,
	// bumps the revision and appends a history entry. It returns ErrNotFound
	// for unknown ids and ErrConcurrentModification when a competing write won.
	Update(ctx context.Context, recordID string, op enums.InvoiceOperation, mutate MutateFunc) (*Invoice, error)

	Ping(ctx context.Context) error
}

// LookupField names the secondary attributes invoices can be found by.
type LookupField string

const (
	LookupTxnHash          LookupField = "last_txn_hash"
	LookupVendorEmailHash  LookupField = "vendor_email_hash"
	LookupVendorMobileHash LookupField = "vendor_mobile_hash"
)

// FieldFinder is implemented by stores that index secondary attributes.
// Stores without it are searched with a linear scan.
type FieldFinder interface {
	FindBy(ctx context.Context, field LookupField, value string) ([]Invoice, error)
}

// Event is handed to a Notifier after a mutation commits.
type Event struct {
	Operation  enums.InvoiceOperation `json:"operation"`
	RecordID   string                 `json:"record_id"`
	Revision   int                    `json:"revision"`
	TxnHash    string                 `json:"txn_hash"`
	OccurredAt time.Time              `json:"occurred_at"`
	Invoice    Invoice                `json:"invoice"`
}

// Notifier delivers lifecycle events. Failures are logged by the caller and
// never undo the committed mutation.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }

var lookupFields = []LookupField{LookupTxnHash, LookupVendorEmailHash, LookupVendorMobileHash}

func (f LookupField) known() bool {
	switch f {
	case LookupTxnHash, LookupVendorEmailHash, LookupVendorMobileHash:
		return true
	}
	return false
}

// value returns the attribute of inv that f indexes.
func (f LookupField) value(inv Invoice) string {
	switch f {
	case LookupTxnHash:
		return inv.LastTxnHash
	case LookupVendorEmailHash:
		return inv.VendorEmailHash
	case LookupVendorMobileHash:
		return inv.VendorMobileHash
	}
	return ""
}

// matches reports whether inv carries value in the given lookup field.
func (f LookupField) matches(inv Invoice, value string) bool {
	return f.known() && f.value(inv) == value
}
