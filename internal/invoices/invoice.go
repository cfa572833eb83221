package invoices

import (
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
)

// RecordType is the literal record type carried by every invoice.
const RecordType = "Invoice"

// Tracking holds delivery metadata for the notification sent about an invoice.
type Tracking struct {
	Subject   string `json:"subject"`
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	APIKeyID  string `json:"api_key_id"`
	Event     string `json:"event"`
	Recipient string `json:"recipient"`
}

// Invoice is the current state of a tracked invoice.
type Invoice struct {
	RecordID     string `json:"record_id"`
	RecordType   string `json:"record_type"`
	VendorID     string `json:"vendor_id"`
	CreationDate string `json:"creation_date"`
	DueDate      string `json:"due_date"`

	VendorEmail      string `json:"vendor_email"`
	VendorEmailHash  string `json:"vendor_email_hash"`
	VendorMobile     string `json:"vendor_mobile"`
	VendorMobileHash string `json:"vendor_mobile_hash"`
	VendorName       string `json:"vendor_name"`
	ClientFirstName  string `json:"client_first_name"`
	ClientLastName   string `json:"client_last_name"`
	ClientEmail      string `json:"client_email"`
	ClientMobile     string `json:"client_mobile"`

	Currency      string `json:"currency"`
	FundReception string `json:"fund_reception"`
	Lines         string `json:"lines"`
	NetAmount     string `json:"net_amount"`

	Acknowledged        bool `json:"acknowledged"`
	Financed            bool `json:"financed"`
	Paid                bool `json:"paid"`
	Rejected            bool `json:"rejected"`
	Voided              bool `json:"voided"`
	SentCopyDeleted     bool `json:"sent_copy_deleted"`
	ReceivedCopyDeleted bool `json:"received_copy_deleted"`
	PaymentConfirmed    bool `json:"payment_confirmed"`

	Action              string    `json:"action"`
	FinancingReferences []string  `json:"financing_references"`
	LastTxnHash         string    `json:"last_txn_hash"`
	PreviousTxnHash     string    `json:"previous_txn_hash"`
	LastModifiedAt      time.Time `json:"last_modified_at"`
	DeletedComments     string    `json:"deleted_comments"`
	Tracking            Tracking  `json:"tracking"`

	// Revision counts accepted mutations and always equals the history length.
	Revision int `json:"revision"`
}

// HistoryEntry is an immutable snapshot taken when a mutation was accepted.
type HistoryEntry struct {
	Sequence  int                    `json:"sequence"`
	Operation enums.InvoiceOperation `json:"operation"`
	Snapshot  Invoice                `json:"snapshot"`
}

// Clone returns a deep copy so callers cannot alias stored slices.
func (inv Invoice) Clone() Invoice {
	out := inv
	out.FinancingReferences = append([]string{}, inv.FinancingReferences...)
	return out
}

// HasFinancingReference reports whether ref was already accepted for this invoice.
func (inv Invoice) HasFinancingReference(ref string) bool {
	for _, existing := range inv.FinancingReferences {
		if existing == ref {
			return true
		}
	}
	return false
}

// State collapses the lifecycle flags into a single state, terminal outcomes first.
func (inv Invoice) State() enums.InvoiceState {
	switch {
	case inv.Rejected:
		return enums.InvoiceStateRejected
	case inv.Voided:
		return enums.InvoiceStateVoided
	case inv.PaymentConfirmed:
		return enums.InvoiceStatePaymentConfirmed
	case inv.Paid:
		return enums.InvoiceStatePaid
	case inv.Financed:
		return enums.InvoiceStateFinanced
	case inv.Acknowledged:
		return enums.InvoiceStateAcknowledged
	default:
		return enums.InvoiceStateOpen
	}
}

func (inv *Invoice) rotateTxnHash(txnHash string) {
	inv.PreviousTxnHash = inv.LastTxnHash
	inv.LastTxnHash = txnHash
}

func newHistoryEntry(inv Invoice, op enums.InvoiceOperation) HistoryEntry {
	return HistoryEntry{
		Sequence:  inv.Revision,
		Operation: op,
		Snapshot:  inv.Clone(),
	}
}
