package payloads

import (
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
)

// InvoiceLifecycleEvent is published for every accepted invoice mutation.
type InvoiceLifecycleEvent struct {
	RecordID        string                 `json:"record_id"`
	Operation       enums.InvoiceOperation `json:"operation"`
	State           enums.InvoiceState     `json:"state"`
	Revision        int                    `json:"revision"`
	Action          string                 `json:"action"`
	TxnHash         string                 `json:"txn_hash"`
	PreviousTxnHash string                 `json:"previous_txn_hash"`
	VendorID        string                 `json:"vendor_id"`
	OccurredAt      time.Time              `json:"occurred_at"`
}
