package invoices

import (
	"strings"

	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
)

// CreateInput carries every field a new invoice is created with.
type CreateInput struct {
	RecordID         string `json:"record_id"`
	VendorID         string `json:"vendor_id"`
	Action           string `json:"action"`
	CreationDate     string `json:"creation_date"`
	DueDate          string `json:"due_date"`
	VendorEmail      string `json:"vendor_email"`
	VendorEmailHash  string `json:"vendor_email_hash"`
	VendorMobile     string `json:"vendor_mobile"`
	VendorMobileHash string `json:"vendor_mobile_hash"`
	VendorName       string `json:"vendor_name"`
	ClientFirstName  string `json:"client_first_name"`
	ClientLastName   string `json:"client_last_name"`
	ClientEmail      string `json:"client_email"`
	ClientMobile     string `json:"client_mobile"`
	Currency         string `json:"currency"`
	FundReception    string `json:"fund_reception"`
	Lines            string `json:"lines"`
	NetAmount        string `json:"net_amount"`
	TxnHash          string `json:"txn_hash"`
}

func (in CreateInput) missing() []string {
	return missingFields(
		field{"record_id", in.RecordID},
		field{"vendor_id", in.VendorID},
		field{"action", in.Action},
		field{"creation_date", in.CreationDate},
		field{"vendor_email", in.VendorEmail},
		field{"vendor_email_hash", in.VendorEmailHash},
		field{"vendor_mobile", in.VendorMobile},
		field{"vendor_mobile_hash", in.VendorMobileHash},
		field{"client_first_name", in.ClientFirstName},
		field{"client_last_name", in.ClientLastName},
		field{"vendor_name", in.VendorName},
		field{"client_email", in.ClientEmail},
		field{"client_mobile", in.ClientMobile},
		field{"currency", in.Currency},
		field{"fund_reception", in.FundReception},
		field{"lines", in.Lines},
		field{"net_amount", in.NetAmount},
		field{"txn_hash", in.TxnHash},
		field{"due_date", in.DueDate},
	)
}

// TransitionInput drives acknowledge, mark paid, reject, void and confirm payment.
type TransitionInput struct {
	RecordID string `json:"record_id"`
	Action   string `json:"action"`
	TxnHash  string `json:"txn_hash"`
}

func (in TransitionInput) missing() []string {
	return missingFields(
		field{"record_id", in.RecordID},
		field{"action", in.Action},
		field{"txn_hash", in.TxnHash},
	)
}

// FinanceInput records one financing instrument against an invoice.
type FinanceInput struct {
	RecordID         string `json:"record_id"`
	FinanceReference string `json:"finance_reference"`
	Action           string `json:"action"`
	TxnHash          string `json:"txn_hash"`
}

func (in FinanceInput) missing() []string {
	return missingFields(
		field{"record_id", in.RecordID},
		field{"finance_reference", in.FinanceReference},
		field{"action", in.Action},
		field{"txn_hash", in.TxnHash},
	)
}

// TrackingInput replaces the delivery metadata of an invoice. Only Event is
// required besides the record id.
type TrackingInput struct {
	RecordID string   `json:"record_id"`
	Tracking Tracking `json:"tracking"`
}

func (in TrackingInput) missing() []string {
	return missingFields(
		field{"record_id", in.RecordID},
		field{"event", in.Tracking.Event},
	)
}

// DeleteCopyInput marks the sender's or receiver's copy of an invoice deleted.
type DeleteCopyInput struct {
	RecordID string         `json:"record_id"`
	Side     enums.CopySide `json:"side"`
	Comment  string         `json:"comment"`
	Action   string         `json:"action"`
	TxnHash  string         `json:"txn_hash"`
}

func (in DeleteCopyInput) missing() []string {
	missing := missingFields(
		field{"record_id", in.RecordID},
		field{"side", string(in.Side)},
		field{"action", in.Action},
		field{"txn_hash", in.TxnHash},
	)
	if in.Side != "" && !in.Side.IsValid() {
		missing = append(missing, "side")
	}
	return missing
}

type field struct {
	name  string
	value string
}

// missingFields reports blank values. Whitespace counts as blank so writes
// reject exactly the ids that reads reject.
func missingFields(fields ...field) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
