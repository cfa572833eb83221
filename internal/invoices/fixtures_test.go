package invoices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixtureTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func sampleInvoice(recordID string) Invoice {
	return Invoice{
		RecordID:            recordID,
		RecordType:          RecordType,
		VendorID:            "V1",
		CreationDate:        "2024-03-01",
		DueDate:             "2024-03-31",
		VendorEmail:         "billing@acme.test",
		VendorEmailHash:     "E1",
		VendorMobile:        "+15550100",
		VendorMobileHash:    "M1",
		VendorName:          "Acme Supplies",
		ClientFirstName:     "Dana",
		ClientLastName:      "Reyes",
		ClientEmail:         "dana@client.test",
		ClientMobile:        "+15550199",
		Currency:            "USD",
		FundReception:       "bank-transfer",
		Lines:               `[{"sku":"A-1","qty":2}]`,
		NetAmount:           "100.00",
		Action:              "Created",
		FinancingReferences: []string{},
		LastTxnHash:         "h0",
		LastModifiedAt:      fixtureTime,
	}
}

func sampleCreateInput(recordID string) CreateInput {
	inv := sampleInvoice(recordID)
	return CreateInput{
		RecordID:         inv.RecordID,
		VendorID:         inv.VendorID,
		CreationDate:     inv.CreationDate,
		DueDate:          inv.DueDate,
		VendorEmail:      inv.VendorEmail,
		VendorEmailHash:  inv.VendorEmailHash,
		VendorMobile:     inv.VendorMobile,
		VendorMobileHash: inv.VendorMobileHash,
		VendorName:       inv.VendorName,
		ClientFirstName:  inv.ClientFirstName,
		ClientLastName:   inv.ClientLastName,
		ClientEmail:      inv.ClientEmail,
		ClientMobile:     inv.ClientMobile,
		Currency:         inv.Currency,
		FundReception:    inv.FundReception,
		Lines:            inv.Lines,
		NetAmount:        inv.NetAmount,
		Action:           inv.Action,
		TxnHash:          inv.LastTxnHash,
	}
}

// requireSameInvoice compares invoices field by field, treating timestamps as
// equal instants regardless of location.
func requireSameInvoice(t *testing.T, want, got Invoice) {
	t.Helper()
	require.True(t, want.LastModifiedAt.Equal(got.LastModifiedAt), "last_modified_at: want %v got %v", want.LastModifiedAt, got.LastModifiedAt)
	want.LastModifiedAt = time.Time{}
	got.LastModifiedAt = time.Time{}
	require.Equal(t, want, got)
}
