package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/invoicetrack-backend/pkg/db"
	"github.com/angelmondragon/invoicetrack-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/invoicetrack-backend/pkg/db/types"
	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// SQLClient is the database surface the repository needs.
type SQLClient interface {
	txRunner
	pinger
	DB() *gorm.DB
}

// Repository stores invoices in the invoices and invoice_history tables.
// Writes use an optimistic revision check so concurrent mutations of the same
// invoice cannot both commit.
type Repository struct {
	client SQLClient
}

// NewRepository returns a SQL-backed invoice store.
func NewRepository(client SQLClient) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &Repository{client: client}, nil
}

func (r *Repository) db(ctx context.Context) *gorm.DB {
	return r.client.DB().WithContext(ctx)
}

func (r *Repository) Get(ctx context.Context, recordID string) (*Invoice, error) {
	row, err := findInvoiceRow(r.db(ctx), recordID)
	if err != nil {
		return nil, err
	}
	inv := invoiceFromModel(*row)
	return &inv, nil
}

func (r *Repository) List(ctx context.Context) ([]Invoice, error) {
	var rows []models.Invoice
	if err := r.db(ctx).Order("record_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesFromModels(rows), nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db(ctx).Model(&models.Invoice{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) History(ctx context.Context, recordID string) ([]HistoryEntry, error) {
	var rows []models.InvoiceHistory
	if err := r.db(ctx).
		Where("record_id = ?", recordID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		var snapshot Invoice
		if err := json.Unmarshal(row.Snapshot, &snapshot); err != nil {
			return nil, fmt.Errorf("decode history %s#%d: %w", row.RecordID, row.Sequence, err)
		}
		out = append(out, HistoryEntry{
			Sequence:  row.Sequence,
			Operation: row.Operation,
			Snapshot:  normalizeInvoice(snapshot),
		})
	}
	return out, nil
}

func (r *Repository) FindBy(ctx context.Context, field LookupField, value string) ([]Invoice, error) {
	switch field {
	case LookupTxnHash, LookupVendorEmailHash, LookupVendorMobileHash:
	default:
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}
	var rows []models.Invoice
	if err := r.db(ctx).
		Where(fmt.Sprintf("%s = ?", field), value).
		Order("record_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesFromModels(rows), nil
}

func (r *Repository) Create(ctx context.Context, inv Invoice, op enums.InvoiceOperation) (*Invoice, error) {
	stored := normalizeInvoice(inv)
	stored.Revision = 1
	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := findInvoiceRow(tx, stored.RecordID); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		row := invoiceToModel(stored)
		if err := tx.Create(&row).Error; err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return ErrAlreadyExists
			}
			return err
		}
		return appendHistory(tx, stored, op)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *Repository) Update(ctx context.Context, recordID string, op enums.InvoiceOperation, mutate MutateFunc) (*Invoice, error) {
	var out Invoice
	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := findInvoiceRow(tx, recordID)
		if err != nil {
			return err
		}
		current := invoiceFromModel(*row)
		next := current.Clone()
		if err := mutate(&next); err != nil {
			return err
		}
		next.RecordID = current.RecordID
		next.Revision = current.Revision + 1
		next = normalizeInvoice(next)

		if err := commitRevision(tx, current.Revision, next, op); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// commitRevision writes next only if the stored row still carries
// expectedRevision, then appends the matching history entry.
func commitRevision(tx *gorm.DB, expectedRevision int, next Invoice, op enums.InvoiceOperation) error {
	updated := invoiceToModel(next)
	res := tx.Model(&models.Invoice{}).
		Where("record_id = ? AND revision = ?", next.RecordID, expectedRevision).
		Select("*").
		Omit("record_id", "created_at").
		Updates(&updated)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	if err := appendHistory(tx, next, op); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return ErrConcurrentModification
		}
		return err
	}
	return nil
}

func findInvoiceRow(tx *gorm.DB, recordID string) (*models.Invoice, error) {
	var row models.Invoice
	if err := tx.Where("record_id = ?", recordID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func appendHistory(tx *gorm.DB, inv Invoice, op enums.InvoiceOperation) error {
	entry := newHistoryEntry(inv, op)
	snapshot, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("encode history snapshot: %w", err)
	}
	return tx.Create(&models.InvoiceHistory{
		RecordID:  inv.RecordID,
		Sequence:  entry.Sequence,
		Operation: op,
		Snapshot:  snapshot,
	}).Error
}

// normalizeInvoice gives every backend the same representation of optional
// values so snapshots and current records compare equal.
func normalizeInvoice(inv Invoice) Invoice {
	out := inv.Clone()
	if !out.LastModifiedAt.IsZero() {
		out.LastModifiedAt = out.LastModifiedAt.UTC()
	}
	return out
}

func invoicesFromModels(rows []models.Invoice) []Invoice {
	out := make([]Invoice, 0, len(rows))
	for _, row := range rows {
		out = append(out, invoiceFromModel(row))
	}
	return out
}

func invoiceFromModel(row models.Invoice) Invoice {
	return normalizeInvoice(Invoice{
		RecordID:            row.RecordID,
		RecordType:          row.RecordType,
		VendorID:            row.VendorID,
		CreationDate:        row.CreationDate,
		DueDate:             row.DueDate,
		VendorEmail:         row.VendorEmail,
		VendorEmailHash:     row.VendorEmailHash,
		VendorMobile:        row.VendorMobile,
		VendorMobileHash:    row.VendorMobileHash,
		VendorName:          row.VendorName,
		ClientFirstName:     row.ClientFirstName,
		ClientLastName:      row.ClientLastName,
		ClientEmail:         row.ClientEmail,
		ClientMobile:        row.ClientMobile,
		Currency:            row.Currency,
		FundReception:       row.FundReception,
		Lines:               row.Lines,
		NetAmount:           row.NetAmount,
		Acknowledged:        row.Acknowledged,
		Financed:            row.Financed,
		Paid:                row.Paid,
		Rejected:            row.Rejected,
		Voided:              row.Voided,
		SentCopyDeleted:     row.SentCopyDeleted,
		ReceivedCopyDeleted: row.ReceivedCopyDeleted,
		PaymentConfirmed:    row.PaymentConfirmed,
		Action:              row.Action,
		FinancingReferences: []string(row.FinancingReferences),
		LastTxnHash:         row.LastTxnHash,
		PreviousTxnHash:     row.PreviousTxnHash,
		LastModifiedAt:      row.LastModifiedAt,
		DeletedComments:     row.DeletedComments,
		Tracking: Tracking{
			Subject:   row.TrackingSubject,
			Status:    row.TrackingStatus,
			MessageID: row.TrackingMessageID,
			APIKeyID:  row.TrackingAPIKeyID,
			Event:     row.TrackingEvent,
			Recipient: row.TrackingRecipient,
		},
		Revision: row.Revision,
	})
}

func invoiceToModel(inv Invoice) models.Invoice {
	return models.Invoice{
		RecordID:            inv.RecordID,
		RecordType:          inv.RecordType,
		VendorID:            inv.VendorID,
		CreationDate:        inv.CreationDate,
		DueDate:             inv.DueDate,
		VendorEmail:         inv.VendorEmail,
		VendorEmailHash:     inv.VendorEmailHash,
		VendorMobile:        inv.VendorMobile,
		VendorMobileHash:    inv.VendorMobileHash,
		VendorName:          inv.VendorName,
		ClientFirstName:     inv.ClientFirstName,
		ClientLastName:      inv.ClientLastName,
		ClientEmail:         inv.ClientEmail,
		ClientMobile:        inv.ClientMobile,
		Currency:            inv.Currency,
		FundReception:       inv.FundReception,
		Lines:               inv.Lines,
		NetAmount:           inv.NetAmount,
		Acknowledged:        inv.Acknowledged,
		Financed:            inv.Financed,
		Paid:                inv.Paid,
		Rejected:            inv.Rejected,
		Voided:              inv.Voided,
		SentCopyDeleted:     inv.SentCopyDeleted,
		ReceivedCopyDeleted: inv.ReceivedCopyDeleted,
		PaymentConfirmed:    inv.PaymentConfirmed,
		Action:              inv.Action,
		FinancingReferences: dbtypes.StringList(inv.FinancingReferences),
		LastTxnHash:         inv.LastTxnHash,
		PreviousTxnHash:     inv.PreviousTxnHash,
		LastModifiedAt:      inv.LastModifiedAt,
		DeletedComments:     inv.DeletedComments,
		TrackingSubject:     inv.Tracking.Subject,
		TrackingStatus:      inv.Tracking.Status,
		TrackingMessageID:   inv.Tracking.MessageID,
		TrackingAPIKeyID:    inv.Tracking.APIKeyID,
		TrackingEvent:       inv.Tracking.Event,
		TrackingRecipient:   inv.Tracking.Recipient,
		Revision:            inv.Revision,
	}
}
