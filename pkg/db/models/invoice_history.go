package models

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
)

// InvoiceHistory is an append-only snapshot of an invoice taken on each accepted mutation.
type InvoiceHistory struct {
	ID        int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	RecordID  string                 `gorm:"column:record_id;not null;uniqueIndex:ux_invoice_history_record_sequence,priority:1"`
	Sequence  int                    `gorm:"column:sequence;not null;uniqueIndex:ux_invoice_history_record_sequence,priority:2"`
	Operation enums.InvoiceOperation `gorm:"column:operation;not null"`
	Snapshot  json.RawMessage        `gorm:"column:snapshot;type:jsonb;not null"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (InvoiceHistory) TableName() string {
	return "invoice_history"
}
