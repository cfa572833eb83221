package models

import (
	"time"

	dbtypes "github.com/angelmondragon/invoicetrack-backend/pkg/db/types"
)

// Invoice is the current state row of a tracked invoice. Tracking metadata is
// flattened into tracking_* columns.
type Invoice struct {
	RecordID     string `gorm:"column:record_id;primaryKey"`
	RecordType   string `gorm:"column:record_type;not null"`
	VendorID     string `gorm:"column:vendor_id;not null"`
	CreationDate string `gorm:"column:creation_date;not null"`
	DueDate      string `gorm:"column:due_date;not null"`

	VendorEmail      string `gorm:"column:vendor_email;not null"`
	VendorEmailHash  string `gorm:"column:vendor_email_hash;not null;index:idx_invoices_vendor_email_hash"`
	VendorMobile     string `gorm:"column:vendor_mobile;not null"`
	VendorMobileHash string `gorm:"column:vendor_mobile_hash;not null;index:idx_invoices_vendor_mobile_hash"`
	VendorName       string `gorm:"column:vendor_name;not null"`
	ClientFirstName  string `gorm:"column:client_first_name;not null"`
	ClientLastName   string `gorm:"column:client_last_name;not null"`
	ClientEmail      string `gorm:"column:client_email;not null"`
	ClientMobile     string `gorm:"column:client_mobile;not null"`

	Currency      string `gorm:"column:currency;not null"`
	FundReception string `gorm:"column:fund_reception;not null"`
	Lines         string `gorm:"column:lines;not null"`
	NetAmount     string `gorm:"column:net_amount;not null"`

	Acknowledged        bool `gorm:"column:acknowledged;not null;default:false"`
	Financed            bool `gorm:"column:financed;not null;default:false"`
	Paid                bool `gorm:"column:paid;not null;default:false"`
	Rejected            bool `gorm:"column:rejected;not null;default:false"`
	Voided              bool `gorm:"column:voided;not null;default:false"`
	SentCopyDeleted     bool `gorm:"column:sent_copy_deleted;not null;default:false"`
	ReceivedCopyDeleted bool `gorm:"column:received_copy_deleted;not null;default:false"`
	PaymentConfirmed    bool `gorm:"column:payment_confirmed;not null;default:false"`

	Action              string             `gorm:"column:action;not null"`
	FinancingReferences dbtypes.StringList `gorm:"column:financing_references;type:jsonb;not null"`
	LastTxnHash         string             `gorm:"column:last_txn_hash;not null;index:idx_invoices_last_txn_hash"`
	PreviousTxnHash     string             `gorm:"column:previous_txn_hash;not null"`
	LastModifiedAt      time.Time          `gorm:"column:last_modified_at;not null"`
	DeletedComments     string             `gorm:"column:deleted_comments;not null"`

	TrackingSubject   string `gorm:"column:tracking_subject;not null"`
	TrackingStatus    string `gorm:"column:tracking_status;not null"`
	TrackingMessageID string `gorm:"column:tracking_message_id;not null"`
	TrackingAPIKeyID  string `gorm:"column:tracking_api_key_id;not null"`
	TrackingEvent     string `gorm:"column:tracking_event;not null"`
	TrackingRecipient string `gorm:"column:tracking_recipient;not null"`

	Revision  int       `gorm:"column:revision;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Invoice) TableName() string {
	return "invoices"
}
