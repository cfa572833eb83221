package invoices

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/invoicetrack-backend/api/responses"
	"github.com/angelmondragon/invoicetrack-backend/api/validators"
	internalinvoices "github.com/angelmondragon/invoicetrack-backend/internal/invoices"
	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicetrack-backend/pkg/errors"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
)

const maxFieldLen = 1024

type createRequest struct {
	RecordID         string `json:"record_id" validate:"max=128"`
	VendorID         string `json:"vendor_id" validate:"max=128"`
	Action           string `json:"action" validate:"max=128"`
	CreationDate     string `json:"creation_date" validate:"max=64"`
	DueDate          string `json:"due_date" validate:"max=64"`
	VendorEmail      string `json:"vendor_email" validate:"max=320"`
	VendorEmailHash  string `json:"vendor_email_hash" validate:"max=256"`
	VendorMobile     string `json:"vendor_mobile" validate:"max=64"`
	VendorMobileHash string `json:"vendor_mobile_hash" validate:"max=256"`
	VendorName       string `json:"vendor_name" validate:"max=256"`
	ClientFirstName  string `json:"client_first_name" validate:"max=256"`
	ClientLastName   string `json:"client_last_name" validate:"max=256"`
	ClientEmail      string `json:"client_email" validate:"max=320"`
	ClientMobile     string `json:"client_mobile" validate:"max=64"`
	Currency         string `json:"currency" validate:"max=16"`
	FundReception    string `json:"fund_reception" validate:"max=1024"`
	Lines            string `json:"lines" validate:"max=262144"`
	NetAmount        string `json:"net_amount" validate:"max=64"`
	TxnHash          string `json:"txn_hash" validate:"max=256"`
}

func (r createRequest) input() internalinvoices.CreateInput {
	return internalinvoices.CreateInput{
		RecordID:         normalizeRecordID(r.RecordID),
		VendorID:         r.VendorID,
		Action:           r.Action,
		CreationDate:     r.CreationDate,
		DueDate:          r.DueDate,
		VendorEmail:      r.VendorEmail,
		VendorEmailHash:  r.VendorEmailHash,
		VendorMobile:     r.VendorMobile,
		VendorMobileHash: r.VendorMobileHash,
		VendorName:       r.VendorName,
		ClientFirstName:  r.ClientFirstName,
		ClientLastName:   r.ClientLastName,
		ClientEmail:      r.ClientEmail,
		ClientMobile:     r.ClientMobile,
		Currency:         r.Currency,
		FundReception:    r.FundReception,
		Lines:            r.Lines,
		NetAmount:        r.NetAmount,
		TxnHash:          r.TxnHash,
	}
}

type transitionRequest struct {
	Action  string `json:"action" validate:"max=128"`
	TxnHash string `json:"txn_hash" validate:"max=256"`
}

type financeRequest struct {
	FinanceReference string `json:"finance_reference" validate:"max=256"`
	Action           string `json:"action" validate:"max=128"`
	TxnHash          string `json:"txn_hash" validate:"max=256"`
}

type trackingRequest struct {
	Subject   string `json:"subject" validate:"max=1024"`
	Status    string `json:"status" validate:"max=128"`
	MessageID string `json:"message_id" validate:"max=256"`
	APIKeyID  string `json:"api_key_id" validate:"max=256"`
	Event     string `json:"event" validate:"max=128"`
	Recipient string `json:"recipient" validate:"max=320"`
}

type deleteCopyRequest struct {
	Side    string `json:"side" validate:"max=16"`
	Comment string `json:"comment" validate:"max=2048"`
	Action  string `json:"action" validate:"max=128"`
	TxnHash string `json:"txn_hash" validate:"max=256"`
}

type transitionFunc func(ctx context.Context, input internalinvoices.TransitionInput) (*internalinvoices.Invoice, error)

// Create registers a new invoice.
func Create(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := svc.Create(r.Context(), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, inv)
	}
}

func Acknowledge(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return transition(svc.Acknowledge, logg)
}

func MarkPaid(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return transition(svc.MarkPaid, logg)
}

func Reject(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return transition(svc.Reject, logg)
}

func Void(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return transition(svc.Void, logg)
}

func ConfirmPayment(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return transition(svc.ConfirmPayment, logg)
}

func transition(fn transitionFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body transitionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := fn(r.Context(), internalinvoices.TransitionInput{
			RecordID: recordIDParam(r),
			Action:   body.Action,
			TxnHash:  body.TxnHash,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

// Finance attaches a financing reference to an acknowledged invoice.
func Finance(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body financeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := svc.Finance(r.Context(), internalinvoices.FinanceInput{
			RecordID:         recordIDParam(r),
			FinanceReference: body.FinanceReference,
			Action:           body.Action,
			TxnHash:          body.TxnHash,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

// UpdateTracking replaces the delivery metadata without touching the lifecycle.
func UpdateTracking(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body trackingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := svc.UpdateTracking(r.Context(), internalinvoices.TrackingInput{
			RecordID: recordIDParam(r),
			Tracking: internalinvoices.Tracking{
				Subject:   body.Subject,
				Status:    body.Status,
				MessageID: body.MessageID,
				APIKeyID:  body.APIKeyID,
				Event:     body.Event,
				Recipient: body.Recipient,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

// DeleteCopy flags the sender's or receiver's copy as deleted. The record stays.
func DeleteCopy(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body deleteCopyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := svc.DeleteCopy(r.Context(), internalinvoices.DeleteCopyInput{
			RecordID: recordIDParam(r),
			Side:     enums.CopySide(strings.ToLower(strings.TrimSpace(body.Side))),
			Comment:  validators.SanitizeString(body.Comment, maxFieldLen),
			Action:   body.Action,
			TxnHash:  body.TxnHash,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

func recordIDParam(r *http.Request) string {
	return normalizeRecordID(chi.URLParam(r, "recordId"))
}

// normalizeRecordID is applied to ids from request bodies and URLs alike.
func normalizeRecordID(raw string) string {
	return validators.SanitizeString(raw, maxFieldLen)
}

func unavailable(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
	}
}
