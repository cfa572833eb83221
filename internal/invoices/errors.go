package invoices

import (
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/invoicetrack-backend/pkg/errors"
)

var (
	ErrInvalidInput                = errors.New("invalid input")
	ErrNotFound                    = errors.New("invoice not found")
	ErrAlreadyExists               = errors.New("invoice already exists")
	ErrAlreadyFinanced             = errors.New("finance reference already recorded")
	ErrAlreadyDeleted              = errors.New("invoice copy already deleted")
	ErrAcknowledgementMismatch     = errors.New("acknowledgement state mismatch")
	ErrFinanceMismatch             = errors.New("finance state mismatch")
	ErrPaidMismatch                = errors.New("paid state mismatch")
	ErrRejectedMismatch            = errors.New("rejected state mismatch")
	ErrVoidedMismatch              = errors.New("voided state mismatch")
	ErrPaymentConfirmationMismatch = errors.New("payment confirmation state mismatch")

	// ErrConcurrentModification is returned by stores when another writer
	// committed to the same invoice between read and write.
	ErrConcurrentModification = errors.New("invoice modified concurrently")
)

type violation struct {
	name       string
	code       pkgerrors.Code
	legacyCode int
}

// Legacy codes are the numeric identifiers existing clients already match on.
var violations = map[error]violation{
	ErrInvalidInput:                {name: "InvalidInput", code: pkgerrors.CodeValidation, legacyCode: 304},
	ErrNotFound:                    {name: "NotFound", code: pkgerrors.CodeNotFound, legacyCode: 4004},
	ErrAlreadyExists:               {name: "AlreadyExists", code: pkgerrors.CodeConflict, legacyCode: 1002},
	ErrAlreadyDeleted:              {name: "AlreadyDeleted", code: pkgerrors.CodeConflict, legacyCode: 1004},
	ErrAlreadyFinanced:             {name: "AlreadyFinanced", code: pkgerrors.CodeConflict, legacyCode: 1005},
	ErrAcknowledgementMismatch:     {name: "AcknowledgementMismatch", code: pkgerrors.CodeStateConflict, legacyCode: 2001},
	ErrFinanceMismatch:             {name: "FinanceMismatch", code: pkgerrors.CodeStateConflict, legacyCode: 2002},
	ErrPaidMismatch:                {name: "PaidMismatch", code: pkgerrors.CodeStateConflict, legacyCode: 2003},
	ErrRejectedMismatch:            {name: "RejectedMismatch", code: pkgerrors.CodeStateConflict, legacyCode: 2004},
	ErrVoidedMismatch:              {name: "VoidedMismatch", code: pkgerrors.CodeStateConflict, legacyCode: 2005},
	ErrPaymentConfirmationMismatch: {name: "PaymentConfirmationMismatch", code: pkgerrors.CodeStateConflict, legacyCode: 2006},
	ErrConcurrentModification:      {name: "ConcurrentModification", code: pkgerrors.CodeConflict},
}

// violationOrder fixes lookup order so ViolationName is deterministic.
var violationOrder = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrAlreadyExists,
	ErrAlreadyDeleted,
	ErrAlreadyFinanced,
	ErrAcknowledgementMismatch,
	ErrFinanceMismatch,
	ErrPaidMismatch,
	ErrRejectedMismatch,
	ErrVoidedMismatch,
	ErrPaymentConfirmationMismatch,
	ErrConcurrentModification,
}

// newViolation wraps a sentinel in a typed error so errors.Is keeps working
// while the HTTP layer maps the code to a status.
func newViolation(sentinel error, message string, details map[string]any) *pkgerrors.Error {
	v, ok := violations[sentinel]
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, sentinel, message)
	}
	if details == nil {
		details = map[string]any{}
	}
	details["violation"] = v.name
	if v.legacyCode != 0 {
		details["legacy_code"] = v.legacyCode
	}
	return pkgerrors.Wrap(v.code, sentinel, message).WithDetails(details)
}

func invalidInput(missing []string) *pkgerrors.Error {
	return newViolation(ErrInvalidInput, "missing or invalid fields: "+strings.Join(missing, ", "), map[string]any{
		"fields": missing,
	})
}

func notFound(recordID string) *pkgerrors.Error {
	return newViolation(ErrNotFound, "invoice not found", map[string]any{"record_id": recordID})
}

// ViolationName returns the name of the domain violation carried by err, or
// an empty string when err is not a domain violation.
func ViolationName(err error) string {
	for _, sentinel := range violationOrder {
		if errors.Is(err, sentinel) {
			return violations[sentinel].name
		}
	}
	return ""
}

// LegacyCode returns the numeric code existing clients use for err, or 0.
func LegacyCode(err error) int {
	for _, sentinel := range violationOrder {
		if errors.Is(err, sentinel) {
			return violations[sentinel].legacyCode
		}
	}
	return 0
}

// classifyStoreError turns raw store sentinels into typed violations and
// everything unexpected into a dependency error.
func classifyStoreError(err error, recordID string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return notFound(recordID)
	case errors.Is(err, ErrAlreadyExists):
		return newViolation(ErrAlreadyExists, "invoice already exists", map[string]any{"record_id": recordID})
	case errors.Is(err, ErrConcurrentModification):
		return newViolation(ErrConcurrentModification, "invoice was modified concurrently; retry", map[string]any{"record_id": recordID})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invoice store unavailable")
}
