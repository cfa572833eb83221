package invoices

import "fmt"

// Expectation lists the flag values an operation requires.
type Expectation struct {
	Acknowledged     bool
	Financed         bool
	Paid             bool
	Rejected         bool
	Voided           bool
	PaymentConfirmed bool
}

// Skip disables individual comparisons. Paid is accepted but never honoured:
// the paid comparison always runs.
type Skip struct {
	Acknowledged bool
	Financed     bool
	Paid         bool
}

type flagCheck struct {
	flag      string
	actual    bool
	required  bool
	enforced  bool
	violation error
}

// Evaluate runs the flag checks in lifecycle order and reports the first
// mismatch as a typed violation, or nil when the transition is allowed.
func Evaluate(inv Invoice, want Expectation, skip Skip) error {
	checks := []flagCheck{
		{flag: "acknowledged", actual: inv.Acknowledged, required: want.Acknowledged, enforced: !skip.Acknowledged, violation: ErrAcknowledgementMismatch},
		{flag: "financed", actual: inv.Financed, required: want.Financed, enforced: !skip.Financed, violation: ErrFinanceMismatch},
		{flag: "paid", actual: inv.Paid, required: want.Paid, enforced: true, violation: ErrPaidMismatch},
		{flag: "rejected", actual: inv.Rejected, required: want.Rejected, enforced: true, violation: ErrRejectedMismatch},
		{flag: "voided", actual: inv.Voided, required: want.Voided, enforced: true, violation: ErrVoidedMismatch},
		{flag: "payment_confirmed", actual: inv.PaymentConfirmed, required: want.PaymentConfirmed, enforced: true, violation: ErrPaymentConfirmationMismatch},
	}
	for _, c := range checks {
		if !c.enforced || c.actual == c.required {
			continue
		}
		return newViolation(c.violation, fmt.Sprintf("invoice %s is %t, operation requires %t", c.flag, c.actual, c.required), map[string]any{
			"record_id": inv.RecordID,
			"flag":      c.flag,
			"expected":  c.required,
			"actual":    c.actual,
		})
	}
	return nil
}

// profile is the guard configuration an operation evaluates before mutating.
type profile struct {
	want Expectation
	skip Skip
}

var (
	acknowledgeProfile = profile{}

	// mark paid, reject and void share one profile.
	resolveProfile = profile{
		want: Expectation{Acknowledged: true},
	}

	financeProfile = profile{
		want: Expectation{Acknowledged: true},
		skip: Skip{Financed: true},
	}

	confirmPaymentProfile = profile{
		want: Expectation{Acknowledged: true, Financed: true, Paid: true},
		skip: Skip{Acknowledged: true, Financed: true, Paid: true},
	}
)

func (p profile) evaluate(inv Invoice) error {
	return Evaluate(inv, p.want, p.skip)
}
