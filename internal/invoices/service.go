package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/internal/clock"
	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/angelmondragon/invoicetrack-backend/pkg/metrics"
)

// Service exposes every mutating invoice operation.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Invoice, error)
	Acknowledge(ctx context.Context, input TransitionInput) (*Invoice, error)
	MarkPaid(ctx context.Context, input TransitionInput) (*Invoice, error)
	Reject(ctx context.Context, input TransitionInput) (*Invoice, error)
	Void(ctx context.Context, input TransitionInput) (*Invoice, error)
	Finance(ctx context.Context, input FinanceInput) (*Invoice, error)
	ConfirmPayment(ctx context.Context, input TransitionInput) (*Invoice, error)
	UpdateTracking(ctx context.Context, input TrackingInput) (*Invoice, error)
	DeleteCopy(ctx context.Context, input DeleteCopyInput) (*Invoice, error)
}

// ServiceParams wires the lifecycle service. Clock, Notifier and Metrics are optional.
type ServiceParams struct {
	Store    Store
	Clock    clock.Clock
	Notifier Notifier
	Logger   *logger.Logger
	Metrics  *metrics.LifecycleMetrics
}

type service struct {
	store    Store
	clock    clock.Clock
	notifier Notifier
	logg     *logger.Logger
	metrics  *metrics.LifecycleMetrics
}

// NewService builds the lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("invoice store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.System{}
	}
	if _, ok := clk.(*clock.Monotonic); !ok {
		clk = clock.NewMonotonic(clk)
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &service{
		store:    params.Store,
		clock:    clk,
		notifier: notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Invoice, error) {
	op := enums.InvoiceOperationCreated
	started := time.Now()
	if missing := input.missing(); len(missing) > 0 {
		return nil, s.fail(ctx, op, input.RecordID, started, invalidInput(missing))
	}

	inv := Invoice{
		RecordID:            input.RecordID,
		RecordType:          RecordType,
		VendorID:            input.VendorID,
		CreationDate:        input.CreationDate,
		DueDate:             input.DueDate,
		VendorEmail:         input.VendorEmail,
		VendorEmailHash:     input.VendorEmailHash,
		VendorMobile:        input.VendorMobile,
		VendorMobileHash:    input.VendorMobileHash,
		VendorName:          input.VendorName,
		ClientFirstName:     input.ClientFirstName,
		ClientLastName:      input.ClientLastName,
		ClientEmail:         input.ClientEmail,
		ClientMobile:        input.ClientMobile,
		Currency:            input.Currency,
		FundReception:       input.FundReception,
		Lines:               input.Lines,
		NetAmount:           input.NetAmount,
		Action:              input.Action,
		FinancingReferences: []string{},
		LastTxnHash:         input.TxnHash,
		LastModifiedAt:      s.clock.Now(),
	}

	created, err := s.store.Create(ctx, inv, op)
	if err != nil {
		return nil, s.fail(ctx, op, input.RecordID, started, classifyStoreError(err, input.RecordID))
	}
	s.succeed(ctx, op, created, started)
	return created, nil
}

func (s *service) Acknowledge(ctx context.Context, input TransitionInput) (*Invoice, error) {
	return s.transition(ctx, enums.InvoiceOperationAcknowledged, input, acknowledgeProfile, func(inv *Invoice) {
		inv.Acknowledged = true
	})
}

func (s *service) MarkPaid(ctx context.Context, input TransitionInput) (*Invoice, error) {
	return s.transition(ctx, enums.InvoiceOperationPaid, input, resolveProfile, func(inv *Invoice) {
		inv.Paid = true
	})
}

func (s *service) Reject(ctx context.Context, input TransitionInput) (*Invoice, error) {
	return s.transition(ctx, enums.InvoiceOperationRejected, input, resolveProfile, func(inv *Invoice) {
		inv.Rejected = true
	})
}

func (s *service) Void(ctx context.Context, input TransitionInput) (*Invoice, error) {
	return s.transition(ctx, enums.InvoiceOperationVoided, input, resolveProfile, func(inv *Invoice) {
		inv.Voided = true
	})
}

func (s *service) ConfirmPayment(ctx context.Context, input TransitionInput) (*Invoice, error) {
	return s.transition(ctx, enums.InvoiceOperationPaymentConfirmed, input, confirmPaymentProfile, func(inv *Invoice) {
		inv.Paid = true
		inv.PaymentConfirmed = true
	})
}

func (s *service) Finance(ctx context.Context, input FinanceInput) (*Invoice, error) {
	op := enums.InvoiceOperationFinanced
	started := time.Now()
	if missing := input.missing(); len(missing) > 0 {
		return nil, s.fail(ctx, op, input.RecordID, started, invalidInput(missing))
	}

	updated, err := s.store.Update(ctx, input.RecordID, op, func(inv *Invoice) error {
		if err := financeProfile.evaluate(*inv); err != nil {
			return err
		}
		if inv.HasFinancingReference(input.FinanceReference) {
			return newViolation(ErrAlreadyFinanced, "finance reference already recorded", map[string]any{
				"record_id":         inv.RecordID,
				"finance_reference": input.FinanceReference,
			})
		}
		inv.Financed = true
		inv.FinancingReferences = append(inv.FinancingReferences, input.FinanceReference)
		s.stamp(inv, input.Action, input.TxnHash)
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, input.RecordID, started, classifyStoreError(err, input.RecordID))
	}
	s.succeed(ctx, op, updated, started)
	return updated, nil
}

func (s *service) UpdateTracking(ctx context.Context, input TrackingInput) (*Invoice, error) {
	op := enums.InvoiceOperationTrackingUpdated
	started := time.Now()
	if missing := input.missing(); len(missing) > 0 {
		return nil, s.fail(ctx, op, input.RecordID, started, invalidInput(missing))
	}

	updated, err := s.store.Update(ctx, input.RecordID, op, func(inv *Invoice) error {
		inv.Tracking = input.Tracking
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, input.RecordID, started, classifyStoreError(err, input.RecordID))
	}
	s.succeed(ctx, op, updated, started)
	return updated, nil
}

func (s *service) DeleteCopy(ctx context.Context, input DeleteCopyInput) (*Invoice, error) {
	op := enums.InvoiceOperationDeleted
	started := time.Now()
	if missing := input.missing(); len(missing) > 0 {
		return nil, s.fail(ctx, op, input.RecordID, started, invalidInput(missing))
	}

	updated, err := s.store.Update(ctx, input.RecordID, op, func(inv *Invoice) error {
		flag := &inv.SentCopyDeleted
		if input.Side == enums.CopySideReceived {
			flag = &inv.ReceivedCopyDeleted
		}
		if *flag {
			return newViolation(ErrAlreadyDeleted, fmt.Sprintf("%s copy already deleted", input.Side), map[string]any{
				"record_id": inv.RecordID,
				"side":      string(input.Side),
			})
		}
		*flag = true
		inv.DeletedComments = input.Comment
		s.stamp(inv, input.Action, input.TxnHash)
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, input.RecordID, started, classifyStoreError(err, input.RecordID))
	}
	s.succeed(ctx, op, updated, started)
	return updated, nil
}

// transition runs the shared guard-mutate-commit flow of the flag operations.
func (s *service) transition(ctx context.Context, op enums.InvoiceOperation, input TransitionInput, p profile, apply func(inv *Invoice)) (*Invoice, error) {
	started := time.Now()
	if missing := input.missing(); len(missing) > 0 {
		return nil, s.fail(ctx, op, input.RecordID, started, invalidInput(missing))
	}

	updated, err := s.store.Update(ctx, input.RecordID, op, func(inv *Invoice) error {
		if err := p.evaluate(*inv); err != nil {
			return err
		}
		apply(inv)
		s.stamp(inv, input.Action, input.TxnHash)
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, input.RecordID, started, classifyStoreError(err, input.RecordID))
	}
	s.succeed(ctx, op, updated, started)
	return updated, nil
}

// stamp records the caller action, rotates the hash chain and refreshes the timestamp.
func (s *service) stamp(inv *Invoice, action, txnHash string) {
	inv.Action = action
	inv.rotateTxnHash(txnHash)
	inv.LastModifiedAt = s.clock.Now()
}

func (s *service) succeed(ctx context.Context, op enums.InvoiceOperation, inv *Invoice, started time.Time) {
	ctx = s.logg.WithInvoice(ctx, inv.RecordID, string(op))
	ctx = s.logg.WithField(ctx, "revision", inv.Revision)
	s.logg.Info(ctx, "invoice operation committed")
	s.metrics.ObserveOperation(string(op), metrics.OutcomeOK, time.Since(started))

	event := Event{
		Operation:  op,
		RecordID:   inv.RecordID,
		Revision:   inv.Revision,
		TxnHash:    inv.LastTxnHash,
		OccurredAt: s.clock.Now(),
		Invoice:    inv.Clone(),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.metrics.IncNotifyFailure(string(op))
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "invoice notification failed")
	}
}

func (s *service) fail(ctx context.Context, op enums.InvoiceOperation, recordID string, started time.Time, err error) error {
	outcome := ViolationName(err)
	ctx = s.logg.WithInvoice(ctx, recordID, string(op))
	if outcome == "" {
		outcome = "error"
		s.logg.Error(ctx, "invoice operation failed", err)
	} else {
		ctx = s.logg.WithField(ctx, "violation", outcome)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "invoice operation rejected")
	}
	s.metrics.ObserveOperation(string(op), outcome, time.Since(started))
	return err
}
