package invoices

import (
	"context"
	"fmt"
	"strings"
)

// Queries exposes the read-only invoice lookups.
type Queries interface {
	Get(ctx context.Context, recordID string) (*Invoice, error)
	All(ctx context.Context) ([]Invoice, error)
	History(ctx context.Context, recordID string) ([]HistoryEntry, error)
	ByTxnHash(ctx context.Context, txnHash string) ([]Invoice, error)
	ByVendorEmailHash(ctx context.Context, hash string) ([]Invoice, error)
	ByVendorMobileHash(ctx context.Context, hash string) ([]Invoice, error)
	Count(ctx context.Context) (int64, error)
	Summary(ctx context.Context) (*Summary, error)
	Ping(ctx context.Context) error
}

type queryEngine struct {
	store Store
}

// NewQueries returns the query engine over store. Stores implementing
// FieldFinder answer secondary lookups from their indexes.
func NewQueries(store Store) (Queries, error) {
	if store == nil {
		return nil, fmt.Errorf("invoice store required")
	}
	return &queryEngine{store: store}, nil
}

func (q *queryEngine) Get(ctx context.Context, recordID string) (*Invoice, error) {
	if strings.TrimSpace(recordID) == "" {
		return nil, invalidInput([]string{"record_id"})
	}
	inv, err := q.store.Get(ctx, recordID)
	if err != nil {
		return nil, classifyStoreError(err, recordID)
	}
	return inv, nil
}

func (q *queryEngine) All(ctx context.Context) ([]Invoice, error) {
	all, err := q.store.List(ctx)
	if err != nil {
		return nil, classifyStoreError(err, "")
	}
	if len(all) == 0 {
		return nil, newViolation(ErrNotFound, "no invoices recorded", nil)
	}
	return all, nil
}

func (q *queryEngine) History(ctx context.Context, recordID string) ([]HistoryEntry, error) {
	if strings.TrimSpace(recordID) == "" {
		return nil, invalidInput([]string{"record_id"})
	}
	history, err := q.store.History(ctx, recordID)
	if err != nil {
		return nil, classifyStoreError(err, recordID)
	}
	if len(history) == 0 {
		return nil, notFound(recordID)
	}
	return history, nil
}

func (q *queryEngine) ByTxnHash(ctx context.Context, txnHash string) ([]Invoice, error) {
	return q.findBy(ctx, LookupTxnHash, txnHash)
}

func (q *queryEngine) ByVendorEmailHash(ctx context.Context, hash string) ([]Invoice, error) {
	return q.findBy(ctx, LookupVendorEmailHash, hash)
}

func (q *queryEngine) ByVendorMobileHash(ctx context.Context, hash string) ([]Invoice, error) {
	return q.findBy(ctx, LookupVendorMobileHash, hash)
}

func (q *queryEngine) Count(ctx context.Context) (int64, error) {
	count, err := q.store.Count(ctx)
	if err != nil {
		return 0, classifyStoreError(err, "")
	}
	return count, nil
}

func (q *queryEngine) Summary(ctx context.Context) (*Summary, error) {
	all, err := q.store.List(ctx)
	if err != nil {
		return nil, classifyStoreError(err, "")
	}
	return Summarize(all), nil
}

func (q *queryEngine) Ping(ctx context.Context) error {
	return q.store.Ping(ctx)
}

func (q *queryEngine) findBy(ctx context.Context, field LookupField, value string) ([]Invoice, error) {
	if strings.TrimSpace(value) == "" {
		return nil, invalidInput([]string{string(field)})
	}

	var (
		matches []Invoice
		err     error
	)
	if finder, ok := q.store.(FieldFinder); ok {
		matches, err = finder.FindBy(ctx, field, value)
	} else {
		matches, err = scan(ctx, q.store, field, value)
	}
	if err != nil {
		return nil, classifyStoreError(err, "")
	}
	if len(matches) == 0 {
		return nil, newViolation(ErrNotFound, "no invoice matches "+string(field), map[string]any{
			"field": string(field),
			"value": value,
		})
	}
	return matches, nil
}

func scan(ctx context.Context, store Store, field LookupField, value string) ([]Invoice, error) {
	all, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Invoice
	for _, inv := range all {
		if field.matches(inv, value) {
			out = append(out, inv)
		}
	}
	return out, nil
}
