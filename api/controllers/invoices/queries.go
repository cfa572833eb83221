package invoices

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/invoicetrack-backend/api/responses"
	"github.com/angelmondragon/invoicetrack-backend/api/validators"
	internalinvoices "github.com/angelmondragon/invoicetrack-backend/internal/invoices"
	pkgerrors "github.com/angelmondragon/invoicetrack-backend/pkg/errors"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
)

type lookupFunc func(ctx context.Context, value string) ([]internalinvoices.Invoice, error)

// Get returns the current state of one invoice.
func Get(q internalinvoices.Queries, logg *logger.Logger) http.HandlerFunc {
	if q == nil {
		return queriesUnavailable(logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := q.Get(r.Context(), recordIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

// List returns every invoice ordered by record id.
func List(q internalinvoices.Queries, logg *logger.Logger) http.HandlerFunc {
	if q == nil {
		return queriesUnavailable(logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := q.All(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, all)
	}
}

func History(q internalinvoices.Queries, logg *logger.Logger) http.HandlerFunc {
	if q == nil {
		return queriesUnavailable(logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := q.History(r.Context(), recordIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func Count(q internalinvoices.Queries, logg *logger.Logger) http.HandlerFunc {
	if q == nil {
		return queriesUnavailable(logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := q.Count(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"count": n})
	}
}

func Summary(q internalinvoices.Queries, logg *logger.Logger) http.HandlerFunc {
	if q == nil {
		return queriesUnavailable(logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := q.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func ByTxnHash(q internalinvoices.Queries, logg *logger.Logger) http.HandlerFunc {
	if q == nil {
		return queriesUnavailable(logg)
	}
	return lookup(q.ByTxnHash, logg)
}

func ByVendorEmailHash(q internalinvoices.Queries, logg *logger.Logger) http.HandlerFunc {
	if q == nil {
		return queriesUnavailable(logg)
	}
	return lookup(q.ByVendorEmailHash, logg)
}

func ByVendorMobileHash(q internalinvoices.Queries, logg *logger.Logger) http.HandlerFunc {
	if q == nil {
		return queriesUnavailable(logg)
	}
	return lookup(q.ByVendorMobileHash, logg)
}

func lookup(fn lookupFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := fn(r.Context(), validators.SanitizeString(chi.URLParam(r, "hash"), maxFieldLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, matches)
	}
}

func queriesUnavailable(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice queries unavailable"))
	}
}
