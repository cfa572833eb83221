package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/invoicetrack-backend/api/controllers"
	"github.com/angelmondragon/invoicetrack-backend/internal/clock"
	"github.com/angelmondragon/invoicetrack-backend/internal/invoices"
	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/angelmondragon/invoicetrack-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	reg := prometheus.NewRegistry()
	store := invoices.NewMemoryStore()
	svc, err := invoices.NewService(invoices.ServiceParams{
		Store:   store,
		Clock:   clock.NewFakeClock(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)),
		Logger:  logg,
		Metrics: metrics.NewLifecycleMetrics(reg),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	queries, err := invoices.NewQueries(store)
	if err != nil {
		t.Fatalf("NewQueries: %v", err)
	}
	cfg := &config.Config{App: config.AppConfig{Env: "dev", CORSOrigins: []string{"http://localhost:3000"}}}
	return NewRouter(cfg, logg, Dependencies{
		Service: svc,
		Queries: queries,
		Ready:   map[string]controllers.Pinger{"store": queries, "redis": stubPinger{}},
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	h := newTestRouter(t)
	if rec := serve(h, http.MethodGet, "/health/live", ""); rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", rec.Code)
	}
	rec := serve(h, http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header on every response")
	}
}

func TestInvoiceRoutesWired(t *testing.T) {
	h := newTestRouter(t)

	create := `{"record_id":"INV-1","vendor_id":"V-1","action":"Created","creation_date":"2024-03-01",` +
		`"due_date":"2024-04-01","vendor_email":"a@b.test","vendor_email_hash":"E1","vendor_mobile":"1",` +
		`"vendor_mobile_hash":"M1","vendor_name":"Acme","client_first_name":"Ada","client_last_name":"L",` +
		`"client_email":"c@d.test","client_mobile":"2","currency":"USD","fund_reception":"wire",` +
		`"lines":"[]","net_amount":"10.00","txn_hash":"h0"}`
	if rec := serve(h, http.MethodPost, "/api/v1/invoices/", create); rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/v1/invoices/", "", http.StatusOK},
		{http.MethodGet, "/api/v1/invoices/count", "", http.StatusOK},
		{http.MethodGet, "/api/v1/invoices/summary", "", http.StatusOK},
		{http.MethodGet, "/api/v1/invoices/INV-1", "", http.StatusOK},
		{http.MethodGet, "/api/v1/invoices/INV-1/history", "", http.StatusOK},
		{http.MethodGet, "/api/v1/invoices/by-txn-hash/h0", "", http.StatusOK},
		{http.MethodGet, "/api/v1/invoices/by-vendor-email-hash/E1", "", http.StatusOK},
		{http.MethodGet, "/api/v1/invoices/by-vendor-mobile-hash/M1", "", http.StatusOK},
		{http.MethodPost, "/api/v1/invoices/INV-1/pay", `{"action":"Paid","txn_hash":"h1"}`, http.StatusUnprocessableEntity},
		{http.MethodPost, "/api/v1/invoices/INV-1/acknowledge", `{"action":"Acknowledged","txn_hash":"h1"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/invoices/INV-1/finance", `{"finance_reference":"F1","action":"Financed","txn_hash":"h2"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/invoices/INV-1/confirm-payment", `{"action":"Confirmed","txn_hash":"h3"}`, http.StatusUnprocessableEntity},
		{http.MethodPost, "/api/v1/invoices/INV-1/reject", `{"action":"Rejected","txn_hash":"h3"}`, http.StatusUnprocessableEntity},
		{http.MethodPost, "/api/v1/invoices/INV-1/void", `{"action":"Voided","txn_hash":"h3"}`, http.StatusUnprocessableEntity},
		{http.MethodPut, "/api/v1/invoices/INV-1/tracking", `{"event":"opened"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/invoices/INV-1/delete", `{"side":"received","action":"Deleted","txn_hash":"h3"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/invoices/INV-404", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := serve(h, tc.method, tc.path, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
		}
	}

	rec := serve(h, http.MethodGet, "/api/v1/invoices/INV-1/history", "")
	var body struct {
		Data []invoices.HistoryEntry `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(body.Data) != 5 {
		t.Fatalf("expected 5 accepted mutations in history, got %d", len(body.Data))
	}
}

func TestMetricsRouteExposesLifecycleMetrics(t *testing.T) {
	h := newTestRouter(t)
	serve(h, http.MethodPost, "/api/v1/invoices/INV-1/acknowledge", `{"action":"Acknowledged","txn_hash":"h1"}`)

	rec := serve(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invoice_operations_total") {
		t.Fatalf("expected lifecycle counters in metrics output")
	}
}
