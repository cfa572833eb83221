package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/angelmondragon/invoicetrack-backend/pkg/types"
)

type stubPinger struct {
	err   error
	calls int
}

func (s *stubPinger) Ping(context.Context) error {
	s.calls++
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "dev"}}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(testConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-InvoiceTrack-Env"); got != "dev" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestHealthReadyPingsDependencies(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	store := &stubPinger{}
	handler := HealthReady(testConfig(), logg, map[string]Pinger{"store": store, "pubsub": nil})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.calls != 1 {
		t.Fatalf("expected store pinged once, got %d", store.calls)
	}

	store.err = errors.New("connection refused")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Error.Code != "DEPENDENCY_ERROR" || body.Error.Message != "store not ready" {
		t.Fatalf("unexpected error %+v", body.Error)
	}
}

func TestPublicPing(t *testing.T) {
	rec := httptest.NewRecorder()
	PublicPing().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
