package instance

import (
	"os"
	"testing"
)

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv(EnvInstanceID, " api-2 ")
	if got := GetID(); got != "api-2" {
		t.Fatalf("expected api-2, got %q", got)
	}
}

func TestGetIDFallsBackToHostname(t *testing.T) {
	t.Setenv(EnvInstanceID, "")
	want, err := os.Hostname()
	if err != nil || want == "" {
		want = defaultID
	}
	if got := GetID(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
