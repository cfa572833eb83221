package instance

import (
	"os"
	"strings"
)

const (
	EnvInstanceID = "INVOICETRACK_INSTANCE_ID"
	defaultID     = "local"
)

// GetID identifies the running process in logs and outbox attributes. It
// prefers INVOICETRACK_INSTANCE_ID, then the host name.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv(EnvInstanceID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
