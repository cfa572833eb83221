package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
)

const (
	requestIDHeader     = "X-Request-Id"
	correlationIDHeader = "X-Correlation-Id"
	maxRequestIDLen     = 128
)

// RequestID reuses a caller supplied X-Request-Id (or X-Correlation-Id) when
// it is printable and short, and mints a uuid otherwise.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := inboundRequestID(r)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func inboundRequestID(r *http.Request) string {
	for _, header := range []string{requestIDHeader, correlationIDHeader} {
		value := strings.TrimSpace(r.Header.Get(header))
		if value == "" || len(value) > maxRequestIDLen {
			continue
		}
		if strings.IndexFunc(value, func(c rune) bool { return c < 0x21 || c > 0x7e }) >= 0 {
			continue
		}
		return value
	}
	return ""
}
