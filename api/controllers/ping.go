package controllers

import (
	"net/http"

	"github.com/angelmondragon/invoicetrack-backend/api/responses"
	"github.com/angelmondragon/invoicetrack-backend/pkg/instance"
)

// PublicPing answers unauthenticated liveness checks with the replica id, so
// a load balancer probe can tell which instance served it.
func PublicPing() http.HandlerFunc {
	id := instance.GetID()
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"service":  "invoicetrack",
			"status":   "ok",
			"instance": id,
		})
	}
}
