package httpx

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/roomkey/pkg/slogx"
)

// AdminKeyHeader carries the admin credential on privileged routes.
const AdminKeyHeader = "X-Admin-Key"

// KeyVerifier reports whether a presented admin key is valid.
type KeyVerifier interface {
	VerifyKey(presented string) bool
}

// AdminKeyMiddleware rejects requests whose X-Admin-Key does not verify. A nil
// verifier rejects everything.
func AdminKeyMiddleware(v KeyVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(AdminKeyHeader)

			if v == nil || presented == "" || !v.VerifyKey(presented) {
				slogx.FromContext(r.Context()).Warn("admin key rejected",
					slog.Bool("present", presented != ""),
				)
				WriteError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing or invalid admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
