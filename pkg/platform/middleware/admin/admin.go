// Package admin guards operator-only routes with a shared token.
package admin

import (
	"log/slog"
	"net/http"

	dErrors "pidstore/pkg/domain-errors"
	"pidstore/pkg/platform/httputil"
	"pidstore/pkg/platform/middleware/request"
	"pidstore/pkg/platform/secrets"
)

// HeaderAdminToken carries the operator token.
const HeaderAdminToken = "X-Admin-Token"

// RequireAdminToken rejects requests whose X-Admin-Token does not match the
// bcrypt tokenHash. An empty tokenHash rejects everything.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderAdminToken)
			if tokenHash == "" || token == "" || secrets.Verify(token, tokenHash) != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
