package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"pidstore/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var subject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = requestcontext.Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		header     string
		validator  JWTValidator
		wantStatus int
		wantSub    string
	}{
		{
			name:       "missing header",
			validator:  stubValidator{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer nope",
			validator:  stubValidator{err: errors.New("bad signature")},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing scope",
			header:     "Bearer ok",
			validator:  stubValidator{claims: &JWTClaims{Subject: "svc", Scopes: []string{"pid:read"}}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "valid token with scope",
			header:     "Bearer ok",
			validator:  stubValidator{claims: &JWTClaims{Subject: "svc", Scopes: []string{"pid:write"}}},
			wantStatus: http.StatusNoContent,
			wantSub:    "svc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject = ""
			h := RequireAuth(tt.validator, "pid:write", logger)(next)
			req := httptest.NewRequest(http.MethodPost, "/pids", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantSub, subject)
		})
	}
}
