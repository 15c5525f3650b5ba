package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pidstore/internal/audit"
	jwttoken "pidstore/internal/jwt_token"
	"pidstore/internal/pid/handler"
	"pidstore/internal/pid/models"
	"pidstore/internal/pid/service"
	"pidstore/internal/pid/store"
	"pidstore/pkg/platform/middleware/request"
	"pidstore/pkg/platform/secrets"
	"pidstore/pkg/testutil"
)

type stubHealth struct{ err error }

func (s stubHealth) Health(context.Context) error { return s.err }

var opsTokenHash = func() string {
	hash, err := secrets.Hash("ops-token")
	if err != nil {
		panic(err)
	}
	return hash
}()

func newTestRouter(health healthChecker) http.Handler {
	return newTestRouterWith(health, nil)
}

func newTestRouterWith(health healthChecker, svc handler.Service) http.Handler {
	jwtService := jwttoken.NewJWTService("test-key", "pidstore", "pidstore-api")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.New(svc, jwttoken.NewJWTServiceAdapter(jwtService), logger)
	trail := audit.NewHandler(audit.NewPublisher(audit.NewMemoryStore()), opsTokenHash, logger)
	return newRouter(health, prometheus.NewRegistry(), h, trail)
}

func TestHealthz(t *testing.T) {
	t.Run("healthy backends", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(stubHealth{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("unreachable backend", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(stubHealth{err: errors.New("redis: connection refused")}),
			httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		testutil.AssertJSONContains(t, rr, "status", "unavailable")
	})
}

func TestRouterMiddleware(t *testing.T) {
	router := newTestRouter(stubHealth{})

	rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, testutil.PIDPath("10.5555/abc"), nil))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	assert.NotEmpty(t, rr.Header().Get(request.HeaderRequestID))

	rr = testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `pidstore_http_requests_total{method="GET",route="/pids/{value}",status="401"}`)
}

func TestAdminRoutes(t *testing.T) {
	router := newTestRouter(stubHealth{})

	rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/admin/audit/10.5555%2Fabc", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	req := httptest.NewRequest(http.MethodGet, "/admin/audit/10.5555%2Fabc", nil)
	req.Header.Set("X-Admin-Token", "ops-token")
	rr = testutil.DoRequest(router, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestEscapedDOIReachesPIDRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewInMemoryStore()
	factory := func(*models.PersistentIdentifier) (service.Provider, error) {
		return nil, errors.New("no remote calls expected")
	}
	svc, err := service.New(st, factory, service.WithLogger(logger))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), service.CreateRequest{Value: "10.5555/x"})
	require.NoError(t, err)

	jwtService := jwttoken.NewJWTService("test-key", "pidstore", "pidstore-api")
	token, err := jwtService.GenerateAccessToken("reader", []string{handler.ScopeRead}, time.Minute)
	require.NoError(t, err)
	router := newTestRouterWith(stubHealth{}, svc)

	req := testutil.WithBearer(httptest.NewRequest(http.MethodGet, "/pids/10.5555%2Fx", nil), token)
	rr := testutil.DoRequest(router, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	testutil.AssertJSONContains(t, rr, "doi", "10.5555/x")
	testutil.AssertJSONContains(t, rr, "status", "new")
}
