package audit

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pidstore/pkg/platform/middleware/admin"
	"pidstore/pkg/platform/secrets"
	"pidstore/pkg/testutil"
)

func newAuditRouter(t *testing.T) (http.Handler, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	hash, err := secrets.Hash("ops-token")
	require.NoError(t, err)
	r := chi.NewRouter()
	NewHandler(NewPublisher(store), hash, discard).Register(r)
	return r, store
}

func TestHandleList(t *testing.T) {
	testutil.Given(t, "recorded events for a doi", func(t *testing.T) {
		router, store := newAuditRouter(t)
		require.NoError(t, store.Append(context.Background(), Event{Action: ActionCreated, PIDValue: "10.5555/a"}))
		require.NoError(t, store.Append(context.Background(), Event{Action: ActionCreated, PIDValue: "10.5555/b"}))

		testutil.When(t, "an operator lists them", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/audit/"+"10.5555%2FA", nil)
			req.Header.Set(admin.HeaderAdminToken, "ops-token")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "only that doi's events are returned", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rr.Code)
				resp := testutil.UnmarshalResponse[listResponse](t, rr)
				assert.Equal(t, "10.5555/a", resp.DOI)
				require.Len(t, resp.Events, 1)
				assert.Equal(t, ActionCreated, resp.Events[0].Action)
			})
		})

		testutil.When(t, "the token is missing", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/admin/audit/10.5555%2Fa", nil))
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		})
	})

	testutil.Given(t, "a doi without events", func(t *testing.T) {
		router, _ := newAuditRouter(t)
		req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/audit/10.5555%2Fnone", nil)
		req.Header.Set(admin.HeaderAdminToken, "ops-token")
		rr := testutil.DoRequest(router, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"doi":"10.5555/none","events":[]}`, rr.Body.String())
	})

	testutil.Given(t, "a malformed doi", func(t *testing.T) {
		router, _ := newAuditRouter(t)
		req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/audit/nonsense", nil)
		req.Header.Set(admin.HeaderAdminToken, "ops-token")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}
