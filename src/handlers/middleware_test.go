package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/gescom/backend/src/database"
	"github.com/username/gescom/backend/src/model"
)

const handlersMigrationsURL = "file://../../db/migrations"

func newTenantUser(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, u.HashPassword("S3cret!pass"))
	require.NoError(t, u.CreateUser(database.DB))
	return u
}

// tenantScoped runs TenantMiddleware around a handler that echoes the
// resolved tenant id.
func tenantScoped(t *testing.T, userID int64, header string) *httptest.ResponseRecorder {
	t.Helper()
	h := &UserHandler{}
	handler := h.TenantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := GetTenantIDFromContext(r.Context())
		require.True(t, ok)
		fmt.Fprintf(w, "%d", tenantID)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDContextKey, userID))
	if header != "" {
		req.Header.Set("X-Tenant-ID", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestTenantMiddlewareSoleTenantFallback(t *testing.T) {
	prev := database.DB
	database.DB = database.NewTestDB(t, handlersMigrationsURL)
	t.Cleanup(func() { database.DB = prev })

	alice := newTenantUser(t, "alice")
	shop, err := model.CreateTenant(database.DB, "Alice Shop", alice.ID)
	require.NoError(t, err)

	// One tenant: the header is optional.
	rec := tenantScoped(t, alice.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, fmt.Sprintf("%d", shop.ID), rec.Body.String())

	// A second tenant makes the scope ambiguous.
	_, err = model.CreateTenant(database.DB, "Alice Annex", alice.ID)
	require.NoError(t, err)

	rec = tenantScoped(t, alice.ID, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Explicit header still works for either.
	rec = tenantScoped(t, alice.ID, fmt.Sprintf("%d", shop.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, fmt.Sprintf("%d", shop.ID), rec.Body.String())
}

func TestTenantMiddlewareRejectsNonMembers(t *testing.T) {
	prev := database.DB
	database.DB = database.NewTestDB(t, handlersMigrationsURL)
	t.Cleanup(func() { database.DB = prev })

	alice := newTenantUser(t, "alice")
	bob := newTenantUser(t, "bob")
	shop, err := model.CreateTenant(database.DB, "Alice Shop", alice.ID)
	require.NoError(t, err)

	rec := tenantScoped(t, bob.ID, fmt.Sprintf("%d", shop.ID))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = tenantScoped(t, alice.ID, "0")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = tenantScoped(t, alice.ID, "abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
