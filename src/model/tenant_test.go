package model

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/username/gescom/backend/src/database"
)

const testMigrationsURL = "file://../../db/migrations"

func newUser(t *testing.T, db *sql.DB, username, email string) *User {
	t.Helper()
	u := &User{Username: username, Email: email}
	require.NoError(t, u.HashPassword("S3cret!pass"))
	require.NoError(t, u.CreateUser(db))
	return u
}

func TestCreateTenantMembership(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)
	owner := newUser(t, db, "alice", "alice@example.com")
	outsider := newUser(t, db, "bob", "bob@example.com")

	tenant, err := CreateTenant(db, "Alice Shop", owner.ID)
	require.NoError(t, err)
	require.NotZero(t, tenant.ID)

	ok, err := UserBelongsToTenant(db, owner.ID, tenant.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = UserBelongsToTenant(db, outsider.ID, tenant.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, AddUserToTenant(db, outsider.ID, tenant.ID))
	ok, err = UserBelongsToTenant(db, outsider.ID, tenant.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestListTenantsForUser(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)
	alice := newUser(t, db, "alice", "alice@example.com")
	bob := newUser(t, db, "bob", "bob@example.com")

	_, err := CreateTenant(db, "Shop One", alice.ID)
	require.NoError(t, err)
	_, err = CreateTenant(db, "Shop Two", alice.ID)
	require.NoError(t, err)
	_, err = CreateTenant(db, "Bob Garage", bob.ID)
	require.NoError(t, err)

	tenants, err := ListTenantsForUser(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, tenants, 2)

	names := []string{tenants[0].Name, tenants[1].Name}
	require.Contains(t, names, "Shop One")
	require.Contains(t, names, "Shop Two")
}

func TestUserPasswordRoundTrip(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)
	u := newUser(t, db, "alice", "alice@example.com")

	loaded, err := GetUserByEmail(db, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, loaded.ID)
	require.Equal(t, "local", loaded.AuthProvider)
	require.NoError(t, loaded.CheckPassword("S3cret!pass"))
	require.Error(t, loaded.CheckPassword("wrong"))

	_, err = GetUserByEmail(db, "nobody@example.com")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserMFAUpdate(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)
	u := newUser(t, db, "alice", "alice@example.com")

	require.NoError(t, u.UpdateMFA(db, "JBSWY3DPEHPK3PXP", false))
	loaded, err := GetUserByID(db, u.ID)
	require.NoError(t, err)
	require.Equal(t, "JBSWY3DPEHPK3PXP", loaded.MfaSecret)
	require.False(t, loaded.MfaEnabled)

	require.NoError(t, u.UpdateMFA(db, "JBSWY3DPEHPK3PXP", true))
	loaded, err = GetUserByID(db, u.ID)
	require.NoError(t, err)
	require.True(t, loaded.MfaEnabled)
}

func TestSessionLifecycle(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)
	u := newUser(t, db, "alice", "alice@example.com")

	s := &Session{
		UserID:       u.ID,
		Token:        "access-token",
		RefreshToken: "refresh-token",
		UserAgent:    "go-test",
		ClientIP:     "127.0.0.1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, CreateSession(db, s))
	require.NotZero(t, s.ID)

	byToken, err := GetSessionByToken(db, "access-token")
	require.NoError(t, err)
	require.Equal(t, u.ID, byToken.UserID)

	byRefresh, err := GetSessionByRefreshToken(db, "refresh-token")
	require.NoError(t, err)
	require.Equal(t, s.ID, byRefresh.ID)

	require.NoError(t, DeleteSessionByRefreshToken(db, "refresh-token"))
	_, err = GetSessionByToken(db, "access-token")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
