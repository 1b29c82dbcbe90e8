package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"churchadmin/internal/api"
	"churchadmin/internal/database"
	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/security"
	"churchadmin/internal/service"
)

// newAPIServer runs the real API over a temporary SQLite database
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), "", zap.NewNop()))

	logger := zap.NewNop()
	auth := service.NewAuthService(repository.NewUserRepository(db), security.NewTokenIssuer("client-secret"), nil, time.Hour, logger)
	srv := api.NewServer(auth, service.NewRecords(db, logger), service.NewDashboardService(db, logger), nil, logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientAgainstAPI(t *testing.T) {
	ts := newAPIServer(t)
	ctx := context.Background()
	c := New(ts.URL + "/api")

	_, err := c.Me(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	auth, err := c.Register(ctx, "clerk@parish.org", "password123", "Parish Clerk")
	require.NoError(t, err)
	assert.NotEmpty(t, auth.Token)
	assert.True(t, auth.User.IsAdmin)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "clerk@parish.org", me.Email)

	zonal, err := c.ZonalLeaders().Create(ctx, &models.ZonalLeader{FullName: "Grace Obi", Gender: "female", ZoneNumber: "4"})
	require.NoError(t, err)
	require.NotEmpty(t, zonal.ID)

	found, err := c.ResolveZonalLeader(ctx, " 4 ")
	require.NoError(t, err)
	assert.Equal(t, zonal.ID, found.ID)

	_, err = c.ResolveZonalLeader(ctx, "9")
	assert.True(t, IsNotFound(err))

	_, err = c.UnitLeaders().Create(ctx, &models.UnitLeader{FullName: "Peter Eze", Gender: "male", UnitName: "St. Jude", ZoneNumber: "9"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "zone_number", apiErr.Field)

	unit, err := c.UnitLeaders().Create(ctx, &models.UnitLeader{FullName: "Peter Eze", Gender: "male", UnitName: "St. Jude", ZoneNumber: "4"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Obi", unit.ZonalLeaderName)

	patched, err := c.UnitLeaders().Patch(ctx, unit.ID, map[string]any{"phone": "0803 555 0101"})
	require.NoError(t, err)
	assert.Equal(t, "0803 555 0101", patched.Phone)
	assert.Equal(t, "St. Jude", patched.UnitName)

	units, err := c.UnitLeaders().List(ctx, "jude")
	require.NoError(t, err)
	require.Len(t, units, 1)

	raw, err := c.Records("unit-leaders")
	require.NoError(t, err)
	rows, err := raw.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = c.Records("tithes")
	assert.Error(t, err)

	dash, err := c.Dashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, dash.Tiles, len(models.Kinds))
	assert.Empty(t, dash.DuplicateZones)

	require.NoError(t, c.UnitLeaders().Delete(ctx, unit.ID))
	_, err = c.UnitLeaders().Get(ctx, unit.ID)
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Logout(ctx))
	_, err = c.Me(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	ts := newAPIServer(t)
	ctx := context.Background()

	store := NewMemoryTokenStore()
	c := New(ts.URL+"/api", WithTokenStore(store))
	_, err := c.Register(ctx, "clerk@parish.org", "password123", "Parish Clerk")
	require.NoError(t, err)
	token, _ := store.Token()

	require.NoError(t, c.Logout(ctx))

	// A second client still holding the old token is turned away.
	stale := NewMemoryTokenStore()
	require.NoError(t, stale.SetToken(token))
	_, err = New(ts.URL+"/api", WithTokenStore(stale)).Me(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestErrorFallbackMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "<html>upstream down</html>", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Me(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestBearerTokenIsSent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"email":"a@b.org"}`))
	}))
	defer ts.Close()

	store := NewMemoryTokenStore()
	c := New(ts.URL, WithTokenStore(store))

	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.SetToken("abc"))
	_, err = c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	_, err := New(ts.URL, WithTimeout(50*time.Millisecond)).Dashboard(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileTokenStore(path)

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SetToken("secret-token"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = NewFileTokenStore(path).Token()
	require.NoError(t, err)
	assert.Equal(t, "secret-token", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	token, err = store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}
