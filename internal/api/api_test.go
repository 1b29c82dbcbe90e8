package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/security"
	"churchadmin/internal/service"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), "", zap.NewNop()))

	logger := zap.NewNop()
	auth := service.NewAuthService(repository.NewUserRepository(db), security.NewTokenIssuer("api-secret"), nil, time.Hour, logger)
	srv := NewServer(auth, service.NewRecords(db, logger), service.NewDashboardService(db, logger), nil, logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testAPI{t: t, server: ts}
}

// signIn registers the admin account and keeps its token
func (a *testAPI) signIn() {
	a.t.Helper()
	var out tokenResponse
	res := a.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "admin@parish.org", "password": "password123", "name": "Parish Admin",
	}, &out)
	require.Equal(a.t, http.StatusCreated, res.StatusCode)
	require.NotEmpty(a.t, out.Token)
	a.token = out.Token
}

func (a *testAPI) do(method, path string, body any, out any) *http.Response {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	res, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func TestHealthAndDocsArePublic(t *testing.T) {
	a := newTestAPI(t)

	var health map[string]any
	res := a.do(http.MethodGet, "/api/health", nil, &health)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", health["status"])

	res = a.do(http.MethodGet, "/api/docs/openapi.yaml", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRequiresBearerToken(t *testing.T) {
	a := newTestAPI(t)

	var out errorResponse
	res := a.do(http.MethodGet, "/api/baptisms", nil, &out)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.NotEmpty(t, out.Error)

	a.token = "not-a-token"
	res = a.do(http.MethodGet, "/api/dashboard", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	a := newTestAPI(t)
	a.signIn()

	var me models.User
	res := a.do(http.MethodGet, "/api/auth/me", nil, &me)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "admin@parish.org", me.Email)
	assert.True(t, me.IsAdmin)

	res = a.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "admin@parish.org", "password": "password123", "name": "Again",
	}, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	token := a.token
	a.token = ""
	res = a.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@parish.org", "password": "nope-nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	var login tokenResponse
	res = a.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@parish.org", "password": "password123"}, &login)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, me.ID, login.User.ID)

	a.token = token
	res = a.do(http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	res = a.do(http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "logged out token is revoked")

	a.token = login.Token
	res = a.do(http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "other sessions stay valid")
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	a := newTestAPI(t)
	res := a.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "nobody@parish.org"}, nil)
	assert.Equal(t, http.StatusAccepted, res.StatusCode)

	res = a.do(http.MethodPost, "/api/auth/reset-password", map[string]string{"token": "bogus", "password": "password123"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRecordCRUD(t *testing.T) {
	a := newTestAPI(t)
	a.signIn()

	var created models.Marriage
	res := a.do(http.MethodPost, "/api/marriages", map[string]any{
		"id":            "client-chosen",
		"groom_name":    "Chidi Okafor",
		"bride_name":    "Amaka Nwosu",
		"marriage_date": "2024-06-15",
		"venue":         "St. Mary's",
		"officiant":     "Fr. Paul",
		"marriage_type": "sacramental",
		"witness_one":   "Ike",
	}, &created)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.NotEqual(t, "client-chosen", created.ID)
	assert.NotEmpty(t, created.ID)

	var list []models.Marriage
	res = a.do(http.MethodGet, "/api/marriages?q=amaka", nil, &list)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, list, 1)

	res = a.do(http.MethodGet, "/api/marriages?q=nobody", nil, &list)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, list)

	var patched models.Marriage
	res = a.do(http.MethodPatch, "/api/marriages/"+created.ID, map[string]any{"venue": "Holy Cross", "created_at": "2000-01-01T00:00:00Z"}, &patched)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Holy Cross", patched.Venue)
	assert.Equal(t, "Ike", patched.WitnessOne, "fields not supplied keep their values")
	assert.True(t, created.CreatedAt.Equal(patched.CreatedAt))

	var fetched models.Marriage
	res = a.do(http.MethodGet, "/api/marriages/"+created.ID, nil, &fetched)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Holy Cross", fetched.Venue)

	res = a.do(http.MethodDelete, "/api/marriages/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	res = a.do(http.MethodGet, "/api/marriages/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res = a.do(http.MethodDelete, "/api/marriages/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRecordErrors(t *testing.T) {
	a := newTestAPI(t)
	a.signIn()

	res := a.do(http.MethodPost, "/api/baptisms", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var verr errorResponse
	res = a.do(http.MethodPost, "/api/choir-members", map[string]any{"full_name": "Ada", "gender": "female", "voice_part": "contralto"}, &verr)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, "voice_part", verr.Field)

	res = a.do(http.MethodPost, "/api/choir-members", map[string]any{"full_name": strings.Repeat("A", 300), "gender": "female", "voice_part": "alto"}, &verr)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, "full_name", verr.Field)

	res = a.do(http.MethodPatch, "/api/burials/missing", map[string]any{"place_of_burial": "X"}, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUnitLeadersNeedAZonalLeader(t *testing.T) {
	a := newTestAPI(t)
	a.signIn()

	unit := map[string]any{"full_name": "Grace", "gender": "female", "unit_name": "St. Jude", "zone_number": "4"}
	var verr errorResponse
	res := a.do(http.MethodPost, "/api/unit-leaders", unit, &verr)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, "zone_number", verr.Field)

	res = a.do(http.MethodGet, "/api/zonal-leaders/resolve?zone=4", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var zonal models.ZonalLeader
	res = a.do(http.MethodPost, "/api/zonal-leaders", map[string]any{"full_name": "Peter", "gender": "male", "zone_number": "4"}, &zonal)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = a.do(http.MethodPost, "/api/zonal-leaders", map[string]any{"full_name": "Paul", "gender": "male", "zone_number": " 4 "}, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	var resolved models.ZonalLeader
	res = a.do(http.MethodGet, "/api/zonal-leaders/resolve?zone=4", nil, &resolved)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, zonal.ID, resolved.ID)

	var created models.UnitLeader
	res = a.do(http.MethodPost, "/api/unit-leaders", unit, &created)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, zonal.ID, created.ZonalLeaderID)
	assert.Equal(t, "Peter", created.ZonalLeaderName)

	res = a.do(http.MethodDelete, "/api/zonal-leaders/"+zonal.ID, nil, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestPatchReplacesChildren(t *testing.T) {
	a := newTestAPI(t)
	a.signIn()

	var reg models.MemberRegistration
	res := a.do(http.MethodPost, "/api/member-registrations", map[string]any{
		"family_name": "Adeyemi", "head_of_family": "Tunde", "marital_status": "married",
		"children": []map[string]any{
			{"full_name": "Kunle", "gender": "male"},
			{"full_name": "Tola", "gender": "female"},
		},
	}, &reg)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Len(t, reg.Children, 2)

	var renamed models.MemberRegistration
	res = a.do(http.MethodPatch, "/api/member-registrations/"+reg.ID, map[string]any{"phone": "0803 555 0101"}, &renamed)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, renamed.Children, 2, "children are kept when not supplied")

	var replaced models.MemberRegistration
	res = a.do(http.MethodPatch, "/api/member-registrations/"+reg.ID, map[string]any{
		"children": []map[string]any{{"id": reg.Children[1].ID, "full_name": "Tola", "gender": "female", "is_baptized": true}},
	}, &replaced)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, replaced.Children, 1)
	assert.Equal(t, "Tola", replaced.Children[0].FullName)
	assert.True(t, replaced.Children[0].IsBaptized)
	assert.Equal(t, "0803 555 0101", replaced.Phone)
}

func TestDashboardEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.signIn()

	res := a.do(http.MethodPost, "/api/youth-members", map[string]any{"full_name": "Ada", "gender": "female", "is_active": true}, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var d service.Dashboard
	res = a.do(http.MethodGet, "/api/dashboard", nil, &d)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, d.Total(models.KindYouthMember.Slug))
}

func TestRateLimitedLogin(t *testing.T) {
	db, err := database.Initialize(filepath.Join(t.TempDir(), "limit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), "", zap.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	logger := zap.NewNop()
	auth := service.NewAuthService(repository.NewUserRepository(db), security.NewTokenIssuer("s"), nil, time.Hour, logger)
	srv := NewServer(auth, service.NewRecords(db, logger), service.NewDashboardService(db, logger), security.NewRateLimiter(ctx, 1, time.Minute), logger)
	router := srv.Router()

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{"email":"a@b.org","password":"password123"}`)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusUnauthorized, login())
	assert.Equal(t, http.StatusTooManyRequests, login())
}
