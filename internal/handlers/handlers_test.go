package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
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
	"churchadmin/internal/templates"
)

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// console drives the console pages over a temporary SQLite database
type console struct {
	t       *testing.T
	server  *httptest.Server
	records *service.Records
}

func newConsole(t *testing.T) *console {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "console.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), "", zap.NewNop()))

	tmpl, err := templates.Load()
	require.NoError(t, err)

	logger := zap.NewNop()
	auth := service.NewAuthService(repository.NewUserRepository(db), security.NewTokenIssuer("console-secret"), nil, time.Hour, logger)
	records := service.NewRecords(db, logger)
	m := NewMiddleware(auth, security.NewCSRFGenerator("console-csrf"), nil, logger)

	authHandler := NewAuthHandler(auth, tmpl, m, nil, "", logger)
	dashboardHandler := NewDashboardHandler(service.NewDashboardService(db, logger), tmpl, m, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", authHandler.Home)
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", LimitBody(maxFormBytes, m.CSRFProtect(authHandler.Login)))
	mux.HandleFunc("GET /register", authHandler.ShowRegister)
	mux.HandleFunc("POST /register", LimitBody(maxFormBytes, m.CSRFProtect(authHandler.Register)))
	mux.HandleFunc("POST /logout", LimitBody(maxFormBytes, m.CSRFProtect(authHandler.Logout)))
	mux.HandleFunc("GET /dashboard", m.RequireAuth(dashboardHandler.ShowDashboard))
	NewRecordHandlers(records, tmpl, m, logger).Register(mux)
	NewAdminHandler(tmpl, service.NewBackupService(db, logger), nil, "", "", m, logger).Register(mux)

	server := httptest.NewServer(Recover(logger)(mux))
	t.Cleanup(server.Close)
	return &console{t: t, server: server, records: records}
}

// session is one browser with its own cookie jar
type session struct {
	c    *console
	http *http.Client
}

func (c *console) browser() *session {
	jar, err := cookiejar.New(nil)
	require.NoError(c.t, err)
	return &session{c: c, http: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

type page struct {
	status   int
	body     string
	location string
}

func (p page) csrf(t *testing.T) string {
	t.Helper()
	m := csrfPattern.FindStringSubmatch(p.body)
	require.Len(t, m, 2, "page has no csrf token")
	return m[1]
}

func (s *session) get(path string) page {
	s.c.t.Helper()
	resp, err := s.http.Get(s.c.server.URL + path)
	require.NoError(s.c.t, err)
	return read(s.c.t, resp)
}

func (s *session) post(path string, form url.Values) page {
	s.c.t.Helper()
	resp, err := s.http.PostForm(s.c.server.URL+path, form)
	require.NoError(s.c.t, err)
	return read(s.c.t, resp)
}

// submit posts form to path with the csrf token of the page at from
func (s *session) submit(from, path string, form url.Values) page {
	s.c.t.Helper()
	form.Set("csrf_token", s.get(from).csrf(s.c.t))
	return s.post(path, form)
}

func read(t *testing.T, resp *http.Response) page {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return page{status: resp.StatusCode, body: string(body), location: resp.Header.Get("Location")}
}

func (s *session) register(email, name string) {
	s.c.t.Helper()
	p := s.submit("/register", "/register", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {"password123"},
	})
	require.Equal(s.c.t, http.StatusSeeOther, p.status, p.body)
	require.Equal(s.c.t, "/dashboard", p.location)
}

func (c *console) signedIn() *session {
	s := c.browser()
	s.register("clerk@parish.org", "Parish Clerk")
	return s
}

func TestSignInFlow(t *testing.T) {
	c := newConsole(t)
	s := c.browser()

	p := s.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Equal(t, "/login", p.location)

	p = s.get("/")
	assert.Equal(t, "/login", p.location)

	p = s.post("/login", url.Values{"email": {"clerk@parish.org"}, "password": {"password123"}})
	assert.Equal(t, http.StatusForbidden, p.status)

	s.register("clerk@parish.org", "Parish Clerk")

	p = s.get("/dashboard")
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Registered children")
	assert.Contains(t, p.body, "Choir members")

	p = s.get("/")
	assert.Equal(t, "/dashboard", p.location)

	p = s.submit("/dashboard", "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Equal(t, "/login", p.location)
	assert.Equal(t, "/login", s.get("/dashboard").location)

	p = s.submit("/login", "/login", url.Values{"email": {"clerk@parish.org"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, p.status)
	assert.Contains(t, p.body, "Invalid email or password")

	p = s.submit("/login", "/login", url.Values{"email": {"Clerk@Parish.org"}, "password": {"password123"}})
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Equal(t, "/dashboard", p.location)
	assert.Equal(t, http.StatusOK, s.get("/dashboard").status)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	c := newConsole(t)
	c.signedIn()

	s := c.browser()
	p := s.submit("/register", "/register", url.Values{
		"name":     {"Second Clerk"},
		"email":    {"clerk@parish.org"},
		"password": {"password123"},
	})
	assert.Equal(t, http.StatusConflict, p.status)
}

func TestChoirMemberPages(t *testing.T) {
	c := newConsole(t)
	s := c.signedIn()
	ctx := context.Background()

	p := s.get("/records/choir-members/new")
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, `name="voice_part"`)

	p = s.submit("/records/choir-members/new", "/records/choir-members", url.Values{
		"full_name":  {"Ada Nwosu"},
		"gender":     {"female"},
		"voice_part": {"alto"},
		"phone":      {"0803 555 0101"},
		"is_active":  {"on"},
		"action":     {"save"},
	})
	require.Equal(t, http.StatusSeeOther, p.status, p.body)
	assert.Equal(t, "/records/choir-members?msg=saved", p.location)

	p = s.get(p.location)
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Ada Nwosu")
	assert.Contains(t, p.body, "Choir member saved.")

	members, err := c.records.ChoirMembers.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, members, 1)
	id := members[0].ID
	assert.True(t, members[0].IsActive)

	p = s.get("/records/choir-members/" + id)
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "0803 555 0101")

	p = s.submit("/records/choir-members/"+id+"/edit", "/records/choir-members/"+id, url.Values{
		"full_name":  {""},
		"gender":     {"female"},
		"voice_part": {"alto"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "Full name: is required")

	p = s.submit("/records/choir-members/"+id+"/edit", "/records/choir-members/"+id, url.Values{
		"full_name":  {"Ada Nwosu-Eze"},
		"gender":     {"female"},
		"voice_part": {"soprano"},
	})
	require.Equal(t, http.StatusSeeOther, p.status, p.body)

	updated, err := c.records.ChoirMembers.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada Nwosu-Eze", updated.FullName)
	assert.Equal(t, "soprano", updated.VoicePart)
	assert.False(t, updated.IsActive, "an unchecked checkbox clears the flag")

	p = s.get("/records/choir-members?q=eze")
	assert.Contains(t, p.body, "Ada Nwosu-Eze")
	p = s.get("/records/choir-members?q=nobody")
	assert.NotContains(t, p.body, "Ada Nwosu-Eze")

	p = s.submit("/records/choir-members", "/records/choir-members/"+id+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, p.status)
	assert.Equal(t, "/records/choir-members?msg=deleted", p.location)

	assert.Equal(t, http.StatusNotFound, s.get("/records/choir-members/"+id).status)
	p = s.submit("/records/choir-members", "/records/choir-members/"+id+"/delete", url.Values{})
	assert.Equal(t, http.StatusNotFound, p.status)
}

func TestRecordPagesRequireCSRF(t *testing.T) {
	c := newConsole(t)
	s := c.signedIn()

	p := s.post("/records/choir-members", url.Values{
		"full_name":  {"Ada Nwosu"},
		"gender":     {"female"},
		"voice_part": {"alto"},
	})
	assert.Equal(t, http.StatusForbidden, p.status)

	anonymous := c.browser()
	p = anonymous.get("/records/choir-members")
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Equal(t, "/login", p.location)
}

func TestFormBodyIsLimitedBeforeCSRFParsing(t *testing.T) {
	m := NewMiddleware(nil, security.NewCSRFGenerator("limit-csrf"), nil, zap.NewNop())
	called := false
	h := LimitBody(maxFormBytes, m.CSRFProtect(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	form := url.Values{"address": {strings.Repeat("a", maxFormBytes)}}
	req := httptest.NewRequest(http.MethodPost, "/records/choir-members", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	h(recorder, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)
	assert.False(t, called)

	req = httptest.NewRequest(http.MethodPost, "/records/choir-members", strings.NewReader("full_name=Ada"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder = httptest.NewRecorder()
	h(recorder, req)
	assert.Equal(t, http.StatusForbidden, recorder.Code, "small forms still reach the token check")
}

func TestUnitLeaderNeedsZonalLeader(t *testing.T) {
	c := newConsole(t)
	s := c.signedIn()
	ctx := context.Background()

	unit := func(zone, action string) url.Values {
		return url.Values{
			"full_name":   {"Peter Eze"},
			"gender":      {"male"},
			"unit_name":   {"St. Jude"},
			"zone_number": {zone},
			"action":      {action},
		}
	}

	p := s.get("/records/unit-leaders/new")
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, `value="save" disabled`)
	assert.Contains(t, p.body, "Enter a zone number to find its zonal leader.")

	p = s.submit("/records/unit-leaders/new", "/records/unit-leaders", unit("7", "resolve"))
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "No zonal leader is registered for zone 7.")
	assert.Contains(t, p.body, `value="save" disabled`)

	zonal := &models.ZonalLeader{FullName: "Grace Obi", Gender: "female", ZoneNumber: "7"}
	require.NoError(t, c.records.ZonalLeaders.Create(ctx, zonal))

	p = s.submit("/records/unit-leaders/new", "/records/unit-leaders", unit(" 7 ", "resolve"))
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Reports to Grace Obi.")
	assert.NotContains(t, p.body, `value="save" disabled`)

	p = s.submit("/records/unit-leaders/new", "/records/unit-leaders", unit("8", "save"))
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "Zone number: no zonal leader is registered for this zone")

	p = s.submit("/records/unit-leaders/new", "/records/unit-leaders", unit("7", "unknown"))
	assert.Equal(t, http.StatusBadRequest, p.status)

	p = s.submit("/records/unit-leaders/new", "/records/unit-leaders", unit("7", "save"))
	require.Equal(t, http.StatusSeeOther, p.status, p.body)

	p = s.get("/records/unit-leaders")
	assert.Contains(t, p.body, "Peter Eze")
	assert.Contains(t, p.body, "Grace Obi")

	units, err := c.records.UnitLeaders.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, zonal.ID, units[0].ZonalLeaderID)

	p = s.submit("/records/zonal-leaders", "/records/zonal-leaders/"+zonal.ID+"/delete", url.Values{})
	assert.Equal(t, http.StatusConflict, p.status)
	assert.Contains(t, p.body, "still has unit leaders assigned")
}

func TestMemberRegistrationChildren(t *testing.T) {
	c := newConsole(t)
	s := c.signedIn()
	ctx := context.Background()

	family := func(action string) url.Values {
		return url.Values{
			"family_name":    {"Okafor"},
			"head_of_family": {"Joseph Okafor"},
			"marital_status": {"married"},
			"action":         {action},
		}
	}

	form := family("add_child")
	form.Set("children_count", "0")
	p := s.submit("/records/member-registrations/new", "/records/member-registrations", form)
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, `name="children-0-full_name"`)
	assert.Contains(t, p.body, `name="children_count" value="1"`)
	assert.Contains(t, p.body, `value="Okafor"`)

	form = family("save")
	form.Set("children_count", "2")
	form.Set("children-0-full_name", "Chidi Okafor")
	form.Set("children-0-gender", "male")
	form.Set("children-0-date_of_birth", "2015-04-12")
	form.Set("children-0-is_baptized", "on")
	p = s.submit("/records/member-registrations/new", "/records/member-registrations", form)
	require.Equal(t, http.StatusSeeOther, p.status, p.body)

	registrations, err := c.records.MemberRegistrations.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, registrations, 1)
	id := registrations[0].ID

	saved, err := c.records.MemberRegistrations.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, saved.Children, 1, "the blank second row is dropped")
	assert.Equal(t, "Chidi Okafor", saved.Children[0].FullName)
	assert.True(t, saved.Children[0].IsBaptized)

	p = s.get("/records/member-registrations/" + id)
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Chidi Okafor")

	form = family("remove_child:0")
	form.Set("children_count", "1")
	form.Set("children-0-id", saved.Children[0].ID)
	form.Set("children-0-full_name", "Chidi Okafor")
	form.Set("children-0-gender", "male")
	p = s.submit("/records/member-registrations/"+id+"/edit", "/records/member-registrations/"+id, form)
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, `name="children_count" value="0"`)
	assert.NotContains(t, p.body, `name="children-0-full_name"`)

	unchanged, err := c.records.MemberRegistrations.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, unchanged.Children, 1, "form actions do not save")

	form = family("save")
	form.Set("children_count", "0")
	p = s.submit("/records/member-registrations/"+id+"/edit", "/records/member-registrations/"+id, form)
	require.Equal(t, http.StatusSeeOther, p.status, p.body)

	cleared, err := c.records.MemberRegistrations.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, cleared.Children)
}

func TestAdminBackupPages(t *testing.T) {
	c := newConsole(t)
	admin := c.signedIn()

	p := admin.get("/admin/backup")
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Backup and restore")

	resp, err := admin.http.Get(c.server.URL + "/admin/backup/export")
	require.NoError(t, err)
	export := read(t, resp)
	require.Equal(t, http.StatusOK, export.status)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, export.body, `"choir_members"`)
	assert.Contains(t, export.body, "clerk@parish.org")

	volunteer := c.browser()
	volunteer.register("volunteer@parish.org", "Parish Volunteer")
	assert.Equal(t, http.StatusForbidden, volunteer.get("/admin/backup").status)
	assert.Equal(t, http.StatusForbidden, volunteer.get("/admin/backup/export").status)
}

func TestStartupGate(t *testing.T) {
	startup := NewStartup("Connecting to database", "Running migrations")

	recorder := httptest.NewRecorder()
	startup.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "2", recorder.Header().Get("Retry-After"))
	assert.Contains(t, recorder.Body.String(), "Starting up")

	recorder = httptest.NewRecorder()
	startup.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	startup.CompleteStep("Connecting to database")
	assert.Equal(t, 50, startup.Progress())
	assert.False(t, startup.IsReady())

	startup.MarkReady(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	assert.True(t, startup.IsReady())
	assert.Equal(t, 100, startup.Progress())

	recorder = httptest.NewRecorder()
	startup.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusTeapot, recorder.Code)
}

func TestParseChildren(t *testing.T) {
	form := url.Values{
		"children_count":            {"3"},
		"children-0-full_name":      {" Ngozi Okafor "},
		"children-0-gender":         {"female"},
		"children-0-is_communicant": {"on"},
		"children-2-date_of_birth":  {"2019-01-02"},
	}

	saved := parseChildren(form, true)
	require.Len(t, saved, 2)
	assert.Equal(t, "Ngozi Okafor", saved[0].FullName)
	assert.True(t, saved[0].IsCommunicant)
	assert.False(t, saved[0].IsBaptized)
	assert.Equal(t, "2019-01-02", saved[1].DateOfBirth)

	assert.Len(t, parseChildren(form, false), 3, "blank rows stay while editing")

	form.Set("children_count", "-4")
	assert.Empty(t, parseChildren(form, true))

	form.Set("children_count", strings.Repeat("9", 6))
	assert.Len(t, parseChildren(form, false), maxChildren)
}
