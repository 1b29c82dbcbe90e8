// Package api serves the parish records as a JSON REST API under /api.
// Every route except health, docs and account entry points needs a bearer token.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"churchadmin/internal/models"
	"churchadmin/internal/security"
	"churchadmin/internal/service"
)

// BasePath is where the API is mounted
const BasePath = "/api"

// Server holds the dependencies of the API handlers
type Server struct {
	auth      *service.AuthService
	records   *service.Records
	dashboard *service.DashboardService
	limiter   *security.RateLimiter
	logger    *zap.Logger
}

// NewServer creates the API server. limiter may be nil to disable rate limiting of login and register.
func NewServer(auth *service.AuthService, records *service.Records, dashboard *service.DashboardService, limiter *security.RateLimiter, logger *zap.Logger) *Server {
	return &Server{
		auth:      auth,
		records:   records,
		dashboard: dashboard,
		limiter:   limiter,
		logger:    logger,
	}
}

// Router builds the API routes
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	api := r.PathPrefix(BasePath).Subrouter()
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/docs/openapi.yaml", serveOpenAPI).Methods(http.MethodGet)
	api.PathPrefix("/docs/").Handler(docsHandler()).Methods(http.MethodGet)

	api.Handle("/auth/register", s.rateLimited(s.register)).Methods(http.MethodPost)
	api.Handle("/auth/login", s.rateLimited(s.login)).Methods(http.MethodPost)
	api.HandleFunc("/auth/forgot-password", s.forgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password", s.resetPassword).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireToken)
	authed.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	authed.HandleFunc("/auth/me", s.me).Methods(http.MethodGet)
	authed.HandleFunc("/dashboard", s.getDashboard).Methods(http.MethodGet)
	// Registered before the zonal leader resource so "resolve" is not taken for an ID.
	authed.HandleFunc("/zonal-leaders/resolve", s.resolveZone).Methods(http.MethodGet)

	records := s.records
	registerResource(authed, s, records.Baptisms, newRecord[models.Baptism])
	registerResource(authed, s, records.Burials, newRecord[models.Burial])
	registerResource(authed, s, records.Marriages, newRecord[models.Marriage])
	registerResource(authed, s, records.ChoirMembers, newRecord[models.ChoirMember])
	registerResource(authed, s, records.YouthMembers, newRecord[models.YouthMember])
	registerResource(authed, s, records.ZonalLeaders, newRecord[models.ZonalLeader])
	registerResource(authed, s, records.UnitLeaders, newRecord[models.UnitLeader])
	registerResource(authed, s, records.ParishCommittee, newRecord[models.ParishCommitteeMember])
	registerResource(authed, s, records.SundaySchoolTeachers, newRecord[models.SundaySchoolTeacher])
	registerResource(authed, s, records.MemberRegistrations, newRecord[models.MemberRegistration])

	return r
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	if s.limiter == nil {
		return h
	}
	return s.limiter.Limit(h, func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn("api rate limit exceeded", zap.String("ip", security.GetClientIP(r)), zap.String("path", r.URL.Path))
		respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many attempts, try again later"})
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Get(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) resolveZone(w http.ResponseWriter, r *http.Request) {
	resolution, err := s.records.UnitLeaders.Resolve(r.Context(), r.URL.Query().Get("zone"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if !resolution.CanSubmit() {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: resolution.Message()})
		return
	}
	respondJSON(w, http.StatusOK, resolution.Leader)
}
