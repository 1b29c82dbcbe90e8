package handlers

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"churchadmin/internal/models"
	"churchadmin/internal/security"
	"churchadmin/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
	logger      *zap.Logger
}

// NewMiddleware creates a new middleware instance. limiter may be nil.
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFGenerator, limiter *security.RateLimiter, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
		logger:      logger,
	}
}

// RequireAuth is middleware that requires a valid session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(security.SessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := m.authService.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, service.ErrSessionNotFound) && !errors.Is(err, service.ErrSessionExpired) {
				m.logger.Error("session validation failed", zap.Error(err))
			}
			http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is RequireAuth restricted to administrators
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			http.Error(w, ErrForbidden, http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// csrfKey is the value CSRF tokens are bound to: the session ID when signed in,
// otherwise a random seed cookie set by the sign-in pages.
func csrfKey(r *http.Request) string {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if cookie, err := r.Cookie(csrfSeedCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// GetCSRFToken returns the CSRF token for the request's session, or "" when there is none
func (m *Middleware) GetCSRFToken(r *http.Request) string {
	token, err := m.csrf.GenerateToken(csrfKey(r))
	if err != nil {
		return ""
	}
	return token
}

// EnsureCSRFToken returns a CSRF token for an anonymous form, setting the seed cookie if needed
func (m *Middleware) EnsureCSRFToken(w http.ResponseWriter, r *http.Request) string {
	if csrfKey(r) == "" {
		seed := security.GenerateSessionID()
		http.SetCookie(w, security.CreateSessionCookie(r, csrfSeedCookieName, seed, time.Now().Add(time.Hour)))
		r.AddCookie(&http.Cookie{Name: csrfSeedCookieName, Value: seed})
	}
	return m.GetCSRFToken(r)
}

// CSRFProtect rejects POST requests without a matching CSRF token.
// The form is parsed here, so any body limit must wrap CSRFProtect.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if err := parseForm(r); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, ErrRequestTooLarge, http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
				return
			}
			token := r.PostFormValue(security.CSRFFieldName)
			if !m.csrf.ValidateToken(csrfKey(r), token) {
				m.logger.Warn("csrf token rejected", zap.String("path", r.URL.Path), zap.String("ip", security.GetClientIP(r)))
				http.Error(w, "Invalid or expired form, reload the page and try again", http.StatusForbidden)
				return
			}
		}
		next(w, r)
	}
}

// LimitBody caps the request body at limit bytes before anything reads it
func LimitBody(limit int64, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next(w, r)
	}
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxBackupBytes)
	}
	return r.ParseForm()
}

// RateLimit limits sign-in attempts per client
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	if m.limiter == nil {
		return next
	}
	limited := m.limiter.Limit(next, func(w http.ResponseWriter, r *http.Request) {
		m.logger.Warn("rate limit exceeded", zap.String("ip", security.GetClientIP(r)), zap.String("path", r.URL.Path))
		http.Error(w, "Too many attempts, please wait a minute and try again", http.StatusTooManyRequests)
	})
	return limited.ServeHTTP
}

// page builds the shared page data for a signed in request
func (m *Middleware) page(r *http.Request, title, active string) Page {
	return Page{
		Title:     title,
		User:      GetUserFromContext(r.Context()),
		CSRFToken: m.GetCSRFToken(r),
		Nav:       models.Kinds,
		Active:    active,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", security.GetClientIP(r)),
			)
		})
	}
}

// Recover turns a panicking handler into a 500 response
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error("panic serving request",
						zap.Any("panic", v),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)
					http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
