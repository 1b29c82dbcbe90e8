package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"churchadmin/internal/models"
	"churchadmin/internal/security"
)

type contextKey string

const (
	userContextKey    contextKey = "api_user"
	sessionContextKey contextKey = "api_session"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// tokenResponse is returned by login and register
type tokenResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// requireToken rejects requests without a valid bearer token and stores the user in the context
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := security.BearerToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="churchadmin"`)
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		user, sessionID, err := s.auth.ValidateToken(r.Context(), token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="churchadmin", error="invalid_token"`)
			s.respondWithError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, sessionContextKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user authenticated by the bearer token, if any
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if _, err := s.auth.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	s.issue(w, r, req, http.StatusCreated)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	s.issue(w, r, req, http.StatusOK)
}

// issue signs the user in and responds with a bearer token
func (s *Server) issue(w http.ResponseWriter, r *http.Request, req credentials, status int) {
	session, user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if status == http.StatusOK {
			s.logger.Info("api login failed", zap.String("ip", security.GetClientIP(r)))
		}
		s.respondWithError(w, r, err)
		return
	}
	token, err := s.auth.IssueToken(session)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondJSON(w, status, tokenResponse{User: user, Token: token, ExpiresAt: session.ExpiresAt})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := r.Context().Value(sessionContextKey).(string)
	if err := s.auth.Logout(r.Context(), sessionID); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, UserFromContext(r.Context()))
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if err := s.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "If an account exists for that address, a reset link has been sent.",
	})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if err := s.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
