package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"churchadmin/internal/security"
	"churchadmin/internal/service"
	"churchadmin/internal/validation"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	templates            *template.Template
	middleware           *Middleware
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	logger               *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, templates *template.Template, middleware *Middleware, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		templates:            templates,
		middleware:           middleware,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		logger:               logger,
	}
}

// signedIn reports whether the request carries a valid session cookie
func (h *AuthHandler) signedIn(r *http.Request) bool {
	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil {
		return false
	}
	_, err = h.authService.ValidateSession(r.Context(), cookie.Value)
	return err == nil
}

func (h *AuthHandler) anonymousPage(w http.ResponseWriter, r *http.Request, title string) Page {
	return Page{Title: title, CSRFToken: h.middleware.EnsureCSRFToken(w, r)}
}

// Home sends signed in users to the dashboard and everyone else to sign in
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := LoginViewData{
		Page:           h.anonymousPage(w, r, "Sign in"),
		OAuthProviders: h.oauthProviderViews(),
	}
	if r.URL.Query().Get("reset") == "1" {
		data.Success = "Your password has been changed. Sign in with the new one."
	}
	render(w, h.templates, h.logger, http.StatusOK, "login.tmpl", data)
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	session, user, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("login failed", zap.Error(err))
		}
		data := LoginViewData{
			Page:           h.anonymousPage(w, r, "Sign in"),
			OAuthProviders: h.oauthProviderViews(),
			Error:          "Invalid email or password",
			Email:          email,
		}
		render(w, h.templates, h.logger, http.StatusUnauthorized, "login.tmpl", data)
		return
	}

	h.logger.Info("user signed in", zap.Int64("user_id", user.ID))
	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ShowRegister renders the registration page
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := RegisterViewData{
		Page:           h.anonymousPage(w, r, "Register"),
		OAuthProviders: h.oauthProviderViews(),
	}
	render(w, h.templates, h.logger, http.StatusOK, "register.tmpl", data)
}

// Register handles registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	name := r.FormValue("name")

	if _, err := h.authService.Register(r.Context(), email, password, name); err != nil {
		status := http.StatusUnprocessableEntity
		message := err.Error()
		var verr validation.ValidationError
		switch {
		case errors.As(err, &verr):
			message = verr.Message
		case errors.Is(err, service.ErrEmailTaken):
			status = http.StatusConflict
			message = "An account with this email already exists"
		default:
			h.logger.Error("registration failed", zap.Error(err))
			status = http.StatusInternalServerError
			message = ErrInternalServerError
		}
		data := RegisterViewData{
			Page:           h.anonymousPage(w, r, "Register"),
			OAuthProviders: h.oauthProviderViews(),
			Error:          message,
			Email:          email,
			Name:           name,
		}
		render(w, h.templates, h.logger, status, "register.tmpl", data)
		return
	}

	// Registration succeeded; a failed sign-in just sends the user to the login page.
	session, _, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Error("logout failed", zap.Error(err))
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ShowForgotPassword renders the forgot password page
func (h *AuthHandler) ShowForgotPassword(w http.ResponseWriter, r *http.Request) {
	data := ForgotPasswordViewData{Page: h.anonymousPage(w, r, "Forgot password")}
	render(w, h.templates, h.logger, http.StatusOK, "forgot_password.tmpl", data)
}

// ForgotPassword emails a reset link. The response is the same whether or not the address is known.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	data := ForgotPasswordViewData{Page: h.anonymousPage(w, r, "Forgot password")}
	if err := h.authService.RequestPasswordReset(r.Context(), r.FormValue("email")); err != nil {
		h.logger.Error("password reset request failed", zap.Error(err))
		data.Error = "We could not send the reset email. Please try again later."
		render(w, h.templates, h.logger, http.StatusInternalServerError, "forgot_password.tmpl", data)
		return
	}
	data.Success = "If an account exists for that address, a reset link is on its way."
	render(w, h.templates, h.logger, http.StatusOK, "forgot_password.tmpl", data)
}

// ShowResetPassword renders the reset form for a valid token
func (h *AuthHandler) ShowResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	data := ResetPasswordViewData{Page: h.anonymousPage(w, r, "Reset password")}

	valid, err := h.authService.ValidatePasswordResetToken(r.Context(), token)
	if err != nil {
		h.logger.Error("reset token lookup failed", zap.Error(err))
	}
	if !valid {
		data.Error = "This reset link is invalid or has expired."
		render(w, h.templates, h.logger, http.StatusBadRequest, "reset_password.tmpl", data)
		return
	}
	data.Token = token
	render(w, h.templates, h.logger, http.StatusOK, "reset_password.tmpl", data)
}

// ResetPassword sets the new password and sends the user to sign in
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	token := r.FormValue("token")
	password := r.FormValue("password")
	data := ResetPasswordViewData{Page: h.anonymousPage(w, r, "Reset password"), Token: token}

	if password != r.FormValue("confirm_password") {
		data.Error = "The passwords do not match."
		render(w, h.templates, h.logger, http.StatusUnprocessableEntity, "reset_password.tmpl", data)
		return
	}

	err := h.authService.ResetPassword(r.Context(), token, password)
	var verr validation.ValidationError
	switch {
	case err == nil:
		http.Redirect(w, r, "/login?reset=1", http.StatusSeeOther)
	case errors.As(err, &verr):
		data.Error = verr.Message
		render(w, h.templates, h.logger, http.StatusUnprocessableEntity, "reset_password.tmpl", data)
	case errors.Is(err, service.ErrInvalidResetToken):
		data.Token = ""
		data.Error = "This reset link is invalid or has expired."
		render(w, h.templates, h.logger, http.StatusBadRequest, "reset_password.tmpl", data)
	default:
		h.logger.Error("password reset failed", zap.Error(err))
		data.Error = ErrInternalServerError
		render(w, h.templates, h.logger, http.StatusInternalServerError, "reset_password.tmpl", data)
	}
}
