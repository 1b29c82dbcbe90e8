package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"churchadmin/internal/security"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthProviderCookie = "oauth_provider"
	oauthCookieTTL      = 10 * time.Minute

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// errEmailNotVerified means the provider has not confirmed the account owns its email
var errEmailNotVerified = errors.New("provider email is not verified")

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

// GoogleProvider returns the Google sign-in provider, or false when no client is configured
func GoogleProvider(clientID, clientSecret string) (OAuthProvider, bool) {
	p := OAuthProvider{
		Name:  "google",
		Label: "Google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: googleUserInfoURL,
	}
	return p, p.configured()
}

type OAuthProviderView struct {
	Name     string
	Label    string
	URL      string
	CSSClass string
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

func (h *AuthHandler) oauthProviderViews() []OAuthProviderView {
	var views []OAuthProviderView
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, OAuthProviderView{
			Name:     key,
			Label:    provider.Label,
			URL:      fmt.Sprintf("/auth/%s/start", key),
			CSSClass: "btn-" + key,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		h.oauthError(w, r, "Sign-in provider not configured", http.StatusBadRequest)
		return
	}

	state := security.GenerateSessionID()
	expires := time.Now().Add(oauthCookieTTL)
	http.SetCookie(w, security.CreateSessionCookie(r, oauthStateCookie, state, expires))
	http.SetCookie(w, security.CreateSessionCookie(r, oauthProviderCookie, providerKey, expires))

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	http.Redirect(w, r, config.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		h.oauthError(w, r, "Sign-in provider not configured", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.oauthError(w, r, "Missing authorization code", http.StatusBadRequest)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.oauthError(w, r, "Invalid sign-in state, please try again", http.StatusBadRequest)
		return
	}
	if providerCookie, err := r.Cookie(oauthProviderCookie); err == nil && providerCookie.Value != providerKey {
		h.oauthError(w, r, "Sign-in provider mismatch", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, oauthStateCookie))
	http.SetCookie(w, security.CreateDeleteCookie(r, oauthProviderCookie))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		h.logger.Warn("oauth code exchange failed", zap.String("provider", providerKey), zap.Error(err))
		h.oauthError(w, r, "Failed to complete sign-in", http.StatusBadRequest)
		return
	}

	userInfo, err := fetchUserInfo(ctx, config.Client(ctx, token), provider.UserInfoURL)
	if errors.Is(err, errEmailNotVerified) {
		h.logger.Warn("oauth email not verified", zap.String("provider", providerKey))
		h.oauthError(w, r, "Verify your email address with the provider before signing in", http.StatusForbidden)
		return
	}
	if err != nil {
		h.logger.Warn("oauth user info failed", zap.String("provider", providerKey), zap.Error(err))
		h.oauthError(w, r, "Failed to read your account details", http.StatusBadRequest)
		return
	}

	session, user, err := h.authService.OAuthLogin(r.Context(), providerKey, userInfo.Subject, userInfo.Email, userInfo.Name)
	if err != nil {
		h.logger.Warn("oauth login refused", zap.String("provider", providerKey), zap.Error(err))
		h.oauthError(w, r, "This account cannot be used to sign in", http.StatusBadRequest)
		return
	}

	h.logger.Info("user signed in", zap.Int64("user_id", user.ID), zap.String("provider", providerKey))
	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// fetchUserInfo reads the signed in account from a userinfo endpoint
func fetchUserInfo(ctx context.Context, client *http.Client, userInfoURL string) (oauthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return oauthUserInfo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		VerifiedEmail bool   `json:"verified_email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse user info: %w", err)
	}
	if payload.ID == "" || payload.Email == "" {
		return oauthUserInfo{}, errors.New("user info is missing id or email")
	}
	// v2 userinfo reports verified_email, OpenID Connect reports email_verified
	if !payload.VerifiedEmail && !payload.EmailVerified {
		return oauthUserInfo{}, errEmailNotVerified
	}

	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func (h *AuthHandler) oauthError(w http.ResponseWriter, r *http.Request, message string, status int) {
	data := LoginViewData{
		Page:           h.anonymousPage(w, r, "Sign in"),
		OAuthProviders: h.oauthProviderViews(),
		Error:          message,
	}
	render(w, h.templates, h.logger, status, "login.tmpl", data)
}
