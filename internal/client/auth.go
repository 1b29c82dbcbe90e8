package client

import (
	"context"
	"net/http"
	"time"

	"churchadmin/internal/models"
)

// AuthResponse is returned by Login and Register
type AuthResponse struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Login signs in and stores the returned token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", credentials{Email: email, Password: password})
}

// Register creates an account, signs in and stores the returned token
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", credentials{Email: email, Password: password, Name: name})
}

func (c *Client) authenticate(ctx context.Context, path string, creds credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, path, nil, creds, &resp); err != nil {
		return nil, err
	}
	if err := c.tokens.SetToken(resp.Token); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes the token on the server and forgets it locally
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	if clearErr := c.tokens.Clear(); err == nil {
		err = clearErr
	}
	return err
}

// Me returns the signed in user
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
