package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/mmcdole/reelctl/internal/schema"
)

const (
	pathLogin          = "/auth/login"
	pathRefresh        = "/auth/refresh"
	pathLogout         = "/auth/logout"
	pathLogoutAll      = "/auth/logout-all"
	pathMe             = "/auth/me"
	pathChangePassword = "/auth/change-password"
	pathUsers          = "/users"
)

const (
	msgInvalidLogin  = "Invalid login response from server"
	msgInvalidToken  = "Invalid token response from server"
	msgInvalidUser   = "Invalid user data from server"
	msgInvalidLogout = "Invalid logout response from server"
)

// Login exchanges credentials for a token and profile. The server also sets
// the refresh cookie.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenWithUser, error) {
	form := url.Values{}
	form.Set("username", req.Username)
	form.Set("password", req.Password)

	data, err := c.doRequest(ctx, http.MethodPost, pathLogin, nil, formBody(form))
	if err != nil {
		return nil, err
	}
	return decode("POST "+pathLogin, msgInvalidLogin, data, schema.TokenWithUser)
}

// Refresh trades the refresh cookie for a new access token
func (c *Client) Refresh(ctx context.Context) (*domain.Token, error) {
	data, err := c.doRequest(ctx, http.MethodPost, pathRefresh, nil, nil)
	if err != nil {
		return nil, err
	}
	return decode("POST "+pathRefresh, msgInvalidToken, data, schema.Token)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, pathLogout, nil, nil)
	return err
}

// LogoutAll revokes every session of the current user
func (c *Client) LogoutAll(ctx context.Context) (*domain.LogoutAllResult, error) {
	data, err := c.doRequest(ctx, http.MethodPost, pathLogoutAll, nil, nil)
	if err != nil {
		return nil, err
	}
	return decode("POST "+pathLogoutAll, msgInvalidLogout, data, schema.LogoutAll)
}

func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	data, err := c.doRequest(ctx, http.MethodGet, pathMe, nil, nil)
	if err != nil {
		return nil, err
	}
	return decode("GET "+pathMe, msgInvalidUser, data, schema.User)
}

func (c *Client) ChangePassword(ctx context.Context, req domain.PasswordChangeRequest) error {
	payload, err := jsonBody(req)
	if err != nil {
		return err
	}
	_, err = c.doRequest(ctx, http.MethodPost, pathChangePassword, nil, payload)
	return err
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	payload, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	data, err := c.doRequest(ctx, http.MethodPost, pathUsers, nil, payload)
	if err != nil {
		return nil, err
	}
	return decode("POST "+pathUsers, msgInvalidUser, data, schema.User)
}
