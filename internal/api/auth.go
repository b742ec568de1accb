package api

import (
	"context"
	"net/http"

	"github.com/and161185/libdesk/internal/model"
)

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	model.Tokens
	model.Identity
}

// Login exchanges email and password for tokens and the caller's identity.
func (c *Client) Login(ctx context.Context, email, password string) (model.Tokens, model.Identity, error) {
	var resp loginResponse
	if err := c.send(ctx, http.MethodPost, "/auth/login", "", credentialsBody{email, password}, &resp); err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	return resp.Tokens, resp.Identity, nil
}

// Verify asks the backend whether token is still accepted.
// A non-2xx answer comes back as an error, {valid:false} as false.
func (c *Client) Verify(ctx context.Context, token string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := c.send(ctx, http.MethodPost, "/auth/verify", token, nil, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	in := struct {
		RefreshToken string `json:"refreshToken"`
	}{refreshToken}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.send(ctx, http.MethodPost, "/auth/refresh-token", "", in, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", malformed("/auth/refresh-token", "empty accessToken")
	}
	return resp.AccessToken, nil
}

// ResetPassword sets a new password for the account behind email.
func (c *Client) ResetPassword(ctx context.Context, email, password string) error {
	return c.send(ctx, http.MethodPut, "/auth/reset-password", "", credentialsBody{email, password}, nil)
}
