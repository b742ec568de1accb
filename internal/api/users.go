package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/libdesk/internal/model"
)

// ListUsers searches accounts; req.Roles narrows the result.
func (c *Client) ListUsers(ctx context.Context, req model.PageRequest) (model.Page[model.User], error) {
	var page model.Page[model.User]
	in := req.Normalize()
	in.Statuses = nil
	err := c.do(ctx, http.MethodPost, "/user/listUser", true, in, &page)
	return page, err
}

// GetUser fetches one account.
func (c *Client) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(id), true, nil, &u)
	return u, err
}

// UpdateUser saves profile fields.
func (c *Client) UpdateUser(ctx context.Context, id string, u model.User) (model.User, error) {
	u.ID = ""
	var out model.User
	err := c.do(ctx, http.MethodPut, "/user/"+url.PathEscape(id), true, u, &out)
	return out, err
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/user/"+url.PathEscape(id), true, nil, nil)
}

// RegisterUser creates an account.
func (c *Client) RegisterUser(ctx context.Context, u model.NewUser) error {
	return c.do(ctx, http.MethodPost, "/user/register", true, u, nil)
}

// ChangePassword changes the password of account id.
func (c *Client) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	in := struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}{oldPassword, newPassword}
	return c.do(ctx, http.MethodPut, "/user/change-password/"+url.PathEscape(id), true, in, nil)
}
