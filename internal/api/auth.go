package api

import (
	"context"
	"net/http"

	"github.com/cleverdining/datahub/internal/models"
)

// LoginResult is the wire response of a successful credential login.
type LoginResult struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    models.UserInfo `json:"user"`
}

// Login exchanges credentials for a token pair and stores it in the token
// source.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/api/login/", nil, map[string]string{
		"username": username,
		"password": password,
	}, &res)
	if err != nil {
		return LoginResult{}, err
	}
	c.Tokens.SetTokens(res.Access, res.Refresh)
	return res, nil
}

// Profile fetches the server's current view of the logged-in user. Role
// resolution treats this as the source of truth over the cached session.
func (c *Client) Profile(ctx context.Context) (models.UserInfo, error) {
	var info models.UserInfo
	if err := c.do(ctx, http.MethodGet, "/api/profile/", nil, nil, &info); err != nil {
		return models.UserInfo{}, err
	}
	return info, nil
}
