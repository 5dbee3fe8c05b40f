package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

var ErrInvalidCredentials = errors.New("invalid identifier or password")

// LoginResult is what a successful login returns.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Identity     entities.Identity
}

// Login authenticates with an email or mobile number and a password.
// It does not touch the token store.
func (c *Client) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	body := map[string]string{"identifier": identifier, "password": password}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", nil, body)
	if err != nil {
		return LoginResult{}, err
	}

	var resp struct {
		envelope
		AccessToken  string            `json:"accessToken"`
		RefreshToken string            `json:"refreshToken"`
		User         entities.Identity `json:"user"`
	}
	if err := c.send(req, &resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusBadRequest) {
			return LoginResult{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, se.Message)
		}
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return LoginResult{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, resp.Message)
	}

	return LoginResult{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Identity:     resp.User,
	}, nil
}

func (c *Client) refreshToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", entities.ErrNoCredentials
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/refresh-token", nil, map[string]string{"token": refreshToken})
	if err != nil {
		return "", err
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.send(req, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errors.New("refresh response carries no access token")
	}
	return resp.AccessToken, nil
}
