// Package api is the HTTP client of the learning platform.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

var (
	ErrUnauthorized = errors.New("platform session expired")
	ErrRejected     = errors.New("request rejected by platform")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform returned %d", e.Code)
	}
	return fmt.Sprintf("platform returned %d: %s", e.Code, e.Message)
}

// TokenStore keeps the platform tokens of every bot user.
type TokenStore interface {
	Credentials(ctx context.Context, userID int64) (*entities.Credentials, error)
	SaveCredentials(ctx context.Context, creds *entities.Credentials) error
	DeleteCredentials(ctx context.Context, userID int64) error
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// RefreshLeeway refreshes an access token this long before its exp claim.
	RefreshLeeway time.Duration
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenStore
	leeway  time.Duration
	logger  *zap.Logger
	now     func() time.Time

	refreshes singleflight.Group
}

func New(cfg Config, tokens TokenStore, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", cfg.BaseURL)
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		leeway:  cfg.RefreshLeeway,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// envelope is the common {success, message} part of platform responses.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path += path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// send performs req and decodes a 2xx body into out.
func (c *Client) send(req *http.Request, out any) error {
	start := c.now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	c.logger.Debug("platform request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", res.StatusCode),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.Duration("took", c.now().Sub(start)),
	)

	if res.StatusCode/100 != 2 {
		var env envelope
		_ = json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&env)
		return &StatusError{Code: res.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// do sends an authorized request on behalf of userID. A 401 triggers one token
// refresh and one retry; a failed refresh drops the stored credentials.
func (c *Client) do(ctx context.Context, userID int64, method, path string, query url.Values, body, out any) error {
	creds, err := c.tokens.Credentials(ctx, userID)
	if err != nil {
		return err
	}

	token := creds.AccessToken
	if c.expiresSoon(token) {
		if fresh, err := c.refresh(ctx, userID); err == nil {
			token = fresh
		}
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	err = c.send(req, out)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		return err
	}

	fresh, err := c.refresh(ctx, userID)
	if err != nil {
		return err
	}

	req, err = c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+fresh)
	return c.send(req, out)
}

// expiresSoon reads the exp claim without verifying the signature. Tokens that
// do not parse as JWT are left to the 401 path.
func (c *Client) expiresSoon(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return c.now().Add(c.leeway).After(exp.Time)
}

// refresh exchanges the stored refresh token for a new access token.
// Concurrent refreshes for the same user share one request.
func (c *Client) refresh(ctx context.Context, userID int64) (string, error) {
	v, err, _ := c.refreshes.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		creds, err := c.tokens.Credentials(ctx, userID)
		if err != nil {
			return "", err
		}

		token, err := c.refreshToken(ctx, creds.RefreshToken)
		if err != nil {
			c.logger.Warn("token refresh failed, dropping credentials", zap.Int64("user_id", userID), zap.Error(err))
			if derr := c.tokens.DeleteCredentials(ctx, userID); derr != nil {
				c.logger.Error("failed to delete credentials", zap.Int64("user_id", userID), zap.Error(derr))
			}
			return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}

		creds.AccessToken = token
		creds.UpdatedAt = c.now()
		if err := c.tokens.SaveCredentials(ctx, creds); err != nil {
			return "", fmt.Errorf("save refreshed token: %w", err)
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
