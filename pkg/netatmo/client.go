package netatmo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 30 * time.Second

// ErrInvalidGrant marks token endpoint rejections that make the stored
// refresh token permanently unusable. Callers match it with errors.Is.
var ErrInvalidGrant = errors.New("refresh token no longer valid")

// TokenError is a non-success response from the token endpoint.
type TokenError struct {
	StatusCode int
	Code       string // OAuth error code, e.g. "invalid_grant"
	Message    string // provider-supplied diagnostic, safe to surface
}

func (e *TokenError) Error() string {
	detail := e.Message
	if detail == "" {
		detail = e.Code
	}
	return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, detail)
}

// Is reports ErrInvalidGrant for invalid_grant-class rejections so that a
// single transient failure is never confused with a dead refresh token.
func (e *TokenError) Is(target error) bool {
	return target == ErrInvalidGrant && e.Code == "invalid_grant"
}

// APIError is a non-success response from a Netatmo data endpoint.
type APIError struct {
	StatusCode int
	Code       int    // Netatmo error code from the response body
	Message    string // provider-supplied message
}

func (e *APIError) Error() string {
	return fmt.Sprintf("netatmo api returned status %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Client calls the Netatmo OAuth and data endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a Netatmo client with a configured HTTP client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Exchange trades an authorization code for tokens using the exact redirect
// URI from the initiation step; the provider validates the match.
func (c *Client) Exchange(ctx context.Context, code string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	return c.token(ctx, form)
}

// Refresh mints a new access token from the stored refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)
	return c.token(ctx, form)
}

func (c *Client) token(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseTokenError(resp.StatusCode, body)
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &token, nil
}

// parseTokenError decodes both error shapes the token endpoint produces:
// the OAuth form {"error":"invalid_grant","error_description":...} and the
// Netatmo form {"error":{"code":...,"message":...}}.
func parseTokenError(status int, body []byte) *TokenError {
	var envelope struct {
		Error            json.RawMessage `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var code string
		if json.Unmarshal(envelope.Error, &code) == nil {
			return &TokenError{StatusCode: status, Code: code, Message: envelope.ErrorDescription}
		}
		var detail struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &detail) == nil {
			return &TokenError{StatusCode: status, Message: detail.Message}
		}
	}
	return &TokenError{StatusCode: status, Message: truncate(strings.TrimSpace(string(body)), 200)}
}

// StationsData fetches the station readings with the given bearer token.
// Non-success responses come back as *APIError; transport failures as plain
// errors.
func (c *Client) StationsData(ctx context.Context, accessToken string) (*StationsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.StationsDataURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stations data request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stations data request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read stations data response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return nil, apiErr
	}

	var data StationsData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stations data: %w", err)
	}
	return &data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
