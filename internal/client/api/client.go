package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/homefinder/internal/client/models"
	"github.com/dmitrijs2005/homefinder/internal/common"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// RegisterRequest is the signup payload. Role is "user" or "agent".
type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	Phone    string      `json:"phone,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Empty fields are left
// unchanged by the server.
type ProfileUpdate struct {
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Agency string `json:"agency,omitempty"`
}

type envelope struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message,omitempty"`
	User        *models.User `json:"user,omitempty"`
	AccessToken string       `json:"accessToken,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// New builds a Client for the API rooted at baseURL. timeout bounds every
// request; a zero timeout leaves requests bounded only by their context.
func New(baseURL string, timeout time.Duration, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	body := map[string]string{"email": email, "password": password}

	var resp envelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, "", err
	}
	return credentials(&resp)
}

// Register creates an unverified account; the server sends a one-time code
// to the email address. The server's message is returned.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var resp envelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*models.User, string, error) {
	body := map[string]string{"email": email, "otp": otp}

	var resp envelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-otp", "", body, &resp); err != nil {
		return nil, "", err
	}
	return credentials(&resp)
}

func (c *Client) ResendOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/auth/resend-otp", "", body, &envelope{})
}

// Profile fetches the account the token belongs to.
func (c *Client) Profile(ctx context.Context, token string) (*models.User, error) {
	var resp envelope
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, ErrMalformedResponse
	}
	return resp.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, upd ProfileUpdate) (*models.User, error) {
	var resp envelope
	if err := c.do(ctx, http.MethodPut, "/api/auth/profile", token, upd, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, ErrMalformedResponse
	}
	return resp.User, nil
}

// Logout asks the server to invalidate token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, &envelope{})
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", "", nil, &envelope{})
}

func credentials(resp *envelope) (*models.User, string, error) {
	if resp.User == nil || resp.User.ID == "" || resp.AccessToken == "" {
		return nil, "", ErrMalformedResponse
	}
	return resp.User, resp.AccessToken, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in any, out *envelope) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	ctx = logging.WithAttrs(ctx, "request_id", requestID, "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug(ctx, "api request failed", "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, ctxErr)
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	c.logger.Debug(ctx, "api response", "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e envelope
		_ = json.Unmarshal(raw, &e)
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
