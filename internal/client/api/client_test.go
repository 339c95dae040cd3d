package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/homefinder/internal/client/models"
	"github.com/dmitrijs2005/homefinder/internal/common"
)

type seen struct {
	method, path, auth, requestID, contentType string
	body                                       map[string]any
}

func newServer(t *testing.T, status int, reply string) (*Client, *seen) {
	t.Helper()
	s := &seen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.method, s.path = r.Method, r.URL.Path
		s.auth = r.Header.Get(common.AuthorizationHeaderName)
		s.requestID = r.Header.Get(common.RequestIDHeaderName)
		s.contentType = r.Header.Get("Content-Type")
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &s.body)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second, nil), s
}

const userJSON = `{"id":"u1","name":"Anna","email":"a@b.c","role":"agent","agency":"Acme","isVerified":true}`

func TestLogin(t *testing.T) {
	c, s := newServer(t, 200, `{"success":true,"user":`+userJSON+`,"accessToken":"tok"}`)

	u, tok, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	assert.Equal(t, &models.User{ID: "u1", Name: "Anna", Email: "a@b.c", Role: models.RoleAgent, Agency: "Acme", Verified: true}, u)

	assert.Equal(t, http.MethodPost, s.method)
	assert.Equal(t, "/api/auth/login", s.path)
	assert.Equal(t, "application/json", s.contentType)
	assert.Equal(t, map[string]any{"email": "a@b.c", "password": "pw"}, s.body)
	assert.Empty(t, s.auth)
	assert.NotEmpty(t, s.requestID)
}

func TestLogin_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no token", `{"success":true,"user":` + userJSON + `}`},
		{"no user", `{"success":true,"accessToken":"tok"}`},
		{"user without id", `{"success":true,"user":{"name":"x"},"accessToken":"tok"}`},
		{"not json", `<html>`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newServer(t, 200, tt.reply)
			_, _, err := c.Login(context.Background(), "a@b.c", "pw")
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestErrorStatuses(t *testing.T) {
	c, _ := newServer(t, 401, `{"success":false,"message":"Invalid email or password"}`)
	_, _, err := c.Login(context.Background(), "a@b.c", "pw")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid email or password", MessageOf(err, "fallback"))

	c, _ = newServer(t, 409, `{"success":false,"message":"taken"}`)
	_, err = c.Register(context.Background(), RegisterRequest{Email: "a@b.c"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 409, apiErr.Status)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "api error: 409: taken", err.Error())

	c, _ = newServer(t, 502, `bad gateway`)
	err = c.Ping(context.Background())
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "fallback", MessageOf(err, "fallback"))
	assert.Equal(t, "api error: 502 Bad Gateway", err.Error())
}

func TestProfileSendsBearer(t *testing.T) {
	c, s := newServer(t, 200, `{"success":true,"user":`+userJSON+`}`)
	u, err := c.Profile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Bearer tok", s.auth)
	assert.Equal(t, http.MethodGet, s.method)

	c, _ = newServer(t, 200, `{"success":true}`)
	_, err = c.Profile(context.Background(), "tok")
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestUpdateProfile(t *testing.T) {
	c, s := newServer(t, 200, `{"success":true,"user":`+userJSON+`}`)
	_, err := c.UpdateProfile(context.Background(), "tok", ProfileUpdate{Phone: "+1"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, s.method)
	assert.Equal(t, map[string]any{"phone": "+1"}, s.body, "empty fields are omitted")
}

func TestRegisterAndOTP(t *testing.T) {
	c, s := newServer(t, 201, `{"success":true,"message":"Verification code sent"}`)
	msg, err := c.Register(context.Background(), RegisterRequest{Name: "A", Email: "a@b.c", Password: "pw", Role: models.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "Verification code sent", msg)
	assert.Equal(t, "user", s.body["role"])

	c, s = newServer(t, 200, `{"success":true,"message":"sent"}`)
	require.NoError(t, c.ResendOTP(context.Background(), "a@b.c"))
	assert.Equal(t, "/api/auth/resend-otp", s.path)

	c, s = newServer(t, 200, `{"success":true,"user":`+userJSON+`,"accessToken":"tok"}`)
	_, tok, err := c.VerifyOTP(context.Background(), "a@b.c", "123456")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	assert.Equal(t, "123456", s.body["otp"])
}

func TestLogout(t *testing.T) {
	c, s := newServer(t, 200, ``)
	require.NoError(t, c.Logout(context.Background(), "tok"))
	assert.Equal(t, "/api/auth/logout", s.path)
	assert.Equal(t, "Bearer tok", s.auth)
}

func TestUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url, time.Second, nil).Ping(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestContextCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := New(srv.URL, 0, nil).Ping(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)

	got, ok := TokenExpiry(tok)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = TokenExpiry("opaque-token")
	assert.False(t, ok)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = TokenExpiry(noExp)
	assert.False(t, ok)
}
