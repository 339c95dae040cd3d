// Package services contains application services for the HomeFinder client.
// This file defines the authentication service: credential exchange with the
// API, signup with one-time-code verification, profile edits and logout, each
// reflected in the session store.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/homefinder/internal/client/api"
	"github.com/dmitrijs2005/homefinder/internal/client/models"
	"github.com/dmitrijs2005/homefinder/internal/client/notify"
	"github.com/dmitrijs2005/homefinder/internal/client/session"
	"github.com/dmitrijs2005/homefinder/internal/common"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

var (
	ErrNoPendingSignup = errors.New("no signup awaiting verification")
	ErrAdminSignup     = errors.New("admin accounts cannot be created by signup")
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: exchange email/password for a user and token, start the session.
//   - Register: create an unverified account; the email is remembered as the
//     pending signup until VerifyOTP succeeds.
//   - VerifyOTP: confirm the pending signup and start the session.
//   - ResendOTP: ask for a new code for the pending signup.
//   - UpdateProfile: edit the signed-in account; the server's record replaces
//     the session user.
//   - Logout: end the session (see session.Store.Logout).
//   - Ping: check server liveness.
//
// Failures are shown through the notifier, with the server's message when it
// sent one, and returned.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	PendingEmail() string
	VerifyOTP(ctx context.Context, otp string) (*models.User, error)
	ResendOTP(ctx context.Context) error
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*models.User, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

// API is the part of api.Client the service calls.
type API interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (*models.User, string, error)
	ResendOTP(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, token string, upd api.ProfileUpdate) (*models.User, error)
	Ping(ctx context.Context) error
}

// Session is the part of session.Store the service mutates.
type Session interface {
	Login(ctx context.Context, user models.User, token string) error
	Logout(ctx context.Context) error
	UpdateUser(ctx context.Context, user models.User) error
	Token() string
}

type authService struct {
	api      API
	session  Session
	notifier notify.Notifier
	logger   logging.Logger

	mu      sync.Mutex
	pending string
}

// NewAuthService constructs an AuthService bound to the given API client and
// session store.
func NewAuthService(a API, s Session, n notify.Notifier, l logging.Logger) AuthService {
	if n == nil {
		n = notify.Discard
	}
	if l == nil {
		l = logging.Nop()
	}
	return &authService{api: a, session: s, notifier: n, logger: l}
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	ctx = logging.WithAttrs(ctx, "op", "auth.login")

	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		a.notifier.Error("Email and password are required")
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	user, token, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		a.logger.Warn(ctx, "login rejected", "error", err)
		a.notifier.Error(failureMessage(err, "Login failed"))
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.session.Login(ctx, *user, token); err != nil {
		a.logger.Error(ctx, "failed to save session", "error", err)
		a.notifier.Error("Login failed: could not save the session")
		return nil, fmt.Errorf("login error: %w", err)
	}

	a.notifier.Success(fmt.Sprintf("Welcome back, %s!", displayName(user)))
	return user, nil
}

func (a *authService) Register(ctx context.Context, req api.RegisterRequest) error {
	ctx = logging.WithAttrs(ctx, "op", "auth.register")

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	switch {
	case req.Name == "" || req.Email == "" || req.Password == "":
		a.notifier.Error("Name, email and password are required")
		return fmt.Errorf("%w: name, email and password are required", common.ErrorValidation)
	case req.Role == models.RoleAdmin:
		a.notifier.Error("Admin accounts cannot be created by signup")
		return ErrAdminSignup
	case !req.Role.Valid():
		a.notifier.Error(fmt.Sprintf("Unknown account type %q", req.Role))
		return fmt.Errorf("%w: unknown role %q", common.ErrorValidation, req.Role)
	}

	msg, err := a.api.Register(ctx, req)
	if err != nil {
		a.logger.Warn(ctx, "signup rejected", "error", err)
		a.notifier.Error(failureMessage(err, "Registration failed"))
		return fmt.Errorf("register error: %w", err)
	}

	a.mu.Lock()
	a.pending = req.Email
	a.mu.Unlock()

	if msg == "" {
		msg = "Verification code sent to " + req.Email
	}
	a.notifier.Success(msg)
	return nil
}

// PendingEmail returns the email of the signup awaiting verification, or "".
func (a *authService) PendingEmail() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

func (a *authService) VerifyOTP(ctx context.Context, otp string) (*models.User, error) {
	ctx = logging.WithAttrs(ctx, "op", "auth.verify_otp")

	email := a.PendingEmail()
	if email == "" {
		a.notifier.Error("Nothing to verify, sign up first")
		return nil, ErrNoPendingSignup
	}
	otp = strings.TrimSpace(otp)
	if otp == "" {
		a.notifier.Error("Verification code is required")
		return nil, fmt.Errorf("%w: verification code is required", common.ErrorValidation)
	}

	user, token, err := a.api.VerifyOTP(ctx, email, otp)
	if err != nil {
		a.logger.Warn(ctx, "verification rejected", "error", err)
		a.notifier.Error(failureMessage(err, "Verification failed"))
		return nil, fmt.Errorf("verify error: %w", err)
	}

	if err := a.session.Login(ctx, *user, token); err != nil {
		a.logger.Error(ctx, "failed to save session", "error", err)
		a.notifier.Error("Verification succeeded but the session could not be saved, please log in")
		return nil, fmt.Errorf("verify error: %w", err)
	}

	a.mu.Lock()
	a.pending = ""
	a.mu.Unlock()

	a.notifier.Success(fmt.Sprintf("Account verified. Welcome, %s!", displayName(user)))
	return user, nil
}

func (a *authService) ResendOTP(ctx context.Context) error {
	ctx = logging.WithAttrs(ctx, "op", "auth.resend_otp")

	email := a.PendingEmail()
	if email == "" {
		a.notifier.Error("Nothing to verify, sign up first")
		return ErrNoPendingSignup
	}

	if err := a.api.ResendOTP(ctx, email); err != nil {
		a.logger.Warn(ctx, "resend rejected", "error", err)
		a.notifier.Error(failureMessage(err, "Could not resend the code"))
		return fmt.Errorf("resend error: %w", err)
	}

	a.notifier.Success("A new code was sent to " + email)
	return nil
}

// UpdateProfile sends upd and stores the server's copy of the account. A 401
// means the session is no longer valid; it is ended locally.
func (a *authService) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*models.User, error) {
	ctx = logging.WithAttrs(ctx, "op", "auth.update_profile")

	token := a.session.Token()
	if token == "" {
		a.notifier.Error("Please log in first")
		return nil, session.ErrNotAuthenticated
	}

	user, err := a.api.UpdateProfile(ctx, token, upd)
	if err != nil {
		a.logger.Warn(ctx, "profile update rejected", "error", err)
		if errors.Is(err, api.ErrUnauthorized) {
			a.notifier.Error("Session expired, please log in again")
			if lerr := a.session.Logout(ctx); lerr != nil {
				a.logger.Error(ctx, "failed to end expired session", "error", lerr)
			}
		} else {
			a.notifier.Error(failureMessage(err, "Profile update failed"))
		}
		return nil, fmt.Errorf("update profile error: %w", err)
	}

	if err := a.session.UpdateUser(ctx, *user); err != nil {
		a.logger.Error(ctx, "failed to save profile", "error", err)
		a.notifier.Error("Profile updated on the server but could not be saved locally")
		return nil, fmt.Errorf("update profile error: %w", err)
	}

	a.notifier.Success("Profile updated")
	return user, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.session.Logout(ctx)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.api.Ping(ctx)
}

func failureMessage(err error, fallback string) string {
	if errors.Is(err, api.ErrUnavailable) {
		return "Server is unavailable, try again later"
	}
	return api.MessageOf(err, fallback)
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
