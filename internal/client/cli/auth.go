package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/homefinder/internal/client/api"
	"github.com/dmitrijs2005/homefinder/internal/client/guard"
	"github.com/dmitrijs2005/homefinder/internal/client/models"
	"github.com/dmitrijs2005/homefinder/internal/client/router"
	"github.com/dmitrijs2005/homefinder/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup prompts for the account details and creates an unverified account.
// When the server accepts it, the user is asked for the emailed code right
// away; leaving it empty defers verification to the "verify" command.
func (a *App) Signup(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already logged in, log out first")
		return nil
	}

	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	roleText, err := getSimpleText(a.reader, "Account type: user or agent [user]", a.out)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, "Phone (optional)", a.out)
	if err != nil {
		return err
	}

	req := api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: string(password),
		Role:     models.Role(strings.ToLower(strings.TrimSpace(roleText))),
		Phone:    phone,
	}
	if err := a.authService.Register(ctx, req); err != nil {
		return err
	}

	return a.verifyPending(ctx, true)
}

// Verify asks for the code of the pending signup and, when it is accepted,
// starts the session and opens the role's home view.
func (a *App) Verify(ctx context.Context) error {
	return a.verifyPending(ctx, false)
}

func (a *App) verifyPending(ctx context.Context, optional bool) error {
	email := a.authService.PendingEmail()
	if email == "" {
		printlnFn("Nothing to verify, sign up first")
		return nil
	}

	prompt := "Enter the code sent to " + email
	if optional {
		prompt += " (empty to verify later)"
	}
	code, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if code == "" && optional {
		printlnFn("Type 'verify' when you have the code, 'resend' to get a new one")
		return nil
	}

	user, err := a.authService.VerifyOTP(ctx, code)
	if err != nil {
		return err
	}
	return a.Open(ctx, guard.HomeFor(user.Role))
}

func (a *App) ResendCode(ctx context.Context) error {
	return a.authService.ResendOTP(ctx)
}

// Login prompts the user for credentials, authenticates against the API and
// opens the home view of the user's role.
//
// The password is securely wiped before returning. Failures are already
// reported to the user by the auth service and are returned as is.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.authService.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return a.Open(ctx, guard.HomeFor(user.Role))
}

// Logout ends the session. A guarded view that is open is left by the
// router on its own.
func (a *App) Logout(ctx context.Context) error {
	return a.authService.Logout(ctx)
}

// EditProfile prompts for the editable profile fields. Empty answers keep
// the current value.
func (a *App) EditProfile(ctx context.Context) error {
	snap := a.session.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil {
		printlnFn("Please log in first")
		return nil
	}
	u := snap.User

	var upd api.ProfileUpdate
	var err error
	if upd.Name, err = getSimpleText(a.reader, fmt.Sprintf("Name [%s]", u.Name), a.out); err != nil {
		return err
	}
	if upd.Phone, err = getSimpleText(a.reader, fmt.Sprintf("Phone [%s]", u.Phone), a.out); err != nil {
		return err
	}
	if upd.Avatar, err = getSimpleText(a.reader, fmt.Sprintf("Avatar URL [%s]", u.Avatar), a.out); err != nil {
		return err
	}
	if u.Role == models.RoleAgent {
		if upd.Agency, err = getSimpleText(a.reader, fmt.Sprintf("Agency [%s]", u.Agency), a.out); err != nil {
			return err
		}
	}

	if upd == (api.ProfileUpdate{}) {
		printlnFn("Nothing to change")
		return nil
	}

	if _, err := a.authService.UpdateProfile(ctx, upd); err != nil {
		return err
	}
	return a.Open(ctx, "/profile")
}

// Open navigates to path and reports navigation failures to the user.
func (a *App) Open(ctx context.Context, path string) error {
	_, err := a.nav.Navigate(ctx, path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, router.ErrNotFound):
		printlnFn("No such view:", path)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		printlnFn("Navigation cancelled")
	default:
		a.logger.Error(ctx, "navigation failed", "path", path, "error", err)
		printlnFn("Error:", err)
	}
	return err
}

// WhoAmI prints the current session.
func (a *App) WhoAmI(context.Context) error {
	snap := a.session.Snapshot()
	switch {
	case snap.Loading:
		printlnFn("Restoring session...")
	case snap.User == nil:
		printlnFn("Not logged in")
	default:
		printlnFn(fmt.Sprintf("%s <%s>, role %s", displayName(snap), snap.User.Email, snap.Role()))
	}
	return nil
}
