package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dmitrijs2005/homefinder/internal/common"
	"github.com/dmitrijs2005/homefinder/internal/cryptox"
	"github.com/dmitrijs2005/homefinder/internal/devapi/auth"
	"github.com/dmitrijs2005/homefinder/internal/devapi/config"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

const (
	otpLength         = 6
	minPasswordLength = 6
)

var (
	ErrInvalidOTP  = errors.New("invalid or expired verification code")
	ErrNotVerified = errors.New("account is not verified")
)

// RegisterInput is a signup request. Role defaults to "user".
type RegisterInput struct {
	Name     string
	Email    string
	Password []byte
	Role     string
	Phone    string
}

// ProfileUpdate holds the editable fields. Empty fields are left unchanged.
type ProfileUpdate struct {
	Name   string
	Phone  string
	Avatar string
	Agency string
}

// Session is an authenticated account together with its access token.
type Session struct {
	User        *User
	AccessToken string
}

type Service struct {
	repo                        Repository
	logger                      logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration

	// email -> pending verification code
	otps *cache.Cache
	// token id -> revoked, kept until the token would expire anyway
	revoked *cache.Cache
}

func NewService(repo Repository, cfg *config.Config, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		repo:                        repo,
		logger:                      logger,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		otps:                        cache.New(cfg.OTPValidityDuration, time.Minute),
		revoked:                     cache.New(cfg.AccessTokenValidityDuration, 10*time.Minute),
	}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
}

func validateRegistration(in *RegisterInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))

	if in.Name == "" {
		return validationError("name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return validationError("a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	switch in.Role {
	case "":
		in.Role = RoleUser
	case RoleUser, RoleAgent:
	case RoleAdmin:
		return validationError("admin accounts cannot sign up")
	default:
		return validationError("role must be user or agent")
	}
	return nil
}

// Register creates an unverified account and issues a verification code.
// Signing up again with the email of an unverified account replaces its
// details and issues a new code.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := validateRegistration(&in); err != nil {
		return nil, err
	}

	user := &User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: cryptox.HashPassword(in.Password),
	}

	existing, err := s.repo.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.Verified:
		return nil, common.ErrorAlreadyExists
	case err == nil:
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("error updating user: %w", err)
		}
	case errors.Is(err, common.ErrorNotFound):
		user, err = s.repo.Create(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return nil, err
			}
			return nil, fmt.Errorf("error creating user: %w", err)
		}
	default:
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if err := s.issueOTP(ctx, user.Email); err != nil {
		return nil, err
	}
	return user, nil
}

// issueOTP stores a fresh code for email. There is no mailer; the code is
// written to the log.
func (s *Service) issueOTP(ctx context.Context, email string) error {
	code, err := common.MakeRandDigits(otpLength)
	if err != nil {
		return common.ErrorInternal
	}
	s.otps.SetDefault(emailKey(email), code)
	s.logger.Info(ctx, "verification code issued", "email", email, "otp", code)
	return nil
}

// VerifyOTP checks the pending code for email, marks the account verified
// and signs the user in. A code can be used once.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (*Session, error) {
	key := emailKey(email)
	v, ok := s.otps.Get(key)
	if !ok {
		return nil, ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(v.(string)), []byte(strings.TrimSpace(otp))) != 1 {
		return nil, ErrInvalidOTP
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, common.ErrorInternal
	}

	user.Verified = true
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, common.ErrorInternal
	}
	s.otps.Delete(key)

	return s.newSession(user)
}

// ResendOTP issues a new code for an unverified account.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	if user.Verified {
		return validationError("account is already verified")
	}
	return s.issueOTP(ctx, user.Email)
}

func (s *Service) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, common.ErrorUnauthorized
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}

	return s.newSession(user)
}

func (s *Service) newSession(user *User) (*Session, error) {
	token, _, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{User: user, AccessToken: token}, nil
}

// Authenticate validates an access token and rejects revoked ones.
func (s *Service) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes the token described by claims until it expires.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) {
	ttl := s.accessTokenValidityDuration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return
	}
	s.revoked.Set(claims.ID, struct{}{}, ttl)
	s.logger.Info(ctx, "token revoked", "user_id", claims.UserID)
}

func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// UpdateProfile applies the non-empty fields of upd. Agency applies to
// agents only.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(upd.Agency); v != "" {
		if user.Role != RoleAgent {
			return nil, validationError("only agents have an agency")
		}
		user.Agency = v
	}
	if v := strings.TrimSpace(upd.Name); v != "" {
		user.Name = v
	}
	if v := strings.TrimSpace(upd.Phone); v != "" {
		user.Phone = v
	}
	if v := strings.TrimSpace(upd.Avatar); v != "" {
		user.Avatar = v
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, common.ErrorInternal
	}
	return user, nil
}

// SeedAdmin creates a verified admin account unless one with the email
// already exists. Empty credentials disable seeding.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error looking up admin: %w", err)
	}

	_, err := s.repo.Create(ctx, &User{
		Name:         "Administrator",
		Email:        email,
		Role:         RoleAdmin,
		Verified:     true,
		PasswordHash: cryptox.HashPassword([]byte(password)),
	})
	if err != nil {
		return fmt.Errorf("error creating admin: %w", err)
	}
	s.logger.Info(ctx, "admin account seeded", "email", email)
	return nil
}

// PendingOTP returns the outstanding verification code for email. Used by
// tests that drive the signup flow without reading the log.
func (s *Service) PendingOTP(email string) (string, bool) {
	v, ok := s.otps.Get(emailKey(email))
	if !ok {
		return "", false
	}
	return v.(string), true
}
