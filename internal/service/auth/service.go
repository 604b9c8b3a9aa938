package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"google.golang.org/api/idtoken"

	"github.com/riveravet/clinic-api/internal/email"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	jwtauth "github.com/riveravet/clinic-api/pkg/auth"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/security"
)

var (
	ErrInvalidCredentials = &apperrors.AppError{Code: apperrors.ErrUnauthorized, Message: "invalid credentials"}
	ErrNotVerified        = apperrors.Forbidden("please verify your email before signing in")
	ErrAccountLocked      = apperrors.Forbidden("account locked")
	ErrUsernameTaken      = apperrors.Conflict("username is already taken")
	ErrEmailTaken         = apperrors.Conflict("email is already registered")
	ErrInvalidToken       = apperrors.BadRequest("invalid or expired token", nil)
	ErrGoogleAccount      = apperrors.BadRequest("this account uses Google sign-in", nil)
)

const (
	BcryptCost        = 10
	tokenBytes        = 32
	verifyTokenExpiry = 24 * time.Hour
	resetTokenExpiry  = time.Hour
	maxLoginFailures  = 3
	lockoutDuration   = 10 * time.Minute
)

// Mailer queues transactional email.
type Mailer interface {
	EnqueueEmail(ctx context.Context, tx *sqlx.Tx, to, subject, html string) error
}

// TokenValidator checks a Google ID token for audience.
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type Config struct {
	ClinicName     string
	FrontendURL    string
	GoogleClientID string
}

type Service struct {
	users    repository.UserRepository
	jwt      jwtauth.JWTService
	hasher   security.PasswordHasher
	mailer   Mailer
	validate TokenValidator
	config   Config
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(users repository.UserRepository, jwt jwtauth.JWTService, hasher security.PasswordHasher, mailer Mailer, config Config, log *logger.Logger) *Service {
	return &Service{
		users:    users,
		jwt:      jwt,
		hasher:   hasher,
		mailer:   mailer,
		validate: idtoken.Validate,
		config:   config,
		logger:   log,
		now:      time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	address := normalizeEmail(req.Email)

	if err := s.ensureAvailable(ctx, username, address); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("password does not meet requirements", err)
	}
	token, err := security.RandomToken(tokenBytes)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	expires := s.now().Add(verifyTokenExpiry)

	user := &model.User{
		Username:              username,
		Email:                 address,
		PasswordHash:          hash,
		Role:                  model.RoleUser,
		FirstName:             strings.TrimSpace(req.FirstName),
		LastName:              strings.TrimSpace(req.LastName),
		Phone:                 strings.TrimSpace(req.Phone),
		AuthType:              model.AuthTypeLocal,
		VerificationToken:     &token,
		VerificationExpiresAt: &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.send(ctx, user, "verify", "Verify your account", "/verify?token="+token)
	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *Service) ensureAvailable(ctx context.Context, username, address string) error {
	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}
	taken, err = s.users.EmailExists(ctx, address)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

func (s *Service) Verify(ctx context.Context, token string) error {
	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		return tokenError(err)
	}
	if user.VerificationExpiresAt == nil || s.now().After(*user.VerificationExpiresAt) {
		return ErrInvalidToken
	}

	user.Verified = true
	user.VerificationToken = nil
	user.VerificationExpiresAt = nil
	return s.users.UpdateAuthState(ctx, user)
}

// Login signs a user in by username or email. Three consecutive failures lock
// the account and send an unlock link.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByIdentifier(ctx, strings.TrimSpace(req.Identifier))
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.AuthType == model.AuthTypeGoogle {
		return nil, ErrGoogleAccount
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}

	now := s.now()
	if user.LockedUntil != nil {
		if now.Before(*user.LockedUntil) {
			return nil, ErrAccountLocked
		}
		// The lock has lapsed; start a fresh count before this attempt is judged.
		user.LockedUntil = nil
		user.UnlockToken = nil
		user.FailedLoginAttempts = 0
		if err := s.users.UpdateAuthState(ctx, user); err != nil {
			return nil, err
		}
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, s.recordFailure(ctx, user, now)
	}

	if user.FailedLoginAttempts > 0 {
		user.FailedLoginAttempts = 0
		if err := s.users.UpdateAuthState(ctx, user); err != nil {
			return nil, err
		}
	}
	return s.issue(user)
}

// recordFailure counts a failed attempt. Only the attempt that reaches the
// limit places the lock and mails the unlock link; later concurrent failures
// just report the lock.
func (s *Service) recordFailure(ctx context.Context, user *model.User, now time.Time) error {
	attempts, err := s.users.IncrementFailedLogins(ctx, user.ID)
	if err != nil {
		return err
	}
	switch {
	case attempts < maxLoginFailures:
		return ErrInvalidCredentials
	case attempts > maxLoginFailures:
		return ErrAccountLocked
	}

	token, err := security.RandomToken(tokenBytes)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.users.LockAccount(ctx, user.ID, now.Add(lockoutDuration), token); err != nil {
		return err
	}

	s.logger.Warn("Account locked after failed sign-in attempts", "user_id", user.ID)
	s.send(ctx, user, "unlock", "Your account has been locked", "/unlock?token="+token)
	return ErrAccountLocked
}

func (s *Service) Unlock(ctx context.Context, token string) error {
	user, err := s.users.GetByUnlockToken(ctx, token)
	if err != nil {
		return tokenError(err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.UnlockToken = nil
	return s.users.UpdateAuthState(ctx, user)
}

// RequestPasswordReset sends a one hour reset link. Unknown addresses succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, address string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(address))
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.AuthType == model.AuthTypeGoogle {
		return nil
	}

	token, err := security.RandomToken(tokenBytes)
	if err != nil {
		return apperrors.Internal(err)
	}
	expires := s.now().Add(resetTokenExpiry)
	user.ResetToken = &token
	user.ResetExpiresAt = &expires
	if err := s.users.UpdateAuthState(ctx, user); err != nil {
		return err
	}

	s.send(ctx, user, "reset", "Reset your password", "/reset-password?token="+token)
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	user, err := s.users.GetByResetToken(ctx, req.Token)
	if err != nil {
		return tokenError(err)
	}
	if user.ResetExpiresAt == nil || s.now().After(*user.ResetExpiresAt) {
		return ErrInvalidToken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return apperrors.BadRequest("password does not meet requirements", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	user.ResetToken = nil
	user.ResetExpiresAt = nil
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.UnlockToken = nil
	return s.users.UpdateAuthState(ctx, user)
}

// GoogleLogin signs in with a Google ID token, creating a verified account on first use.
func (s *Service) GoogleLogin(ctx context.Context, rawToken string) (*model.LoginResponse, error) {
	if s.config.GoogleClientID == "" {
		return nil, apperrors.Unavailable("google sign-in is not configured", nil)
	}
	payload, err := s.validate(ctx, rawToken, s.config.GoogleClientID)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	address := normalizeEmail(claim(payload, "email"))
	if address == "" {
		return nil, apperrors.Unauthorized(fmt.Errorf("google token carries no email"))
	}

	user, err := s.users.GetByEmail(ctx, address)
	switch {
	case err == nil:
	case apperrors.HasCode(err, apperrors.ErrNotFound):
		if user, err = s.createGoogleUser(ctx, address, payload); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return s.issue(user)
}

func (s *Service) createGoogleUser(ctx context.Context, address string, payload *idtoken.Payload) (*model.User, error) {
	username, err := s.freeUsername(ctx, strings.SplitN(address, "@", 2)[0])
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:  username,
		Email:     address,
		Role:      model.RoleUser,
		FirstName: claim(payload, "given_name"),
		LastName:  claim(payload, "family_name"),
		AuthType:  model.AuthTypeGoogle,
		Verified:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User registered with Google", "user_id", user.ID)
	return user, nil
}

func (s *Service) freeUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 0; i < 5; i++ {
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix, err := security.RandomToken(2)
		if err != nil {
			return "", apperrors.Internal(err)
		}
		candidate = base + "_" + suffix
	}
	return "", apperrors.Conflict("could not allocate a username")
}

func (s *Service) CheckUsername(ctx context.Context, username string) (bool, error) {
	taken, err := s.users.UsernameExists(ctx, strings.TrimSpace(username))
	return !taken, err
}

func (s *Service) CheckEmail(ctx context.Context, address string) (bool, error) {
	taken, err := s.users.EmailExists(ctx, normalizeEmail(address))
	return !taken, err
}

func (s *Service) issue(user *model.User) (*model.LoginResponse, error) {
	token, err := s.jwt.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// send queues a templated email. Account changes are never undone by a mail failure.
func (s *Service) send(ctx context.Context, user *model.User, template, subject, path string) {
	html, err := email.Render(template, email.Content{
		Name:   user.FullName(),
		Clinic: s.config.ClinicName,
		Link:   strings.TrimRight(s.config.FrontendURL, "/") + path,
	})
	if err == nil {
		err = s.mailer.EnqueueEmail(ctx, nil, user.Email, subject, html)
	}
	if err != nil {
		s.logger.Error(err, "Failed to queue email", "user_id", user.ID, "template", template)
	}
}

func tokenError(err error) error {
	if apperrors.HasCode(err, apperrors.ErrNotFound) {
		return ErrInvalidToken
	}
	return err
}

func claim(p *idtoken.Payload, key string) string {
	v, _ := p.Claims[key].(string)
	return v
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
