// Package account covers administrator account management and self-service profiles.
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/email"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	"github.com/riveravet/clinic-api/internal/storage"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/security"
)

var (
	ErrUsernameTaken    = apperrors.Conflict("username is already taken")
	ErrEmailTaken       = apperrors.Conflict("email is already registered")
	ErrSelfDelete       = apperrors.Conflict("you cannot delete your own account")
	ErrSelfDemote       = apperrors.Conflict("you cannot change your own role")
	ErrPasswordRequired = apperrors.BadRequest("password is required", nil)
	ErrPasswordMismatch = apperrors.BadRequest("new password and confirmation do not match", nil)
	ErrWrongPassword    = apperrors.BadRequest("current password is incorrect", nil)
	ErrGoogleAccount    = apperrors.BadRequest("this account uses Google sign-in and has no password", nil)
)

const (
	tokenBytes        = 32
	verifyTokenExpiry = 24 * time.Hour
)

type ObjectStore interface {
	Upload(ctx context.Context, folder string, f *model.Photo) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type Mailer interface {
	EnqueueEmail(ctx context.Context, tx *sqlx.Tx, to, subject, html string) error
}

// Auditor records staff actions.
type Auditor interface {
	Record(ctx context.Context, actor model.Principal, action string)
}

type Config struct {
	ClinicName  string
	FrontendURL string
}

type Service struct {
	users   repository.UserRepository
	hasher  security.PasswordHasher
	objects ObjectStore
	mailer  Mailer
	audit   Auditor
	config  Config
	logger  *logger.Logger
	now     func() time.Time
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, objects ObjectStore, mailer Mailer, audit Auditor, config Config, log *logger.Logger) *Service {
	return &Service{
		users:   users,
		hasher:  hasher,
		objects: objects,
		mailer:  mailer,
		audit:   audit,
		config:  config,
		logger:  log,
		now:     time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create adds an unverified local account and mails its verification link.
func (s *Service) Create(ctx context.Context, actor model.Principal, in *model.AccountInput, photo *model.Photo) (*model.User, error) {
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}
	user := &model.User{AuthType: model.AuthTypeLocal}
	applyAccount(user, in)
	if err := s.ensureAvailable(ctx, nil, user.Username, user.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.BadRequest("password does not meet requirements", err)
	}
	token, err := security.RandomToken(tokenBytes)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	expires := s.now().Add(verifyTokenExpiry)
	user.PasswordHash = hash
	user.VerificationToken = &token
	user.VerificationExpiresAt = &expires

	obj, err := s.upload(ctx, photo)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		user.PhotoURL, user.PhotoKey = &obj.URL, &obj.Key
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.remove(ctx, obj)
		return nil, err
	}

	s.sendVerification(ctx, user, token)
	s.audit.Record(ctx, actor, fmt.Sprintf("Created %s account %s", user.Role, user.Username))
	s.logger.Info("Account created", "user_id", user.ID, "role", user.Role, "by", actor.UserID)
	return user, nil
}

// Update edits any account. A non-empty password replaces the current one.
func (s *Service) Update(ctx context.Context, actor model.Principal, id uuid.UUID, in *model.AccountInput, photo *model.Photo) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID == id && in.Role != user.Role {
		return nil, ErrSelfDemote
	}

	current := *user
	applyAccount(user, in)
	if err := s.ensureAvailable(ctx, &current, user.Username, user.Email); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		if hash, err = s.hasher.Hash(in.Password); err != nil {
			return nil, apperrors.BadRequest("password does not meet requirements", err)
		}
	}

	if err := s.save(ctx, user, photo, hash); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, "Updated account "+user.Username)
	return user, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if actor.UserID == id {
		return ErrSelfDelete
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if user.PhotoKey != nil {
		s.remove(ctx, &storage.Object{Key: *user.PhotoKey})
	}
	s.audit.Record(ctx, actor, "Deleted account "+user.Username)
	s.logger.Info("Account deleted", "user_id", id, "by", actor.UserID)
	return nil
}

// UpdateProfile edits the caller's own details. Changing the password
// requires the current one and a matching confirmation.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in *model.ProfileInput, photo *model.Photo) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var hash string
	if in.NewPassword != "" {
		if hash, err = s.checkPasswordChange(user, in); err != nil {
			return nil, err
		}
	}

	user.FirstName = strings.TrimSpace(in.FirstName)
	user.MiddleName = strings.TrimSpace(in.MiddleName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Suffix = strings.TrimSpace(in.Suffix)
	user.Phone = strings.TrimSpace(in.Phone)
	user.HouseNumber = strings.TrimSpace(in.HouseNumber)
	user.Province = strings.TrimSpace(in.Province)
	user.Municipality = strings.TrimSpace(in.Municipality)
	user.Barangay = strings.TrimSpace(in.Barangay)
	user.ZipCode = strings.TrimSpace(in.ZipCode)
	user.Bio = strings.TrimSpace(in.Bio)

	if err := s.save(ctx, user, photo, hash); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) checkPasswordChange(user *model.User, in *model.ProfileInput) (string, error) {
	if user.AuthType == model.AuthTypeGoogle {
		return "", ErrGoogleAccount
	}
	if in.NewPassword != in.ConfirmPassword {
		return "", ErrPasswordMismatch
	}
	if err := s.hasher.Compare(user.PasswordHash, in.CurrentPassword); err != nil {
		return "", ErrWrongPassword
	}
	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return "", apperrors.BadRequest("password does not meet requirements", err)
	}
	return hash, nil
}

// save persists user with an optional new photo and password hash. The old
// photo is removed only after the row points at the new one.
func (s *Service) save(ctx context.Context, user *model.User, photo *model.Photo, hash string) error {
	oldKey := user.PhotoKey
	obj, err := s.upload(ctx, photo)
	if err != nil {
		return err
	}
	if obj != nil {
		user.PhotoURL, user.PhotoKey = &obj.URL, &obj.Key
	}

	if err := s.users.UpdateDetails(ctx, user); err != nil {
		s.remove(ctx, obj)
		return err
	}
	if obj != nil && oldKey != nil {
		s.remove(ctx, &storage.Object{Key: *oldKey})
	}

	if hash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
	}
	return nil
}

// ensureAvailable rejects a username or email that differs from current and
// is already held by another account.
func (s *Service) ensureAvailable(ctx context.Context, current *model.User, username, address string) error {
	if current == nil || current.Username != username {
		taken, err := s.users.UsernameExists(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}
	}
	if current == nil || current.Email != address {
		taken, err := s.users.EmailExists(ctx, address)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	return nil
}

func (s *Service) sendVerification(ctx context.Context, user *model.User, token string) {
	html, err := email.Render("verify", email.Content{
		Name:   user.FullName(),
		Clinic: s.config.ClinicName,
		Link:   strings.TrimRight(s.config.FrontendURL, "/") + "/verify?token=" + token,
	})
	if err == nil {
		err = s.mailer.EnqueueEmail(ctx, nil, user.Email, "Verify your account", html)
	}
	if err != nil {
		s.logger.Error(err, "Failed to queue email", "user_id", user.ID, "template", "verify")
	}
}

func (s *Service) upload(ctx context.Context, photo *model.Photo) (*storage.Object, error) {
	if photo == nil {
		return nil, nil
	}
	if !strings.HasPrefix(photo.ContentType, "image/") {
		return nil, apperrors.BadRequest("photo must be an image", nil)
	}
	obj, err := s.objects.Upload(ctx, storage.FolderProfiles, photo)
	if err != nil {
		return nil, apperrors.Unavailable("failed to upload photo", err)
	}
	return obj, nil
}

func (s *Service) remove(ctx context.Context, obj *storage.Object) {
	if obj == nil {
		return
	}
	if err := s.objects.Delete(ctx, obj.Key); err != nil {
		s.logger.Warn("Failed to delete profile photo", "key", obj.Key, "error", err)
	}
}

func applyAccount(user *model.User, in *model.AccountInput) {
	user.Username = strings.TrimSpace(in.Username)
	user.Email = strings.ToLower(strings.TrimSpace(in.Email))
	user.Role = in.Role
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.MiddleName = strings.TrimSpace(in.MiddleName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Suffix = strings.TrimSpace(in.Suffix)
	user.Phone = strings.TrimSpace(in.Phone)
}
