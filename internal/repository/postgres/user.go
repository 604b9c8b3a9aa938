package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
)

const userColumns = `
	id, username, email, password_hash, role, first_name, middle_name, last_name,
	suffix, phone, house_number, province, municipality, barangay, zip_code, bio,
	photo_url, photo_key, auth_type, verified, verification_token, verification_expires_at,
	failed_login_attempts, locked_until, unlock_token, reset_token,
	reset_expires_at, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, username, email, password_hash, role, first_name, middle_name,
			last_name, suffix, phone, photo_url, photo_key, auth_type, verified,
			verification_token, verification_expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.FirstName,
		user.MiddleName,
		user.LastName,
		user.Suffix,
		user.Phone,
		user.PhotoURL,
		user.PhotoKey,
		user.AuthType,
		user.Verified,
		user.VerificationToken,
		user.VerificationExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("username or email is already in use")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		return nil, wrapGet(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return r.getOne(ctx, `username = $1 OR email = lower($1)`, identifier)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `email = lower($1)`, email)
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.getOne(ctx, `verification_token = $1`, token)
}

func (r *userRepository) GetByUnlockToken(ctx context.Context, token string) (*model.User, error) {
	return r.getOne(ctx, `unlock_token = $1`, token)
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*model.User, error) {
	return r.getOne(ctx, `reset_token = $1`, token)
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE email = lower($1))`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *userRepository) UpdateAuthState(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET verified = $1,
			verification_token = $2,
			verification_expires_at = $3,
			failed_login_attempts = $4,
			locked_until = $5,
			unlock_token = $6,
			reset_token = $7,
			reset_expires_at = $8,
			updated_at = NOW()
		WHERE id = $9
	`
	res, err := r.db.ExecContext(ctx, query,
		user.Verified,
		user.VerificationToken,
		user.VerificationExpiresAt,
		user.FailedLoginAttempts,
		user.LockedUntil,
		user.UnlockToken,
		user.ResetToken,
		user.ResetExpiresAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectRows(res, "user")
}

// IncrementFailedLogins bumps the counter in place so concurrent failures are all counted.
func (r *userRepository) IncrementFailedLogins(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts
	`
	var attempts int
	if err := r.db.GetContext(ctx, &attempts, query, id); err != nil {
		return 0, wrapGet(err, "user")
	}
	return attempts, nil
}

func (r *userRepository) LockAccount(ctx context.Context, id uuid.UUID, until time.Time, unlockToken string) error {
	query := `
		UPDATE users
		SET locked_until = $1, unlock_token = $2, updated_at = NOW()
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, until, unlockToken, id)
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return expectRows(res, "user")
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, reset_token = NULL, reset_expires_at = NULL, updated_at = NOW()
		WHERE id = $2
	`
	res, err := r.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectRows(res, "user")
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateDetails writes the identity, profile and photo columns.
func (r *userRepository) UpdateDetails(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, role = $3, first_name = $4, middle_name = $5,
			last_name = $6, suffix = $7, phone = $8, house_number = $9, province = $10,
			municipality = $11, barangay = $12, zip_code = $13, bio = $14,
			photo_url = $15, photo_key = $16, updated_at = NOW()
		WHERE id = $17
	`
	res, err := r.db.ExecContext(ctx, query,
		user.Username, strings.ToLower(user.Email), user.Role, user.FirstName, user.MiddleName,
		user.LastName, user.Suffix, user.Phone, user.HouseNumber, user.Province,
		user.Municipality, user.Barangay, user.ZipCode, user.Bio,
		user.PhotoURL, user.PhotoKey, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("username or email is already in use")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectRows(res, "user")
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("account has orders on record and cannot be deleted")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectRows(res, "user")
}

func (r *userRepository) ListVerifiedRecipients(ctx context.Context, role string) ([]*model.Recipient, error) {
	query := `
		SELECT id, email, first_name
		FROM users
		WHERE role = $1 AND verified = TRUE
		ORDER BY created_at ASC
	`
	var recipients []*model.Recipient
	if err := r.db.SelectContext(ctx, &recipients, query, role); err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	return recipients, nil
}
