package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles carried in access tokens and stored on users.
const (
	RoleUser  = "User"
	RoleVet   = "Vet"
	RoleAdmin = "Admin"
)

const (
	AuthTypeLocal  = "local"
	AuthTypeGoogle = "google"
)

// User represents a clinic account: pet owner, veterinarian or administrator.
type User struct {
	Base
	Username              string     `json:"username" db:"username"`
	Email                 string     `json:"email" db:"email"`
	PasswordHash          string     `json:"-" db:"password_hash"`
	Role                  string     `json:"role" db:"role"`
	FirstName             string     `json:"first_name" db:"first_name"`
	MiddleName            string     `json:"middle_name" db:"middle_name"`
	LastName              string     `json:"last_name" db:"last_name"`
	Suffix                string     `json:"suffix" db:"suffix"`
	Phone                 string     `json:"phone" db:"phone"`
	HouseNumber           string     `json:"house_number" db:"house_number"`
	Province              string     `json:"province" db:"province"`
	Municipality          string     `json:"municipality" db:"municipality"`
	Barangay              string     `json:"barangay" db:"barangay"`
	ZipCode               string     `json:"zip_code" db:"zip_code"`
	Bio                   string     `json:"bio" db:"bio"`
	PhotoURL              *string    `json:"photo_url" db:"photo_url"`
	PhotoKey              *string    `json:"-" db:"photo_key"`
	AuthType              string     `json:"auth_type" db:"auth_type"`
	Verified              bool       `json:"verified" db:"verified"`
	VerificationToken     *string    `json:"-" db:"verification_token"`
	VerificationExpiresAt *time.Time `json:"-" db:"verification_expires_at"`
	FailedLoginAttempts   int        `json:"-" db:"failed_login_attempts"`
	LockedUntil           *time.Time `json:"-" db:"locked_until"`
	UnlockToken           *string    `json:"-" db:"unlock_token"`
	ResetToken            *string    `json:"-" db:"reset_token"`
	ResetExpiresAt        *time.Time `json:"-" db:"reset_expires_at"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

func (u *User) IsStaff() bool {
	return u.Role == RoleVet || u.Role == RoleAdmin
}

// Recipient is the projection used for notification fan-out.
type Recipient struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"first_name" db:"first_name"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

func (p Principal) IsStaff() bool {
	return p.Role == RoleVet || p.Role == RoleAdmin
}
