package model

import (
	"time"

	"github.com/google/uuid"
)

// Pet is an owner maintained profile, separate from the clinic's medical record.
type Pet struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerUserID uuid.UUID `json:"owner_user_id" db:"owner_user_id"`
	Name        string    `json:"name" db:"name"`
	PetType     string    `json:"pet_type" db:"pet_type"`
	Breed       string    `json:"breed" db:"breed"`
	Age         string    `json:"age" db:"age"`
	Gender      string    `json:"gender" db:"gender"`
	PhotoURL    *string   `json:"photo_url" db:"photo_url"`
	PhotoKey    *string   `json:"-" db:"photo_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// PetInput carries OwnerUserID only when staff register a pet for someone else.
type PetInput struct {
	OwnerUserID string `form:"owner_user_id" json:"owner_user_id" binding:"omitempty,uuid"`
	Name        string `form:"name" json:"name" binding:"required,max=100"`
	PetType     string `form:"pet_type" json:"pet_type" binding:"required,max=50"`
	Breed       string `form:"breed" json:"breed" binding:"max=100"`
	Age         string `form:"age" json:"age" binding:"max=30"`
	Gender      string `form:"gender" json:"gender" binding:"omitempty,oneof=Male Female"`
}

// PetOwner is an account with at least one pet profile.
type PetOwner struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Pets      int       `json:"pets" db:"pets"`
}
