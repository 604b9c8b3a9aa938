package model

import "github.com/google/uuid"

// ClinicService is an entry in the public services catalogue.
type ClinicService struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	ImageURL    *string   `json:"image_url" db:"image_url"`
}
