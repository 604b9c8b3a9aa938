package model

import (
	"time"

	"github.com/google/uuid"
)

type Announcement struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Content        string    `json:"content" db:"content"`
	ButtonText     string    `json:"button_text" db:"button_text"`
	ButtonLink     string    `json:"button_link" db:"button_link"`
	DatePosted     string    `json:"date_posted" db:"date_posted"`
	ExpirationDate *string   `json:"expiration_date" db:"expiration_date"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type AnnouncementInput struct {
	Title          string `json:"title" binding:"required,max=200"`
	Content        string `json:"content" binding:"required"`
	ButtonText     string `json:"button_text" binding:"max=100"`
	ButtonLink     string `json:"button_link" binding:"omitempty,url"`
	DatePosted     string `json:"date_posted" binding:"omitempty,ymd"`
	ExpirationDate string `json:"expiration_date" binding:"omitempty,ymd"`
}

// Feature is a highlight shown on the public landing page.
type Feature struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Icon        string    `json:"icon" db:"icon"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type FeatureInput struct {
	Icon        string `json:"icon" binding:"max=100"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
}
