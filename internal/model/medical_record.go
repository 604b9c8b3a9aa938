package model

import (
	"time"

	"github.com/google/uuid"
)

type PetRecord struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OwnerUserID *uuid.UUID `json:"owner_user_id" db:"owner_user_id"`
	OwnerName   string     `json:"owner_name" db:"owner_name"`
	PetName     string     `json:"pet_name" db:"pet_name"`
	Species     string     `json:"species" db:"species"`
	Breed       string     `json:"breed" db:"breed"`
	Gender      string     `json:"gender" db:"gender"`
	BirthDate   *string    `json:"birth_date" db:"birth_date"`
	Weight      *float64   `json:"weight" db:"weight"`
	Color       string     `json:"color" db:"color"`
	PhotoURL    *string    `json:"photo_url" db:"photo_url"`
	PhotoKey    *string    `json:"-" db:"photo_key"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type PetRecordInput struct {
	OwnerUserID string   `form:"owner_user_id" json:"owner_user_id" binding:"omitempty,uuid"`
	OwnerName   string   `form:"owner_name" json:"owner_name" binding:"required"`
	PetName     string   `form:"pet_name" json:"pet_name" binding:"required"`
	Species     string   `form:"species" json:"species" binding:"required"`
	Breed       string   `form:"breed" json:"breed"`
	Gender      string   `form:"gender" json:"gender"`
	BirthDate   string   `form:"birth_date" json:"birth_date" binding:"omitempty,ymd"`
	Weight      *float64 `form:"weight" json:"weight" binding:"omitempty,gt=0"`
	Color       string   `form:"color" json:"color"`
}

type Visit struct {
	ID              uuid.UUID `json:"id" db:"id"`
	MedicalRecordID uuid.UUID `json:"medical_record_id" db:"medical_record_id"`
	VisitDate       string    `json:"visit_date" db:"visit_date"`
	ServiceType     string    `json:"service_type" db:"service_type"`
	Diagnosis       string    `json:"diagnosis" db:"diagnosis"`
	Treatment       string    `json:"treatment" db:"treatment"`
	Notes           string    `json:"notes" db:"notes"`
	Veterinarian    string    `json:"veterinarian" db:"veterinarian"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type VisitInput struct {
	VisitDate    string `json:"visit_date" binding:"required"`
	ServiceType  string `json:"service_type" binding:"required"`
	Diagnosis    string `json:"diagnosis"`
	Treatment    string `json:"treatment"`
	Notes        string `json:"notes"`
	Veterinarian string `json:"veterinarian"`
}
