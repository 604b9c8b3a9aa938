package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending  AppointmentStatus = "Pending"
	AppointmentStatusApproved AppointmentStatus = "Approved"
	AppointmentStatusDeclined AppointmentStatus = "Declined"
)

// Appointment is a booked slot. Date and Time are projected as YYYY-MM-DD and HH:MM.
type Appointment struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	Date          string            `json:"date" db:"slot_date"`
	Time          string            `json:"time" db:"slot_time"`
	OwnerName     string            `json:"owner_name" db:"owner_name"`
	UserID        uuid.UUID         `json:"user_id" db:"user_id"`
	Service       string            `json:"service" db:"service"`
	PetName       string            `json:"pet_name" db:"pet_name"`
	Status        AppointmentStatus `json:"status" db:"status"`
	DeclineReason *string           `json:"decline_reason,omitempty" db:"decline_reason"`
	IsDone        bool              `json:"is_done" db:"is_done"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

type CreateAppointmentRequest struct {
	Date      string `json:"date" binding:"required,ymd"`
	Time      string `json:"time" binding:"required,hhmm"`
	OwnerName string `json:"owner_name" binding:"required"`
	Service   string `json:"service"`
	PetName   string `json:"pet_name"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Approved Declined"`
	Reason string `json:"reason"`
}

type UpdateCompletionRequest struct {
	Done *bool `json:"done" binding:"required"`
}
