package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConsultTypeRegular = "Regular"
	ConsultTypeUrgent  = "Urgent"
)

type Consultation struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	ChannelID       string            `json:"channel_id" db:"channel_id"`
	UserID          uuid.UUID         `json:"user_id" db:"user_id"`
	OwnerName       string            `json:"owner_name" db:"owner_name"`
	PetName         string            `json:"pet_name" db:"pet_name"`
	PetType         string            `json:"pet_type" db:"pet_type"`
	PetSpecies      string            `json:"pet_species" db:"pet_species"`
	Concern         string            `json:"concern" db:"concern"`
	ConsultType     string            `json:"consult_type" db:"consult_type"`
	PaymentProofURL string            `json:"payment_proof_url" db:"payment_proof_url"`
	PaymentProofKey string            `json:"-" db:"payment_proof_key"`
	FileType        string            `json:"file_type" db:"file_type"`
	Date            string            `json:"date" db:"slot_date"`
	Time            string            `json:"time" db:"slot_time"`
	Status          AppointmentStatus `json:"status" db:"status"`
	DeclineReason   *string           `json:"decline_reason,omitempty" db:"decline_reason"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

type SubmitConsultationRequest struct {
	OwnerName   string `form:"owner_name" binding:"required"`
	PetName     string `form:"pet_name" binding:"required"`
	PetType     string `form:"pet_type" binding:"required"`
	PetSpecies  string `form:"pet_species"`
	Concern     string `form:"concern" binding:"required"`
	ConsultType string `form:"consult_type" binding:"required,oneof=Regular Urgent"`
	Date        string `form:"date" binding:"required,ymd"`
	Time        string `form:"time" binding:"required,hhmm"`
}

type ConsultMessage struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConsultationID uuid.UUID `json:"consultation_id" db:"consultation_id"`
	SenderType     string    `json:"sender_type" db:"sender_type"`
	SenderName     string    `json:"sender_name" db:"sender_name"`
	MessageText    string    `json:"message_text" db:"message_text"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type SaveMessageRequest struct {
	ConsultationID uuid.UUID `json:"consultation_id" binding:"required"`
	Text           string    `json:"text" binding:"required,max=4000"`
}
