package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTypeLowStock       = "Low Stock Alert"
	NotificationTypeAppointment    = "Appointment"
	NotificationTypeConsultation   = "Consultation"
	NotificationTypeUnavailability = "Unavailability"
	NotificationTypeOrder          = "Order"
)

type UserNotification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Type      string    `json:"type" db:"type"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AdminNotification is shared by all staff; Read comes from the per-user read table.
type AdminNotification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Type      string     `json:"type" db:"type"`
	Details   string     `json:"details" db:"details"`
	ProductID *uuid.UUID `json:"product_id,omitempty" db:"product_id"`
	Read      bool       `json:"is_read" db:"is_read"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type CreateNotificationRequest struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	Title   string    `json:"title" binding:"required"`
	Type    string    `json:"type" binding:"required"`
	Details string    `json:"details" binding:"required"`
}

type CreateAdminNotificationRequest struct {
	Title   string `json:"title" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Details string `json:"details" binding:"required"`
}

type AdminNotificationIDRequest struct {
	NotificationID uuid.UUID `json:"notification_id" binding:"required"`
}
