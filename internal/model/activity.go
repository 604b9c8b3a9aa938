package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is an audit line written for staff actions.
type ActivityLog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    *uuid.UUID `json:"user_id" db:"user_id"`
	ActorName string     `json:"actor_name" db:"actor_name"`
	Action    string     `json:"action" db:"action"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type ActivityInput struct {
	Action string `json:"action" binding:"required,max=500"`
}

type ActivityFilter struct {
	UserID *uuid.UUID
	Limit  int
}
