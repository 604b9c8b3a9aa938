package model

import (
	"time"

	"github.com/google/uuid"
)

type UnavailabilityKind string

const (
	UnavailabilityFullDay   UnavailabilityKind = "full-day"
	UnavailabilityTimeRange UnavailabilityKind = "time-range"
)

// UnavailableDate blocks a whole calendar date.
type UnavailableDate struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Date      string    `json:"date" db:"date"`
	Event     string    `json:"event" db:"event"`
	Role      string    `json:"role" db:"role_set"`
	SetBy     string    `json:"setBy" db:"set_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UnavailableTime blocks the half-open interval [TimeFrom, TimeTo) of a date.
type UnavailableTime struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Date      string    `json:"date" db:"date"`
	TimeFrom  string    `json:"time_from" db:"time_from"`
	TimeTo    string    `json:"time_to" db:"time_to"`
	Event     string    `json:"event" db:"event"`
	Role      string    `json:"role" db:"role_set"`
	SetBy     string    `json:"setBy" db:"set_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Overlaps reports whether [from, to) intersects the stored interval.
// HH:MM strings compare lexically in clock order.
func (u *UnavailableTime) Overlaps(from, to string) bool {
	return !(u.TimeTo <= from || u.TimeFrom >= to)
}

type Unavailability struct {
	FullDays []*UnavailableDate `json:"fullDays"`
	Times    []*UnavailableTime `json:"times"`
}

type AddFullDayRequest struct {
	Date  string `json:"date" binding:"required,ymd"`
	Event string `json:"event" binding:"required"`
}

type AddTimeRangeRequest struct {
	Date     string `json:"date" binding:"required,ymd"`
	TimeFrom string `json:"time_from" binding:"required,hhmm"`
	TimeTo   string `json:"time_to" binding:"required,hhmm"`
	Event    string `json:"event" binding:"required"`
}

type NotifyUnavailabilityRequest struct {
	Date     string `json:"date" binding:"required,ymd"`
	Reason   string `json:"reason" binding:"required"`
	TimeFrom string `json:"time_from" binding:"omitempty,hhmm"`
	TimeTo   string `json:"time_to" binding:"omitempty,hhmm"`
}

// NotifyReport summarizes a notification fan-out.
type NotifyReport struct {
	Notified int             `json:"notified"`
	Failed   []NotifyFailure `json:"failed"`
}

type NotifyFailure struct {
	UserID uuid.UUID `json:"user_id"`
	Error  string    `json:"error"`
}

// UnavailabilityFilter narrows list projections; zero values match everything.
type UnavailabilityFilter struct {
	UserID *uuid.UUID
	Role   string
}
