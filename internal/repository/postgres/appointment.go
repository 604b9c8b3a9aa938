package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
)

const appointmentColumns = `
	id, to_char(slot_date, 'YYYY-MM-DD') AS slot_date, to_char(slot_time, 'HH24:MI') AS slot_time,
	owner_name, user_id, service, pet_name, status, decline_reason, is_done, created_at, updated_at`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, slot_date, slot_time, owner_name, user_id, service, pet_name,
			status, is_done, created_at, updated_at
		) VALUES ($1, $2::date, $3::time, $4, $5, $6, $7, $8, FALSE, $9, $10)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	_, err := r.q(tx).ExecContext(ctx, query,
		appointment.ID,
		appointment.Date,
		appointment.Time,
		appointment.OwnerName,
		appointment.UserID,
		appointment.Service,
		appointment.PetName,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) CountActiveAtTx(ctx context.Context, tx *sqlx.Tx, date, slotTime string) (int, error) {
	query := `
		SELECT COUNT(*) FROM appointments
		WHERE slot_date = $1::date AND slot_time = $2::time AND status <> 'Declined'
	`
	var n int
	if err := sqlx.GetContext(ctx, r.q(tx), &n, query, date, slotTime); err != nil {
		return 0, fmt.Errorf("failed to count slot bookings: %w", err)
	}
	return n, nil
}

// CountOnDateTx counts bookings on date. Declined bookings free their slot
// and do not count toward capacity.
func (r *appointmentRepository) CountOnDateTx(ctx context.Context, tx *sqlx.Tx, date string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.q(tx), &n, `SELECT COUNT(*) FROM appointments WHERE slot_date = $1::date AND status <> 'Declined'`, date); err != nil {
		return 0, fmt.Errorf("failed to count date bookings: %w", err)
	}
	return n, nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, wrapGet(err, "appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, reason *string) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1, decline_reason = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'Pending'
	`
	res, err := r.db.ExecContext(ctx, query, status, reason, id)
	if err != nil {
		return false, fmt.Errorf("failed to update appointment status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *appointmentRepository) SetCompletion(ctx context.Context, id uuid.UUID, done bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET is_done = $1, updated_at = NOW() WHERE id = $2`, done, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment completion: %w", err)
	}
	return expectRows(res, "appointment")
}

func (r *appointmentRepository) ListBookedTimes(ctx context.Context, date string) ([]string, error) {
	query := `
		SELECT to_char(slot_time, 'HH24:MI')
		FROM appointments
		WHERE slot_date = $1::date AND status <> 'Declined'
		ORDER BY slot_time ASC
	`
	times := []string{}
	if err := r.db.SelectContext(ctx, &times, query, date); err != nil {
		return nil, fmt.Errorf("failed to list booked times: %w", err)
	}
	return times, nil
}

func (r *appointmentRepository) ListFullyBookedDates(ctx context.Context, threshold int) ([]string, error) {
	query := `
		SELECT to_char(slot_date, 'YYYY-MM-DD')
		FROM appointments
		WHERE status <> 'Declined'
		GROUP BY slot_date
		HAVING COUNT(*) >= $1
		ORDER BY slot_date ASC
	`
	dates := []string{}
	if err := r.db.SelectContext(ctx, &dates, query, threshold); err != nil {
		return nil, fmt.Errorf("failed to list fully booked dates: %w", err)
	}
	return dates, nil
}

func (r *appointmentRepository) list(ctx context.Context, suffix string, args ...interface{}) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ` + suffix

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// ListByUser orders by slot ascending.
func (r *appointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	return r.list(ctx, `WHERE user_id = $1 ORDER BY slot_date ASC, slot_time ASC`, userID)
}

// ListByDate orders by time ascending.
func (r *appointmentRepository) ListByDate(ctx context.Context, date string) ([]*model.Appointment, error) {
	return r.list(ctx, `WHERE slot_date = $1::date ORDER BY slot_time ASC`, date)
}

// ListFrom returns bookings on or after date in slot order.
func (r *appointmentRepository) ListFrom(ctx context.Context, date string) ([]*model.Appointment, error) {
	return r.list(ctx, `WHERE slot_date >= $1::date ORDER BY slot_date ASC, slot_time ASC`, date)
}

// ListRecent returns the newest bookings first.
func (r *appointmentRepository) ListRecent(ctx context.Context, limit int) ([]*model.Appointment, error) {
	return r.list(ctx, `ORDER BY created_at DESC LIMIT $1`, limit)
}
