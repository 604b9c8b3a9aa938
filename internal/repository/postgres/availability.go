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

const (
	fullDayColumns = `id, user_id, to_char(date, 'YYYY-MM-DD') AS date, event, role_set, set_by, created_at`
	timeColumns    = `id, user_id, to_char(date, 'YYYY-MM-DD') AS date,
		to_char(time_from, 'HH24:MI') AS time_from, to_char(time_to, 'HH24:MI') AS time_to,
		event, role_set, set_by, created_at`
)

type availabilityRepository struct {
	BaseRepository
}

func NewAvailabilityRepository(base BaseRepository) repository.AvailabilityRepository {
	return &availabilityRepository{base}
}

func (r *availabilityRepository) FullDaysOnTx(ctx context.Context, tx *sqlx.Tx, date string) ([]*model.UnavailableDate, error) {
	query := `SELECT ` + fullDayColumns + ` FROM unavailable_dates WHERE date = $1::date ORDER BY created_at ASC`

	entries := []*model.UnavailableDate{}
	if err := sqlx.SelectContext(ctx, r.q(tx), &entries, query, date); err != nil {
		return nil, fmt.Errorf("failed to list full-day entries: %w", err)
	}
	return entries, nil
}

func (r *availabilityRepository) TimesOnTx(ctx context.Context, tx *sqlx.Tx, date string) ([]*model.UnavailableTime, error) {
	query := `SELECT ` + timeColumns + ` FROM unavailable_times WHERE date = $1::date ORDER BY time_from ASC`

	entries := []*model.UnavailableTime{}
	if err := sqlx.SelectContext(ctx, r.q(tx), &entries, query, date); err != nil {
		return nil, fmt.Errorf("failed to list time-range entries: %w", err)
	}
	return entries, nil
}

func (r *availabilityRepository) CreateFullDayTx(ctx context.Context, tx *sqlx.Tx, entry *model.UnavailableDate) error {
	query := `
		INSERT INTO unavailable_dates (id, user_id, date, event, role_set, set_by, created_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7)
	`
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()

	_, err := r.q(tx).ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Date, entry.Event, entry.Role, entry.SetBy, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create full-day entry: %w", err)
	}
	return nil
}

func (r *availabilityRepository) CreateTimeTx(ctx context.Context, tx *sqlx.Tx, entry *model.UnavailableTime) error {
	query := `
		INSERT INTO unavailable_times (id, user_id, date, time_from, time_to, event, role_set, set_by, created_at)
		VALUES ($1, $2, $3::date, $4::time, $5::time, $6, $7, $8, $9)
	`
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()

	_, err := r.q(tx).ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Date, entry.TimeFrom, entry.TimeTo,
		entry.Event, entry.Role, entry.SetBy, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create time-range entry: %w", err)
	}
	return nil
}

func (r *availabilityRepository) DeleteFullDay(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM unavailable_dates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete full-day entry: %w", err)
	}
	return expectRows(res, "full-day entry")
}

func (r *availabilityRepository) DeleteTime(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM unavailable_times WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time-range entry: %w", err)
	}
	return expectRows(res, "time-range entry")
}

func filterClause(filter model.UnavailabilityFilter) (string, []interface{}) {
	where := ` WHERE 1=1`
	var args []interface{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		where += fmt.Sprintf(" AND role_set = $%d", len(args))
	}
	return where, args
}

func (r *availabilityRepository) ListFullDays(ctx context.Context, filter model.UnavailabilityFilter) ([]*model.UnavailableDate, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + fullDayColumns + ` FROM unavailable_dates` + where + ` ORDER BY date ASC`

	entries := []*model.UnavailableDate{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list full-day entries: %w", err)
	}
	return entries, nil
}

func (r *availabilityRepository) ListTimes(ctx context.Context, filter model.UnavailabilityFilter) ([]*model.UnavailableTime, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + timeColumns + ` FROM unavailable_times` + where + ` ORDER BY date ASC, time_from ASC`

	entries := []*model.UnavailableTime{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list time-range entries: %w", err)
	}
	return entries, nil
}
