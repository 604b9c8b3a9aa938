package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
)

const defaultActivityLimit = 200

type activityRepository struct {
	BaseRepository
}

func NewActivityRepository(base BaseRepository) repository.ActivityRepository {
	return &activityRepository{base}
}

func (r *activityRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (id, user_id, actor_name, action, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	entry.ID = uuid.New()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if _, err := r.db.ExecContext(ctx, query, entry.ID, entry.UserID, entry.ActorName, entry.Action, entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, filter model.ActivityFilter) ([]*model.ActivityLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > defaultActivityLimit {
		limit = defaultActivityLimit
	}

	query := `SELECT id, user_id, actor_name, action, created_at FROM activity_logs`
	args := []interface{}{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(` WHERE user_id = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	list := []*model.ActivityLog{}
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return list, nil
}
