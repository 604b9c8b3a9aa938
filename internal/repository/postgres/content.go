package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
)

const (
	announcementColumns = `
		id, title, content, button_text, button_link,
		to_char(date_posted, 'YYYY-MM-DD') AS date_posted,
		to_char(expiration_date, 'YYYY-MM-DD') AS expiration_date, created_at`
	featureColumns = `id, icon, title, description, created_at`
)

type contentRepository struct {
	BaseRepository
}

func NewContentRepository(base BaseRepository) repository.ContentRepository {
	return &contentRepository{base}
}

func (r *contentRepository) CreateAnnouncement(ctx context.Context, a *model.Announcement) error {
	query := `
		INSERT INTO announcements (
			id, title, content, button_text, button_link, date_posted, expiration_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, $8)
	`
	a.ID = uuid.New()
	a.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Content, a.ButtonText, a.ButtonLink, a.DatePosted, a.ExpirationDate, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

func (r *contentRepository) GetAnnouncement(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`

	var a model.Announcement
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, wrapGet(err, "announcement")
	}
	return &a, nil
}

func (r *contentRepository) UpdateAnnouncement(ctx context.Context, a *model.Announcement) error {
	query := `
		UPDATE announcements
		SET title = $1, content = $2, button_text = $3, button_link = $4,
			date_posted = $5::date, expiration_date = $6::date, updated_at = NOW()
		WHERE id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		a.Title, a.Content, a.ButtonText, a.ButtonLink, a.DatePosted, a.ExpirationDate, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	return expectRows(res, "announcement")
}

func (r *contentRepository) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	return expectRows(res, "announcement")
}

func (r *contentRepository) ListAnnouncements(ctx context.Context, activeOn string) ([]*model.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements`
	var args []interface{}
	if activeOn != "" {
		query += ` WHERE date_posted <= $1::date AND (expiration_date IS NULL OR expiration_date >= $1::date)`
		args = append(args, activeOn)
	}
	query += ` ORDER BY date_posted DESC, created_at DESC`

	list := []*model.Announcement{}
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return list, nil
}

func (r *contentRepository) CreateFeature(ctx context.Context, f *model.Feature) error {
	query := `
		INSERT INTO features (id, icon, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	f.ID = uuid.New()
	f.CreatedAt = time.Now()

	if _, err := r.db.ExecContext(ctx, query, f.ID, f.Icon, f.Title, f.Description, f.CreatedAt); err != nil {
		return fmt.Errorf("failed to create feature: %w", err)
	}
	return nil
}

func (r *contentRepository) UpdateFeature(ctx context.Context, f *model.Feature) error {
	query := `
		UPDATE features
		SET icon = $1, title = $2, description = $3, updated_at = NOW()
		WHERE id = $4
	`
	res, err := r.db.ExecContext(ctx, query, f.Icon, f.Title, f.Description, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update feature: %w", err)
	}
	return expectRows(res, "feature")
}

func (r *contentRepository) DeleteFeature(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM features WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feature: %w", err)
	}
	return expectRows(res, "feature")
}

func (r *contentRepository) ListFeatures(ctx context.Context) ([]*model.Feature, error) {
	query := `SELECT ` + featureColumns + ` FROM features ORDER BY created_at ASC`

	list := []*model.Feature{}
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	return list, nil
}
