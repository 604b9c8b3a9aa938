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

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) CreateUserTx(ctx context.Context, tx *sqlx.Tx, n *model.UserNotification) error {
	query := `
		INSERT INTO user_notifications (id, user_id, title, type, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	n.ID = uuid.New()
	n.CreatedAt = time.Now()

	if _, err := r.q(tx).ExecContext(ctx, query, n.ID, n.UserID, n.Title, n.Type, n.Details, n.CreatedAt); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListUser(ctx context.Context, userID uuid.UUID) ([]*model.UserNotification, error) {
	query := `
		SELECT id, user_id, title, type, details, created_at
		FROM user_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	notifications := []*model.UserNotification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return expectRows(res, "notification")
}

func (r *notificationRepository) CreateAdminTx(ctx context.Context, tx *sqlx.Tx, n *model.AdminNotification) error {
	query := `
		INSERT INTO admin_notifications (id, title, type, details, product_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	n.ID = uuid.New()
	n.CreatedAt = time.Now()

	if _, err := r.q(tx).ExecContext(ctx, query, n.ID, n.Title, n.Type, n.Details, n.ProductID, n.CreatedAt); err != nil {
		return fmt.Errorf("failed to create admin notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) AdminAlertExistsSince(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, kind string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM admin_notifications
			WHERE product_id = $1 AND type = $2 AND created_at >= $3
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, r.q(tx), &exists, query, productID, kind, since); err != nil {
		return false, fmt.Errorf("failed to check existing alert: %w", err)
	}
	return exists, nil
}

func (r *notificationRepository) ListAdmin(ctx context.Context, userID uuid.UUID) ([]*model.AdminNotification, error) {
	query := `
		SELECT n.id, n.title, n.type, n.details, n.product_id, n.created_at,
			(rd.user_id IS NOT NULL) AS is_read
		FROM admin_notifications n
		LEFT JOIN admin_notification_reads rd ON rd.notification_id = n.id AND rd.user_id = $1
		WHERE NOT EXISTS (
			SELECT 1 FROM admin_notification_clears c
			WHERE c.notification_id = n.id AND c.user_id = $1
		)
		ORDER BY n.created_at DESC
	`
	notifications := []*model.AdminNotification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list admin notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	query := `
		INSERT INTO admin_notification_reads (notification_id, user_id, read_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (notification_id, user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, notificationID, userID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO admin_notification_reads (notification_id, user_id, read_at)
		SELECT id, $1, NOW() FROM admin_notifications
		ON CONFLICT (notification_id, user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (r *notificationRepository) Clear(ctx context.Context, notificationID, userID uuid.UUID) error {
	query := `
		INSERT INTO admin_notification_clears (notification_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (notification_id, user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, notificationID, userID); err != nil {
		return fmt.Errorf("failed to clear notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM admin_notifications n
		WHERE NOT EXISTS (SELECT 1 FROM admin_notification_reads rd WHERE rd.notification_id = n.id AND rd.user_id = $1)
		AND NOT EXISTS (SELECT 1 FROM admin_notification_clears c WHERE c.notification_id = n.id AND c.user_id = $1)
	`
	var n int
	if err := r.db.GetContext(ctx, &n, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}
