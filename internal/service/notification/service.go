package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/realtime"
	"github.com/riveravet/clinic-api/internal/repository"
	"github.com/riveravet/clinic-api/pkg/logger"
)

// Service persists notifications and pushes them to connected clients.
// Pushes are best effort; the stored row is authoritative.
type Service struct {
	repo      repository.NotificationRepository
	outbox    repository.OutboxRepository
	publisher realtime.Publisher
	logger    *logger.Logger
}

func NewService(repo repository.NotificationRepository, outbox repository.OutboxRepository, publisher realtime.Publisher, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		outbox:    outbox,
		publisher: publisher,
		logger:    log,
	}
}

func (s *Service) NotifyUser(ctx context.Context, userID uuid.UUID, title, kind, details string) error {
	n := &model.UserNotification{
		UserID:  userID,
		Title:   title,
		Type:    kind,
		Details: details,
	}
	if err := s.repo.CreateUserTx(ctx, nil, n); err != nil {
		return err
	}
	s.push(ctx, realtime.UserRoom(userID), n)
	return nil
}

// NotifyAdminsTx stores a staff notification inside tx. The caller pushes it after commit.
func (s *Service) NotifyAdminsTx(ctx context.Context, tx *sqlx.Tx, title, kind, details string, productID *uuid.UUID) (*model.AdminNotification, error) {
	n := &model.AdminNotification{
		Title:     title,
		Type:      kind,
		Details:   details,
		ProductID: productID,
	}
	if err := s.repo.CreateAdminTx(ctx, tx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) NotifyAdmins(ctx context.Context, title, kind, details string, productID *uuid.UUID) (*model.AdminNotification, error) {
	n, err := s.NotifyAdminsTx(ctx, nil, title, kind, details, productID)
	if err != nil {
		return nil, err
	}
	s.PushAdmins(ctx, n)
	return n, nil
}

func (s *Service) PushAdmins(ctx context.Context, n *model.AdminNotification) {
	s.push(ctx, realtime.RoomAdmins, n)
}

// EnqueueEmail records an email for the outbox worker.
func (s *Service) EnqueueEmail(ctx context.Context, tx *sqlx.Tx, to, subject, html string) error {
	payload, err := json.Marshal(model.EmailPayload{To: to, Subject: subject, HTML: html})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}
	return s.outbox.Create(ctx, tx, &model.OutboxEvent{
		EventType: model.EventEmailSend,
		Payload:   payload,
	})
}

func (s *Service) ListUser(ctx context.Context, userID uuid.UUID) ([]*model.UserNotification, error) {
	return s.repo.ListUser(ctx, userID)
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteUser(ctx, id)
}

func (s *Service) ListAdmin(ctx context.Context, userID uuid.UUID) ([]*model.AdminNotification, error) {
	return s.repo.ListAdmin(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, notificationID, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, notificationID, userID uuid.UUID) error {
	return s.repo.Clear(ctx, notificationID, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *Service) push(ctx context.Context, room string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, room, realtime.EventNewNotification, payload); err != nil {
		s.logger.Warn("Realtime push failed", "room", room, "error", err.Error())
	}
}
