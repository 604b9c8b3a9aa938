// Package activity keeps the staff audit trail.
package activity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
)

type Service struct {
	repo   repository.ActivityRepository
	logger *logger.Logger
}

func NewService(repo repository.ActivityRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// Log writes an entry attributed to actor.
func (s *Service) Log(ctx context.Context, actor model.Principal, action string) (*model.ActivityLog, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, apperrors.BadRequest("action is required", nil)
	}
	id := actor.UserID
	entry := &model.ActivityLog{
		UserID:    &id,
		ActorName: actor.Username,
		Action:    action,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Record is Log for callers that must not fail on an audit write.
func (s *Service) Record(ctx context.Context, actor model.Principal, action string) {
	if _, err := s.Log(ctx, actor, action); err != nil {
		s.logger.Error(err, "Failed to record activity", "user_id", actor.UserID, "action", action)
	}
}

func (s *Service) List(ctx context.Context, userID *uuid.UUID, limit int) ([]*model.ActivityLog, error) {
	return s.repo.List(ctx, model.ActivityFilter{UserID: userID, Limit: limit})
}
