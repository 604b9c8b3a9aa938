// Package content serves the landing page announcements and feature highlights.
package content

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/timezone"
)

var ErrExpiresBeforePosted = apperrors.BadRequest("expiration_date must not be before date_posted", nil)

// Auditor records staff actions.
type Auditor interface {
	Record(ctx context.Context, actor model.Principal, action string)
}

type Service struct {
	repo     repository.ContentRepository
	audit    Auditor
	location *time.Location
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.ContentRepository, audit Auditor, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = timezone.Location("")
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		location: loc,
		logger:   log,
		now:      time.Now,
	}
}

// ActiveAnnouncements lists what the public sees today.
func (s *Service) ActiveAnnouncements(ctx context.Context) ([]*model.Announcement, error) {
	return s.repo.ListAnnouncements(ctx, s.today())
}

func (s *Service) AllAnnouncements(ctx context.Context) ([]*model.Announcement, error) {
	return s.repo.ListAnnouncements(ctx, "")
}

func (s *Service) CreateAnnouncement(ctx context.Context, actor model.Principal, in *model.AnnouncementInput) (*model.Announcement, error) {
	a := &model.Announcement{}
	if err := s.applyAnnouncement(a, in); err != nil {
		return nil, err
	}
	if err := s.repo.CreateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, "Posted announcement "+a.Title)
	return a, nil
}

func (s *Service) UpdateAnnouncement(ctx context.Context, actor model.Principal, id uuid.UUID, in *model.AnnouncementInput) (*model.Announcement, error) {
	a, err := s.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.DatePosted == "" {
		in.DatePosted = a.DatePosted
	}
	if err := s.applyAnnouncement(a, in); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, "Updated announcement "+a.Title)
	return a, nil
}

func (s *Service) DeleteAnnouncement(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if err := s.repo.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, "Deleted announcement "+id.String())
	return nil
}

func (s *Service) ListFeatures(ctx context.Context) ([]*model.Feature, error) {
	return s.repo.ListFeatures(ctx)
}

func (s *Service) CreateFeature(ctx context.Context, actor model.Principal, in *model.FeatureInput) (*model.Feature, error) {
	f := &model.Feature{}
	applyFeature(f, in)
	if err := s.repo.CreateFeature(ctx, f); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, "Added feature "+f.Title)
	return f, nil
}

func (s *Service) UpdateFeature(ctx context.Context, actor model.Principal, id uuid.UUID, in *model.FeatureInput) (*model.Feature, error) {
	f := &model.Feature{ID: id}
	applyFeature(f, in)
	if err := s.repo.UpdateFeature(ctx, f); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, "Updated feature "+f.Title)
	return f, nil
}

func (s *Service) DeleteFeature(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if err := s.repo.DeleteFeature(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, "Deleted feature "+id.String())
	return nil
}

// applyAnnouncement defaults date_posted to today and keeps expiry on or after it.
func (s *Service) applyAnnouncement(a *model.Announcement, in *model.AnnouncementInput) error {
	posted := strings.TrimSpace(in.DatePosted)
	if posted == "" {
		posted = s.today()
	}
	a.ExpirationDate = nil
	if exp := strings.TrimSpace(in.ExpirationDate); exp != "" {
		// Both are YYYY-MM-DD, so string order is date order.
		if exp < posted {
			return ErrExpiresBeforePosted
		}
		a.ExpirationDate = &exp
	}
	a.Title = strings.TrimSpace(in.Title)
	a.Content = strings.TrimSpace(in.Content)
	a.ButtonText = strings.TrimSpace(in.ButtonText)
	a.ButtonLink = strings.TrimSpace(in.ButtonLink)
	a.DatePosted = posted
	return nil
}

func (s *Service) today() string {
	return timezone.FormatDate(s.now(), s.location)
}

func applyFeature(f *model.Feature, in *model.FeatureInput) {
	f.Icon = strings.TrimSpace(in.Icon)
	f.Title = strings.TrimSpace(in.Title)
	f.Description = strings.TrimSpace(in.Description)
}
