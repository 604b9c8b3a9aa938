package consultation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	"github.com/riveravet/clinic-api/internal/storage"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
)

const (
	SenderUser  = "user"
	SenderStaff = "staff"
)

var (
	ErrSlotBlocked   = apperrors.Conflict("the clinic is unavailable at the requested date and time")
	ErrProofMissing  = apperrors.BadRequest("a payment proof image or PDF is required", nil)
	ErrNotPending    = apperrors.Conflict("only pending consultations can be approved or declined")
	ErrReasonMissing = apperrors.BadRequest("a reason is required when declining", nil)
	ErrNotAllowed    = apperrors.Forbidden("you are not part of this consultation")
	ErrEmptyMessage  = apperrors.BadRequest("message cannot be empty", nil)
)

type Blocker interface {
	IsBlockedTx(ctx context.Context, tx *sqlx.Tx, date, slotTime string) (bool, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, folder string, f *model.Photo) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, title, kind, details string) error
}

type Service struct {
	repo     repository.ConsultationRepository
	blocker  Blocker
	objects  ObjectStore
	notifier Notifier
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.ConsultationRepository, blocker Blocker, objects ObjectStore, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		blocker:  blocker,
		objects:  objects,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
}

// Submit books an online consultation with its payment proof.
func (s *Service) Submit(ctx context.Context, p model.Principal, req *model.SubmitConsultationRequest, proof *model.Photo) (*model.Consultation, error) {
	if proof == nil || len(proof.Body) == 0 {
		return nil, ErrProofMissing
	}
	if !strings.HasPrefix(proof.ContentType, "image/") && proof.ContentType != "application/pdf" {
		return nil, ErrProofMissing
	}

	blocked, err := s.blocker.IsBlockedTx(ctx, nil, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrSlotBlocked
	}

	obj, err := s.objects.Upload(ctx, storage.FolderProofs, proof)
	if err != nil {
		return nil, apperrors.Unavailable("failed to upload payment proof", err)
	}

	c := &model.Consultation{
		ChannelID:       fmt.Sprintf("consult%d", s.now().UnixMilli()),
		UserID:          p.UserID,
		OwnerName:       strings.TrimSpace(req.OwnerName),
		PetName:         strings.TrimSpace(req.PetName),
		PetType:         req.PetType,
		PetSpecies:      req.PetSpecies,
		Concern:         strings.TrimSpace(req.Concern),
		ConsultType:     req.ConsultType,
		PaymentProofURL: obj.URL,
		PaymentProofKey: obj.Key,
		FileType:        proof.ContentType,
		Date:            req.Date,
		Time:            req.Time,
		Status:          model.AppointmentStatusPending,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if derr := s.objects.Delete(ctx, obj.Key); derr != nil {
			s.logger.Warn("Failed to delete orphaned proof", "key", obj.Key, "error", derr)
		}
		return nil, err
	}

	s.logger.Info("Consultation submitted", "consultation_id", c.ID, "date", c.Date, "time", c.Time)
	return c, nil
}

// List returns every consultation to staff and only their own to owners.
func (s *Service) List(ctx context.Context, p model.Principal) ([]*model.Consultation, error) {
	if p.IsStaff() {
		return s.repo.List(ctx)
	}
	return s.repo.ListByUser(ctx, p.UserID)
}

func (s *Service) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsStaff() && c.UserID != p.UserID {
		return nil, ErrNotAllowed
	}
	return c, nil
}

func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Consultation, error) {
	status := model.AppointmentStatus(req.Status)
	var reason *string
	if status == model.AppointmentStatusDeclined {
		r := strings.TrimSpace(req.Reason)
		if r == "" {
			return nil, ErrReasonMissing
		}
		reason = &r
	}

	ok, err := s.repo.UpdateStatusFromPending(ctx, id, status, reason)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotPending
	}

	details := fmt.Sprintf("Your online consultation for %s on %s at %s has been %s.", c.PetName, c.Date, c.Time, strings.ToLower(req.Status))
	if reason != nil {
		details += " Reason: " + *reason
	}
	if err := s.notifier.NotifyUser(ctx, c.UserID, "Consultation "+req.Status, model.NotificationTypeConsultation, details); err != nil {
		s.logger.Warn("Failed to notify consultation owner", "consultation_id", id, "error", err)
	}
	return c, nil
}

// AuthorizeConsult allows staff and the owning user into a consultation chat.
func (s *Service) AuthorizeConsult(ctx context.Context, p model.Principal, id uuid.UUID) error {
	_, err := s.Get(ctx, p, id)
	return err
}

func (s *Service) SaveMessage(ctx context.Context, p model.Principal, id uuid.UUID, text string) (*model.ConsultMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if err := s.AuthorizeConsult(ctx, p, id); err != nil {
		return nil, err
	}

	sender := SenderUser
	if p.IsStaff() {
		sender = SenderStaff
	}
	m := &model.ConsultMessage{
		ConsultationID: id,
		SenderType:     sender,
		SenderName:     p.Username,
		MessageText:    text,
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListMessages(ctx context.Context, p model.Principal, id uuid.UUID) ([]*model.ConsultMessage, error) {
	if err := s.AuthorizeConsult(ctx, p, id); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, id)
}
