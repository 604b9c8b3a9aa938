package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/email"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/timezone"
)

var (
	ErrAdminBlocked    = apperrors.Forbidden("date is blocked by an administrator")
	ErrDuplicateDay    = apperrors.Conflict("you already marked this date unavailable")
	ErrRangesExist     = apperrors.Conflict("remove existing time ranges before blocking the whole day")
	ErrOverlap         = apperrors.Conflict("time range overlaps an existing entry")
	ErrDayAlreadyTaken = apperrors.Conflict("you already blocked this whole day")
)

// Notifier fans out a message to one user.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, title, kind, details string) error
	EnqueueEmail(ctx context.Context, tx *sqlx.Tx, to, subject, html string) error
}

// DateLockKey serializes every writer that checks the calendar of one date.
func DateLockKey(date string) string {
	return "date:" + date
}

type Service struct {
	tx         repository.TxManager
	repo       repository.AvailabilityRepository
	users      repository.UserRepository
	notifier   Notifier
	clinicName string
	logger     *logger.Logger
}

func NewService(tx repository.TxManager, repo repository.AvailabilityRepository, users repository.UserRepository, notifier Notifier, clinicName string, log *logger.Logger) *Service {
	return &Service{
		tx:         tx,
		repo:       repo,
		users:      users,
		notifier:   notifier,
		clinicName: clinicName,
		logger:     log,
	}
}

// AddFullDay blocks a whole date for p. It fails when an administrator already
// blocked the date, when p already did, or when time ranges exist on it.
func (s *Service) AddFullDay(ctx context.Context, p model.Principal, req *model.AddFullDayRequest) (*model.UnavailableDate, error) {
	if _, err := timezone.ParseDate(req.Date, timezone.Location("")); err != nil {
		return nil, apperrors.BadRequest(err.Error(), nil)
	}

	entry := &model.UnavailableDate{
		UserID: p.UserID,
		Date:   req.Date,
		Event:  req.Event,
		Role:   p.Role,
		SetBy:  p.Username,
	}

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.tx.AdvisoryLock(ctx, tx, DateLockKey(req.Date)); err != nil {
			return err
		}

		days, err := s.repo.FullDaysOnTx(ctx, tx, req.Date)
		if err != nil {
			return err
		}
		for _, d := range days {
			if d.Role == model.RoleAdmin {
				return ErrAdminBlocked
			}
			if d.UserID == p.UserID {
				return ErrDuplicateDay
			}
		}

		times, err := s.repo.TimesOnTx(ctx, tx, req.Date)
		if err != nil {
			return err
		}
		if len(times) > 0 {
			return ErrRangesExist
		}

		return s.repo.CreateFullDayTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AddTimeRange blocks [from, to) on a date. Ranges on one date stay pairwise disjoint.
func (s *Service) AddTimeRange(ctx context.Context, p model.Principal, req *model.AddTimeRangeRequest) (*model.UnavailableTime, error) {
	if _, err := timezone.ParseDate(req.Date, timezone.Location("")); err != nil {
		return nil, apperrors.BadRequest(err.Error(), nil)
	}
	from, err := timezone.ParseClock(req.TimeFrom)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), nil)
	}
	to, err := timezone.ParseClock(req.TimeTo)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), nil)
	}
	if from >= to {
		return nil, apperrors.BadRequest("time_from must be before time_to", nil)
	}

	entry := &model.UnavailableTime{
		UserID:   p.UserID,
		Date:     req.Date,
		TimeFrom: req.TimeFrom,
		TimeTo:   req.TimeTo,
		Event:    req.Event,
		Role:     p.Role,
		SetBy:    p.Username,
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.tx.AdvisoryLock(ctx, tx, DateLockKey(req.Date)); err != nil {
			return err
		}

		days, err := s.repo.FullDaysOnTx(ctx, tx, req.Date)
		if err != nil {
			return err
		}
		for _, d := range days {
			if d.Role == model.RoleAdmin {
				return ErrAdminBlocked
			}
			if d.UserID == p.UserID {
				return ErrDayAlreadyTaken
			}
		}

		times, err := s.repo.TimesOnTx(ctx, tx, req.Date)
		if err != nil {
			return err
		}
		for _, existing := range times {
			if existing.Overlaps(req.TimeFrom, req.TimeTo) {
				return ErrOverlap
			}
		}

		return s.repo.CreateTimeTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes an entry by id regardless of who created it.
func (s *Service) Remove(ctx context.Context, id uuid.UUID, kind model.UnavailabilityKind) error {
	switch kind {
	case model.UnavailabilityFullDay:
		return s.repo.DeleteFullDay(ctx, id)
	case model.UnavailabilityTimeRange:
		return s.repo.DeleteTime(ctx, id)
	default:
		return apperrors.BadRequest(fmt.Sprintf("unknown unavailability kind %q", kind), nil)
	}
}

func (s *Service) ListAll(ctx context.Context) (*model.Unavailability, error) {
	return s.list(ctx, model.UnavailabilityFilter{})
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) (*model.Unavailability, error) {
	return s.list(ctx, model.UnavailabilityFilter{UserID: &userID})
}

func (s *Service) ListAdminOnly(ctx context.Context) (*model.Unavailability, error) {
	return s.list(ctx, model.UnavailabilityFilter{Role: model.RoleAdmin})
}

func (s *Service) list(ctx context.Context, filter model.UnavailabilityFilter) (*model.Unavailability, error) {
	days, err := s.repo.ListFullDays(ctx, filter)
	if err != nil {
		return nil, err
	}
	times, err := s.repo.ListTimes(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.Unavailability{FullDays: days, Times: times}, nil
}

// IsBlockedTx reports whether a booking at date and slotTime would fall on a
// blocked day or inside a blocked range. An empty slotTime checks full days only.
func (s *Service) IsBlockedTx(ctx context.Context, tx *sqlx.Tx, date, slotTime string) (bool, error) {
	days, err := s.repo.FullDaysOnTx(ctx, tx, date)
	if err != nil {
		return false, err
	}
	if len(days) > 0 {
		return true, nil
	}
	if slotTime == "" {
		return false, nil
	}

	times, err := s.repo.TimesOnTx(ctx, tx, date)
	if err != nil {
		return false, err
	}
	for _, t := range times {
		if t.TimeFrom <= slotTime && slotTime < t.TimeTo {
			return true, nil
		}
	}
	return false, nil
}

// NotifyUsers tells every verified pet owner about a closure. One recipient's
// failure is recorded and the rest still run.
func (s *Service) NotifyUsers(ctx context.Context, p model.Principal, req *model.NotifyUnavailabilityRequest) (*model.NotifyReport, error) {
	recipients, err := s.users.ListVerifiedRecipients(ctx, model.RoleUser)
	if err != nil {
		return nil, err
	}

	window := ""
	if req.TimeFrom != "" && req.TimeTo != "" {
		window = req.TimeFrom + " to " + req.TimeTo
	}
	details := fmt.Sprintf("The clinic is unavailable on %s", req.Date)
	if window != "" {
		details += " from " + window
	}
	details += ". Reason: " + req.Reason

	report := &model.NotifyReport{Failed: []model.NotifyFailure{}}
	for _, r := range recipients {
		if err := s.notifyOne(ctx, p, r, req, window, details); err != nil {
			s.logger.Warn("Unavailability notice failed", "user_id", r.ID.String(), "error", err.Error())
			report.Failed = append(report.Failed, model.NotifyFailure{UserID: r.ID, Error: err.Error()})
			continue
		}
		report.Notified++
	}
	return report, nil
}

func (s *Service) notifyOne(ctx context.Context, p model.Principal, r *model.Recipient, req *model.NotifyUnavailabilityRequest, window, details string) error {
	if err := s.notifier.NotifyUser(ctx, r.ID, "Clinic Unavailable", model.NotificationTypeUnavailability, details); err != nil {
		return err
	}

	html, err := email.Render("unavailability", email.Content{
		Name:   r.FirstName,
		Clinic: s.clinicName,
		Date:   req.Date,
		Window: window,
		Reason: req.Reason,
		Actor:  p.Username,
	})
	if err != nil {
		return err
	}
	return s.notifier.EnqueueEmail(ctx, nil, r.Email, "Clinic Unavailability Notice", html)
}
