package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/patrickmn/go-cache"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	"github.com/riveravet/clinic-api/internal/service/availability"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/metrics"
	"github.com/riveravet/clinic-api/pkg/timezone"
)

const (
	fullyBookedKey = "fully-booked"
	recentLimit    = 20
)

var (
	ErrSlotBlocked   = apperrors.Conflict("the clinic is unavailable at the requested date and time")
	ErrSlotTaken     = apperrors.Conflict("the requested time slot is already booked")
	ErrDateFull      = apperrors.Conflict("the requested date is fully booked")
	ErrNotPending    = apperrors.Conflict("only pending appointments can be approved or declined")
	ErrReasonMissing = apperrors.BadRequest("a reason is required when declining", nil)
)

// Blocker answers whether the unavailability register blocks a slot.
type Blocker interface {
	IsBlockedTx(ctx context.Context, tx *sqlx.Tx, date, slotTime string) (bool, error)
}

// Notifier informs a requester about their booking.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, title, kind, details string) error
}

type Config struct {
	// FullyBookedThreshold is the booking count at which a date is reported full.
	FullyBookedThreshold int
	// RejectDoubleBooking refuses a second non-declined booking of one date and time.
	RejectDoubleBooking bool
	// EnforceDailyLimit refuses bookings on dates that reached the threshold.
	EnforceDailyLimit bool
	CacheTTL          time.Duration
	Location          *time.Location
}

type Service struct {
	tx       repository.TxManager
	repo     repository.AppointmentRepository
	blocker  Blocker
	notifier Notifier
	config   Config
	cache    *cache.Cache
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(
	tx repository.TxManager,
	repo repository.AppointmentRepository,
	blocker Blocker,
	notifier Notifier,
	config Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 30 * time.Second
	}
	if config.Location == nil {
		config.Location = timezone.Location("")
	}
	return &Service{
		tx:       tx,
		repo:     repo,
		blocker:  blocker,
		notifier: notifier,
		config:   config,
		cache:    cache.New(config.CacheTTL, 2*config.CacheTTL),
		logger:   log,
		metrics:  m,
	}
}

// Book records a Pending appointment for p. Writers of one date are
// serialized by the same lock the unavailability register takes.
func (s *Service) Book(ctx context.Context, p model.Principal, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := validateSlot(req.Date, req.Time, s.config.Location); err != nil {
		s.reject("invalid")
		return nil, err
	}

	appointment := &model.Appointment{
		Date:      req.Date,
		Time:      req.Time,
		OwnerName: req.OwnerName,
		UserID:    p.UserID,
		Service:   req.Service,
		PetName:   req.PetName,
		Status:    model.AppointmentStatusPending,
	}

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.tx.AdvisoryLock(ctx, tx, availability.DateLockKey(req.Date)); err != nil {
			return err
		}

		blocked, err := s.blocker.IsBlockedTx(ctx, tx, req.Date, req.Time)
		if err != nil {
			return err
		}
		if blocked {
			s.reject("blocked")
			return ErrSlotBlocked
		}

		if s.config.RejectDoubleBooking {
			n, err := s.repo.CountActiveAtTx(ctx, tx, req.Date, req.Time)
			if err != nil {
				return err
			}
			if n > 0 {
				s.reject("double_booking")
				return ErrSlotTaken
			}
		}

		if s.config.EnforceDailyLimit {
			n, err := s.repo.CountOnDateTx(ctx, tx, req.Date)
			if err != nil {
				return err
			}
			if n >= s.config.FullyBookedThreshold {
				s.reject("fully_booked")
				return ErrDateFull
			}
		}

		return s.repo.CreateTx(ctx, tx, appointment)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(fullyBookedKey)
	s.metrics.BookingsCreated.Inc()
	return appointment, nil
}

func (s *Service) ListBookedTimes(ctx context.Context, date string) ([]string, error) {
	if err := validateDate(date, s.config.Location); err != nil {
		return nil, err
	}
	return s.repo.ListBookedTimes(ctx, date)
}

// ListFullyBookedDates returns dates whose booking count reached the threshold.
// Results are cached briefly and dropped on every write.
func (s *Service) ListFullyBookedDates(ctx context.Context) ([]string, error) {
	if cached, ok := s.cache.Get(fullyBookedKey); ok {
		return cached.([]string), nil
	}

	dates, err := s.repo.ListFullyBookedDates(ctx, s.config.FullyBookedThreshold)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(fullyBookedKey, dates)
	return dates, nil
}

// SetStatus moves a Pending appointment to Approved or Declined.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error) {
	status := model.AppointmentStatus(req.Status)
	var reason *string

	switch status {
	case model.AppointmentStatusApproved:
	case model.AppointmentStatusDeclined:
		if req.Reason == "" {
			return nil, ErrReasonMissing
		}
		reason = &req.Reason
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("unsupported status %q", req.Status), nil)
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatusFromPending(ctx, id, status, reason)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrNotPending
	}
	s.cache.Delete(fullyBookedKey)

	appointment.Status = status
	appointment.DeclineReason = reason
	s.notifyStatus(ctx, appointment)
	return appointment, nil
}

func (s *Service) SetCompletion(ctx context.Context, id uuid.UUID, done bool) error {
	return s.repo.SetCompletion(ctx, id, done)
}

// ListByRequester orders by date then time ascending.
func (s *Service) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListByDate orders by time ascending.
func (s *Service) ListByDate(ctx context.Context, date string) ([]*model.Appointment, error) {
	if err := validateDate(date, s.config.Location); err != nil {
		return nil, err
	}
	return s.repo.ListByDate(ctx, date)
}

// ListFutureFrom returns bookings on or after date, earliest first.
func (s *Service) ListFutureFrom(ctx context.Context, date string) ([]*model.Appointment, error) {
	if err := validateDate(date, s.config.Location); err != nil {
		return nil, err
	}
	return s.repo.ListFrom(ctx, date)
}

// ListRecent returns the newest bookings first.
func (s *Service) ListRecent(ctx context.Context) ([]*model.Appointment, error) {
	return s.repo.ListRecent(ctx, recentLimit)
}

func (s *Service) notifyStatus(ctx context.Context, a *model.Appointment) {
	details := fmt.Sprintf("Your appointment on %s at %s has been %s.", a.Date, a.Time, a.Status)
	if a.DeclineReason != nil {
		details += " Reason: " + *a.DeclineReason
	}
	title := "Appointment " + string(a.Status)
	if err := s.notifier.NotifyUser(ctx, a.UserID, title, model.NotificationTypeAppointment, details); err != nil {
		s.logger.Warn("Failed to notify requester", "appointment_id", a.ID.String(), "error", err.Error())
	}
}

func (s *Service) reject(reason string) {
	s.metrics.BookingsRejected.WithLabelValues(reason).Inc()
}

func validateDate(date string, loc *time.Location) error {
	if _, err := timezone.ParseDate(date, loc); err != nil {
		return apperrors.BadRequest(err.Error(), nil)
	}
	return nil
}

func validateSlot(date, slotTime string, loc *time.Location) error {
	if err := validateDate(date, loc); err != nil {
		return err
	}
	if _, err := timezone.ParseClock(slotTime); err != nil {
		return apperrors.BadRequest(err.Error(), nil)
	}
	return nil
}
