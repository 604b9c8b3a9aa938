package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/timezone"
)

// Service builds reports from independent aggregate queries.
type Service struct {
	repo              repository.ReportRepository
	lowStockThreshold int
	location          *time.Location
	logger            *logger.Logger
}

func NewService(repo repository.ReportRepository, lowStockThreshold int, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = timezone.Location("")
	}
	return &Service{
		repo:              repo,
		lowStockThreshold: lowStockThreshold,
		location:          loc,
		logger:            log,
	}
}

// MonthRange returns the half open [from, to) date range of a calendar month.
func MonthRange(month, year int) (string, string, error) {
	if month < 1 || month > 12 {
		return "", "", apperrors.BadRequest("month must be between 1 and 12", nil)
	}
	if year < 2000 || year > 9999 {
		return "", "", apperrors.BadRequest("invalid year", nil)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start.Format(timezone.DateLayout), start.AddDate(0, 1, 0).Format(timezone.DateLayout), nil
}

// Monthly runs every aggregate concurrently; the first failure cancels the rest.
func (s *Service) Monthly(ctx context.Context, month, year int) (*model.MonthlyReport, error) {
	from, to, err := MonthRange(month, year)
	if err != nil {
		return nil, err
	}

	r := &model.MonthlyReport{Month: month, Year: year}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		r.Orders, err = s.repo.OrdersSummary(ctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		r.OrderDetails, err = s.repo.OrderDetails(ctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		r.ProductsSold, err = s.repo.ProductsSold(ctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		r.Inventory, err = s.repo.InventorySummary(ctx, s.lowStockThreshold)
		return err
	})
	g.Go(func() (err error) {
		r.StockFlow, err = s.repo.StockFlow(ctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		r.Appointments, err = s.repo.AppointmentsSummary(ctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		r.Visits, err = s.repo.VisitCount(ctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		r.NewPets, err = s.repo.NewPetCount(ctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		r.ServiceUsage, err = s.repo.ServiceUsage(ctx, from, to)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build monthly report: %w", err)
	}
	s.logger.Debug("Monthly report built", "month", month, "year", year)
	return r, nil
}

func (s *Service) UserDashboard(ctx context.Context, userID uuid.UUID) (*model.UserDashboard, error) {
	return s.repo.UserDashboard(ctx, userID)
}

func (s *Service) AdminDashboard(ctx context.Context, userID uuid.UUID) (*model.AdminDashboard, error) {
	return s.repo.AdminDashboard(ctx, userID, timezone.Today(s.location), s.lowStockThreshold)
}
