package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/metrics"
	"github.com/riveravet/clinic-api/pkg/timezone"
)

const (
	lowStockLockKey = "inventory:low-stock"
	lowStockTitle   = "Inventory Alert"
)

// AlertPusher delivers committed staff notifications to connected clients.
type AlertPusher interface {
	PushAdmins(ctx context.Context, n *model.AdminNotification)
}

type Config struct {
	// LowStockThreshold is the stock level at or below which an item raises an alert.
	LowStockThreshold int
	Location          *time.Location
}

// Service owns every change to inventory stock. Each applied change writes
// exactly one movement row in the same transaction.
type Service struct {
	tx            repository.TxManager
	repo          repository.StockRepository
	notifications repository.NotificationRepository
	pusher        AlertPusher
	config        Config
	logger        *logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewService(
	tx repository.TxManager,
	repo repository.StockRepository,
	notifications repository.NotificationRepository,
	pusher AlertPusher,
	config Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if config.Location == nil {
		config.Location = timezone.Location("")
	}
	return &Service{
		tx:            tx,
		repo:          repo,
		notifications: notifications,
		pusher:        pusher,
		config:        config,
		logger:        log,
		metrics:       m,
		now:           time.Now,
	}
}

func (s *Service) Threshold() int {
	return s.config.LowStockThreshold
}

// Adjust applies delta in its own transaction, clamping stock at zero.
func (s *Service) Adjust(ctx context.Context, productID uuid.UUID, delta int, reason string) (*model.AdjustResult, error) {
	var result *model.AdjustResult
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		result, err = s.AdjustTx(ctx, tx, productID, delta, reason, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AdjustTx sets stock to max(old+delta, 0) and records the applied change.
// A zero applied change writes nothing.
func (s *Service) AdjustTx(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, delta int, reason string, ref *string) (*model.AdjustResult, error) {
	item, err := s.repo.GetForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	newStock := item.Stock + delta
	if newStock < 0 {
		newStock = 0
	}
	return s.apply(ctx, tx, item, newStock, reason, ref)
}

// ReserveTx takes qty out of stock or fails with a conflict; it never clamps.
func (s *Service) ReserveTx(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, qty int, ref *string) (*model.AdjustResult, error) {
	if qty <= 0 {
		return nil, apperrors.BadRequest("quantity must be positive", nil)
	}
	item, err := s.repo.GetForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	if item.Stock < qty {
		return nil, apperrors.Conflict(fmt.Sprintf("insufficient stock for %s: %d available", item.Name, item.Stock))
	}
	return s.apply(ctx, tx, item, item.Stock-qty, model.MovementOrder, ref)
}

// ReleaseTx returns qty to stock.
func (s *Service) ReleaseTx(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, qty int, ref *string) (*model.AdjustResult, error) {
	if qty <= 0 {
		return nil, apperrors.BadRequest("quantity must be positive", nil)
	}
	item, err := s.repo.GetForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, item, item.Stock+qty, model.MovementCancel, ref)
}

// SetTx moves stock to target and records the difference.
func (s *Service) SetTx(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, target int, reason string) (*model.AdjustResult, error) {
	if target < 0 {
		return nil, apperrors.BadRequest("stock cannot be negative", nil)
	}
	item, err := s.repo.GetForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, item, target, reason, nil)
}

func (s *Service) apply(ctx context.Context, tx *sqlx.Tx, item *model.InventoryItem, newStock int, reason string, ref *string) (*model.AdjustResult, error) {
	result := &model.AdjustResult{
		ProductID: item.ID,
		Name:      item.Name,
		OldStock:  item.Stock,
		NewStock:  newStock,
		Applied:   newStock - item.Stock,
	}
	if result.Applied == 0 {
		return result, nil
	}

	if err := s.repo.SetStock(ctx, tx, item.ID, newStock); err != nil {
		return nil, err
	}

	movement := &model.StockMovement{ProductID: item.ID, Reason: reason, Reference: ref}
	direction := "in"
	if result.Applied > 0 {
		movement.StockIn = result.Applied
	} else {
		movement.StockOut = -result.Applied
		direction = "out"
	}
	if err := s.repo.InsertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	s.metrics.StockMovements.WithLabelValues(direction).Inc()
	return result, nil
}

func (s *Service) ListMovements(ctx context.Context, productID uuid.UUID) ([]*model.StockMovement, error) {
	return s.repo.ListMovements(ctx, productID)
}

// CheckLowStock raises one alert per low item per local calendar day.
// The sweep holds a global lock so concurrent runs cannot both insert.
func (s *Service) CheckLowStock(ctx context.Context) ([]*model.AdminNotification, error) {
	since := startOfDay(s.now(), s.config.Location)

	var raised []*model.AdminNotification
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.tx.AdvisoryLock(ctx, tx, lowStockLockKey); err != nil {
			return err
		}

		items, err := s.repo.ListLowStock(ctx, tx, s.config.LowStockThreshold)
		if err != nil {
			return err
		}

		for _, item := range items {
			exists, err := s.notifications.AdminAlertExistsSince(ctx, tx, item.ID, model.NotificationTypeLowStock, since)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			productID := item.ID
			n := &model.AdminNotification{
				Title:     lowStockTitle,
				Type:      model.NotificationTypeLowStock,
				Details:   LowStockDetails(item.Name, item.Stock),
				ProductID: &productID,
			}
			if err := s.notifications.CreateAdminTx(ctx, tx, n); err != nil {
				return err
			}
			raised = append(raised, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, n := range raised {
		s.metrics.LowStockAlerts.Inc()
		if s.pusher != nil {
			s.pusher.PushAdmins(ctx, n)
		}
	}
	if len(raised) > 0 {
		s.logger.Info("Low stock alerts raised", "count", len(raised))
	}
	return raised, nil
}

func LowStockDetails(name string, stock int) string {
	return fmt.Sprintf(`The item "%s" is low on stock (only %d left). Please restock soon.`, name, stock)
}

// Warning describes a nearly depleted item after an order, or nil when stock is comfortable.
func Warning(r *model.AdjustResult) *model.LowStockWarning {
	var msg string
	switch {
	case r.NewStock <= 0:
		msg = fmt.Sprintf("%s is now out of stock", r.Name)
	case r.NewStock == 1:
		msg = fmt.Sprintf("%s is almost out of stock (1 left)", r.Name)
	default:
		return nil
	}
	return &model.LowStockWarning{
		ProductID: r.ProductID,
		Name:      r.Name,
		Remaining: r.NewStock,
		Message:   msg,
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
