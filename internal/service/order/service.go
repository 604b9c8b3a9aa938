package order

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/config"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/payment/paymongo"
	"github.com/riveravet/clinic-api/internal/repository"
	"github.com/riveravet/clinic-api/internal/service/stock"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/metrics"
	"github.com/riveravet/clinic-api/pkg/timezone"
)

const refundReason = "requested_by_customer"

var (
	ErrNotOwner          = apperrors.Forbidden("order does not belong to the requester")
	ErrNotCancellable    = apperrors.Conflict("only pending orders can be cancelled")
	ErrPaidOrder         = apperrors.Conflict("paid orders cannot be cancelled directly; request a cancellation instead")
	ErrPaymentIncomplete = apperrors.Conflict("payment has not succeeded")
	ErrAmountMismatch    = apperrors.Conflict("amount paid does not match the order total")
	ErrOrderClosed       = apperrors.Conflict("order was closed before the payment completed; the payment has been refunded")
	ErrDraftMissing      = apperrors.BadRequest("order details are required to record a paid order", nil)
)

// PaymentGateway is the e-wallet provider.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, descriptor string) (*paymongo.Intent, error)
	CreateMethod(ctx context.Context, kind string, billing paymongo.Billing) (string, error)
	AttachMethod(ctx context.Context, intentID, methodID, returnURL string) (*paymongo.Intent, error)
	GetIntent(ctx context.Context, intentID string) (*paymongo.Intent, error)
	Refund(ctx context.Context, paymentID string, amount int64, reason string) (*paymongo.Refund, error)
}

// Ledger is the part of the stock ledger orders move stock through.
type Ledger interface {
	ReserveTx(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, qty int, ref *string) (*model.AdjustResult, error)
	ReleaseTx(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, qty int, ref *string) (*model.AdjustResult, error)
	CheckLowStock(ctx context.Context) ([]*model.AdminNotification, error)
}

type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, title, kind, details string) error
}

type Config struct {
	// RecordingPolicy is config.RecordBeforePay or config.PayBeforeRecord.
	RecordingPolicy string
	// ReturnURL is where the e-wallet checkout sends the customer back.
	ReturnURL string
	Location  *time.Location
}

type Service struct {
	tx        repository.TxManager
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	ledger    Ledger
	payments  PaymentGateway
	notifier  Notifier
	config    Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(
	tx repository.TxManager,
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	ledger Ledger,
	payments PaymentGateway,
	notifier Notifier,
	cfg Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if cfg.RecordingPolicy == "" {
		cfg.RecordingPolicy = config.RecordBeforePay
	}
	if cfg.Location == nil {
		cfg.Location = timezone.Location("")
	}
	return &Service{
		tx:        tx,
		orders:    orders,
		inventory: inventory,
		ledger:    ledger,
		payments:  payments,
		notifier:  notifier,
		config:    cfg,
		logger:    log,
		metrics:   m,
	}
}

// CreateOrder records a COD order, or starts an e-wallet payment. Under
// record_before_pay the e-wallet order is stored first and stays Pending with
// payment_status=failed when the provider cannot be reached.
func (s *Service) CreateOrder(ctx context.Context, p model.Principal, draft *model.OrderDraft) (*model.CreateOrderResult, error) {
	ewallet := model.IsEWallet(draft.PaymentMethod)
	if !ewallet && draft.PaymentMethod != model.PaymentMethodCOD {
		return nil, apperrors.BadRequest("unsupported payment method", nil)
	}

	if ewallet && s.config.RecordingPolicy == config.PayBeforeRecord {
		total, err := s.price(ctx, draft.Items)
		if err != nil {
			return nil, err
		}
		intent, err := s.startPayment(ctx, total, shortID(uuid.New()), draft)
		if err != nil {
			return nil, apperrors.Unavailable("failed to start payment", err)
		}
		return &model.CreateOrderResult{RedirectURL: intent.RedirectURL, IntentID: intent.ID}, nil
	}

	lines, err := s.resolve(ctx, draft.Items)
	if err != nil {
		return nil, err
	}
	order, warnings, err := s.record(ctx, p, draft, lines, model.PaymentStatusUnpaid, nil)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx)

	result := &model.CreateOrderResult{OrderID: &order.ID, Warnings: warnings}
	if !ewallet {
		return result, nil
	}

	intent, err := s.startPayment(ctx, order.Total, shortID(order.ID), draft)
	if err != nil {
		if uerr := s.orders.UpdatePayment(ctx, nil, order.ID, model.PaymentStatusFailed, nil); uerr != nil {
			s.logger.Error(uerr, "Failed to mark order payment failed", "order_id", order.ID)
		}
		s.logger.Error(err, "Payment setup failed", "order_id", order.ID)
		return nil, apperrors.Unavailable(fmt.Sprintf("payment setup failed for order %s", order.ID), err)
	}

	if err := s.orders.UpdatePayment(ctx, nil, order.ID, model.PaymentStatusAwaitingPayment, &intent.ID); err != nil {
		return nil, err
	}
	result.RedirectURL = intent.RedirectURL
	result.IntentID = intent.ID
	return result, nil
}

// ConfirmOrder records the paid state of an e-wallet order once the provider
// reports success. The captured amount must equal the order total. A payment
// that lands on an order closed in the meantime is refunded in full.
func (s *Service) ConfirmOrder(ctx context.Context, p model.Principal, req *model.ConfirmOrderRequest) (*model.CreateOrderResult, error) {
	intent, err := s.payments.GetIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, apperrors.Unavailable("failed to fetch payment status", err)
	}
	if intent.Status != paymongo.StatusSucceeded {
		return nil, ErrPaymentIncomplete
	}

	var (
		existing *model.Order
		closed   bool
	)
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		o, err := s.orders.GetByIntent(ctx, tx, intent.ID)
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrNotFound) {
				return nil
			}
			return err
		}
		existing = o
		if o.PaymentStatus == model.PaymentStatusPaid {
			return nil
		}
		if o.Status != model.OrderStatusPending {
			refundID, err := s.refundPayment(ctx, intent.PaymentID, intent.Amount)
			if err != nil {
				return err
			}
			closed = true
			s.logger.Warn("Refunded payment for a closed order", "order_id", o.ID, "status", o.Status, "intent_id", intent.ID)
			return s.orders.MarkRefunded(ctx, tx, o.ID, refundID)
		}
		if centavos(o.Total) != intent.Amount {
			s.logger.Warn("Payment amount mismatch", "order_id", o.ID, "intent_id", intent.ID, "paid", intent.Amount, "total", centavos(o.Total))
			return ErrAmountMismatch
		}
		return s.orders.UpdatePayment(ctx, tx, o.ID, model.PaymentStatusPaid, nil)
	})
	if err != nil {
		return nil, err
	}
	if closed {
		s.metrics.RefundsIssued.WithLabelValues("completed").Inc()
		return nil, ErrOrderClosed
	}
	if existing != nil {
		return &model.CreateOrderResult{OrderID: &existing.ID, IntentID: intent.ID}, nil
	}

	if req.Draft == nil {
		return nil, ErrDraftMissing
	}
	lines, err := s.resolve(ctx, req.Draft.Items)
	if err != nil {
		return nil, err
	}
	if total := centavos(sum(lines)); total != intent.Amount {
		s.logger.Warn("Payment amount mismatch", "intent_id", intent.ID, "paid", intent.Amount, "total", total)
		return nil, ErrAmountMismatch
	}

	intentID := intent.ID
	order, warnings, err := s.record(ctx, p, req.Draft, lines, model.PaymentStatusPaid, &intentID)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx)
	return &model.CreateOrderResult{OrderID: &order.ID, IntentID: intent.ID, Warnings: warnings}, nil
}

// record inserts the order, its resolved lines and their reservations in one transaction.
func (s *Service) record(ctx context.Context, p model.Principal, draft *model.OrderDraft, lines []*model.OrderItem, paymentStatus string, intentID *string) (*model.Order, []model.LowStockWarning, error) {
	order := &model.Order{
		UserID:          p.UserID,
		CustomerName:    draft.CustomerName,
		CustomerAddress: draft.CustomerAddress,
		OrderDate:       timezone.Today(s.config.Location),
		Status:          model.OrderStatusPending,
		PaymentMethod:   draft.PaymentMethod,
		PaymentStatus:   paymentStatus,
		PaymentIntentID: intentID,
		RefundStatus:    model.RefundStatusNone,
		Total:           sum(lines),
	}

	var warnings []model.LowStockWarning
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		warnings = nil
		if err := s.orders.CreateTx(ctx, tx, order); err != nil {
			return err
		}
		ref := order.ID.String()
		for _, l := range lines {
			res, err := s.ledger.ReserveTx(ctx, tx, l.ProductID, l.Quantity, &ref)
			if err != nil {
				return err
			}
			l.OrderID = order.ID
			if err := s.orders.CreateItemTx(ctx, tx, l); err != nil {
				return err
			}
			if w := stock.Warning(res); w != nil {
				warnings = append(warnings, *w)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	order.Items = lines
	s.metrics.OrdersCreated.WithLabelValues(order.PaymentMethod).Inc()
	s.logger.Info("Order recorded", "order_id", order.ID, "method", order.PaymentMethod, "total", order.Total)
	return order, warnings, nil
}

// resolve snapshots product names and prices, merging repeated products.
func (s *Service) resolve(ctx context.Context, in []model.OrderLine) ([]*model.OrderItem, error) {
	if len(in) == 0 {
		return nil, apperrors.BadRequest("an order needs at least one item", nil)
	}
	byProduct := make(map[uuid.UUID]*model.OrderItem, len(in))
	var lines []*model.OrderItem
	for _, l := range in {
		if l.Quantity <= 0 {
			return nil, apperrors.BadRequest("quantity must be positive", nil)
		}
		if existing, ok := byProduct[l.ProductID]; ok {
			existing.Quantity += l.Quantity
			continue
		}
		item, err := s.inventory.Get(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		line := &model.OrderItem{
			ProductID:   item.ID,
			ProductName: item.Name,
			Quantity:    l.Quantity,
			UnitPrice:   item.Price,
		}
		byProduct[l.ProductID] = line
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Service) price(ctx context.Context, in []model.OrderLine) (float64, error) {
	lines, err := s.resolve(ctx, in)
	if err != nil {
		return 0, err
	}
	return sum(lines), nil
}

func sum(lines []*model.OrderItem) float64 {
	var total float64
	for _, l := range lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

func (s *Service) startPayment(ctx context.Context, total float64, ref string, draft *model.OrderDraft) (*paymongo.Intent, error) {
	intent, err := s.payments.CreateIntent(ctx, centavos(total), "Order #"+ref)
	if err != nil {
		return nil, err
	}
	methodID, err := s.payments.CreateMethod(ctx, draft.PaymentMethod, paymongo.Billing{
		Name:  draft.CustomerName,
		Email: draft.Email,
		Phone: draft.Phone,
	})
	if err != nil {
		return nil, err
	}
	return s.payments.AttachMethod(ctx, intent.ID, methodID, s.config.ReturnURL)
}

// RequestCancel flags an owned Pending order for admin review.
func (s *Service) RequestCancel(ctx context.Context, p model.Principal, orderID uuid.UUID, reason string) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != p.UserID {
		return ErrNotOwner
	}
	if order.Status != model.OrderStatusPending {
		return ErrNotCancellable
	}

	var r *string
	if reason = strings.TrimSpace(reason); reason != "" {
		r = &reason
	}
	ok, err := s.orders.RequestCancel(ctx, orderID, r)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCancellable
	}
	return nil
}

// Cancel lets an owner cancel a Pending order that has not been paid and
// restocks it. This covers COD orders and e-wallet orders whose payment setup
// failed or was abandoned; an order still awaiting payment is checked against
// the provider first.
func (s *Service) Cancel(ctx context.Context, p model.Principal, orderID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		order, err := s.orders.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != p.UserID {
			return ErrNotOwner
		}
		if order.Status != model.OrderStatusPending {
			return ErrNotCancellable
		}
		if err := s.ensureUnpaid(ctx, order); err != nil {
			return err
		}
		if err := s.orders.MarkCancelled(ctx, tx, orderID, order.RefundStatus, order.RefundID); err != nil {
			return err
		}
		return s.restock(ctx, tx, orderID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Order cancelled by owner", "order_id", orderID)
	return nil
}

// ApproveCancel cancels a Pending order. A requested refund of a paid e-wallet
// order is issued before any write; if it fails the order is left untouched.
func (s *Service) ApproveCancel(ctx context.Context, req *model.ApproveCancelRequest) (*model.Order, error) {
	var (
		order    *model.Order
		refunded bool
	)
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		order, err = s.orders.GetForUpdate(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		if order.Status != model.OrderStatusPending {
			return ErrNotCancellable
		}

		refundStatus, refundID := order.RefundStatus, order.RefundID
		if req.Refund && refundable(order) {
			id, err := s.refund(ctx, order)
			if err != nil {
				return err
			}
			refundStatus, refundID, refunded = model.RefundStatusCompleted, &id, true
		}

		if err := s.orders.MarkCancelled(ctx, tx, order.ID, refundStatus, refundID); err != nil {
			return err
		}
		order.Status = model.OrderStatusCancelled
		order.RefundStatus = refundStatus
		order.RefundID = refundID
		return s.restock(ctx, tx, order.ID)
	})
	if err != nil {
		if refunded {
			// The provider has already returned the money.
			s.logger.Error(err, "Order cancellation failed after refund", "order_id", req.OrderID)
		}
		return nil, err
	}

	if refunded {
		s.metrics.RefundsIssued.WithLabelValues("completed").Inc()
	}
	s.logger.Info("Order cancellation approved", "order_id", order.ID, "refunded", refunded)

	if s.notifier != nil {
		details := fmt.Sprintf("Your order #%s has been cancelled.", shortID(order.ID))
		if refunded {
			details += " A full refund has been issued to your e-wallet."
		}
		if err := s.notifier.NotifyUser(ctx, order.UserID, "Order Cancelled", model.NotificationTypeOrder, details); err != nil {
			s.logger.Warn("Failed to notify order owner", "order_id", order.ID, "error", err)
		}
	}
	return order, nil
}

func (s *Service) ensureUnpaid(ctx context.Context, o *model.Order) error {
	switch o.PaymentStatus {
	case model.PaymentStatusPaid:
		return ErrPaidOrder
	case model.PaymentStatusAwaitingPayment:
		if o.PaymentIntentID == nil {
			return nil
		}
		intent, err := s.payments.GetIntent(ctx, *o.PaymentIntentID)
		if err != nil {
			return apperrors.Unavailable("failed to fetch payment status", err)
		}
		if intent.Status == paymongo.StatusSucceeded {
			return ErrPaidOrder
		}
	}
	return nil
}

func refundable(o *model.Order) bool {
	return model.IsEWallet(o.PaymentMethod) &&
		o.PaymentStatus == model.PaymentStatusPaid &&
		o.RefundStatus == model.RefundStatusNone &&
		o.PaymentIntentID != nil
}

func (s *Service) refund(ctx context.Context, order *model.Order) (string, error) {
	intent, err := s.payments.GetIntent(ctx, *order.PaymentIntentID)
	if err != nil {
		s.metrics.RefundsIssued.WithLabelValues("failed").Inc()
		return "", apperrors.Unavailable("failed to look up the original payment", err)
	}
	return s.refundPayment(ctx, intent.PaymentID, centavos(order.Total))
}

func (s *Service) refundPayment(ctx context.Context, paymentID string, amount int64) (string, error) {
	if paymentID == "" {
		s.metrics.RefundsIssued.WithLabelValues("failed").Inc()
		return "", apperrors.Unavailable("no captured payment found for this order", nil)
	}
	refund, err := s.payments.Refund(ctx, paymentID, amount, refundReason)
	if err != nil {
		s.metrics.RefundsIssued.WithLabelValues("failed").Inc()
		return "", apperrors.Unavailable("refund failed", err)
	}
	return refund.ID, nil
}

func (s *Service) restock(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID) error {
	items, err := s.orders.ItemsTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	ref := orderID.String()
	for _, it := range items {
		if _, err := s.ledger.ReleaseTx(ctx, tx, it.ProductID, it.Quantity, &ref); err != nil {
			return err
		}
	}
	return nil
}

var transitions = map[model.OrderStatus]model.OrderStatus{
	model.OrderStatusShipped:   model.OrderStatusPending,
	model.OrderStatusDelivered: model.OrderStatusShipped,
}

// UpdateStatus moves an order forward: Pending to Shipped, Shipped to Delivered.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	from, ok := transitions[status]
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid order status %q", status), nil)
	}

	moved, err := s.orders.TransitionStatus(ctx, nil, orderID, from, status)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move a %s order to %s", order.Status, status))
	}

	if s.notifier != nil {
		details := fmt.Sprintf("Your order #%s is now %s.", shortID(order.ID), status)
		if err := s.notifier.NotifyUser(ctx, order.UserID, "Order "+string(status), model.NotificationTypeOrder, details); err != nil {
			s.logger.Warn("Failed to notify order owner", "order_id", order.ID, "error", err)
		}
	}
	return order, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*model.Order, error) {
	return s.orders.ListAll(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) ListPurchases(ctx context.Context, userID uuid.UUID) ([]*model.Purchase, error) {
	return s.orders.ListPurchases(ctx, userID)
}

// afterCommit runs the low stock sweep; its failure never affects the order.
func (s *Service) afterCommit(ctx context.Context) {
	if _, err := s.ledger.CheckLowStock(ctx); err != nil {
		s.logger.Error(err, "Low stock check failed")
	}
}

func centavos(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
