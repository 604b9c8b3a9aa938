// Package receipt issues receipts from recorded orders.
package receipt

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
)

var (
	ErrNotOwner        = apperrors.Forbidden("permission denied")
	ErrOrderCancelled  = apperrors.Conflict("cancelled orders have no receipt")
	ErrOrderNotPaidYet = apperrors.Conflict("order has not been paid")
)

type Service struct {
	tx       repository.TxManager
	receipts repository.ReceiptRepository
	orders   repository.OrderRepository
	logger   *logger.Logger
}

func NewService(tx repository.TxManager, receipts repository.ReceiptRepository, orders repository.OrderRepository, log *logger.Logger) *Service {
	return &Service{tx: tx, receipts: receipts, orders: orders, logger: log}
}

// Issue snapshots orderID into a receipt. Issuing again returns the first receipt.
func (s *Service) Issue(ctx context.Context, p model.Principal, orderID uuid.UUID) (*model.Receipt, error) {
	var out *model.Receipt
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		o, err := s.orders.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !p.IsStaff() && o.UserID != p.UserID {
			return ErrNotOwner
		}
		if o.Status == model.OrderStatusCancelled {
			return ErrOrderCancelled
		}
		if model.IsEWallet(o.PaymentMethod) && o.PaymentStatus != model.PaymentStatusPaid {
			return ErrOrderNotPaidYet
		}

		existing, err := s.receipts.GetByOrderTx(ctx, tx, orderID)
		switch {
		case err == nil:
			out = existing
			return nil
		case !apperrors.HasCode(err, apperrors.ErrNotFound):
			return err
		}

		lines, err := s.orders.ItemsTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		r := &model.Receipt{
			OrderRef:     Ref(o),
			OrderID:      o.ID,
			UserID:       o.UserID,
			CustomerName: o.CustomerName,
			OrderDate:    o.OrderDate,
			Total:        o.Total,
			Items:        make([]*model.ReceiptItem, 0, len(lines)),
		}
		for _, l := range lines {
			r.Items = append(r.Items, &model.ReceiptItem{Name: l.ProductName, Quantity: l.Quantity, Price: l.UnitPrice})
		}
		if err := s.receipts.CreateTx(ctx, tx, r); err != nil {
			return err
		}
		out = r
		s.logger.Info("Receipt issued", "order_id", o.ID, "order_ref", r.OrderRef)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, p model.Principal, ref string) (*model.Receipt, error) {
	r, err := s.receipts.GetByRef(ctx, strings.ToUpper(strings.TrimSpace(ref)))
	if err != nil {
		return nil, err
	}
	if !p.IsStaff() && r.UserID != p.UserID {
		return nil, ErrNotOwner
	}
	return r, nil
}

// Ref derives the printed order reference, e.g. RV-20250601-1A2B3C4D.
func Ref(o *model.Order) string {
	return "RV-" + strings.ReplaceAll(o.OrderDate, "-", "") + "-" + strings.ToUpper(o.ID.String()[:8])
}
