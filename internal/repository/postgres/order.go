package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
)

const orderColumns = `
	id, user_id, customer_name, customer_address, to_char(order_date, 'YYYY-MM-DD') AS order_date,
	total, status, payment_method, payment_status, payment_intent_id, cancel_requested,
	cancel_reason, refund_status, refund_id, created_at, updated_at`

type orderRepository struct {
	BaseRepository
}

func NewOrderRepository(base BaseRepository) repository.OrderRepository {
	return &orderRepository{base}
}

func (r *orderRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, customer_name, customer_address, order_date, total, status,
			payment_method, payment_status, payment_intent_id, refund_status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	if order.RefundStatus == "" {
		order.RefundStatus = model.RefundStatusNone
	}

	_, err := r.q(tx).ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.CustomerName,
		order.CustomerAddress,
		order.OrderDate,
		order.Total,
		order.Status,
		order.PaymentMethod,
		order.PaymentStatus,
		order.PaymentIntentID,
		order.RefundStatus,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("an order is already recorded for this payment")
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) CreateItemTx(ctx context.Context, tx *sqlx.Tx, item *model.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	item.ID = uuid.New()

	_, err := r.q(tx).ExecContext(ctx, query,
		item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order model.Order
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, wrapGet(err, "order")
	}
	items, err := r.ItemsTx(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *orderRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	var order model.Order
	if err := sqlx.GetContext(ctx, r.q(tx), &order, query, id); err != nil {
		return nil, wrapGet(err, "order")
	}
	return &order, nil
}

func (r *orderRepository) GetByIntent(ctx context.Context, tx *sqlx.Tx, intentID string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_id = $1 FOR UPDATE`

	var order model.Order
	if err := sqlx.GetContext(ctx, r.q(tx), &order, query, intentID); err != nil {
		return nil, wrapGet(err, "order")
	}
	return &order, nil
}

func (r *orderRepository) ItemsTx(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID) ([]*model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id,
			product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name ASC
	`
	items := []*model.OrderItem{}
	if err := sqlx.SelectContext(ctx, r.q(tx), &items, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return items, nil
}

func (r *orderRepository) UpdatePayment(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, paymentStatus string, intentID *string) error {
	query := `
		UPDATE orders
		SET payment_status = $1,
			payment_intent_id = COALESCE($2, payment_intent_id),
			updated_at = NOW()
		WHERE id = $3
	`
	res, err := r.q(tx).ExecContext(ctx, query, paymentStatus, intentID, id)
	if err != nil {
		return fmt.Errorf("failed to update order payment: %w", err)
	}
	return expectRows(res, "order")
}

func (r *orderRepository) RequestCancel(ctx context.Context, id uuid.UUID, reason *string) (bool, error) {
	query := `
		UPDATE orders
		SET cancel_requested = TRUE, cancel_reason = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'Pending'
	`
	res, err := r.db.ExecContext(ctx, query, reason, id)
	if err != nil {
		return false, fmt.Errorf("failed to request cancellation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *orderRepository) TransitionStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	res, err := r.q(tx).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *orderRepository) MarkCancelled(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, refundStatus string, refundID *string) error {
	query := `
		UPDATE orders
		SET status = 'Cancelled', refund_status = $1, refund_id = $2, updated_at = NOW()
		WHERE id = $3
	`
	res, err := r.q(tx).ExecContext(ctx, query, refundStatus, refundID, id)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	return expectRows(res, "order")
}

func (r *orderRepository) MarkRefunded(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, refundID string) error {
	query := `
		UPDATE orders
		SET payment_status = 'paid', refund_status = 'completed', refund_id = $1, updated_at = NOW()
		WHERE id = $2
	`
	res, err := r.q(tx).ExecContext(ctx, query, refundID, id)
	if err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}
	return expectRows(res, "order")
}

// attachItems loads items for orders with one query and nests them.
func (r *orderRepository) attachItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[uuid.UUID]*model.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		o.Items = []*model.OrderItem{}
		byID[o.ID] = o
	}

	query := `
		SELECT id, order_id, product_id,
			product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY product_name ASC
	`
	var items []*model.OrderItem
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	for _, item := range items {
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	orders := []*model.Order{}
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	orders := []*model.Order{}
	if err := r.db.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListPurchases(ctx context.Context, userID uuid.UUID) ([]*model.Purchase, error) {
	query := `
		SELECT o.id AS order_id, to_char(o.order_date, 'YYYY-MM-DD') AS order_date, o.status,
			o.payment_method, oi.product_id,
			oi.product_name, oi.quantity, oi.unit_price, i.photo_url, o.created_at
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN inventory_items i ON i.id = oi.product_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, oi.product_name ASC
	`
	purchases := []*model.Purchase{}
	if err := r.db.SelectContext(ctx, &purchases, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}
