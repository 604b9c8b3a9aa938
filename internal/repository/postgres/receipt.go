package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
)

const receiptColumns = `
	id, order_ref, order_id, user_id, customer_name,
	to_char(order_date, 'YYYY-MM-DD') AS order_date, total, created_at`

type receiptRepository struct {
	BaseRepository
}

func NewReceiptRepository(base BaseRepository) repository.ReceiptRepository {
	return &receiptRepository{base}
}

func (r *receiptRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, receipt *model.Receipt) error {
	query := `
		INSERT INTO receipts (
			id, order_ref, order_id, user_id, customer_name, order_date, total, created_at
		) VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8)
	`
	receipt.ID = uuid.New()
	receipt.CreatedAt = time.Now()

	q := r.q(tx)
	_, err := q.ExecContext(ctx, query,
		receipt.ID, receipt.OrderRef, receipt.OrderID, receipt.UserID,
		receipt.CustomerName, receipt.OrderDate, receipt.Total, receipt.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("a receipt was already issued for this order")
		}
		return fmt.Errorf("failed to create receipt: %w", err)
	}

	itemQuery := `
		INSERT INTO receipt_items (id, receipt_id, name, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range receipt.Items {
		item.ID = uuid.New()
		item.ReceiptID = receipt.ID
		if _, err := q.ExecContext(ctx, itemQuery, item.ID, item.ReceiptID, item.Name, item.Quantity, item.Price); err != nil {
			return fmt.Errorf("failed to create receipt item: %w", err)
		}
	}
	return nil
}

func (r *receiptRepository) GetByRef(ctx context.Context, ref string) (*model.Receipt, error) {
	return r.getOne(ctx, nil, `order_ref = $1`, ref)
}

func (r *receiptRepository) GetByOrderTx(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID) (*model.Receipt, error) {
	return r.getOne(ctx, tx, `order_id = $1`, orderID)
}

func (r *receiptRepository) getOne(ctx context.Context, tx *sqlx.Tx, where string, arg interface{}) (*model.Receipt, error) {
	q := r.q(tx)
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE ` + where

	var receipt model.Receipt
	if err := sqlx.GetContext(ctx, q, &receipt, query, arg); err != nil {
		return nil, wrapGet(err, "receipt")
	}

	items := []*model.ReceiptItem{}
	itemQuery := `SELECT id, receipt_id, name, quantity, price FROM receipt_items WHERE receipt_id = $1 ORDER BY name ASC`
	if err := sqlx.SelectContext(ctx, q, &items, itemQuery, receipt.ID); err != nil {
		return nil, fmt.Errorf("failed to list receipt items: %w", err)
	}
	receipt.Items = items
	return &receipt, nil
}
