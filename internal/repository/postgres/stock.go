package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
)

type stockRepository struct {
	BaseRepository
}

func NewStockRepository(base BaseRepository) repository.StockRepository {
	return &stockRepository{base}
}

func (r *stockRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID) (*model.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1 FOR UPDATE`

	var item model.InventoryItem
	if err := sqlx.GetContext(ctx, r.q(tx), &item, query, productID); err != nil {
		return nil, wrapGet(err, "inventory item")
	}
	return &item, nil
}

func (r *stockRepository) SetStock(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, stock int) error {
	res, err := r.q(tx).ExecContext(ctx,
		`UPDATE inventory_items SET stock = $1, updated_at = NOW() WHERE id = $2`, stock, productID)
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	return expectRows(res, "inventory item")
}

func (r *stockRepository) InsertMovement(ctx context.Context, tx *sqlx.Tx, movement *model.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, stock_in, stock_out, reason, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	movement.ID = uuid.New()
	movement.CreatedAt = time.Now()

	_, err := r.q(tx).ExecContext(ctx, query,
		movement.ID,
		movement.ProductID,
		movement.StockIn,
		movement.StockOut,
		movement.Reason,
		movement.Reference,
		movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}

func (r *stockRepository) ListMovements(ctx context.Context, productID uuid.UUID) ([]*model.StockMovement, error) {
	query := `
		SELECT id, product_id, stock_in, stock_out, reason, reference, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
	`
	movements := []*model.StockMovement{}
	if err := r.db.SelectContext(ctx, &movements, query, productID); err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}

func (r *stockRepository) ListLowStock(ctx context.Context, tx *sqlx.Tx, threshold int) ([]*model.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE stock <= $1 ORDER BY stock ASC, name ASC`

	items := []*model.InventoryItem{}
	if err := sqlx.SelectContext(ctx, r.q(tx), &items, query, threshold); err != nil {
		return nil, fmt.Errorf("failed to list low stock items: %w", err)
	}
	return items, nil
}
