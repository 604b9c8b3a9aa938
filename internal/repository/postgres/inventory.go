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

const inventoryColumns = `
	id, item_code, name, item_group,
	to_char(date_purchase, 'YYYY-MM-DD') AS date_purchase,
	to_char(date_expiration, 'YYYY-MM-DD') AS date_expiration,
	stock, price, unit, photo_url, photo_key, created_at, updated_at`

type inventoryRepository struct {
	BaseRepository
}

func NewInventoryRepository(base BaseRepository) repository.InventoryRepository {
	return &inventoryRepository{base}
}

func (r *inventoryRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, item *model.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (
			id, item_code, name, item_group, date_purchase, date_expiration,
			stock, price, unit, photo_url, photo_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::date, $6::date, $7, $8, $9, $10, $11, $12, $13)
	`
	item.ID = uuid.New()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt

	_, err := r.q(tx).ExecContext(ctx, query,
		item.ID,
		item.ItemCode,
		item.Name,
		item.ItemGroup,
		item.DatePurchase,
		item.DateExpiration,
		item.Stock,
		item.Price,
		item.Unit,
		item.PhotoURL,
		item.PhotoKey,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	return nil
}

func (r *inventoryRepository) Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1`

	var item model.InventoryItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, wrapGet(err, "inventory item")
	}
	return &item, nil
}

func (r *inventoryRepository) UpdateDetailsTx(ctx context.Context, tx *sqlx.Tx, item *model.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET item_code = $1, name = $2, item_group = $3, date_purchase = $4::date,
			date_expiration = $5::date, price = $6, unit = $7, photo_url = $8,
			photo_key = $9, updated_at = NOW()
		WHERE id = $10
	`
	res, err := r.q(tx).ExecContext(ctx, query,
		item.ItemCode,
		item.Name,
		item.ItemGroup,
		item.DatePurchase,
		item.DateExpiration,
		item.Price,
		item.Unit,
		item.PhotoURL,
		item.PhotoKey,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	return expectRows(res, "inventory item")
}

// DeleteTx removes the item; its stock movements cascade.
func (r *inventoryRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return expectRows(res, "inventory item")
}

func (r *inventoryRepository) List(ctx context.Context) ([]*model.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items ORDER BY name ASC`

	items := []*model.InventoryItem{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return items, nil
}
