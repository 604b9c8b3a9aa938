package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	"github.com/riveravet/clinic-api/internal/storage"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
)

// Ledger is the stock ledger every stock change goes through.
type Ledger interface {
	Adjust(ctx context.Context, productID uuid.UUID, delta int, reason string) (*model.AdjustResult, error)
	AdjustTx(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, delta int, reason string, ref *string) (*model.AdjustResult, error)
	SetTx(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, target int, reason string) (*model.AdjustResult, error)
	ListMovements(ctx context.Context, productID uuid.UUID) ([]*model.StockMovement, error)
	CheckLowStock(ctx context.Context) ([]*model.AdminNotification, error)
}

// ObjectStore keeps product photos.
type ObjectStore interface {
	Upload(ctx context.Context, folder string, f *model.Photo) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	tx      repository.TxManager
	repo    repository.InventoryRepository
	ledger  Ledger
	objects ObjectStore
	logger  *logger.Logger
}

func NewService(tx repository.TxManager, repo repository.InventoryRepository, ledger Ledger, objects ObjectStore, log *logger.Logger) *Service {
	return &Service{
		tx:      tx,
		repo:    repo,
		ledger:  ledger,
		objects: objects,
		logger:  log,
	}
}

// Add creates an item. Opening stock enters through the ledger as an initial movement.
func (s *Service) Add(ctx context.Context, in *model.InventoryInput, photo *model.Photo) (*model.InventoryItem, error) {
	if in.Stock == nil || *in.Stock < 0 {
		return nil, apperrors.BadRequest("stock must be zero or more", nil)
	}

	item := &model.InventoryItem{}
	applyInput(item, in)

	obj, err := s.upload(ctx, photo)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		item.PhotoURL, item.PhotoKey = &obj.URL, &obj.Key
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.CreateTx(ctx, tx, item); err != nil {
			return err
		}
		if *in.Stock == 0 {
			return nil
		}
		_, err := s.ledger.AdjustTx(ctx, tx, item.ID, *in.Stock, model.MovementInitial, nil)
		return err
	})
	if err != nil {
		s.discard(ctx, obj)
		return nil, err
	}

	item.Stock = *in.Stock
	s.logger.Info("Inventory item added", "item_id", item.ID, "name", item.Name, "stock", item.Stock)
	s.sweep(ctx)
	return item, nil
}

// Update replaces the item details. A stock change is recorded as a manual
// movement; a new photo replaces the old object once the update commits.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in *model.InventoryInput, photo *model.Photo) (*model.InventoryItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldKey := item.PhotoKey
	applyInput(item, in)

	obj, err := s.upload(ctx, photo)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		item.PhotoURL, item.PhotoKey = &obj.URL, &obj.Key
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateDetailsTx(ctx, tx, item); err != nil {
			return err
		}
		if in.Stock == nil {
			return nil
		}
		res, err := s.ledger.SetTx(ctx, tx, id, *in.Stock, model.MovementManual)
		if err != nil {
			return err
		}
		item.Stock = res.NewStock
		return nil
	})
	if err != nil {
		s.discard(ctx, obj)
		return nil, err
	}

	if obj != nil && oldKey != nil {
		if err := s.objects.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("Failed to delete replaced photo", "key", *oldKey, "error", err)
		}
	}
	s.sweep(ctx)
	return item, nil
}

// Delete removes the item with its movement history and photo.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTx(ctx, nil, id); err != nil {
		return err
	}
	if item.PhotoKey != nil {
		if err := s.objects.Delete(ctx, *item.PhotoKey); err != nil {
			s.logger.Warn("Failed to delete item photo", "key", *item.PhotoKey, "error", err)
		}
	}
	s.logger.Info("Inventory item deleted", "item_id", id)
	return nil
}

func (s *Service) Restock(ctx context.Context, id uuid.UUID, qty int) (*model.AdjustResult, error) {
	if qty <= 0 {
		return nil, apperrors.BadRequest("quantity must be positive", nil)
	}
	return s.ledger.Adjust(ctx, id, qty, model.MovementRestock)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.InventoryItem, error) {
	return s.repo.List(ctx)
}

func (s *Service) Movements(ctx context.Context, id uuid.UUID) ([]*model.StockMovement, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.ListMovements(ctx, id)
}

func (s *Service) upload(ctx context.Context, photo *model.Photo) (*storage.Object, error) {
	if photo == nil {
		return nil, nil
	}
	if !strings.HasPrefix(photo.ContentType, "image/") {
		return nil, apperrors.BadRequest("photo must be an image", nil)
	}
	obj, err := s.objects.Upload(ctx, storage.FolderInventory, photo)
	if err != nil {
		return nil, apperrors.Unavailable("failed to upload photo", err)
	}
	return obj, nil
}

func (s *Service) discard(ctx context.Context, obj *storage.Object) {
	if obj == nil {
		return
	}
	if err := s.objects.Delete(ctx, obj.Key); err != nil {
		s.logger.Warn("Failed to delete orphaned photo", "key", obj.Key, "error", err)
	}
}

func (s *Service) sweep(ctx context.Context) {
	if _, err := s.ledger.CheckLowStock(ctx); err != nil {
		s.logger.Error(err, "Low stock check failed")
	}
}

func applyInput(item *model.InventoryItem, in *model.InventoryInput) {
	item.ItemCode = strings.TrimSpace(in.ItemCode)
	item.Name = strings.TrimSpace(in.Name)
	item.ItemGroup = strings.TrimSpace(in.ItemGroup)
	item.DatePurchase = optional(in.DatePurchase)
	item.DateExpiration = optional(in.DateExpiration)
	item.Price = in.Price
	item.Unit = in.Unit
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
