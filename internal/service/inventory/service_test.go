package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/storage"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error { return fn(nil) }

func (fakeTx) AdvisoryLock(ctx context.Context, tx *sqlx.Tx, key string) error { return nil }

type fakeRepo struct {
	items     map[uuid.UUID]*model.InventoryItem
	createErr error
}

func (f *fakeRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, item *model.InventoryItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	item.ID = uuid.New()
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, apperrors.NotFound("inventory item", nil)
	}
	cp := *it
	return &cp, nil
}

func (f *fakeRepo) UpdateDetailsTx(ctx context.Context, tx *sqlx.Tx, item *model.InventoryItem) error {
	stock := f.items[item.ID].Stock
	cp := *item
	cp.Stock = stock
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) List(ctx context.Context) ([]*model.InventoryItem, error) { return nil, nil }

type adjustment struct {
	delta  int
	target *int
	reason string
}

type fakeLedger struct {
	repo   *fakeRepo
	calls  []adjustment
	sweeps int
}

func (f *fakeLedger) Adjust(ctx context.Context, id uuid.UUID, delta int, reason string) (*model.AdjustResult, error) {
	return f.AdjustTx(ctx, nil, id, delta, reason, nil)
}

func (f *fakeLedger) AdjustTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, delta int, reason string, ref *string) (*model.AdjustResult, error) {
	f.calls = append(f.calls, adjustment{delta: delta, reason: reason})
	it := f.repo.items[id]
	old := it.Stock
	it.Stock += delta
	return &model.AdjustResult{ProductID: id, OldStock: old, NewStock: it.Stock, Applied: delta}, nil
}

func (f *fakeLedger) SetTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, target int, reason string) (*model.AdjustResult, error) {
	f.calls = append(f.calls, adjustment{target: &target, reason: reason})
	it := f.repo.items[id]
	old := it.Stock
	it.Stock = target
	return &model.AdjustResult{ProductID: id, OldStock: old, NewStock: target, Applied: target - old}, nil
}

func (f *fakeLedger) ListMovements(ctx context.Context, id uuid.UUID) ([]*model.StockMovement, error) {
	return []*model.StockMovement{}, nil
}

func (f *fakeLedger) CheckLowStock(ctx context.Context) ([]*model.AdminNotification, error) {
	f.sweeps++
	return nil, nil
}

type fakeObjects struct {
	uploaded []string
	deleted  []string
}

func (f *fakeObjects) Upload(ctx context.Context, folder string, p *model.Photo) (*storage.Object, error) {
	key := folder + "/" + p.Filename
	f.uploaded = append(f.uploaded, key)
	return &storage.Object{Key: key, URL: "https://cdn.example/" + key}, nil
}

func (f *fakeObjects) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	ledger  *fakeLedger
	objects *fakeObjects
}

func newFixture() *fixture {
	repo := &fakeRepo{items: map[uuid.UUID]*model.InventoryItem{}}
	ledger := &fakeLedger{repo: repo}
	objects := &fakeObjects{}
	return &fixture{
		svc:     NewService(fakeTx{}, repo, ledger, objects, logger.Nop()),
		repo:    repo,
		ledger:  ledger,
		objects: objects,
	}
}

func input(stock int) *model.InventoryInput {
	return &model.InventoryInput{
		ItemCode:  "SH-01",
		Name:      "Dog Shampoo",
		ItemGroup: "Grooming",
		Stock:     &stock,
		Price:     250,
		Unit:      "bottle",
	}
}

func png(name string) *model.Photo {
	return &model.Photo{Filename: name, ContentType: "image/png", Body: []byte("x")}
}

func TestAdd_OpeningStockGoesThroughLedger(t *testing.T) {
	f := newFixture()

	item, err := f.svc.Add(context.Background(), input(12), png("a.png"))
	require.NoError(t, err)
	assert.Equal(t, 12, item.Stock)
	assert.Equal(t, 12, f.repo.items[item.ID].Stock)
	require.Len(t, f.ledger.calls, 1)
	assert.Equal(t, 12, f.ledger.calls[0].delta)
	assert.Equal(t, model.MovementInitial, f.ledger.calls[0].reason)
	assert.Equal(t, "inventory/a.png", *item.PhotoKey)
	assert.Equal(t, 1, f.ledger.sweeps)
}

func TestAdd_ZeroStockWritesNoMovement(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Add(context.Background(), input(0), nil)
	require.NoError(t, err)
	assert.Empty(t, f.ledger.calls)
}

func TestAdd_FailureDiscardsUpload(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("duplicate item code")

	_, err := f.svc.Add(context.Background(), input(3), png("a.png"))
	require.Error(t, err)
	assert.Equal(t, []string{"inventory/a.png"}, f.objects.deleted)
}

func TestAdd_RejectsNonImage(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Add(context.Background(), input(3), &model.Photo{Filename: "a.pdf", ContentType: "application/pdf", Body: []byte("x")})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
	assert.Empty(t, f.objects.uploaded)
}

func TestUpdate_StockChangeAndPhotoReplacement(t *testing.T) {
	f := newFixture()
	item, err := f.svc.Add(context.Background(), input(10), png("old.png"))
	require.NoError(t, err)

	in := input(4)
	in.Name = "Dog Shampoo XL"
	updated, err := f.svc.Update(context.Background(), item.ID, in, png("new.png"))
	require.NoError(t, err)

	assert.Equal(t, "Dog Shampoo XL", updated.Name)
	assert.Equal(t, 4, updated.Stock)
	assert.Equal(t, 4, f.repo.items[item.ID].Stock)
	require.Len(t, f.ledger.calls, 2)
	assert.Equal(t, 4, *f.ledger.calls[1].target)
	assert.Equal(t, model.MovementManual, f.ledger.calls[1].reason)
	assert.Equal(t, []string{"inventory/old.png"}, f.objects.deleted)
}

func TestDelete_RemovesPhoto(t *testing.T) {
	f := newFixture()
	item, err := f.svc.Add(context.Background(), input(1), png("a.png"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), item.ID))
	assert.NotContains(t, f.repo.items, item.ID)
	assert.Equal(t, []string{"inventory/a.png"}, f.objects.deleted)

	err = f.svc.Delete(context.Background(), item.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestRestock(t *testing.T) {
	f := newFixture()
	item, err := f.svc.Add(context.Background(), input(2), nil)
	require.NoError(t, err)

	res, err := f.svc.Restock(context.Background(), item.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, res.NewStock)
	assert.Equal(t, model.MovementRestock, f.ledger.calls[1].reason)

	_, err = f.svc.Restock(context.Background(), item.ID, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}
