package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/config"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/payment/paymongo"
	"github.com/riveravet/clinic-api/internal/repository"
	"github.com/riveravet/clinic-api/internal/service/stock"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/metrics"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error { return fn(nil) }

func (fakeTx) AdvisoryLock(ctx context.Context, tx *sqlx.Tx, key string) error { return nil }

// fakeStore backs inventory, stock and orders with shared maps. Mutations made
// inside a failed transaction are not rolled back, so tests assert on the
// state the service chose to write.
type fakeStore struct {
	items     map[uuid.UUID]*model.InventoryItem
	movements []*model.StockMovement
	orders    map[uuid.UUID]*model.Order
	lines     []*model.OrderItem
}

func newFakeStore(items ...*model.InventoryItem) *fakeStore {
	f := &fakeStore{items: map[uuid.UUID]*model.InventoryItem{}, orders: map[uuid.UUID]*model.Order{}}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

type fakeInventory struct {
	repository.InventoryRepository
	*fakeStore
}

func (f fakeInventory) Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, apperrors.NotFound("inventory item", nil)
	}
	cp := *it
	return &cp, nil
}

type fakeStock struct{ *fakeStore }

func (f fakeStock) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.InventoryItem, error) {
	return fakeInventory{fakeStore: f.fakeStore}.Get(ctx, id)
}

func (f fakeStock) SetStock(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, s int) error {
	f.items[id].Stock = s
	return nil
}

func (f fakeStock) InsertMovement(ctx context.Context, tx *sqlx.Tx, m *model.StockMovement) error {
	f.fakeStore.movements = append(f.fakeStore.movements, m)
	return nil
}

func (f fakeStock) ListMovements(ctx context.Context, id uuid.UUID) ([]*model.StockMovement, error) {
	return f.movements, nil
}

func (f fakeStock) ListLowStock(ctx context.Context, tx *sqlx.Tx, threshold int) ([]*model.InventoryItem, error) {
	return nil, nil
}

type fakeOrders struct {
	repository.OrderRepository
	*fakeStore
}

func (f fakeOrders) CreateTx(ctx context.Context, tx *sqlx.Tx, o *model.Order) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f fakeOrders) CreateItemTx(ctx context.Context, tx *sqlx.Tx, it *model.OrderItem) error {
	it.ID = uuid.New()
	f.fakeStore.lines = append(f.fakeStore.lines, it)
	return nil
}

func (f fakeOrders) get(id uuid.UUID) (*model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", nil)
	}
	cp := *o
	return &cp, nil
}

func (f fakeOrders) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) { return f.get(id) }

func (f fakeOrders) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Order, error) {
	return f.get(id)
}

func (f fakeOrders) GetByIntent(ctx context.Context, tx *sqlx.Tx, intentID string) (*model.Order, error) {
	for _, o := range f.orders {
		if o.PaymentIntentID != nil && *o.PaymentIntentID == intentID {
			return f.get(o.ID)
		}
	}
	return nil, apperrors.NotFound("order", nil)
}

func (f fakeOrders) ItemsTx(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID) ([]*model.OrderItem, error) {
	var out []*model.OrderItem
	for _, it := range f.lines {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f fakeOrders) UpdatePayment(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status string, intentID *string) error {
	o := f.orders[id]
	o.PaymentStatus = status
	if intentID != nil {
		o.PaymentIntentID = intentID
	}
	return nil
}

func (f fakeOrders) RequestCancel(ctx context.Context, id uuid.UUID, reason *string) (bool, error) {
	o := f.orders[id]
	if o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.CancelRequested = true
	o.CancelReason = reason
	return true, nil
}

func (f fakeOrders) TransitionStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (f fakeOrders) MarkRefunded(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, refundID string) error {
	o := f.orders[id]
	o.PaymentStatus = model.PaymentStatusPaid
	o.RefundStatus = model.RefundStatusCompleted
	o.RefundID = &refundID
	return nil
}

func (f fakeOrders) MarkCancelled(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, refundStatus string, refundID *string) error {
	o := f.orders[id]
	o.Status = model.OrderStatusCancelled
	o.RefundStatus = refundStatus
	o.RefundID = refundID
	return nil
}

type fakeNotifications struct {
	repository.NotificationRepository
}

func (fakeNotifications) AdminAlertExistsSince(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, kind string, since time.Time) (bool, error) {
	return false, nil
}

type fakeGateway struct {
	intentErr  error
	status     string
	paid       int64
	paymentID  string
	refundErr  error
	refunds    []int64
	returnURLs []string
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amount int64, descriptor string) (*paymongo.Intent, error) {
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	return &paymongo.Intent{ID: "pi_1", Amount: amount, Status: paymongo.StatusAwaitingPaymentMethod}, nil
}

func (g *fakeGateway) CreateMethod(ctx context.Context, kind string, billing paymongo.Billing) (string, error) {
	return "pm_1", nil
}

func (g *fakeGateway) AttachMethod(ctx context.Context, intentID, methodID, returnURL string) (*paymongo.Intent, error) {
	g.returnURLs = append(g.returnURLs, returnURL)
	return &paymongo.Intent{ID: intentID, Status: paymongo.StatusAwaitingNextAction, RedirectURL: "https://pay.example/checkout"}, nil
}

func (g *fakeGateway) GetIntent(ctx context.Context, intentID string) (*paymongo.Intent, error) {
	return &paymongo.Intent{ID: intentID, Status: g.status, Amount: g.paid, PaymentID: g.paymentID}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, paymentID string, amount int64, reason string) (*paymongo.Refund, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, amount)
	return &paymongo.Refund{ID: "ref_1", Amount: amount}, nil
}

type fixture struct {
	svc     *Service
	store   *fakeStore
	gateway *fakeGateway
	owner   model.Principal
}

func newFixture(t *testing.T, policy string, items ...*model.InventoryItem) *fixture {
	t.Helper()
	store := newFakeStore(items...)
	m := metrics.NewNop()
	ledger := stock.NewService(fakeTx{}, fakeStock{store}, fakeNotifications{}, nil, stock.Config{LowStockThreshold: 5}, logger.Nop(), m)
	gateway := &fakeGateway{status: paymongo.StatusSucceeded, paymentID: "pay_1"}

	svc := NewService(fakeTx{}, fakeOrders{fakeStore: store}, fakeInventory{fakeStore: store}, ledger, gateway, nil,
		Config{RecordingPolicy: policy, ReturnURL: "https://clinic.example/users/pet-products?payment=success"},
		logger.Nop(), m)
	return &fixture{
		svc:     svc,
		store:   store,
		gateway: gateway,
		owner:   model.Principal{UserID: uuid.New(), Username: "owner", Role: model.RoleUser},
	}
}

func product(name string, stockLevel int, price float64) *model.InventoryItem {
	it := &model.InventoryItem{Name: name, Stock: stockLevel, Price: price}
	it.ID = uuid.New()
	return it
}

func draft(method string, lines ...model.OrderLine) *model.OrderDraft {
	return &model.OrderDraft{
		CustomerName:    "Ana Cruz",
		CustomerAddress: "Quezon City",
		PaymentMethod:   method,
		Items:           lines,
	}
}

func TestCreateOrder_COD(t *testing.T) {
	p := product("Dog Shampoo", 5, 250)
	f := newFixture(t, config.RecordBeforePay, p)

	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodCOD, model.OrderLine{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	require.NotNil(t, res.OrderID)
	assert.Empty(t, res.RedirectURL)

	assert.Equal(t, 3, f.store.items[p.ID].Stock)
	require.Len(t, f.store.movements, 1)
	assert.Equal(t, 2, f.store.movements[0].StockOut)
	assert.Equal(t, model.MovementOrder, f.store.movements[0].Reason)

	order := f.store.orders[*res.OrderID]
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, float64(500), order.Total)
	require.Len(t, f.store.lines, 1)
	assert.Equal(t, 2, f.store.lines[0].Quantity)
}

func TestCreateOrder_WarnsWhenNearlyOut(t *testing.T) {
	p := product("Cat Litter", 3, 100)
	f := newFixture(t, config.RecordBeforePay, p)

	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodCOD, model.OrderLine{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 1, res.Warnings[0].Remaining)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	p := product("Dog Shampoo", 1, 250)
	f := newFixture(t, config.RecordBeforePay, p)

	_, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodCOD, model.OrderLine{ProductID: p.ID, Quantity: 2}))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))
	assert.Equal(t, 1, f.store.items[p.ID].Stock)
	assert.Empty(t, f.store.movements)
}

func TestCreateOrder_EWalletRecordsThenRedirects(t *testing.T) {
	p := product("Vitamins", 10, 99.5)
	f := newFixture(t, config.RecordBeforePay, p)

	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout", res.RedirectURL)
	assert.Equal(t, "pi_1", res.IntentID)

	order := f.store.orders[*res.OrderID]
	assert.Equal(t, model.PaymentStatusAwaitingPayment, order.PaymentStatus)
	assert.Equal(t, "pi_1", *order.PaymentIntentID)
	assert.Equal(t, []string{"https://clinic.example/users/pet-products?payment=success"}, f.gateway.returnURLs)
}

func TestCreateOrder_PaymentSetupFailureKeepsOrder(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.RecordBeforePay, p)
	f.gateway.intentErr = errors.New("provider down")

	_, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodPayMaya, model.OrderLine{ProductID: p.ID, Quantity: 1}))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnavailable))

	require.Len(t, f.store.orders, 1)
	for _, o := range f.store.orders {
		assert.Equal(t, model.OrderStatusPending, o.Status)
		assert.Equal(t, model.PaymentStatusFailed, o.PaymentStatus)
	}
}

func TestCreateOrder_PayBeforeRecordPersistsNothing(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.PayBeforeRecord, p)

	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Nil(t, res.OrderID)
	assert.Equal(t, "pi_1", res.IntentID)
	assert.Empty(t, f.store.orders)
	assert.Equal(t, 10, f.store.items[p.ID].Stock)
}

func TestConfirmOrder_RecordsFromDraft(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.PayBeforeRecord, p)
	f.gateway.paid = 40000

	res, err := f.svc.ConfirmOrder(context.Background(), f.owner, &model.ConfirmOrderRequest{
		PaymentIntentID: "pi_9",
		Draft:           draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: 4}),
	})
	require.NoError(t, err)

	order := f.store.orders[*res.OrderID]
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, 6, f.store.items[p.ID].Stock)

	again, err := f.svc.ConfirmOrder(context.Background(), f.owner, &model.ConfirmOrderRequest{PaymentIntentID: "pi_9"})
	require.NoError(t, err)
	assert.Equal(t, *res.OrderID, *again.OrderID)
	assert.Len(t, f.store.orders, 1)
	assert.Equal(t, 6, f.store.items[p.ID].Stock)
}

func TestConfirmOrder_RequiresSucceededIntent(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.PayBeforeRecord, p)
	f.gateway.status = paymongo.StatusAwaitingNextAction

	_, err := f.svc.ConfirmOrder(context.Background(), f.owner, &model.ConfirmOrderRequest{
		PaymentIntentID: "pi_9",
		Draft:           draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: 1}),
	})
	assert.ErrorIs(t, err, ErrPaymentIncomplete)
	assert.Empty(t, f.store.orders)
}

func placePaid(t *testing.T, f *fixture, p *model.InventoryItem, qty int) uuid.UUID {
	t.Helper()
	f.gateway.paid = centavos(p.Price * float64(qty))
	res, err := f.svc.ConfirmOrder(context.Background(), f.owner, &model.ConfirmOrderRequest{
		PaymentIntentID: "pi_paid",
		Draft:           draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: qty}),
	})
	require.NoError(t, err)
	return *res.OrderID
}

func TestApproveCancel_RefundsThenRestocks(t *testing.T) {
	p := product("Vitamins", 10, 120.25)
	f := newFixture(t, config.RecordBeforePay, p)
	id := placePaid(t, f, p, 2)

	order, err := f.svc.ApproveCancel(context.Background(), &model.ApproveCancelRequest{OrderID: id, Refund: true})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, order.Status)
	assert.Equal(t, model.RefundStatusCompleted, order.RefundStatus)
	assert.Equal(t, []int64{24050}, f.gateway.refunds)
	assert.Equal(t, 10, f.store.items[p.ID].Stock)

	_, err = f.svc.ApproveCancel(context.Background(), &model.ApproveCancelRequest{OrderID: id, Refund: true})
	assert.ErrorIs(t, err, ErrNotCancellable)
	assert.Len(t, f.gateway.refunds, 1)
}

func TestApproveCancel_RefundFailureLeavesOrder(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.RecordBeforePay, p)
	id := placePaid(t, f, p, 2)
	f.gateway.refundErr = errors.New("declined")

	_, err := f.svc.ApproveCancel(context.Background(), &model.ApproveCancelRequest{OrderID: id, Refund: true})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnavailable))

	order := f.store.orders[id]
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.RefundStatusNone, order.RefundStatus)
	assert.Equal(t, 8, f.store.items[p.ID].Stock)
}

func TestApproveCancel_CODSkipsRefund(t *testing.T) {
	p := product("Dog Shampoo", 5, 250)
	f := newFixture(t, config.RecordBeforePay, p)
	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodCOD, model.OrderLine{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	order, err := f.svc.ApproveCancel(context.Background(), &model.ApproveCancelRequest{OrderID: *res.OrderID, Refund: true})
	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusNone, order.RefundStatus)
	assert.Empty(t, f.gateway.refunds)
	assert.Equal(t, 5, f.store.items[p.ID].Stock)
}

func TestRequestCancel_ShippedRejected(t *testing.T) {
	p := product("Dog Shampoo", 5, 250)
	f := newFixture(t, config.RecordBeforePay, p)
	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodCOD, model.OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), *res.OrderID, model.OrderStatusShipped)
	require.NoError(t, err)

	err = f.svc.RequestCancel(context.Background(), f.owner, *res.OrderID, "changed my mind")
	assert.ErrorIs(t, err, ErrNotCancellable)
	err = f.svc.Cancel(context.Background(), f.owner, *res.OrderID)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestRequestCancel_OwnerOnly(t *testing.T) {
	p := product("Dog Shampoo", 5, 250)
	f := newFixture(t, config.RecordBeforePay, p)
	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodCOD, model.OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	stranger := model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	assert.ErrorIs(t, f.svc.RequestCancel(context.Background(), stranger, *res.OrderID, ""), ErrNotOwner)

	require.NoError(t, f.svc.RequestCancel(context.Background(), f.owner, *res.OrderID, "wrong size"))
	assert.True(t, f.store.orders[*res.OrderID].CancelRequested)
}

func TestConfirmOrder_RejectsUnderpaidDraft(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.PayBeforeRecord, p)
	f.gateway.paid = 10000

	_, err := f.svc.ConfirmOrder(context.Background(), f.owner, &model.ConfirmOrderRequest{
		PaymentIntentID: "pi_9",
		Draft:           draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: 10}),
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Empty(t, f.store.orders)
	assert.Equal(t, 10, f.store.items[p.ID].Stock)
	assert.Empty(t, f.store.movements)
}

func TestConfirmOrder_RejectsAmountMismatchOnRecordedOrder(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.RecordBeforePay, p)
	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	f.gateway.paid = 5000

	_, err = f.svc.ConfirmOrder(context.Background(), f.owner, &model.ConfirmOrderRequest{PaymentIntentID: res.IntentID})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, model.PaymentStatusAwaitingPayment, f.store.orders[*res.OrderID].PaymentStatus)

	f.gateway.paid = 20000
	_, err = f.svc.ConfirmOrder(context.Background(), f.owner, &model.ConfirmOrderRequest{PaymentIntentID: res.IntentID})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, f.store.orders[*res.OrderID].PaymentStatus)
}

func TestConfirmOrder_RefundsPaymentForCancelledOrder(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.RecordBeforePay, p)
	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	id := *res.OrderID

	f.gateway.status = paymongo.StatusAwaitingNextAction
	require.NoError(t, f.svc.Cancel(context.Background(), f.owner, id))
	assert.Equal(t, 10, f.store.items[p.ID].Stock)

	f.gateway.status = paymongo.StatusSucceeded
	f.gateway.paid = 20000
	_, err = f.svc.ConfirmOrder(context.Background(), f.owner, &model.ConfirmOrderRequest{PaymentIntentID: res.IntentID})
	assert.ErrorIs(t, err, ErrOrderClosed)

	order := f.store.orders[id]
	assert.Equal(t, model.OrderStatusCancelled, order.Status)
	assert.Equal(t, model.RefundStatusCompleted, order.RefundStatus)
	assert.Equal(t, []int64{20000}, f.gateway.refunds)
	assert.Equal(t, 10, f.store.items[p.ID].Stock)

	_, err = f.svc.ConfirmOrder(context.Background(), f.owner, &model.ConfirmOrderRequest{PaymentIntentID: res.IntentID})
	require.NoError(t, err)
	assert.Len(t, f.gateway.refunds, 1)
}

func TestCancel_FailedPaymentReleasesStock(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.RecordBeforePay, p)
	f.gateway.intentErr = errors.New("provider down")

	_, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: 3}))
	require.Error(t, err)
	require.Len(t, f.store.orders, 1)
	assert.Equal(t, 7, f.store.items[p.ID].Stock)

	for id := range f.store.orders {
		require.NoError(t, f.svc.Cancel(context.Background(), f.owner, id))
		assert.Equal(t, model.OrderStatusCancelled, f.store.orders[id].Status)
	}
	assert.Equal(t, 10, f.store.items[p.ID].Stock)
}

func TestCancel_AwaitingPaymentAlreadyCaptured(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.RecordBeforePay, p)
	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodGCash, model.OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Cancel(context.Background(), f.owner, *res.OrderID), ErrPaidOrder)
	assert.Equal(t, model.OrderStatusPending, f.store.orders[*res.OrderID].Status)
	assert.Equal(t, 9, f.store.items[p.ID].Stock)
}

func TestCancel_PaidOrderNeedsRequest(t *testing.T) {
	p := product("Vitamins", 10, 100)
	f := newFixture(t, config.RecordBeforePay, p)
	id := placePaid(t, f, p, 1)

	assert.ErrorIs(t, f.svc.Cancel(context.Background(), f.owner, id), ErrPaidOrder)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	p := product("Dog Shampoo", 5, 250)
	f := newFixture(t, config.RecordBeforePay, p)
	res, err := f.svc.CreateOrder(context.Background(), f.owner, draft(model.PaymentMethodCOD, model.OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	id := *res.OrderID

	_, err = f.svc.UpdateStatus(context.Background(), id, model.OrderStatusDelivered)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	_, err = f.svc.UpdateStatus(context.Background(), id, model.OrderStatusShipped)
	require.NoError(t, err)
	order, err := f.svc.UpdateStatus(context.Background(), id, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, order.Status)

	_, err = f.svc.UpdateStatus(context.Background(), id, model.OrderStatusCancelled)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}
