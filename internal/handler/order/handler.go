package order

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Workflow interface {
	CreateOrder(ctx context.Context, p model.Principal, draft *model.OrderDraft) (*model.CreateOrderResult, error)
	ConfirmOrder(ctx context.Context, p model.Principal, req *model.ConfirmOrderRequest) (*model.CreateOrderResult, error)
	RequestCancel(ctx context.Context, p model.Principal, orderID uuid.UUID, reason string) error
	Cancel(ctx context.Context, p model.Principal, orderID uuid.UUID) error
	ApproveCancel(ctx context.Context, req *model.ApproveCancelRequest) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error)
	ListAll(ctx context.Context) ([]*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Order, error)
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]*model.Purchase, error)
}

type Handler struct {
	orders Workflow
}

func NewHandler(orders Workflow) *Handler {
	return &Handler{orders: orders}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/orders")
	{
		g.GET("/user/:userId", h.ListByUser)
		g.GET("/purchases/:userId", h.ListPurchases)
		g.POST("/payment_setorder", h.CreateEWalletOrder)
		g.POST("/create_cod_order", h.CreateCODOrder)
		g.POST("/confirm_order", h.ConfirmOrder)
		g.POST("/request_cancel", h.RequestCancel)
		g.POST("/cancel", h.Cancel)
	}

	admin := g.Group("", middleware.RequireRoles(model.RoleAdmin))
	{
		admin.GET("/fetch", h.ListAll)
		admin.POST("/approve_cancel", h.ApproveCancel)
		admin.PUT("/update_status/:id", h.UpdateStatus)
	}
}

func (h *Handler) CreateCODOrder(c *gin.Context) {
	h.create(c, func(method string) bool { return method == model.PaymentMethodCOD },
		"create_cod_order only accepts cash on delivery")
}

func (h *Handler) CreateEWalletOrder(c *gin.Context) {
	h.create(c, model.IsEWallet, "payment_setorder only accepts gcash or paymaya")
}

func (h *Handler) create(c *gin.Context, accepts func(string) bool, rejection string) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var draft model.OrderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	if !accepts(draft.PaymentMethod) {
		httputil.Abort(c, http.StatusBadRequest, rejection)
		return
	}

	result, err := h.orders.CreateOrder(c.Request.Context(), p, &draft)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}

// ConfirmOrder is called by the frontend after the wallet redirects back.
func (h *Handler) ConfirmOrder(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	result, err := h.orders.ConfirmOrder(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) RequestCancel(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.OrderIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.orders.RequestCancel(c.Request.Context(), p, req.OrderID, req.Reason); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Cancellation requested.")
}

func (h *Handler) Cancel(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.OrderIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.orders.Cancel(c.Request.Context(), p, req.OrderID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Order cancelled.")
}

func (h *Handler) ApproveCancel(c *gin.Context) {
	var req model.ApproveCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	order, err := h.orders.ApproveCancel(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, order)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, model.OrderStatus(req.Status))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, order)
}

func (h *Handler) ListAll(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, orders)
}

func (h *Handler) ListByUser(c *gin.Context) {
	userID, ok := handler.SelfOrStaff(c, "userId")
	if !ok {
		return
	}
	orders, err := h.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, orders)
}

func (h *Handler) ListPurchases(c *gin.Context) {
	userID, ok := handler.SelfOrStaff(c, "userId")
	if !ok {
		return
	}
	purchases, err := h.orders.ListPurchases(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, purchases)
}
