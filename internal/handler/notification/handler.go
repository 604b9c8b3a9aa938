package notification

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Notifications interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, title, kind, details string) error
	NotifyAdmins(ctx context.Context, title, kind, details string, productID *uuid.UUID) (*model.AdminNotification, error)
	ListUser(ctx context.Context, userID uuid.UUID) ([]*model.UserNotification, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListAdmin(ctx context.Context, userID uuid.UUID) ([]*model.AdminNotification, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Clear(ctx context.Context, notificationID, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type Handler struct {
	notifications Notifications
}

func NewHandler(notifications Notifications) *Handler {
	return &Handler{notifications: notifications}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/notifications")
	g.GET("/user/:uid", h.ListUser)
	g.DELETE("/:id", h.DeleteUser)

	staff := g.Group("", middleware.RequireStaff())
	{
		staff.POST("", h.CreateUser)
		staff.GET("/admin", h.ListAdmin)
		staff.GET("/admin/unread-count", h.UnreadCount)
		staff.POST("/admin", h.CreateAdmin)
		staff.POST("/admin/read", h.MarkRead)
		staff.POST("/admin/read-all", h.MarkAllRead)
		staff.POST("/admin/clear", h.Clear)
	}
}

func (h *Handler) ListUser(c *gin.Context) {
	userID, ok := handler.SelfOrStaff(c, "uid")
	if !ok {
		return
	}
	list, err := h.notifications.ListUser(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.DeleteUser(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	if err := h.notifications.NotifyUser(c.Request.Context(), req.UserID, req.Title, req.Type, req.Details); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, req)
}

func (h *Handler) CreateAdmin(c *gin.Context) {
	var req model.CreateAdminNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	n, err := h.notifications.NotifyAdmins(c.Request.Context(), req.Title, req.Type, req.Details, nil)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, n)
}

func (h *Handler) ListAdmin(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	list, err := h.notifications.ListAdmin(c.Request.Context(), p.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	n, err := h.notifications.UnreadCount(c.Request.Context(), p.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"count": n})
}

func (h *Handler) MarkRead(c *gin.Context) {
	h.withNotification(c, h.notifications.MarkRead)
}

func (h *Handler) Clear(c *gin.Context) {
	h.withNotification(c, h.notifications.Clear)
}

func (h *Handler) withNotification(c *gin.Context, fn func(ctx context.Context, notificationID, userID uuid.UUID) error) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.AdminNotificationIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	if err := fn(c.Request.Context(), req.NotificationID, p.UserID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"notification_id": req.NotificationID})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkAllRead(c.Request.Context(), p.UserID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "All notifications marked as read.")
}
