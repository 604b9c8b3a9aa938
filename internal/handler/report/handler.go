package report

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Reporter interface {
	Monthly(ctx context.Context, month, year int) (*model.MonthlyReport, error)
	UserDashboard(ctx context.Context, userID uuid.UUID) (*model.UserDashboard, error)
	AdminDashboard(ctx context.Context, userID uuid.UUID) (*model.AdminDashboard, error)
}

type monthlyQuery struct {
	Month int `form:"month" binding:"required,min=1,max=12"`
	Year  int `form:"year" binding:"required,min=2000,max=9999"`
}

type Handler struct {
	reports Reporter
}

func NewHandler(reports Reporter) *Handler {
	return &Handler{reports: reports}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/reports")
	{
		g.GET("/dashboard/user", h.UserDashboard)
		g.GET("/dashboard/admin", middleware.RequireStaff(), h.AdminDashboard)
		g.GET("/monthly", middleware.RequireRoles(model.RoleAdmin), h.Monthly)
	}
}

func (h *Handler) Monthly(c *gin.Context) {
	var q monthlyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	report, err := h.reports.Monthly(c.Request.Context(), q.Month, q.Year)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, report)
}

func (h *Handler) UserDashboard(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	d, err := h.reports.UserDashboard(c.Request.Context(), p.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) AdminDashboard(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	d, err := h.reports.AdminDashboard(c.Request.Context(), p.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}
