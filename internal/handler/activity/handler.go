package activity

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Activity interface {
	Log(ctx context.Context, actor model.Principal, action string) (*model.ActivityLog, error)
	List(ctx context.Context, userID *uuid.UUID, limit int) ([]*model.ActivityLog, error)
}

type Handler struct {
	activity Activity
}

func NewHandler(activity Activity) *Handler {
	return &Handler{activity: activity}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/logs")
	{
		g.POST("", middleware.RequireStaff(), h.Log)
		g.GET("", middleware.RequireRoles(model.RoleAdmin), h.List)
	}
}

// Log records an action performed by the calling staff member.
func (h *Handler) Log(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var in model.ActivityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	entry, err := h.activity.Log(c.Request.Context(), p, in.Action)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, entry)
}

// List accepts optional user_id and limit query parameters.
func (h *Handler) List(c *gin.Context) {
	var userID *uuid.UUID
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.Abort(c, http.StatusBadRequest, "invalid user_id")
			return
		}
		userID = &id
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.Abort(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	list, err := h.activity.List(c.Request.Context(), userID, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}
