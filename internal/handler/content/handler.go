package content

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Content interface {
	ActiveAnnouncements(ctx context.Context) ([]*model.Announcement, error)
	AllAnnouncements(ctx context.Context) ([]*model.Announcement, error)
	CreateAnnouncement(ctx context.Context, actor model.Principal, in *model.AnnouncementInput) (*model.Announcement, error)
	UpdateAnnouncement(ctx context.Context, actor model.Principal, id uuid.UUID, in *model.AnnouncementInput) (*model.Announcement, error)
	DeleteAnnouncement(ctx context.Context, actor model.Principal, id uuid.UUID) error
	ListFeatures(ctx context.Context) ([]*model.Feature, error)
	CreateFeature(ctx context.Context, actor model.Principal, in *model.FeatureInput) (*model.Feature, error)
	UpdateFeature(ctx context.Context, actor model.Principal, id uuid.UUID, in *model.FeatureInput) (*model.Feature, error)
	DeleteFeature(ctx context.Context, actor model.Principal, id uuid.UUID) error
}

type Handler struct {
	content Content
}

func NewHandler(content Content) *Handler {
	return &Handler{content: content}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/announcements", h.ActiveAnnouncements)
	public.GET("/features", h.ListFeatures)

	staff := protected.Group("", middleware.RequireStaff())
	{
		staff.GET("/announcements/all", h.AllAnnouncements)
		staff.POST("/announcements", h.CreateAnnouncement)
		staff.PUT("/announcements/:id", h.UpdateAnnouncement)
		staff.DELETE("/announcements/:id", h.DeleteAnnouncement)

		staff.POST("/features", h.CreateFeature)
		staff.PUT("/features/:id", h.UpdateFeature)
		staff.DELETE("/features/:id", h.DeleteFeature)
	}
}

func (h *Handler) ActiveAnnouncements(c *gin.Context) {
	list, err := h.content.ActiveAnnouncements(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) AllAnnouncements(c *gin.Context) {
	list, err := h.content.AllAnnouncements(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) CreateAnnouncement(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var in model.AnnouncementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	a, err := h.content.CreateAnnouncement(c.Request.Context(), p, &in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, a)
}

func (h *Handler) UpdateAnnouncement(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var in model.AnnouncementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	a, err := h.content.UpdateAnnouncement(c.Request.Context(), p, id, &in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, a)
}

func (h *Handler) DeleteAnnouncement(c *gin.Context) {
	h.remove(c, h.content.DeleteAnnouncement, "announcement deleted")
}

func (h *Handler) ListFeatures(c *gin.Context) {
	list, err := h.content.ListFeatures(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) CreateFeature(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var in model.FeatureInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	f, err := h.content.CreateFeature(c.Request.Context(), p, &in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, f)
}

func (h *Handler) UpdateFeature(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var in model.FeatureInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	f, err := h.content.UpdateFeature(c.Request.Context(), p, id, &in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, f)
}

func (h *Handler) DeleteFeature(c *gin.Context) {
	h.remove(c, h.content.DeleteFeature, "feature deleted")
}

func (h *Handler) remove(c *gin.Context, del func(context.Context, model.Principal, uuid.UUID) error, message string) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := del(c.Request.Context(), p, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, message)
}
