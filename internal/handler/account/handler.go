package account

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Accounts interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, actor model.Principal, in *model.AccountInput, photo *model.Photo) (*model.User, error)
	Update(ctx context.Context, actor model.Principal, id uuid.UUID, in *model.AccountInput, photo *model.Photo) (*model.User, error)
	Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error
	UpdateProfile(ctx context.Context, id uuid.UUID, in *model.ProfileInput, photo *model.Photo) (*model.User, error)
}

type Handler struct {
	accounts Accounts
}

func NewHandler(accounts Accounts) *Handler {
	return &Handler{accounts: accounts}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.GET("/profile", h.GetProfile)
	protected.PUT("/profile", h.UpdateProfile)
	protected.GET("/users/:uid", h.UserData)

	admin := protected.Group("/accounts", middleware.RequireRoles(model.RoleAdmin))
	{
		admin.GET("", h.List)
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) Create(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var in model.AccountInput
	if err := c.ShouldBind(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	photo, ok := handler.FormFile(c, "photo")
	if !ok {
		return
	}

	user, err := h.accounts.Create(c.Request.Context(), p, &in, photo)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}

func (h *Handler) Update(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var in model.AccountInput
	if err := c.ShouldBind(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	photo, ok := handler.FormFile(c, "photo")
	if !ok {
		return
	}

	user, err := h.accounts.Update(c.Request.Context(), p, id, &in, photo)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

func (h *Handler) Delete(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.Delete(c.Request.Context(), p, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "account deleted")
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	h.respondUser(c, p.UserID)
}

// UserData looks up one account for its owner or staff.
func (h *Handler) UserData(c *gin.Context) {
	id, ok := handler.SelfOrStaff(c, "uid")
	if !ok {
		return
	}
	h.respondUser(c, id)
}

func (h *Handler) respondUser(c *gin.Context, id uuid.UUID) {
	user, err := h.accounts.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var in model.ProfileInput
	if err := c.ShouldBind(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	photo, ok := handler.FormFile(c, "photo")
	if !ok {
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), p.UserID, &in, photo)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}
