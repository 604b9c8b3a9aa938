package pet

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Pets interface {
	Create(ctx context.Context, p model.Principal, in *model.PetInput, photo *model.Photo) (*model.Pet, error)
	Update(ctx context.Context, p model.Principal, id uuid.UUID, in *model.PetInput, photo *model.Photo) (*model.Pet, error)
	Delete(ctx context.Context, p model.Principal, id uuid.UUID) error
	Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Pet, error)
	List(ctx context.Context) ([]*model.Pet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error)
	ListOwners(ctx context.Context) ([]*model.PetOwner, error)
}

type Handler struct {
	pets Pets
}

func NewHandler(pets Pets) *Handler {
	return &Handler{pets: pets}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/pets")
	{
		g.POST("", h.Create)
		g.GET("/owner/:uid", h.ListByOwner)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	staff := g.Group("", middleware.RequireStaff())
	{
		staff.GET("", h.List)
		staff.GET("/owners", h.ListOwners)
	}
}

func (h *Handler) Create(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var in model.PetInput
	if err := c.ShouldBind(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	photo, ok := handler.FormFile(c, "photo")
	if !ok {
		return
	}

	pet, err := h.pets.Create(c.Request.Context(), p, &in, photo)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, pet)
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
	var in model.PetInput
	if err := c.ShouldBind(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	photo, ok := handler.FormFile(c, "photo")
	if !ok {
		return
	}

	pet, err := h.pets.Update(c.Request.Context(), p, id, &in, photo)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pet)
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
	if err := h.pets.Delete(c.Request.Context(), p, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "pet deleted")
}

func (h *Handler) Get(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	pet, err := h.pets.Get(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pet)
}

func (h *Handler) ListByOwner(c *gin.Context) {
	ownerID, ok := handler.SelfOrStaff(c, "uid")
	if !ok {
		return
	}
	pets, err := h.pets.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pets)
}

func (h *Handler) List(c *gin.Context) {
	pets, err := h.pets.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pets)
}

func (h *Handler) ListOwners(c *gin.Context) {
	owners, err := h.pets.ListOwners(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, owners)
}
