package medical

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

type Records interface {
	CreateRecord(ctx context.Context, in *model.PetRecordInput, photo *model.Photo) (*model.PetRecord, error)
	UpdateRecord(ctx context.Context, id uuid.UUID, in *model.PetRecordInput, photo *model.Photo) (*model.PetRecord, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*model.PetRecord, error)
	ListRecords(ctx context.Context) ([]*model.PetRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.PetRecord, error)
	AddVisit(ctx context.Context, recordID uuid.UUID, in *model.VisitInput) (*model.Visit, error)
	UpdateVisit(ctx context.Context, recordID, visitID uuid.UUID, in *model.VisitInput) (*model.Visit, error)
	ListVisits(ctx context.Context, recordID uuid.UUID) ([]*model.Visit, error)
}

type Handler struct {
	records Records
}

func NewHandler(records Records) *Handler {
	return &Handler{records: records}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/medical/records")
	{
		g.GET("/owner/:uid", h.ListByOwner)
		g.GET("/:id", h.GetRecord)
		g.GET("/:id/visits", h.ListVisits)
	}

	staff := g.Group("", middleware.RequireStaff())
	{
		staff.GET("", h.ListRecords)
		staff.POST("", h.CreateRecord)
		staff.PUT("/:id", h.UpdateRecord)
		staff.POST("/:id/visits", h.AddVisit)
		staff.PUT("/:id/visits/:visitId", h.UpdateVisit)
	}
}

func (h *Handler) CreateRecord(c *gin.Context) {
	var in model.PetRecordInput
	if err := c.ShouldBind(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	photo, ok := handler.FormFile(c, "photo")
	if !ok {
		return
	}

	rec, err := h.records.CreateRecord(c.Request.Context(), &in, photo)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, rec)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var in model.PetRecordInput
	if err := c.ShouldBind(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	photo, ok := handler.FormFile(c, "photo")
	if !ok {
		return
	}

	rec, err := h.records.UpdateRecord(c.Request.Context(), id, &in, photo)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rec)
}

func (h *Handler) GetRecord(c *gin.Context) {
	rec, ok := h.visibleRecord(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, rec)
}

func (h *Handler) ListRecords(c *gin.Context) {
	list, err := h.records.ListRecords(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) ListByOwner(c *gin.Context) {
	ownerID, ok := handler.SelfOrStaff(c, "uid")
	if !ok {
		return
	}
	list, err := h.records.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if list == nil {
		list = []*model.PetRecord{}
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) AddVisit(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var in model.VisitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	visit, err := h.records.AddVisit(c.Request.Context(), id, &in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, visit)
}

func (h *Handler) UpdateVisit(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	visitID, ok := handler.ParamUUID(c, "visitId")
	if !ok {
		return
	}
	var in model.VisitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	visit, err := h.records.UpdateVisit(c.Request.Context(), id, visitID, &in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, visit)
}

func (h *Handler) ListVisits(c *gin.Context) {
	rec, ok := h.visibleRecord(c)
	if !ok {
		return
	}
	visits, err := h.records.ListVisits(c.Request.Context(), rec.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if visits == nil {
		visits = []*model.Visit{}
	}
	httputil.RespondWithSuccess(c, visits)
}

// visibleRecord loads the :id record when the caller is staff or its owner.
func (h *Handler) visibleRecord(c *gin.Context) (*model.PetRecord, bool) {
	p, ok := handler.Caller(c)
	if !ok {
		return nil, false
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return nil, false
	}
	rec, err := h.records.GetRecord(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, false
	}
	if !p.IsStaff() && (rec.OwnerUserID == nil || *rec.OwnerUserID != p.UserID) {
		httputil.Abort(c, http.StatusForbidden, "permission denied")
		return nil, false
	}
	return rec, true
}
