package consultation

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Consultations interface {
	Submit(ctx context.Context, p model.Principal, req *model.SubmitConsultationRequest, proof *model.Photo) (*model.Consultation, error)
	List(ctx context.Context, p model.Principal) ([]*model.Consultation, error)
	Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Consultation, error)
	SetStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Consultation, error)
	SaveMessage(ctx context.Context, p model.Principal, id uuid.UUID, text string) (*model.ConsultMessage, error)
	ListMessages(ctx context.Context, p model.Principal, id uuid.UUID) ([]*model.ConsultMessage, error)
}

type Handler struct {
	consultations Consultations
}

func NewHandler(consultations Consultations) *Handler {
	return &Handler{consultations: consultations}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/consultations")
	{
		g.POST("/submit", h.Submit)
		g.POST("/messages", h.SaveMessage)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.GET("/:id/messages", h.ListMessages)
		g.PUT("/:id/status", middleware.RequireStaff(), h.UpdateStatus)
	}
}

// Submit takes the multipart booking form plus the "proof" payment screenshot.
func (h *Handler) Submit(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.SubmitConsultationRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	proof, ok := handler.FormFile(c, "proof")
	if !ok {
		return
	}

	consultation, err := h.consultations.Submit(c.Request.Context(), p, &req, proof)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, consultation)
}

func (h *Handler) List(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	list, err := h.consultations.List(c.Request.Context(), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
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
	consultation, err := h.consultations.Get(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, consultation)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	consultation, err := h.consultations.SetStatus(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, consultation)
}

func (h *Handler) SaveMessage(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.SaveMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	msg, err := h.consultations.SaveMessage(c.Request.Context(), p, req.ConsultationID, req.Text)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, msg)
}

func (h *Handler) ListMessages(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.consultations.ListMessages(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if msgs == nil {
		msgs = []*model.ConsultMessage{}
	}
	httputil.RespondWithSuccess(c, msgs)
}
