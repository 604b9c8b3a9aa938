package appointment

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Scheduler interface {
	Book(ctx context.Context, p model.Principal, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	ListBookedTimes(ctx context.Context, date string) ([]string, error)
	ListFullyBookedDates(ctx context.Context) ([]string, error)
	SetStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error)
	SetCompletion(ctx context.Context, id uuid.UUID, done bool) error
	ListByRequester(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error)
	ListByDate(ctx context.Context, date string) ([]*model.Appointment, error)
	ListFutureFrom(ctx context.Context, date string) ([]*model.Appointment, error)
	ListRecent(ctx context.Context) ([]*model.Appointment, error)
}

type Handler struct {
	service Scheduler
}

func NewHandler(service Scheduler) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	appointments := protected.Group("/appointments")
	staff := middleware.RequireStaff()
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("/fully-booked", h.FullyBookedDates)
		appointments.GET("/user/:uid", h.ListByUser)
		appointments.GET("/:date", h.BookedTimes)

		appointments.GET("/recent", staff, h.ListRecent)
		appointments.GET("/from/:date", staff, h.ListFrom)
		appointments.GET("/vets/:date", staff, h.ListByDate)
		appointments.PUT("/:id/status", staff, h.UpdateStatus)
		appointments.PUT("/:id/completion", staff, h.UpdateCompletion)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	appointment, err := h.service.Book(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appointment)
}

// BookedTimes lists the HH:MM slots already taken on a date.
func (h *Handler) BookedTimes(c *gin.Context) {
	times, err := h.service.ListBookedTimes(c.Request.Context(), c.Param("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nonNil(times))
}

func (h *Handler) FullyBookedDates(c *gin.Context) {
	dates, err := h.service.ListFullyBookedDates(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nonNil(dates))
}

func (h *Handler) ListByUser(c *gin.Context) {
	userID, ok := handler.SelfOrStaff(c, "uid")
	if !ok {
		return
	}

	appointments, err := h.service.ListByRequester(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) ListByDate(c *gin.Context) {
	appointments, err := h.service.ListByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) ListFrom(c *gin.Context) {
	appointments, err := h.service.ListFutureFrom(c.Request.Context(), c.Param("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) ListRecent(c *gin.Context) {
	appointments, err := h.service.ListRecent(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
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

	appointment, err := h.service.SetStatus(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) UpdateCompletion(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.service.SetCompletion(c.Request.Context(), id, *req.Done); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "done": *req.Done})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
