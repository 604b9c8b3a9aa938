package chat

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
}

type Handler struct {
	assistant Assistant
	limit     gin.HandlerFunc
}

// NewHandler mounts the assistant behind limit, which may be nil.
func NewHandler(assistant Assistant, limit gin.HandlerFunc) *Handler {
	return &Handler{assistant: assistant, limit: limit}
}

func (h *Handler) RegisterRoutes(public, _ *gin.RouterGroup) {
	handlers := []gin.HandlerFunc{h.Ask}
	if h.limit != nil {
		handlers = append([]gin.HandlerFunc{h.limit}, handlers...)
	}
	public.POST("/chat", handlers...)
}

func (h *Handler) Ask(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	reply, err := h.assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, model.ChatResponse{Reply: reply})
}
