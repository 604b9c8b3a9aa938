package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/model"
)

// Server upgrades an authenticated request to a websocket session.
type Server interface {
	Serve(w http.ResponseWriter, r *http.Request, p model.Principal) error
}

type Handler struct {
	server       Server
	authenticate gin.HandlerFunc
}

// NewHandler expects authenticate to read the token from the query string,
// since browsers cannot set headers on a websocket handshake.
func NewHandler(server Server, authenticate gin.HandlerFunc) *Handler {
	return &Handler{server: server, authenticate: authenticate}
}

func (h *Handler) RegisterRoutes(public, _ *gin.RouterGroup) {
	public.GET("/ws", h.authenticate, h.Connect)
}

func (h *Handler) Connect(c *gin.Context) {
	p, ok := handler.Caller(c)
	if !ok {
		return
	}
	// The upgrader has already written the handshake response on failure.
	if err := h.server.Serve(c.Writer, c.Request, p); err != nil {
		_ = c.Error(err)
	}
}
