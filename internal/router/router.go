package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/handler/prometheus"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/pkg/logger"
)

const (
	APIPrefix = "/api/v1"
	wsPath    = APIPrefix + "/ws"
)

type Config struct {
	Mode           string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RateLimit      bool
	RateLimitRPS   float64
	RateBurst      int
	CORSConfig     middleware.CORSConfig
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	metrics *prometheus.Handler
	routes  []handler.Routes
}

// NewRouter builds the engine and its global middleware chain. metrics may
// be nil when prometheus is disabled.
func NewRouter(config Config, log *logger.Logger, auth *middleware.AuthMiddleware, metrics *prometheus.Handler, routes ...handler.Routes) (*Router, error) {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	engine := gin.New()
	r := &Router{
		engine:  engine,
		auth:    auth,
		metrics: metrics,
		routes:  routes,
	}

	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}

	timeout := middleware.DefaultTimeoutConfig()
	if config.RequestTimeout > 0 {
		timeout.Duration = config.RequestTimeout
	}
	// Websocket sessions outlive any request deadline.
	timeout.SkipPaths = append(timeout.SkipPaths, wsPath)

	sizes := middleware.DefaultSizeLimitConfig()
	if config.MaxBodyBytes > 0 {
		sizes.MaxBodySize = config.MaxBodyBytes
	}

	engine.Use(
		middleware.Timeout(timeout),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.SizeLimit(sizes),
	)

	if config.RateLimit {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(config.RateLimitRPS),
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return r, nil
}

func (r *Router) Setup() {
	api := r.engine.Group(APIPrefix)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	for _, h := range r.routes {
		h.RegisterRoutes(api, protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
