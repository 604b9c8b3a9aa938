package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/model"
	jwtauth "github.com/riveravet/clinic-api/pkg/auth"
	"github.com/riveravet/clinic-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtected(jwt jwtauth.JWTService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	auth := NewAuthMiddleware(jwt)
	handlers := append([]gin.HandlerFunc{auth.Authenticate()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := Principal(c)
		c.JSON(http.StatusOK, gin.H{"user": p.Username, "role": p.Role})
	})
	r.GET("/me", handlers...)
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_SetsPrincipal(t *testing.T) {
	jwt := jwtauth.NewJWTService("secret", "clinic-api", time.Hour)
	token, err := jwt.GenerateAccessToken(uuid.New(), "ana", model.RoleUser)
	require.NoError(t, err)

	w := get(newProtected(jwt), "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"ana"`)
}

func TestAuthenticate_Rejects(t *testing.T) {
	jwt := jwtauth.NewJWTService("secret", "clinic-api", time.Hour)
	r := newProtected(jwt)

	w := get(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)

	w = get(r, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	jwt := jwtauth.NewJWTService("secret", "clinic-api", time.Hour)
	r := newProtected(jwt, RequireRoles(model.RoleAdmin))

	owner, _ := jwt.GenerateAccessToken(uuid.New(), "ana", model.RoleUser)
	admin, _ := jwt.GenerateAccessToken(uuid.New(), "root", model.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, get(r, "/me", owner).Code)
	assert.Equal(t, http.StatusOK, get(r, "/me", admin).Code)
}

func TestAuthenticateQuery(t *testing.T) {
	jwt := jwtauth.NewJWTService("secret", "clinic-api", time.Hour)
	token, _ := jwt.GenerateAccessToken(uuid.New(), "vet", model.RoleVet)

	r := gin.New()
	r.GET("/ws", NewAuthMiddleware(jwt).AuthenticateQuery("token"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, get(r, "/ws?token="+token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/ws", "").Code)
}

func TestClientRateLimiter_PerClient(t *testing.T) {
	rl := NewClientRateLimiter(2)
	r := gin.New()
	r.GET("/chat", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(logger.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := get(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}

func TestSizeLimit_RejectsLargeJSON(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(SizeLimitConfig{MaxBodySize: 8, MaxUploadSize: 1024}))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":"too long"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCORS_EchoesOriginWithCredentials(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://riveravet.ph")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://riveravet.ph", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}
