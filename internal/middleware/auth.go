package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/riveravet/clinic-api/internal/model"
	jwtauth "github.com/riveravet/clinic-api/pkg/auth"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

const ContextPrincipal = "principal"

type AuthMiddleware struct {
	jwt jwtauth.JWTService
}

func NewAuthMiddleware(jwt jwtauth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate verifies the bearer token and stores the caller's Principal in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.Abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.Abort(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		p, ok := m.principal(parts[1])
		if !ok {
			httputil.Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ContextPrincipal, p)
		c.Next()
	}
}

// AuthenticateQuery reads the token from the query string. Browsers cannot
// set headers on websocket upgrades.
func (m *AuthMiddleware) AuthenticateQuery(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := m.principal(c.Query(param))
		if !ok {
			httputil.Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(ContextPrincipal, p)
		c.Next()
	}
}

func (m *AuthMiddleware) principal(token string) (model.Principal, bool) {
	if token == "" {
		return model.Principal{}, false
	}
	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		return model.Principal{}, false
	}
	return model.Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, true
}

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			httputil.Abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		httputil.Abort(c, http.StatusForbidden, "permission denied")
	}
}

// RequireStaff admits vets and admins.
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(model.RoleVet, model.RoleAdmin)
}

// Principal returns the authenticated caller.
func Principal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}
