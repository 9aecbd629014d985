// Package middleware contains the HTTP middleware: authentication, role
// gating and request logging glue.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
	"inss_crm_go/services"
)

// Context keys set by Auth for downstream handlers.
const (
	ContextUsuarioID    = "usuario_id"
	ContextEscritorioID = "escritorio_id"
	ContextRole         = "role"
	ContextEmail        = "email"
)

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

// Auth validates the Authorization header and stamps the caller's identity
// and tenant on the request context. Every protected route goes through
// here; the escritorio_id it sets is the only tenant the request can touch.
func Auth(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return apperrors.Unauthorized("token de acesso ausente")
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				return apperrors.Unauthorized("formato de autorização inválido")
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				return apperrors.Unauthorized("token inválido ou expirado")
			}

			c.Set(ContextUsuarioID, claims.UsuarioID)
			c.Set(ContextEscritorioID, claims.EscritorioID)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextEmail, claims.Email)
			return next(c)
		}
	}
}

// RequireRole allows only callers holding one of the given roles. Admins
// pass every gate.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	permitidas := make(map[string]bool, len(roles))
	for _, role := range roles {
		permitidas[role] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role == models.RoleAdmin || permitidas[role] {
				return next(c)
			}
			return apperrors.Forbidden("acesso negado para o perfil atual")
		}
	}
}

// UsuarioID returns the authenticated user id from the request context.
func UsuarioID(c echo.Context) string {
	id, _ := c.Get(ContextUsuarioID).(string)
	return id
}

// EscritorioID returns the authenticated tenant id from the request context.
func EscritorioID(c echo.Context) string {
	id, _ := c.Get(ContextEscritorioID).(string)
	return id
}
