package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
	"inss_crm_go/services"
)

type stubValidator struct {
	claims *services.Claims
	err    error
}

func (s stubValidator) ValidateToken(token string) (*services.Claims, error) {
	return s.claims, s.err
}

func executar(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, EscritorioID(c))
	})
	return rec, handler(c)
}

func TestAuthMiddleware(t *testing.T) {
	claims := &services.Claims{
		UsuarioID:    "u1",
		EscritorioID: "e1",
		Email:        "adv@prev.adv.br",
		Role:         models.RoleAdvogado,
	}

	t.Run("token válido popula o contexto", func(t *testing.T) {
		rec, err := executar(t, Auth(stubValidator{claims: claims}), "Bearer abc")
		require.NoError(t, err)
		assert.Equal(t, "e1", rec.Body.String())
	})

	t.Run("sem cabeçalho", func(t *testing.T) {
		_, err := executar(t, Auth(stubValidator{claims: claims}), "")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("sem prefixo Bearer", func(t *testing.T) {
		_, err := executar(t, Auth(stubValidator{claims: claims}), "abc")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("token rejeitado", func(t *testing.T) {
		_, err := executar(t, Auth(stubValidator{err: errors.New("expirado")}), "Bearer abc")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestRequireRole(t *testing.T) {
	executarComRole := func(role string, mw echo.MiddlewareFunc) error {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextRole, role)
		return mw(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)
	}

	t.Run("perfil permitido passa", func(t *testing.T) {
		assert.NoError(t, executarComRole(models.RoleAdvogado, RequireRole(models.RoleAdvogado)))
	})

	t.Run("admin passa em qualquer gate", func(t *testing.T) {
		assert.NoError(t, executarComRole(models.RoleAdmin, RequireRole(models.RoleAdvogado)))
	})

	t.Run("perfil fora da lista é barrado", func(t *testing.T) {
		err := executarComRole(models.RoleEstagiario, RequireRole(models.RoleAdvogado))
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}
