package handlers

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inss_crm_go/middleware"
	"inss_crm_go/models"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.Escritorio{},
		&models.Usuario{},
		&models.Cliente{},
		&models.Processo{},
		&models.Prazo{},
		&models.Andamento{},
		&models.Documento{},
		&models.ContratoHonorario{},
		&models.ParcelaHonorario{},
		&models.Notificacao{},
	))
	return database
}

// setupEcho builds a request context and response recorder for calling a
// handler directly.
func setupEcho(method, target string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return e, c, rec
}

// autenticar stamps a fake session on the context, as the auth middleware
// would.
func autenticar(c echo.Context, escritorioID, usuarioID, role string) {
	c.Set(middleware.ContextEscritorioID, escritorioID)
	c.Set(middleware.ContextUsuarioID, usuarioID)
	c.Set(middleware.ContextRole, role)
}

func criarEscritorioTeste(t *testing.T, database *gorm.DB, nome string) *models.Escritorio {
	t.Helper()
	escritorio := &models.Escritorio{
		Nome:  nome,
		Email: nome + "@adv.br",
	}
	require.NoError(t, database.Create(escritorio).Error)
	return escritorio
}

func criarUsuarioTeste(t *testing.T, database *gorm.DB, escritorioID, email string) *models.Usuario {
	t.Helper()
	usuario := &models.Usuario{
		Email:          email,
		HashedPassword: "x",
		Nome:           "Usuário Teste",
		Role:           models.RoleAdvogado,
		IsActive:       true,
	}
	usuario.EscritorioID = escritorioID
	require.NoError(t, database.Create(usuario).Error)
	return usuario
}
