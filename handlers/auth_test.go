package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inss_crm_go/config"
	"inss_crm_go/services"
)

func novoAuthHandler(t *testing.T, dbName string) *AuthHandler {
	t.Helper()
	database := setupTestDB(t, dbName)
	auth := services.NewAuthService(database, "segredo-de-teste-com-32-caracteres!", 60)
	email := services.NewEmailService(&config.Config{EmailTestMode: true}, zap.NewNop())
	escritorios := services.NewEscritorioService(database, email)
	return NewAuthHandler(auth, escritorios)
}

func TestRegisterHandler(t *testing.T) {
	h := novoAuthHandler(t, "handler_register")

	body := `{
		"escritorio_nome": "Advocacia Prev",
		"admin_nome": "Maria Silva",
		"admin_email": "maria@prev.adv.br",
		"admin_password": "senha-muito-segura"
	}`
	_, c, rec := setupEcho(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestLoginHandler(t *testing.T) {
	h := novoAuthHandler(t, "handler_login")

	register := `{
		"escritorio_nome": "Advocacia Prev",
		"admin_nome": "Maria Silva",
		"admin_email": "maria@prev.adv.br",
		"admin_password": "senha-muito-segura"
	}`
	_, c, _ := setupEcho(http.MethodPost, "/api/v1/auth/register", strings.NewReader(register))
	require.NoError(t, h.Register(c))

	t.Run("credenciais válidas", func(t *testing.T) {
		body := `{"email": "maria@prev.adv.br", "password": "senha-muito-segura"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				Token string `json:"token"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Data.Token)
	})

	t.Run("senha errada", func(t *testing.T) {
		body := `{"email": "maria@prev.adv.br", "password": "errada"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "UNAUTHORIZED", resp.Code)
	})

	t.Run("email desconhecido", func(t *testing.T) {
		body := `{"email": "ninguem@prev.adv.br", "password": "qualquer"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
