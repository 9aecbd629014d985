package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
)

const testJWTSecret = "segredo-de-teste-com-tamanho-suficiente"

func TestRegisterEscritorioELogin(t *testing.T) {
	database := setupTestDB(t, "auth_register")
	service := NewAuthService(database, testJWTSecret, 60)
	ctx := context.Background()

	admin, err := service.RegisterEscritorio(ctx, RegisterEscritorioRequest{
		EscritorioNome: "Silva & Associados",
		AdminNome:      "Ana Silva",
		AdminEmail:     "Ana@Silva.adv.br",
		AdminPassword:  "senha-segura-123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "ana@silva.adv.br", admin.Email)
	assert.NotEmpty(t, admin.EscritorioID)
	// Senha nunca guardada em claro.
	assert.NotEqual(t, "senha-segura-123", admin.HashedPassword)

	resp, err := service.Login(ctx, LoginRequest{
		Email:    "ANA@silva.adv.br",
		Password: "senha-segura-123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, admin.ID, resp.Usuario.ID)

	claims, err := service.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UsuarioID)
	assert.Equal(t, admin.EscritorioID, claims.EscritorioID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginCredenciaisInvalidas(t *testing.T) {
	database := setupTestDB(t, "auth_login")
	service := NewAuthService(database, testJWTSecret, 60)
	ctx := context.Background()

	_, err := service.RegisterEscritorio(ctx, RegisterEscritorioRequest{
		EscritorioNome: "Escritório",
		AdminNome:      "Admin",
		AdminEmail:     "admin@login.adv.br",
		AdminPassword:  "senha-segura-123",
	})
	require.NoError(t, err)

	// Senha errada e email inexistente retornam o mesmo erro.
	_, err = service.Login(ctx, LoginRequest{Email: "admin@login.adv.br", Password: "errada"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = service.Login(ctx, LoginRequest{Email: "ninguem@login.adv.br", Password: "senha-segura-123"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRegisterValidacoes(t *testing.T) {
	database := setupTestDB(t, "auth_valida")
	service := NewAuthService(database, testJWTSecret, 60)
	ctx := context.Background()

	_, err := service.RegisterEscritorio(ctx, RegisterEscritorioRequest{
		EscritorioNome: "X",
		AdminNome:      "Y",
		AdminEmail:     "y@x.br",
		AdminPassword:  "curta",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.RegisterEscritorio(ctx, RegisterEscritorioRequest{
		EscritorioNome: "X",
		AdminNome:      "Y",
		AdminEmail:     "y@x.br",
		AdminPassword:  "senha-segura-123",
		CNPJ:           strPtr("11222333000199"),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestValidateTokenAdulterado(t *testing.T) {
	database := setupTestDB(t, "auth_token")
	service := NewAuthService(database, testJWTSecret, 60)
	outro := NewAuthService(database, "outro-segredo-igualmente-comprido!", 60)
	ctx := context.Background()

	admin, err := service.RegisterEscritorio(ctx, RegisterEscritorioRequest{
		EscritorioNome: "Escritório",
		AdminNome:      "Admin",
		AdminEmail:     "admin@token.adv.br",
		AdminPassword:  "senha-segura-123",
	})
	require.NoError(t, err)

	token, _, err := service.GenerateToken(admin)
	require.NoError(t, err)

	_, err = outro.ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = service.ValidateToken(token + "x")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	database := setupTestDB(t, "auth_senha")
	service := NewAuthService(database, testJWTSecret, 60)
	ctx := context.Background()

	admin, err := service.RegisterEscritorio(ctx, RegisterEscritorioRequest{
		EscritorioNome: "Escritório",
		AdminNome:      "Admin",
		AdminEmail:     "admin@senha.adv.br",
		AdminPassword:  "senha-antiga-123",
	})
	require.NoError(t, err)

	err = service.ChangePassword(ctx, admin.EscritorioID, admin.ID, "errada", "senha-nova-456")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, service.ChangePassword(ctx, admin.EscritorioID, admin.ID, "senha-antiga-123", "senha-nova-456"))

	_, err = service.Login(ctx, LoginRequest{Email: "admin@senha.adv.br", Password: "senha-nova-456"})
	assert.NoError(t, err)
	_, err = service.Login(ctx, LoginRequest{Email: "admin@senha.adv.br", Password: "senha-antiga-123"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLoginEscritorioSuspenso(t *testing.T) {
	database := setupTestDB(t, "auth_suspenso")
	service := NewAuthService(database, testJWTSecret, 60)
	escritorios := NewEscritorioService(database, nil)
	ctx := context.Background()

	admin, err := service.RegisterEscritorio(ctx, RegisterEscritorioRequest{
		EscritorioNome: "Escritório Suspenso",
		AdminNome:      "Admin",
		AdminEmail:     "admin@suspenso.adv.br",
		AdminPassword:  "senha-segura-123",
	})
	require.NoError(t, err)

	require.NoError(t, escritorios.SetAtivo(ctx, admin.EscritorioID, false))
	_, err = service.Login(ctx, LoginRequest{Email: "admin@suspenso.adv.br", Password: "senha-segura-123"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// Reativado, volta a entrar normalmente.
	require.NoError(t, escritorios.SetAtivo(ctx, admin.EscritorioID, true))
	_, err = service.Login(ctx, LoginRequest{Email: "admin@suspenso.adv.br", Password: "senha-segura-123"})
	assert.NoError(t, err)
}
