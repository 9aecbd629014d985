package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

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

func criarClienteTeste(t *testing.T, database *gorm.DB, escritorioID, nome string) *models.Cliente {
	t.Helper()
	cliente := &models.Cliente{
		Nome:     nome,
		IsActive: true,
	}
	cliente.EscritorioID = escritorioID
	require.NoError(t, database.Create(cliente).Error)
	return cliente
}
