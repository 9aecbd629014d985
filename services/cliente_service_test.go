package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inss_crm_go/apperrors"
)

func TestCreateClienteRoundTrip(t *testing.T) {
	database := setupTestDB(t, "cliente_roundtrip")
	escritorio := criarEscritorioTeste(t, database, "escritorio_cli")

	service := NewClienteService(database)
	ctx := context.Background()

	nascimento := data(1960, 3, 15)
	criado, err := service.Create(ctx, escritorio.ID, CreateClienteRequest{
		Nome:              "Maria Aparecida de Souza",
		CPF:               strPtr("529.982.247-25"),
		DataNascimento:    &nascimento,
		Telefone:          strPtr("(11) 98888-7777"),
		Cidade:            strPtr("São Paulo"),
		Estado:            strPtr("SP"),
		ConsentimentoLGPD: true,
	})
	require.NoError(t, err)

	carregado, err := service.GetByID(ctx, escritorio.ID, criado.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria Aparecida de Souza", carregado.Nome)
	// CPF guardado só com dígitos.
	require.NotNil(t, carregado.CPF)
	assert.Equal(t, "52998224725", *carregado.CPF)
	assert.True(t, carregado.ConsentimentoLGPD)
	assert.NotNil(t, carregado.DataConsentimento)
}

func TestCreateClienteCPFInvalido(t *testing.T) {
	database := setupTestDB(t, "cliente_cpf")
	escritorio := criarEscritorioTeste(t, database, "escritorio_cpf")

	service := NewClienteService(database)
	ctx := context.Background()

	_, err := service.Create(ctx, escritorio.ID, CreateClienteRequest{
		Nome: "Fulano",
		CPF:  strPtr("111.111.111-11"),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.Create(ctx, escritorio.ID, CreateClienteRequest{CPF: strPtr("52998224725")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateClienteCPFDuplicadoNoTenant(t *testing.T) {
	database := setupTestDB(t, "cliente_dup")
	escritorioA := criarEscritorioTeste(t, database, "escritorio_dup_a")
	escritorioB := criarEscritorioTeste(t, database, "escritorio_dup_b")

	service := NewClienteService(database)
	ctx := context.Background()

	_, err := service.Create(ctx, escritorioA.ID, CreateClienteRequest{
		Nome: "Primeira",
		CPF:  strPtr("52998224725"),
	})
	require.NoError(t, err)

	// Mesmo CPF no mesmo escritório é conflito.
	_, err = service.Create(ctx, escritorioA.ID, CreateClienteRequest{
		Nome: "Segunda",
		CPF:  strPtr("529.982.247-25"),
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Em outro escritório o mesmo CPF é permitido.
	_, err = service.Create(ctx, escritorioB.ID, CreateClienteRequest{
		Nome: "Terceira",
		CPF:  strPtr("52998224725"),
	})
	assert.NoError(t, err)
}

func TestUpdateCliente(t *testing.T) {
	database := setupTestDB(t, "cliente_update")
	escritorio := criarEscritorioTeste(t, database, "escritorio_upd")

	service := NewClienteService(database)
	ctx := context.Background()

	criado, err := service.Create(ctx, escritorio.ID, CreateClienteRequest{Nome: "Antes"})
	require.NoError(t, err)

	atualizado, err := service.Update(ctx, escritorio.ID, criado.ID, UpdateClienteRequest{
		Nome:     strPtr("Depois"),
		Telefone: strPtr("(21) 97777-6666"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Depois", atualizado.Nome)
	require.NotNil(t, atualizado.Telefone)
	assert.Equal(t, "(21) 97777-6666", *atualizado.Telefone)
}

func TestRegistrarConsentimento(t *testing.T) {
	database := setupTestDB(t, "cliente_lgpd")
	escritorio := criarEscritorioTeste(t, database, "escritorio_lgpd")

	service := NewClienteService(database)
	ctx := context.Background()

	criado, err := service.Create(ctx, escritorio.ID, CreateClienteRequest{Nome: "Sem Consentimento"})
	require.NoError(t, err)
	assert.False(t, criado.ConsentimentoLGPD)

	comConsentimento, err := service.RegistrarConsentimento(ctx, escritorio.ID, criado.ID)
	require.NoError(t, err)
	assert.True(t, comConsentimento.ConsentimentoLGPD)
	require.NotNil(t, comConsentimento.DataConsentimento)
	primeiraData := *comConsentimento.DataConsentimento

	// Idempotente: não sobrescreve a data original.
	deNovo, err := service.RegistrarConsentimento(ctx, escritorio.ID, criado.ID)
	require.NoError(t, err)
	require.NotNil(t, deNovo.DataConsentimento)
	assert.Equal(t, primeiraData.Unix(), deNovo.DataConsentimento.Unix())
}

func TestDeactivateCliente(t *testing.T) {
	database := setupTestDB(t, "cliente_inativo")
	escritorio := criarEscritorioTeste(t, database, "escritorio_inativo")

	service := NewClienteService(database)
	ctx := context.Background()

	criado, err := service.Create(ctx, escritorio.ID, CreateClienteRequest{Nome: "Será Inativado"})
	require.NoError(t, err)
	require.NoError(t, service.Deactivate(ctx, escritorio.ID, criado.ID))

	// Some da listagem padrão mas o registro permanece acessível.
	clientes, total, err := service.List(ctx, escritorio.ID, 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, clientes)

	carregado, err := service.GetByID(ctx, escritorio.ID, criado.ID)
	require.NoError(t, err)
	assert.False(t, carregado.IsActive)
}

func TestPreencherDesdeDocumento(t *testing.T) {
	database := setupTestDB(t, "cliente_backfill")
	escritorio := criarEscritorioTeste(t, database, "escritorio_backfill")

	service := NewClienteService(database)
	ctx := context.Background()

	criado, err := service.Create(ctx, escritorio.ID, CreateClienteRequest{
		Nome: "José das Couves",
		RG:   strPtr("12.345.678-9"),
	})
	require.NoError(t, err)

	nascimento := data(1958, 7, 2)
	preenchidos, err := service.PreencherDesdeDocumento(ctx, escritorio.ID, criado.ID, DadosIdentidade{
		CPF:            strPtr("529.982.247-25"),
		RG:             strPtr("99.999.999-9"), // já preenchido, não sobrescreve
		DataNascimento: &nascimento,
		Sexo:           strPtr("M"),
		NomeMae:        strPtr("Benedita das Couves"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, preenchidos)

	carregado, err := service.GetByID(ctx, escritorio.ID, criado.ID)
	require.NoError(t, err)
	require.NotNil(t, carregado.CPF)
	assert.Equal(t, "52998224725", *carregado.CPF)
	require.NotNil(t, carregado.RG)
	assert.Equal(t, "12.345.678-9", *carregado.RG)
	require.NotNil(t, carregado.DataNascimento)
	require.NotNil(t, carregado.NomeMae)

	// Nada mais a preencher na segunda passada.
	preenchidos, err = service.PreencherDesdeDocumento(ctx, escritorio.ID, criado.ID, DadosIdentidade{
		CPF:  strPtr("529.982.247-25"),
		Sexo: strPtr("F"),
	})
	require.NoError(t, err)
	assert.Zero(t, preenchidos)
}

func TestPreencherDesdeDocumentoCPFInvalidoOuDuplicado(t *testing.T) {
	database := setupTestDB(t, "cliente_backfill_cpf")
	escritorio := criarEscritorioTeste(t, database, "escritorio_backfill_cpf")

	service := NewClienteService(database)
	ctx := context.Background()

	_, err := service.Create(ctx, escritorio.ID, CreateClienteRequest{
		Nome: "Titular do CPF",
		CPF:  strPtr("529.982.247-25"),
	})
	require.NoError(t, err)

	semCPF, err := service.Create(ctx, escritorio.ID, CreateClienteRequest{Nome: "Sem CPF"})
	require.NoError(t, err)

	// CPF inválido é descartado em silêncio.
	preenchidos, err := service.PreencherDesdeDocumento(ctx, escritorio.ID, semCPF.ID, DadosIdentidade{
		CPF: strPtr("111.111.111-11"),
	})
	require.NoError(t, err)
	assert.Zero(t, preenchidos)

	// CPF de outro cliente também.
	preenchidos, err = service.PreencherDesdeDocumento(ctx, escritorio.ID, semCPF.ID, DadosIdentidade{
		CPF: strPtr("529.982.247-25"),
	})
	require.NoError(t, err)
	assert.Zero(t, preenchidos)

	carregado, err := service.GetByID(ctx, escritorio.ID, semCPF.ID)
	require.NoError(t, err)
	assert.Nil(t, carregado.CPF)
}
