package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
)

func strPtr(s string) *string { return &s }

func TestCreateProcessoFaseDefault(t *testing.T) {
	database := setupTestDB(t, "processo_create")
	escritorio := criarEscritorioTeste(t, database, "escritorio_proc")
	cliente := criarClienteTeste(t, database, escritorio.ID, "Segurado")

	service := NewProcessoService(database)
	ctx := context.Background()

	processo, err := service.Create(ctx, escritorio.ID, CreateProcessoRequest{
		ClienteID:     cliente.ID,
		TipoBeneficio: models.BeneficioAposentadoriaIdade,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FaseAdministrativo, processo.Fase)
	assert.True(t, processo.IsActive)
}

func TestCreateProcessoValidacoes(t *testing.T) {
	database := setupTestDB(t, "processo_valida")
	escritorio := criarEscritorioTeste(t, database, "escritorio_proc_val")
	cliente := criarClienteTeste(t, database, escritorio.ID, "Segurado")

	service := NewProcessoService(database)
	ctx := context.Background()

	_, err := service.Create(ctx, escritorio.ID, CreateProcessoRequest{
		ClienteID:     cliente.ID,
		TipoBeneficio: "loteria",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.Create(ctx, escritorio.ID, CreateProcessoRequest{
		ClienteID:     cliente.ID,
		TipoBeneficio: models.BeneficioAuxilioDoenca,
		NumeroCNJ:     strPtr("0000001-99.2020.4.03.6183"),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Cliente de outro escritório aparece como não encontrado.
	outro := criarEscritorioTeste(t, database, "escritorio_proc_val_b")
	_, err = service.Create(ctx, outro.ID, CreateProcessoRequest{
		ClienteID:     cliente.ID,
		TipoBeneficio: models.BeneficioAuxilioDoenca,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAvancarFase(t *testing.T) {
	database := setupTestDB(t, "processo_fase")
	escritorio := criarEscritorioTeste(t, database, "escritorio_fase")
	cliente := criarClienteTeste(t, database, escritorio.ID, "Segurado")

	service := NewProcessoService(database)
	ctx := context.Background()

	processo, err := service.Create(ctx, escritorio.ID, CreateProcessoRequest{
		ClienteID:     cliente.ID,
		TipoBeneficio: models.BeneficioBPCLoas,
	})
	require.NoError(t, err)

	atualizado, err := service.AvancarFase(ctx, escritorio.ID, processo.ID, models.FasePrimeiraInstancia)
	require.NoError(t, err)
	assert.Equal(t, models.FasePrimeiraInstancia, atualizado.Fase)

	// Voltar de fase é conflito; repetir a mesma também.
	_, err = service.AvancarFase(ctx, escritorio.ID, processo.ID, models.FaseAdministrativo)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = service.AvancarFase(ctx, escritorio.ID, processo.ID, models.FasePrimeiraInstancia)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Pular fases à frente é permitido.
	atualizado, err = service.AvancarFase(ctx, escritorio.ID, processo.ID, models.FaseExecucao)
	require.NoError(t, err)
	assert.Equal(t, models.FaseExecucao, atualizado.Fase)

	// Cada mudança de fase registra um andamento automático.
	andamentos, total, err := service.ListAndamentos(ctx, escritorio.ID, processo.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, a := range andamentos {
		assert.Equal(t, "sistema", a.Fonte)
	}

	// Processo arquivado não aceita mais alterações.
	require.NoError(t, service.Archive(ctx, escritorio.ID, processo.ID))
	_, err = service.AvancarFase(ctx, escritorio.ID, processo.ID, models.FaseEncerrado)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = service.CreatePrazo(ctx, escritorio.ID, processo.ID, CreatePrazoRequest{
		Tipo:      models.TipoPrazoRecurso,
		Descricao: "Prazo em processo arquivado",
		DataFatal: time.Now().AddDate(0, 0, 10),
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func criarProcessoComPrazo(t *testing.T, service *ProcessoService, escritorioID, clienteID string, dataFatal time.Time) (*models.Processo, *models.Prazo) {
	t.Helper()
	ctx := context.Background()

	processo, err := service.Create(ctx, escritorioID, CreateProcessoRequest{
		ClienteID:     clienteID,
		TipoBeneficio: models.BeneficioAuxilioDoenca,
	})
	require.NoError(t, err)

	prazo, err := service.CreatePrazo(ctx, escritorioID, processo.ID, CreatePrazoRequest{
		Tipo:      models.TipoPrazoRecurso,
		Descricao: "Recurso inominado",
		DataFatal: dataFatal,
	})
	require.NoError(t, err)
	return processo, prazo
}

func TestPrazoTransicoes(t *testing.T) {
	database := setupTestDB(t, "prazo_transicoes")
	escritorio := criarEscritorioTeste(t, database, "escritorio_prazo")
	cliente := criarClienteTeste(t, database, escritorio.ID, "Segurado")
	usuario := criarUsuarioTeste(t, database, escritorio.ID, "adv@prazo.br")

	service := NewProcessoService(database)
	ctx := context.Background()

	_, prazo := criarProcessoComPrazo(t, service, escritorio.ID, cliente.ID, time.Now().AddDate(0, 0, 10))
	assert.Equal(t, models.PrazoPendente, prazo.Status)

	cumprido, err := service.CumprirPrazo(ctx, escritorio.ID, prazo.ID, usuario.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrazoCumprido, cumprido.Status)
	assert.NotNil(t, cumprido.DataCumprimento)

	// Estado terminal não transiciona de novo.
	_, err = service.CumprirPrazo(ctx, escritorio.ID, prazo.ID, usuario.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = service.CancelarPrazo(ctx, escritorio.ID, prazo.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestMarcarPrazosPerdidos(t *testing.T) {
	database := setupTestDB(t, "prazo_perdidos")
	escritorio := criarEscritorioTeste(t, database, "escritorio_perdido")
	cliente := criarClienteTeste(t, database, escritorio.ID, "Segurado")

	service := NewProcessoService(database)
	ctx := context.Background()

	agora := time.Now()
	_, vencido := criarProcessoComPrazo(t, service, escritorio.ID, cliente.ID, agora.AddDate(0, 0, -3))
	_, hoje := criarProcessoComPrazo(t, service, escritorio.ID, cliente.ID, agora)
	_, futuro := criarProcessoComPrazo(t, service, escritorio.ID, cliente.ID, agora.AddDate(0, 0, 15))

	perdidos, err := service.MarcarPrazosPerdidos(ctx, agora)
	require.NoError(t, err)
	require.Len(t, perdidos, 1)
	assert.Equal(t, vencido.ID, perdidos[0].ID)
	assert.Equal(t, models.PrazoPerdido, perdidos[0].Status)

	// Prazo que vence hoje ainda é acionável; futuro idem.
	atual, err := service.prazos.GetByID(ctx, escritorio.ID, hoje.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrazoPendente, atual.Status)
	atual, err = service.prazos.GetByID(ctx, escritorio.ID, futuro.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrazoPendente, atual.Status)

	// Segunda varredura não reprocessa.
	perdidos, err = service.MarcarPrazosPerdidos(ctx, agora)
	require.NoError(t, err)
	assert.Empty(t, perdidos)
}

func TestMarcarPrazosPerdidosNaoTocaCumprido(t *testing.T) {
	database := setupTestDB(t, "prazo_perdido_cumprido")
	escritorio := criarEscritorioTeste(t, database, "escritorio_perd_cump")
	cliente := criarClienteTeste(t, database, escritorio.ID, "Segurado")
	usuario := criarUsuarioTeste(t, database, escritorio.ID, "adv@perd.br")

	service := NewProcessoService(database)
	ctx := context.Background()

	_, prazo := criarProcessoComPrazo(t, service, escritorio.ID, cliente.ID, time.Now().AddDate(0, 0, -5))
	_, err := service.CumprirPrazo(ctx, escritorio.ID, prazo.ID, usuario.ID)
	require.NoError(t, err)

	perdidos, err := service.MarcarPrazosPerdidos(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, perdidos)
}

func TestAndamentos(t *testing.T) {
	database := setupTestDB(t, "andamentos")
	escritorio := criarEscritorioTeste(t, database, "escritorio_and")
	cliente := criarClienteTeste(t, database, escritorio.ID, "Segurado")
	usuario := criarUsuarioTeste(t, database, escritorio.ID, "adv@and.br")

	service := NewProcessoService(database)
	ctx := context.Background()

	processo, err := service.Create(ctx, escritorio.ID, CreateProcessoRequest{
		ClienteID:     cliente.ID,
		TipoBeneficio: models.BeneficioPensaoMorte,
	})
	require.NoError(t, err)

	_, err = service.CreateAndamento(ctx, escritorio.ID, processo.ID, usuario.ID, CreateAndamentoRequest{
		Descricao: "Petição inicial protocolada",
	})
	require.NoError(t, err)
	_, err = service.CreateAndamento(ctx, escritorio.ID, processo.ID, usuario.ID, CreateAndamentoRequest{
		Descricao: "Citação do INSS",
	})
	require.NoError(t, err)

	andamentos, total, err := service.ListAndamentos(ctx, escritorio.ID, processo.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, andamentos, 2)

	_, err = service.CreateAndamento(ctx, escritorio.ID, processo.ID, usuario.ID, CreateAndamentoRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
