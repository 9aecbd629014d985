package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
	"inss_crm_go/repository"
)

// ProcessoService implements case lifecycle rules: CNJ number validation,
// forward-only phase changes and the deadline state machine.
type ProcessoService struct {
	processos  *repository.Repository[models.Processo, *models.Processo]
	prazos     *repository.Repository[models.Prazo, *models.Prazo]
	andamentos *repository.Repository[models.Andamento, *models.Andamento]
	clientes   *repository.Repository[models.Cliente, *models.Cliente]
}

// NewProcessoService creates a case service.
func NewProcessoService(db *gorm.DB) *ProcessoService {
	return &ProcessoService{
		processos:  repository.New[models.Processo](db),
		prazos:     repository.New[models.Prazo](db),
		andamentos: repository.New[models.Andamento](db),
		clientes:   repository.New[models.Cliente](db),
	}
}

// CreateProcessoRequest carries the fields accepted on case creation.
type CreateProcessoRequest struct {
	ClienteID             string     `json:"cliente_id"`
	NumeroCNJ             *string    `json:"numero_cnj,omitempty"`
	NumeroAdministrativo  *string    `json:"numero_administrativo,omitempty"`
	TipoBeneficio         string     `json:"tipo_beneficio"`
	Fase                  *string    `json:"fase,omitempty"`
	Tribunal              *string    `json:"tribunal,omitempty"`
	Vara                  *string    `json:"vara,omitempty"`
	AgenciaINSS           *string    `json:"agencia_inss,omitempty"`
	DataEntrada           *time.Time `json:"data_entrada,omitempty"`
	ValorCausaCentavos    *int64     `json:"valor_causa_centavos,omitempty"`
	Objeto                *string    `json:"objeto,omitempty"`
	AdvogadoResponsavelID *string    `json:"advogado_responsavel_id,omitempty"`
}

// Create validates and persists a new case. New cases start in the
// administrative phase unless told otherwise.
func (s *ProcessoService) Create(ctx context.Context, escritorioID string, req CreateProcessoRequest) (*models.Processo, error) {
	if !models.IsValidTipoBeneficio(req.TipoBeneficio) {
		return nil, apperrors.Validation("tipo de benefício inválido: %s", req.TipoBeneficio)
	}

	// The client must belong to the same escritório.
	if _, err := s.clientes.GetByID(ctx, escritorioID, req.ClienteID); err != nil {
		return nil, err
	}

	fase := models.FaseAdministrativo
	if req.Fase != nil && *req.Fase != "" {
		if !models.IsValidFase(*req.Fase) {
			return nil, apperrors.Validation("fase inválida: %s", *req.Fase)
		}
		fase = *req.Fase
	}

	var numeroCNJ *string
	if req.NumeroCNJ != nil && *req.NumeroCNJ != "" {
		if !ValidarNumeroCNJ(*req.NumeroCNJ) {
			return nil, apperrors.Validation("número CNJ inválido")
		}
		formatado := FormatarNumeroCNJ(ApenasDigitos(*req.NumeroCNJ))
		numeroCNJ = &formatado
	}

	dataEntrada := time.Now()
	if req.DataEntrada != nil {
		dataEntrada = *req.DataEntrada
	}

	processo := &models.Processo{
		ClienteID:             req.ClienteID,
		NumeroCNJ:             numeroCNJ,
		NumeroAdministrativo:  req.NumeroAdministrativo,
		TipoBeneficio:         req.TipoBeneficio,
		Fase:                  fase,
		Tribunal:              req.Tribunal,
		Vara:                  req.Vara,
		AgenciaINSS:           req.AgenciaINSS,
		DataEntrada:           dataEntrada,
		ValorCausaCentavos:    req.ValorCausaCentavos,
		Objeto:                req.Objeto,
		AdvogadoResponsavelID: req.AdvogadoResponsavelID,
		IsActive:              true,
	}
	if err := s.processos.Create(ctx, escritorioID, processo); err != nil {
		return nil, err
	}
	return processo, nil
}

// GetByID fetches one case with its client, deadlines and events.
func (s *ProcessoService) GetByID(ctx context.Context, escritorioID, id string) (*models.Processo, error) {
	return s.processos.GetByIDPreload(ctx, escritorioID, id, "Cliente", "Prazos", "Andamentos")
}

// List pages through the tenant's cases, optionally filtered by phase or
// benefit type.
func (s *ProcessoService) List(ctx context.Context, escritorioID string, page, pageSize int, fase, tipoBeneficio string) ([]models.Processo, int64, error) {
	filters := map[string]interface{}{"is_active": true}
	if fase != "" {
		if !models.IsValidFase(fase) {
			return nil, 0, apperrors.Validation("fase inválida: %s", fase)
		}
		filters["fase"] = fase
	}
	if tipoBeneficio != "" {
		if !models.IsValidTipoBeneficio(tipoBeneficio) {
			return nil, 0, apperrors.Validation("tipo de benefício inválido: %s", tipoBeneficio)
		}
		filters["tipo_beneficio"] = tipoBeneficio
	}
	return s.processos.List(ctx, escritorioID, repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  filters,
		OrderBy:  "data_entrada DESC",
	})
}

// AvancarFase moves a case forward in the procedural ladder. Moving
// backwards or staying in place is a conflict.
func (s *ProcessoService) AvancarFase(ctx context.Context, escritorioID, id, novaFase string) (*models.Processo, error) {
	if !models.IsValidFase(novaFase) {
		return nil, apperrors.Validation("fase inválida: %s", novaFase)
	}
	processo, err := s.carregarMutavel(ctx, escritorioID, id)
	if err != nil {
		return nil, err
	}
	if !models.FasePosterior(processo.Fase, novaFase) {
		return nil, apperrors.Conflict("fase %s não é posterior a %s", novaFase, processo.Fase)
	}

	faseAnterior := processo.Fase
	processo.Fase = novaFase
	if err := s.processos.Update(ctx, escritorioID, processo); err != nil {
		return nil, err
	}

	andamento := &models.Andamento{
		ProcessoID: processo.ID,
		Data:       time.Now(),
		Descricao:  fmt.Sprintf("Fase alterada de %s para %s", faseAnterior, novaFase),
		Fonte:      "sistema",
		IsPublic:   true,
	}
	if err := s.andamentos.Create(ctx, escritorioID, andamento); err != nil {
		return nil, err
	}
	return processo, nil
}

// carregarMutavel loads a case and rejects changes on archived ones.
func (s *ProcessoService) carregarMutavel(ctx context.Context, escritorioID, id string) (*models.Processo, error) {
	processo, err := s.processos.GetByID(ctx, escritorioID, id)
	if err != nil {
		return nil, err
	}
	if processo.IsArchived {
		return nil, apperrors.Conflict("processo arquivado não aceita alterações")
	}
	return processo, nil
}

// Archive flags a case as archived without losing its history.
func (s *ProcessoService) Archive(ctx context.Context, escritorioID, id string) error {
	return s.processos.UpdateFields(ctx, escritorioID, id, map[string]interface{}{
		"is_archived": true,
		"is_active":   false,
	})
}

// CreatePrazoRequest carries the fields accepted on deadline creation.
type CreatePrazoRequest struct {
	Tipo          string     `json:"tipo"`
	Descricao     string     `json:"descricao"`
	DataFatal     time.Time  `json:"data_fatal"`
	DataAlerta    *time.Time `json:"data_alerta,omitempty"`
	ResponsavelID *string    `json:"responsavel_id,omitempty"`
	Observacoes   *string    `json:"observacoes,omitempty"`
}

// CreatePrazo registers a deadline on a case. The alert date defaults to
// five days before the due date.
func (s *ProcessoService) CreatePrazo(ctx context.Context, escritorioID, processoID string, req CreatePrazoRequest) (*models.Prazo, error) {
	if req.Descricao == "" {
		return nil, apperrors.Validation("descrição é obrigatória")
	}
	if req.DataFatal.IsZero() {
		return nil, apperrors.Validation("data fatal é obrigatória")
	}
	if _, err := s.carregarMutavel(ctx, escritorioID, processoID); err != nil {
		return nil, err
	}

	dataAlerta := req.DataAlerta
	if dataAlerta == nil {
		padrao := req.DataFatal.AddDate(0, 0, -5)
		dataAlerta = &padrao
	}

	prazo := &models.Prazo{
		ProcessoID:    processoID,
		Tipo:          req.Tipo,
		Descricao:     req.Descricao,
		DataFatal:     req.DataFatal,
		DataAlerta:    dataAlerta,
		Status:        models.PrazoPendente,
		ResponsavelID: req.ResponsavelID,
		Observacoes:   req.Observacoes,
	}
	if err := s.prazos.Create(ctx, escritorioID, prazo); err != nil {
		return nil, err
	}
	return prazo, nil
}

// CumprirPrazo marks a pending deadline as met. Terminal deadlines cannot
// change status again.
func (s *ProcessoService) CumprirPrazo(ctx context.Context, escritorioID, prazoID, usuarioID string) (*models.Prazo, error) {
	prazo, err := s.prazos.GetByID(ctx, escritorioID, prazoID)
	if err != nil {
		return nil, err
	}
	if prazo.IsTerminal() {
		return nil, apperrors.Conflict("prazo já está %s", prazo.Status)
	}

	agora := time.Now()
	prazo.Status = models.PrazoCumprido
	prazo.DataCumprimento = &agora
	prazo.CumpridoPorID = &usuarioID
	if err := s.prazos.Update(ctx, escritorioID, prazo); err != nil {
		return nil, err
	}
	return prazo, nil
}

// CancelarPrazo marks a pending deadline as cancelled.
func (s *ProcessoService) CancelarPrazo(ctx context.Context, escritorioID, prazoID string, motivo *string) (*models.Prazo, error) {
	prazo, err := s.prazos.GetByID(ctx, escritorioID, prazoID)
	if err != nil {
		return nil, err
	}
	if prazo.IsTerminal() {
		return nil, apperrors.Conflict("prazo já está %s", prazo.Status)
	}

	prazo.Status = models.PrazoCancelado
	if motivo != nil {
		prazo.Observacoes = motivo
	}
	if err := s.prazos.Update(ctx, escritorioID, prazo); err != nil {
		return nil, err
	}
	return prazo, nil
}

// ListPrazosPendentes returns the tenant's pending deadlines ordered by due
// date, soonest first.
func (s *ProcessoService) ListPrazosPendentes(ctx context.Context, escritorioID string, page, pageSize int) ([]models.Prazo, int64, error) {
	return s.prazos.List(ctx, escritorioID, repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  map[string]interface{}{"status": models.PrazoPendente},
		OrderBy:  "data_fatal ASC",
	})
}

// fusoBrasilia resolves the court timezone. Deadlines are counted in
// Brasília time regardless of where the server runs.
func fusoBrasilia() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// MarcarPrazosPerdidos transitions pending deadlines whose fatal date has
// fully elapsed in Brasília time to perdido, across all tenants. A deadline
// due today is still actionable and is not touched. Returns the deadlines
// it transitioned, with case and responsible user preloaded.
func (s *ProcessoService) MarcarPrazosPerdidos(ctx context.Context, agora time.Time) ([]models.Prazo, error) {
	local := agora.In(fusoBrasilia())
	inicioHoje := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())

	var vencidos []models.Prazo
	err := s.prazos.DB().WithContext(ctx).
		Preload("Processo").
		Preload("Responsavel").
		Where("status = ? AND data_fatal < ?", models.PrazoPendente, inicioHoje).
		Find(&vencidos).Error
	if err != nil {
		return nil, err
	}

	var perdidos []models.Prazo
	for i := range vencidos {
		// Guard the transition per row so a concurrent cumprimento wins.
		result := s.prazos.DB().WithContext(ctx).
			Model(&models.Prazo{}).
			Where("id = ? AND status = ?", vencidos[i].ID, models.PrazoPendente).
			Update("status", models.PrazoPerdido)
		if result.Error != nil {
			return perdidos, result.Error
		}
		if result.RowsAffected == 1 {
			vencidos[i].Status = models.PrazoPerdido
			perdidos = append(perdidos, vencidos[i])
		}
	}
	return perdidos, nil
}

// ListPrazosEmAlerta returns pending deadlines across all tenants whose
// alert window opened and that were not yet notified.
func (s *ProcessoService) ListPrazosEmAlerta(ctx context.Context, agora time.Time) ([]models.Prazo, error) {
	var prazos []models.Prazo
	err := s.prazos.DB().WithContext(ctx).
		Preload("Processo").
		Preload("Responsavel").
		Where("status = ? AND notificacao_enviada = ? AND data_alerta <= ?",
			models.PrazoPendente, false, agora).
		Find(&prazos).Error
	if err != nil {
		return nil, err
	}
	return prazos, nil
}

// MarcarNotificacaoEnviada flags a deadline as already alerted.
func (s *ProcessoService) MarcarNotificacaoEnviada(ctx context.Context, escritorioID, prazoID string) error {
	return s.prazos.UpdateFields(ctx, escritorioID, prazoID, map[string]interface{}{
		"notificacao_enviada": true,
	})
}

// CreateAndamentoRequest carries the fields accepted on case event creation.
type CreateAndamentoRequest struct {
	Data      *time.Time `json:"data,omitempty"`
	Descricao string     `json:"descricao"`
	IsPublic  *bool      `json:"is_public,omitempty"`
}

// CreateAndamento registers a case event.
func (s *ProcessoService) CreateAndamento(ctx context.Context, escritorioID, processoID, usuarioID string, req CreateAndamentoRequest) (*models.Andamento, error) {
	if req.Descricao == "" {
		return nil, apperrors.Validation("descrição é obrigatória")
	}
	if _, err := s.carregarMutavel(ctx, escritorioID, processoID); err != nil {
		return nil, err
	}

	data := time.Now()
	if req.Data != nil {
		data = *req.Data
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	andamento := &models.Andamento{
		ProcessoID:      processoID,
		Data:            data,
		Descricao:       req.Descricao,
		Fonte:           "manual",
		IsPublic:        isPublic,
		RegistradoPorID: &usuarioID,
	}
	if err := s.andamentos.Create(ctx, escritorioID, andamento); err != nil {
		return nil, err
	}
	return andamento, nil
}

// ListAndamentos pages through a case's events, newest first.
func (s *ProcessoService) ListAndamentos(ctx context.Context, escritorioID, processoID string, page, pageSize int) ([]models.Andamento, int64, error) {
	if _, err := s.processos.GetByID(ctx, escritorioID, processoID); err != nil {
		return nil, 0, err
	}
	return s.andamentos.List(ctx, escritorioID, repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  map[string]interface{}{"processo_id": processoID},
		OrderBy:  "data DESC",
	})
}
