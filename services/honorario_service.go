package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
	"inss_crm_go/repository"
)

// HonorarioService implements fee contracts and installment schedules.
// Money is handled in centavos end to end.
type HonorarioService struct {
	contratos *repository.Repository[models.ContratoHonorario, *models.ContratoHonorario]
	parcelas  *repository.Repository[models.ParcelaHonorario, *models.ParcelaHonorario]
	clientes  *repository.Repository[models.Cliente, *models.Cliente]
	db        *gorm.DB
}

// NewHonorarioService creates a fee service.
func NewHonorarioService(db *gorm.DB) *HonorarioService {
	return &HonorarioService{
		contratos: repository.New[models.ContratoHonorario](db),
		parcelas:  repository.New[models.ParcelaHonorario](db),
		clientes:  repository.New[models.Cliente](db),
		db:        db,
	}
}

// CreateContratoRequest carries the fields accepted on contract creation.
type CreateContratoRequest struct {
	ClienteID         string     `json:"cliente_id"`
	ProcessoID        *string    `json:"processo_id,omitempty"`
	Tipo              string     `json:"tipo"`
	ValorFixoCentavos *int64     `json:"valor_fixo_centavos,omitempty"`
	PercentualExito   *float64   `json:"percentual_exito,omitempty"`
	NumeroParcelas    int        `json:"numero_parcelas"`
	DataAssinatura    *time.Time `json:"data_assinatura,omitempty"`
	PrimeiroVencimento *time.Time `json:"primeiro_vencimento,omitempty"`
	Observacoes       *string    `json:"observacoes,omitempty"`
}

// Create validates the contract, persists it and generates its installment
// schedule in one transaction.
func (s *HonorarioService) Create(ctx context.Context, escritorioID string, req CreateContratoRequest) (*models.ContratoHonorario, error) {
	if !models.IsValidTipoContrato(req.Tipo) {
		return nil, apperrors.Validation("tipo de contrato inválido: %s", req.Tipo)
	}
	temFixo := req.ValorFixoCentavos != nil && *req.ValorFixoCentavos > 0
	temExito := req.PercentualExito != nil && *req.PercentualExito > 0

	switch req.Tipo {
	case models.ContratoFixo:
		if !temFixo {
			return nil, apperrors.Validation("contrato fixo exige valor fixo positivo")
		}
	case models.ContratoExito:
		if !temExito {
			return nil, apperrors.Validation("contrato de êxito exige percentual positivo")
		}
	case models.ContratoMisto:
		if !temFixo || !temExito {
			return nil, apperrors.Validation("contrato misto exige valor fixo e percentual de êxito")
		}
	}
	if temExito && *req.PercentualExito > 50 {
		// Teto usual de honorários contratuais previdenciários.
		return nil, apperrors.Validation("percentual de êxito não pode exceder 50%%")
	}
	if req.NumeroParcelas < 1 {
		req.NumeroParcelas = 1
	}
	if !temFixo && req.NumeroParcelas > 1 {
		return nil, apperrors.Validation("parcelamento exige valor fixo")
	}

	if _, err := s.clientes.GetByID(ctx, escritorioID, req.ClienteID); err != nil {
		return nil, err
	}

	dataAssinatura := time.Now()
	if req.DataAssinatura != nil {
		dataAssinatura = *req.DataAssinatura
	}
	primeiroVencimento := dataAssinatura.AddDate(0, 1, 0)
	if req.PrimeiroVencimento != nil {
		primeiroVencimento = *req.PrimeiroVencimento
	}

	contrato := &models.ContratoHonorario{
		ClienteID:         req.ClienteID,
		ProcessoID:        req.ProcessoID,
		Tipo:              req.Tipo,
		ValorFixoCentavos: req.ValorFixoCentavos,
		PercentualExito:   req.PercentualExito,
		NumeroParcelas:    req.NumeroParcelas,
		DataAssinatura:    dataAssinatura,
		IsActive:          true,
		Observacoes:       req.Observacoes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contrato.SetEscritorioID(escritorioID)
		if err := tx.Create(contrato).Error; err != nil {
			return err
		}
		if temFixo {
			parcelas := GerarParcelas(contrato.ID, escritorioID, *req.ValorFixoCentavos, req.NumeroParcelas, primeiroVencimento)
			for i := range parcelas {
				if err := tx.Create(&parcelas[i]).Error; err != nil {
					return err
				}
			}
			contrato.Parcelas = parcelas
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contrato, nil
}

// GerarParcelas splits valorTotalCentavos into n monthly installments.
// Every installment gets the integer quotient; the remainder cents land on
// the last one, so the schedule always sums to the contracted value. Due
// dates advance month by month with the day clamped to 28 so February never
// shifts the schedule.
func GerarParcelas(contratoID, escritorioID string, valorTotalCentavos int64, n int, primeiroVencimento time.Time) []models.ParcelaHonorario {
	if n < 1 {
		n = 1
	}
	base := valorTotalCentavos / int64(n)
	resto := valorTotalCentavos % int64(n)

	dia := primeiroVencimento.Day()
	if dia > 28 {
		dia = 28
	}

	parcelas := make([]models.ParcelaHonorario, n)
	for i := 0; i < n; i++ {
		valor := base
		if i == n-1 {
			valor += resto
		}
		vencimento := time.Date(
			primeiroVencimento.Year(), primeiroVencimento.Month(), dia,
			0, 0, 0, 0, primeiroVencimento.Location(),
		).AddDate(0, i, 0)

		parcelas[i] = models.ParcelaHonorario{
			ContratoID:     contratoID,
			Numero:         i + 1,
			ValorCentavos:  valor,
			DataVencimento: vencimento,
			Status:         models.ParcelaPendente,
		}
		parcelas[i].SetEscritorioID(escritorioID)
	}
	return parcelas
}

// GetByID fetches one contract with its installments.
func (s *HonorarioService) GetByID(ctx context.Context, escritorioID, id string) (*models.ContratoHonorario, error) {
	return s.contratos.GetByIDPreload(ctx, escritorioID, id, "Cliente", "Parcelas")
}

// List pages through the tenant's contracts.
func (s *HonorarioService) List(ctx context.Context, escritorioID string, page, pageSize int) ([]models.ContratoHonorario, int64, error) {
	return s.contratos.List(ctx, escritorioID, repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  map[string]interface{}{"is_active": true},
		OrderBy:  "data_assinatura DESC",
	})
}

// RegistrarPagamentoRequest carries the fields accepted when settling an
// installment.
type RegistrarPagamentoRequest struct {
	ValorPagoCentavos *int64  `json:"valor_pago_centavos,omitempty"`
	FormaPagamento    *string `json:"forma_pagamento,omitempty"`
	DataPagamento     *time.Time `json:"data_pagamento,omitempty"`
}

// RegistrarPagamento settles a pending or overdue installment. Paying an
// already paid or cancelled installment is a conflict.
func (s *HonorarioService) RegistrarPagamento(ctx context.Context, escritorioID, parcelaID string, req RegistrarPagamentoRequest) (*models.ParcelaHonorario, error) {
	parcela, err := s.parcelas.GetByID(ctx, escritorioID, parcelaID)
	if err != nil {
		return nil, err
	}
	if parcela.Status == models.ParcelaPaga || parcela.Status == models.ParcelaCancelada {
		return nil, apperrors.Conflict("parcela já está %s", parcela.Status)
	}

	dataPagamento := time.Now()
	if req.DataPagamento != nil {
		dataPagamento = *req.DataPagamento
	}
	valorPago := parcela.ValorCentavos
	if req.ValorPagoCentavos != nil {
		if *req.ValorPagoCentavos <= 0 {
			return nil, apperrors.Validation("valor pago deve ser positivo")
		}
		valorPago = *req.ValorPagoCentavos
	}

	parcela.Status = models.ParcelaPaga
	parcela.DataPagamento = &dataPagamento
	parcela.ValorPagoCentavos = &valorPago
	parcela.FormaPagamento = req.FormaPagamento
	if err := s.parcelas.Update(ctx, escritorioID, parcela); err != nil {
		return nil, err
	}

	// Quitação: once nothing is left owing, close the contract.
	abertas, err := s.parcelas.Count(ctx, escritorioID, map[string]interface{}{
		"contrato_id": parcela.ContratoID,
	})
	if err != nil {
		return nil, err
	}
	var pagasOuCanceladas int64
	err = s.db.WithContext(ctx).Model(&models.ParcelaHonorario{}).
		Where("escritorio_id = ? AND contrato_id = ? AND status IN ?",
			escritorioID, parcela.ContratoID, []string{models.ParcelaPaga, models.ParcelaCancelada}).
		Count(&pagasOuCanceladas).Error
	if err != nil {
		return nil, err
	}
	if abertas == pagasOuCanceladas {
		if err := s.contratos.UpdateFields(ctx, escritorioID, parcela.ContratoID, map[string]interface{}{
			"data_encerramento": dataPagamento,
		}); err != nil {
			return nil, err
		}
	}
	return parcela, nil
}

// Cancelar deactivates a contract and cancels its open installments. Paid
// installments keep their history.
func (s *HonorarioService) Cancelar(ctx context.Context, escritorioID, id string) error {
	contrato, err := s.contratos.GetByID(ctx, escritorioID, id)
	if err != nil {
		return err
	}
	if !contrato.IsActive {
		return apperrors.Conflict("contrato já cancelado")
	}
	if contrato.DataEncerramento != nil {
		return apperrors.Conflict("contrato quitado não pode ser cancelado")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ParcelaHonorario{}).
			Where("escritorio_id = ? AND contrato_id = ? AND status IN ?",
				escritorioID, id, []string{models.ParcelaPendente, models.ParcelaAtrasada}).
			Update("status", models.ParcelaCancelada).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.ContratoHonorario{}).
			Where("escritorio_id = ? AND id = ?", escritorioID, id).
			Update("is_active", false).Error
	})
}

// ListParcelasAtrasadas returns the tenant's overdue installments, oldest
// due date first.
func (s *HonorarioService) ListParcelasAtrasadas(ctx context.Context, escritorioID string, page, pageSize int) ([]models.ParcelaHonorario, int64, error) {
	return s.parcelas.List(ctx, escritorioID, repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  map[string]interface{}{"status": models.ParcelaAtrasada},
		OrderBy:  "data_vencimento ASC",
	})
}

// MarcarParcelasAtrasadas transitions pending installments past their due
// date to atrasada, across all tenants. Returns the updated installments
// with contract and client preloaded.
func (s *HonorarioService) MarcarParcelasAtrasadas(ctx context.Context, agora time.Time) ([]models.ParcelaHonorario, error) {
	var vencidas []models.ParcelaHonorario
	err := s.db.WithContext(ctx).
		Preload("Contrato").
		Preload("Contrato.Cliente").
		Where("status = ? AND data_vencimento < ?", models.ParcelaPendente, agora).
		Find(&vencidas).Error
	if err != nil {
		return nil, err
	}

	var atrasadas []models.ParcelaHonorario
	for i := range vencidas {
		result := s.db.WithContext(ctx).
			Model(&models.ParcelaHonorario{}).
			Where("id = ? AND status = ?", vencidas[i].ID, models.ParcelaPendente).
			Update("status", models.ParcelaAtrasada)
		if result.Error != nil {
			return atrasadas, result.Error
		}
		if result.RowsAffected == 1 {
			vencidas[i].Status = models.ParcelaAtrasada
			atrasadas = append(atrasadas, vencidas[i])
		}
	}
	return atrasadas, nil
}

// ResumoFinanceiro aggregates the tenant's receivables.
type ResumoFinanceiro struct {
	TotalContratadoCentavos int64 `json:"total_contratado_centavos"`
	TotalRecebidoCentavos   int64 `json:"total_recebido_centavos"`
	TotalPendenteCentavos   int64 `json:"total_pendente_centavos"`
	TotalAtrasadoCentavos   int64 `json:"total_atrasado_centavos"`
	ParcelasAtrasadas       int64 `json:"parcelas_atrasadas"`
}

// Resumo computes the tenant's financial summary from installments.
func (s *HonorarioService) Resumo(ctx context.Context, escritorioID string) (*ResumoFinanceiro, error) {
	type linha struct {
		Status string
		Soma   int64
		Qtd    int64
	}
	var linhas []linha
	err := s.db.WithContext(ctx).
		Model(&models.ParcelaHonorario{}).
		Select("status, COALESCE(SUM(valor_centavos), 0) AS soma, COUNT(*) AS qtd").
		Where("escritorio_id = ?", escritorioID).
		Group("status").
		Scan(&linhas).Error
	if err != nil {
		return nil, err
	}

	resumo := &ResumoFinanceiro{}
	for _, l := range linhas {
		switch l.Status {
		case models.ParcelaPaga:
			resumo.TotalRecebidoCentavos += l.Soma
		case models.ParcelaPendente:
			resumo.TotalPendenteCentavos += l.Soma
		case models.ParcelaAtrasada:
			resumo.TotalAtrasadoCentavos += l.Soma
			resumo.ParcelasAtrasadas += l.Qtd
		}
		if l.Status != models.ParcelaCancelada {
			resumo.TotalContratadoCentavos += l.Soma
		}
	}
	return resumo, nil
}
