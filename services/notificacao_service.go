package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inss_crm_go/models"
	"inss_crm_go/repository"
)

// NotificacaoService persists alerts and dispatches the pending ones by
// email. Delivery failures are recorded on the row and retried on the next
// batch.
type NotificacaoService struct {
	repo  *repository.Repository[models.Notificacao, *models.Notificacao]
	email *EmailService
	log   *zap.Logger
}

// NewNotificacaoService creates a notification service.
func NewNotificacaoService(db *gorm.DB, email *EmailService, log *zap.Logger) *NotificacaoService {
	return &NotificacaoService{
		repo:  repository.New[models.Notificacao](db),
		email: email,
		log:   log,
	}
}

// Criar persists a notification for later dispatch.
func (s *NotificacaoService) Criar(ctx context.Context, escritorioID string, n *models.Notificacao) error {
	if n.Canal == "" {
		n.Canal = models.CanalEmail
	}
	return s.repo.Create(ctx, escritorioID, n)
}

// ListarPorUsuario pages through one user's notifications, newest first.
func (s *NotificacaoService) ListarPorUsuario(ctx context.Context, escritorioID, usuarioID string, page, pageSize int, somenteNaoLidas bool) ([]models.Notificacao, int64, error) {
	filters := map[string]interface{}{"usuario_id": usuarioID}
	if somenteNaoLidas {
		filters["lida"] = false
	}
	return s.repo.List(ctx, escritorioID, repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  filters,
		OrderBy:  "created_at DESC",
	})
}

// ContarNaoLidas returns how many unread notifications a user has.
func (s *NotificacaoService) ContarNaoLidas(ctx context.Context, escritorioID, usuarioID string) (int64, error) {
	return s.repo.Count(ctx, escritorioID, map[string]interface{}{
		"usuario_id": usuarioID,
		"lida":       false,
	})
}

// MarcarLida flags one notification as read.
func (s *NotificacaoService) MarcarLida(ctx context.Context, escritorioID, id string) error {
	agora := time.Now()
	return s.repo.UpdateFields(ctx, escritorioID, id, map[string]interface{}{
		"lida":         true,
		"data_leitura": agora,
	})
}

// DispatchPendentes sends every undelivered email notification, across all
// tenants. Returns how many were delivered. A failed send is recorded on
// the row and the batch keeps going.
func (s *NotificacaoService) DispatchPendentes(ctx context.Context, limite int) (int, error) {
	if limite < 1 {
		limite = 100
	}

	var pendentes []models.Notificacao
	err := s.repo.DB().WithContext(ctx).
		Preload("Usuario").
		Where("enviada = ? AND canal = ?", false, models.CanalEmail).
		Order("created_at ASC").
		Limit(limite).
		Find(&pendentes).Error
	if err != nil {
		return 0, err
	}

	enviadas := 0
	for i := range pendentes {
		n := &pendentes[i]
		if n.Usuario.Email == "" {
			continue
		}

		email := &Email{
			To:       []string{n.Usuario.Email},
			Subject:  n.Titulo,
			TextBody: n.Mensagem,
		}
		if err := s.email.Send(email); err != nil {
			msg := err.Error()
			s.log.Warn("falha ao enviar notificação",
				zap.String("notificacao_id", n.ID),
				zap.Error(err))
			s.repo.DB().WithContext(ctx).
				Model(n).
				Update("erro_envio", msg)
			continue
		}

		agora := time.Now()
		err := s.repo.DB().WithContext(ctx).
			Model(n).
			Updates(map[string]interface{}{
				"enviada":    true,
				"data_envio": agora,
				"erro_envio": nil,
			}).Error
		if err != nil {
			return enviadas, err
		}
		enviadas++
	}
	return enviadas, nil
}

// NotificarDocumentoProcessado records an alert for the user who uploaded a
// document once its extraction finished, succeeding or not. Documents sent
// without a known uploader produce no alert.
func (s *NotificacaoService) NotificarDocumentoProcessado(ctx context.Context, documento *models.Documento, sucesso bool) error {
	if documento.EnviadoPorID == nil {
		return nil
	}
	var usuario models.Usuario
	err := s.repo.DB().WithContext(ctx).
		Where("id = ? AND escritorio_id = ?", *documento.EnviadoPorID, documento.EscritorioID).
		First(&usuario).Error
	if err != nil {
		s.log.Warn("remetente do documento não encontrado, notificação não criada",
			zap.String("documento_id", documento.ID))
		return nil
	}
	email := BuildDocumentoProcessadoEmail("", usuario.Nome, documento.NomeOriginal, sucesso)
	n := &models.Notificacao{
		UsuarioID: usuario.ID,
		Tipo:      models.NotificacaoDocumentoPronto,
		Canal:     models.CanalEmail,
		Titulo:    email.Subject,
		Mensagem:  email.TextBody,
	}
	return s.Criar(ctx, documento.EscritorioID, n)
}

// NotificarParcelaVencida records a finance alert for an overdue fee
// installment, addressed to the tenant's active admins. The installment must
// carry its contract and client preloaded.
func (s *NotificacaoService) NotificarParcelaVencida(ctx context.Context, parcela *models.ParcelaHonorario) error {
	var admins []models.Usuario
	err := s.repo.DB().WithContext(ctx).
		Where("escritorio_id = ? AND role = ? AND is_active = ?", parcela.EscritorioID, models.RoleAdmin, true).
		Find(&admins).Error
	if err != nil {
		return err
	}
	for i := range admins {
		email := BuildParcelaVencidaEmail("", admins[i].Nome, parcela.Contrato.Cliente.Nome,
			parcela.Numero, parcela.ValorCentavos, parcela.DataVencimento)
		n := &models.Notificacao{
			UsuarioID: admins[i].ID,
			Tipo:      models.NotificacaoParcelaVencida,
			Canal:     models.CanalEmail,
			Titulo:    email.Subject,
			Mensagem:  email.TextBody,
		}
		if err := s.Criar(ctx, parcela.EscritorioID, n); err != nil {
			return err
		}
	}
	return nil
}

// NotificarPrazoPerdido records an alert for a deadline that expired.
func (s *NotificacaoService) NotificarPrazoPerdido(ctx context.Context, prazo *models.Prazo) error {
	if prazo.ResponsavelID == nil {
		s.log.Warn("prazo perdido sem responsável, notificação não criada",
			zap.String("prazo_id", prazo.ID))
		return nil
	}
	nome := ""
	if prazo.Responsavel != nil {
		nome = prazo.Responsavel.Nome
	}
	email := BuildPrazoPerdidoEmail("", nome, prazo.Processo.NumeroPrincipal(), prazo.Descricao, prazo.DataFatal)
	n := &models.Notificacao{
		UsuarioID:  *prazo.ResponsavelID,
		Tipo:       models.NotificacaoPrazoPerdido,
		Canal:      models.CanalEmail,
		Titulo:     email.Subject,
		Mensagem:   email.TextBody,
		ProcessoID: &prazo.ProcessoID,
		PrazoID:    &prazo.ID,
	}
	return s.Criar(ctx, prazo.EscritorioID, n)
}

// NotificarPrazoProximo records an alert for a deadline inside its warning
// window.
func (s *NotificacaoService) NotificarPrazoProximo(ctx context.Context, prazo *models.Prazo) error {
	if prazo.ResponsavelID == nil {
		return nil
	}
	nome := ""
	if prazo.Responsavel != nil {
		nome = prazo.Responsavel.Nome
	}
	email := BuildPrazoProximoEmail("", nome, prazo.Processo.NumeroPrincipal(), prazo.Descricao, prazo.DataFatal, prazo.DiasRestantes())
	n := &models.Notificacao{
		UsuarioID:  *prazo.ResponsavelID,
		Tipo:       models.NotificacaoPrazoProximo,
		Canal:      models.CanalEmail,
		Titulo:     email.Subject,
		Mensagem:   email.TextBody,
		ProcessoID: &prazo.ProcessoID,
		PrazoID:    &prazo.ID,
	}
	return s.Criar(ctx, prazo.EscritorioID, n)
}
