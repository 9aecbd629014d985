package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"inss_crm_go/ai"
	"inss_crm_go/metrics"
	"inss_crm_go/models"
	"inss_crm_go/services"
)

// Processor holds the dependencies the task handlers need.
type Processor struct {
	documentos   *services.DocumentoService
	clientes     *services.ClienteService
	processos    *services.ProcessoService
	honorarios   *services.HonorarioService
	notificacoes *services.NotificacaoService
	gemini       *ai.Client
	enqueuer     services.TaskEnqueuer
	metrics      *metrics.Metrics
	log          *zap.Logger
}

// NewProcessor creates the task processor.
func NewProcessor(
	documentos *services.DocumentoService,
	clientes *services.ClienteService,
	processos *services.ProcessoService,
	honorarios *services.HonorarioService,
	notificacoes *services.NotificacaoService,
	gemini *ai.Client,
	enqueuer services.TaskEnqueuer,
	m *metrics.Metrics,
	log *zap.Logger,
) *Processor {
	return &Processor{
		documentos:   documentos,
		clientes:     clientes,
		processos:    processos,
		honorarios:   honorarios,
		notificacoes: notificacoes,
		gemini:       gemini,
		enqueuer:     enqueuer,
		metrics:      m,
		log:          log,
	}
}

// NewMux registers every task handler.
func (p *Processor) NewMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDocumentoProcessamento, p.HandleDocumentoProcessamento)
	mux.HandleFunc(TypeDocumentoEmbedding, p.HandleDocumentoEmbedding)
	mux.HandleFunc(TypePrazoScan, p.HandlePrazoScan)
	mux.HandleFunc(TypeNotificacaoBatch, p.HandleNotificacaoBatch)
	mux.HandleFunc(TypeCalculoSimulacao, p.HandleCalculoSimulacao)
	return mux
}

// HandleDocumentoProcessamento runs AI extraction for one document: fetch
// the binary, route to the extractor matching the document type, store the
// result and queue embedding generation. A reply the model formatted wrong
// is a permanent failure; transport errors are retried by the queue.
func (p *Processor) HandleDocumentoProcessamento(ctx context.Context, task *asynq.Task) error {
	var payload DocumentoPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	documento, err := p.documentos.GetByID(ctx, payload.EscritorioID, payload.DocumentoID)
	if err != nil {
		return fmt.Errorf("documento %s: %v: %w", payload.DocumentoID, err, asynq.SkipRetry)
	}

	if err := p.documentos.MarcarProcessando(ctx, payload.EscritorioID, payload.DocumentoID); err != nil {
		// Already processed by an earlier attempt.
		p.log.Info("documento fora do estado pendente, ignorando",
			zap.String("documento_id", payload.DocumentoID))
		return nil
	}

	reader, _, err := p.documentos.Conteudo(ctx, payload.EscritorioID, payload.DocumentoID)
	if err != nil {
		return err
	}
	defer reader.Close()
	conteudo, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	arquivo := &ai.Arquivo{MimeType: documento.ContentType, Data: conteudo}
	dados, resumo, err := p.extrair(ctx, documento, arquivo)
	if err != nil {
		if errors.Is(err, ai.ErrRespostaInvalida) {
			// Model replied but not with the JSON asked for. Retrying
			// rarely helps; record the failure and stop.
			if regErr := p.documentos.RegistrarErroProcessamento(ctx, payload.EscritorioID, payload.DocumentoID, err.Error()); regErr != nil {
				return regErr
			}
			p.metrics.DocumentosProcessados.WithLabelValues("erro").Inc()
			p.notificarDocumento(ctx, documento, false)
			p.log.Warn("extração descartada por resposta inválida",
				zap.String("documento_id", payload.DocumentoID))
			return nil
		}
		// Transport/quota failure: hand the document back to the queue so
		// the retry finds it pendente again. Only the exhausted last
		// attempt leaves erro behind.
		if ultimaTentativa(ctx) {
			if regErr := p.documentos.RegistrarErroProcessamento(ctx, payload.EscritorioID, payload.DocumentoID, err.Error()); regErr != nil {
				p.log.Error("falha ao registrar erro de processamento", zap.Error(regErr))
			}
			p.metrics.DocumentosProcessados.WithLabelValues("erro").Inc()
			p.notificarDocumento(ctx, documento, false)
		} else {
			if regErr := p.documentos.DevolverParaFila(ctx, payload.EscritorioID, payload.DocumentoID, err.Error()); regErr != nil {
				p.log.Error("falha ao devolver documento para a fila", zap.Error(regErr))
			}
		}
		return err
	}

	if err := p.documentos.RegistrarExtracao(ctx, payload.EscritorioID, payload.DocumentoID, dados, resumo); err != nil {
		return err
	}
	p.metrics.DocumentosProcessados.WithLabelValues("concluido").Inc()
	p.notificarDocumento(ctx, documento, true)
	p.log.Info("documento processado",
		zap.String("documento_id", payload.DocumentoID),
		zap.String("tipo", documento.Tipo))

	if err := p.enqueuer.EnqueueDocumentoEmbedding(ctx, payload.EscritorioID, payload.DocumentoID); err != nil {
		p.log.Warn("falha ao enfileirar embedding", zap.Error(err))
	}

	// A fresh CNIS gives enough history to recompute the client's
	// retirement eligibility.
	if documento.Tipo == models.DocumentoCNIS && documento.ClienteID != nil && documento.EnviadoPorID != nil {
		if err := p.enqueuer.EnqueueCalculoSimulacao(ctx, payload.EscritorioID, *documento.ClienteID, *documento.EnviadoPorID); err != nil {
			p.log.Warn("falha ao enfileirar simulação", zap.Error(err))
		}
	}

	// Identity documents complete the client's record, filling in fields
	// the intake form left blank.
	if extraido, ok := dados.(*ai.ClienteExtraido); ok && documento.ClienteID != nil {
		preenchidos, err := p.clientes.PreencherDesdeDocumento(ctx, payload.EscritorioID,
			*documento.ClienteID, converterIdentidade(extraido))
		if err != nil {
			p.log.Warn("falha ao preencher cadastro do cliente",
				zap.String("cliente_id", *documento.ClienteID), zap.Error(err))
		} else if preenchidos > 0 {
			p.log.Info("cadastro do cliente preenchido por documento",
				zap.String("cliente_id", *documento.ClienteID),
				zap.Int("campos", preenchidos))
		}
	}
	return nil
}

// notificarDocumento records the processing outcome for the uploader. A
// failure to create the alert never fails the task.
func (p *Processor) notificarDocumento(ctx context.Context, documento *models.Documento, sucesso bool) {
	if err := p.notificacoes.NotificarDocumentoProcessado(ctx, documento, sucesso); err != nil {
		p.log.Error("falha ao criar notificação de documento processado",
			zap.String("documento_id", documento.ID),
			zap.Error(err))
	}
}

// converterIdentidade maps the AI extraction result onto the client
// backfill input. Birth dates that fail to parse are dropped.
func converterIdentidade(extraido *ai.ClienteExtraido) services.DadosIdentidade {
	dados := services.DadosIdentidade{
		CPF:            extraido.CPF,
		RG:             extraido.RG,
		RGOrgaoEmissor: extraido.RGOrgaoEmissor,
		Sexo:           extraido.Sexo,
		NomeMae:        extraido.NomeMae,
		NomePai:        extraido.NomePai,
		Naturalidade:   extraido.Naturalidade,
	}
	if extraido.DataNascimento != nil {
		if nascimento, err := time.Parse("2006-01-02", *extraido.DataNascimento); err == nil {
			dados.DataNascimento = &nascimento
		}
	}
	return dados
}

// ultimaTentativa reports whether the task has no retries left. Tasks
// running outside an asynq server (no retry metadata in ctx) are treated as
// retryable.
func ultimaTentativa(ctx context.Context) bool {
	feitas, okFeitas := asynq.GetRetryCount(ctx)
	maximo, okMaximo := asynq.GetMaxRetry(ctx)
	return okFeitas && okMaximo && feitas >= maximo
}

// extrair routes a document to the extractor matching its declared type.
func (p *Processor) extrair(ctx context.Context, documento *models.Documento, arquivo *ai.Arquivo) (interface{}, string, error) {
	switch documento.Tipo {
	case models.DocumentoRG, models.DocumentoCPF, models.DocumentoCNH:
		dados, err := p.gemini.ExtractIdentityDocument(ctx, arquivo)
		if err != nil {
			return nil, "", err
		}
		return dados, "", nil

	case models.DocumentoCNIS:
		dados, err := p.gemini.ExtractCNIS(ctx, arquivo)
		if err != nil {
			return nil, "", err
		}
		return dados, "", nil

	case models.DocumentoPPP:
		dados, err := p.gemini.AnalyzePPP(ctx, arquivo)
		if err != nil {
			return nil, "", err
		}
		return dados, "", nil

	case models.DocumentoSentenca:
		dados, err := p.gemini.AnalyzeSentenca(ctx, arquivo)
		if err != nil {
			return nil, "", err
		}
		return dados, "", nil

	default:
		// Unknown upload: classify it, then summarize.
		classificacao, err := p.gemini.ClassifyDocument(ctx, arquivo)
		if err != nil {
			return nil, "", err
		}
		resumo, err := p.gemini.SummarizeDocument(ctx, arquivo)
		if err != nil {
			return nil, "", err
		}
		return classificacao, resumo, nil
	}
}

// HandleDocumentoEmbedding generates and stores the semantic search vector
// for a processed document. Documents whose extraction failed are skipped.
func (p *Processor) HandleDocumentoEmbedding(ctx context.Context, task *asynq.Task) error {
	var payload DocumentoPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	documento, err := p.documentos.GetByID(ctx, payload.EscritorioID, payload.DocumentoID)
	if err != nil {
		return fmt.Errorf("documento %s: %v: %w", payload.DocumentoID, err, asynq.SkipRetry)
	}
	if !documento.ProcessadoIA {
		p.log.Info("documento sem extração concluída, embedding ignorado",
			zap.String("documento_id", payload.DocumentoID))
		return nil
	}

	texto := documento.NomeOriginal
	if documento.Resumo != nil && *documento.Resumo != "" {
		texto = *documento.Resumo
	} else if documento.DadosExtraidos != nil && *documento.DadosExtraidos != "" {
		texto = *documento.DadosExtraidos
	}

	vetor, err := p.gemini.GenerateEmbedding(ctx, texto)
	if err != nil {
		return err
	}
	if err := p.documentos.RegistrarEmbedding(ctx, payload.EscritorioID, payload.DocumentoID, vetor); err != nil {
		return err
	}
	p.log.Info("embedding gerado",
		zap.String("documento_id", payload.DocumentoID),
		zap.Int("dimensao", len(vetor)))
	return nil
}

// HandlePrazoScan is the periodic deadline sweep: expired pending deadlines
// become perdido, deadlines inside their alert window generate a warning,
// and overdue installments are flagged. Runs every 30 minutes.
func (p *Processor) HandlePrazoScan(ctx context.Context, task *asynq.Task) error {
	agora := time.Now()

	perdidos, err := p.processos.MarcarPrazosPerdidos(ctx, agora)
	if err != nil {
		return err
	}
	p.metrics.PrazosPerdidosTotal.Add(float64(len(perdidos)))
	for i := range perdidos {
		if err := p.notificacoes.NotificarPrazoPerdido(ctx, &perdidos[i]); err != nil {
			p.log.Error("falha ao criar notificação de prazo perdido",
				zap.String("prazo_id", perdidos[i].ID),
				zap.Error(err))
		}
	}

	emAlerta, err := p.processos.ListPrazosEmAlerta(ctx, agora)
	if err != nil {
		return err
	}
	for i := range emAlerta {
		prazo := &emAlerta[i]
		if err := p.notificacoes.NotificarPrazoProximo(ctx, prazo); err != nil {
			p.log.Error("falha ao criar notificação de prazo próximo",
				zap.String("prazo_id", prazo.ID),
				zap.Error(err))
			continue
		}
		if err := p.processos.MarcarNotificacaoEnviada(ctx, prazo.EscritorioID, prazo.ID); err != nil {
			p.log.Error("falha ao marcar prazo como notificado",
				zap.String("prazo_id", prazo.ID),
				zap.Error(err))
		}
	}

	atrasadas, err := p.honorarios.MarcarParcelasAtrasadas(ctx, agora)
	if err != nil {
		return err
	}
	for i := range atrasadas {
		if err := p.notificacoes.NotificarParcelaVencida(ctx, &atrasadas[i]); err != nil {
			p.log.Error("falha ao criar notificação de parcela vencida",
				zap.String("parcela_id", atrasadas[i].ID),
				zap.Error(err))
		}
	}

	p.log.Info("varredura de prazos concluída",
		zap.Int("perdidos", len(perdidos)),
		zap.Int("em_alerta", len(emAlerta)),
		zap.Int("parcelas_atrasadas", len(atrasadas)))
	return nil
}

// HandleNotificacaoBatch flushes the pending notification outbox. Runs
// every 5 minutes.
func (p *Processor) HandleNotificacaoBatch(ctx context.Context, task *asynq.Task) error {
	enviadas, err := p.notificacoes.DispatchPendentes(ctx, 100)
	if err != nil {
		return err
	}
	if enviadas > 0 {
		p.log.Info("lote de notificações enviado", zap.Int("enviadas", enviadas))
	}
	return nil
}

// HandleCalculoSimulacao recomputes a client's retirement eligibility from
// their most recent extracted CNIS and notifies the requesting user with
// the outcome.
func (p *Processor) HandleCalculoSimulacao(ctx context.Context, task *asynq.Task) error {
	var payload SimulacaoPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	cliente, err := p.clientes.GetByID(ctx, payload.EscritorioID, payload.ClienteID)
	if err != nil {
		return fmt.Errorf("cliente %s: %v: %w", payload.ClienteID, err, asynq.SkipRetry)
	}
	if cliente.DataNascimento == nil || cliente.Sexo == nil {
		p.log.Info("cliente sem data de nascimento ou sexo, simulação ignorada",
			zap.String("cliente_id", payload.ClienteID))
		return nil
	}

	dados, err := p.ultimoCNIS(ctx, payload.EscritorioID, payload.ClienteID)
	if err != nil {
		return err
	}
	if dados == nil {
		p.log.Info("cliente sem CNIS processado, simulação ignorada",
			zap.String("cliente_id", payload.ClienteID))
		return nil
	}

	vinculos, contribuicoes := converterCNIS(dados)
	simulacao := services.SimularAposentadoria(*cliente.DataNascimento, *cliente.Sexo, vinculos, contribuicoes, time.Now())

	var aptas []string
	for _, regra := range simulacao.Regras {
		if regra.Apto {
			aptas = append(aptas, regra.Nome)
		}
	}
	mensagem := fmt.Sprintf(
		"Simulação concluída para %s: %d anos de idade, %d anos de contribuição.",
		cliente.Nome, simulacao.IdadeAtual, simulacao.TempoContribuicao.Anos)
	if len(aptas) > 0 {
		mensagem += " Regras atendidas: " + strings.Join(aptas, ", ") + "."
		if simulacao.RMIEstimadaCentavos > 0 {
			mensagem += " RMI estimada: " + services.FormatarCentavos(simulacao.RMIEstimadaCentavos) + "."
		}
	} else {
		mensagem += " Nenhuma regra de aposentadoria atendida ainda."
	}

	notificacao := &models.Notificacao{
		UsuarioID: payload.UsuarioID,
		Tipo:      models.NotificacaoSistema,
		Canal:     models.CanalSistema,
		Titulo:    "Simulação de aposentadoria",
		Mensagem:  mensagem,
	}
	if err := p.notificacoes.Criar(ctx, payload.EscritorioID, notificacao); err != nil {
		return err
	}
	p.log.Info("simulação concluída",
		zap.String("cliente_id", payload.ClienteID),
		zap.Int("regras_aptas", len(aptas)))
	return nil
}

// ultimoCNIS returns the newest extracted CNIS of the client, or nil when
// none was processed yet.
func (p *Processor) ultimoCNIS(ctx context.Context, escritorioID, clienteID string) (*ai.DadosCNIS, error) {
	documentos, _, err := p.documentos.List(ctx, escritorioID, 1, 20, clienteID, "", models.StatusIAConcluido)
	if err != nil {
		return nil, err
	}
	for i := range documentos {
		d := &documentos[i]
		if d.Tipo != models.DocumentoCNIS || d.DadosExtraidos == nil {
			continue
		}
		var dados ai.DadosCNIS
		if err := json.Unmarshal([]byte(*d.DadosExtraidos), &dados); err != nil {
			p.log.Warn("dados de CNIS corrompidos",
				zap.String("documento_id", d.ID),
				zap.Error(err))
			continue
		}
		return &dados, nil
	}
	return nil, nil
}

// converterCNIS maps the extracted CNIS records into the calculation
// inputs. Records without a parseable start date are dropped.
func converterCNIS(dados *ai.DadosCNIS) ([]services.Vinculo, []services.Contribuicao) {
	var vinculos []services.Vinculo
	for _, v := range dados.Vinculos {
		if v.DataInicio == nil {
			continue
		}
		inicio, err := time.Parse("2006-01-02", *v.DataInicio)
		if err != nil {
			continue
		}
		vinculo := services.Vinculo{Empregador: v.Empregador, DataInicio: inicio}
		if v.DataFim != nil {
			if fim, err := time.Parse("2006-01-02", *v.DataFim); err == nil {
				vinculo.DataFim = &fim
			}
		}
		vinculos = append(vinculos, vinculo)
	}

	var contribuicoes []services.Contribuicao
	for _, c := range dados.Contribuicoes {
		if c.Valor == nil || *c.Valor <= 0 {
			continue
		}
		contribuicoes = append(contribuicoes, services.Contribuicao{
			Competencia:   c.Competencia,
			ValorCentavos: int64(*c.Valor*100 + 0.5),
		})
	}
	return vinculos, contribuicoes
}
