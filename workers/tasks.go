// Package workers contains the background task queue: task definitions,
// their handlers and the periodic scheduler.
package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names. Periodic tasks carry no payload.
const (
	TypeDocumentoProcessamento = "documento:processar"
	TypeDocumentoEmbedding     = "documento:embedding"
	TypePrazoScan              = "prazo:scan"
	TypeNotificacaoBatch       = "notificacao:batch"
	TypeCalculoSimulacao       = "calculo:simulacao"
)

// Queue names, by priority.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DocumentoPayload identifies a document inside a tenant.
type DocumentoPayload struct {
	EscritorioID string `json:"escritorio_id"`
	DocumentoID  string `json:"documento_id"`
}

// SimulacaoPayload identifies a client whose retirement simulation should
// be computed, and the user to notify with the outcome.
type SimulacaoPayload struct {
	EscritorioID string `json:"escritorio_id"`
	ClienteID    string `json:"cliente_id"`
	UsuarioID    string `json:"usuario_id"`
}

// NewDocumentoProcessamentoTask builds the AI extraction task for a
// document.
func NewDocumentoProcessamentoTask(escritorioID, documentoID string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentoPayload{EscritorioID: escritorioID, DocumentoID: documentoID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDocumentoProcessamento, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	), nil
}

// NewDocumentoEmbeddingTask builds the embedding generation task for a
// document.
func NewDocumentoEmbeddingTask(escritorioID, documentoID string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentoPayload{EscritorioID: escritorioID, DocumentoID: documentoID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDocumentoEmbedding, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	), nil
}

// NewCalculoSimulacaoTask builds the retirement simulation task for a
// client.
func NewCalculoSimulacaoTask(escritorioID, clienteID, usuarioID string) (*asynq.Task, error) {
	payload, err := json.Marshal(SimulacaoPayload{EscritorioID: escritorioID, ClienteID: clienteID, UsuarioID: usuarioID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCalculoSimulacao, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(2),
		asynq.Timeout(time.Minute),
	), nil
}

// Enqueuer implements services.TaskEnqueuer on top of the asynq client.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates an enqueuer for the given Redis broker.
func NewEnqueuer(redisOpt asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpt)}
}

// Close releases the broker connection.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// EnqueueDocumentoProcessamento queues AI extraction for a document.
func (e *Enqueuer) EnqueueDocumentoProcessamento(ctx context.Context, escritorioID, documentoID string) error {
	task, err := NewDocumentoProcessamentoTask(escritorioID, documentoID)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	return err
}

// EnqueueDocumentoEmbedding queues embedding generation for a document.
func (e *Enqueuer) EnqueueDocumentoEmbedding(ctx context.Context, escritorioID, documentoID string) error {
	task, err := NewDocumentoEmbeddingTask(escritorioID, documentoID)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	return err
}

// EnqueueCalculoSimulacao queues a retirement simulation for a client.
func (e *Enqueuer) EnqueueCalculoSimulacao(ctx context.Context, escritorioID, clienteID, usuarioID string) error {
	task, err := NewCalculoSimulacaoTask(escritorioID, clienteID, usuarioID)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	return err
}
