package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
	"inss_crm_go/repository"
)

// TaskEnqueuer hands work to the background queue. The worker package
// implements it; keeping the interface here avoids a dependency cycle.
type TaskEnqueuer interface {
	EnqueueDocumentoProcessamento(ctx context.Context, escritorioID, documentoID string) error
	EnqueueDocumentoEmbedding(ctx context.Context, escritorioID, documentoID string) error
	EnqueueCalculoSimulacao(ctx context.Context, escritorioID, clienteID, usuarioID string) error
}

// NoopEnqueuer discards tasks. Used in tests and when no broker is
// configured.
type NoopEnqueuer struct{}

func (NoopEnqueuer) EnqueueDocumentoProcessamento(ctx context.Context, escritorioID, documentoID string) error {
	return nil
}

func (NoopEnqueuer) EnqueueDocumentoEmbedding(ctx context.Context, escritorioID, documentoID string) error {
	return nil
}

func (NoopEnqueuer) EnqueueCalculoSimulacao(ctx context.Context, escritorioID, clienteID, usuarioID string) error {
	return nil
}

// DocumentoService implements upload, deduplication, AI result write-back
// and semantic search over documents.
type DocumentoService struct {
	repo     *repository.Repository[models.Documento, *models.Documento]
	storage  StorageProvider
	enqueuer TaskEnqueuer
	log      *zap.Logger

	maxUploadBytes int64
}

// NewDocumentoService creates a document service.
func NewDocumentoService(db *gorm.DB, storage StorageProvider, enqueuer TaskEnqueuer, maxUploadSizeMB int, log *zap.Logger) *DocumentoService {
	if enqueuer == nil {
		enqueuer = NoopEnqueuer{}
	}
	return &DocumentoService{
		repo:           repository.New[models.Documento](db),
		storage:        storage,
		enqueuer:       enqueuer,
		log:            log,
		maxUploadBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

var tiposPermitidos = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// UploadRequest carries the metadata accepted alongside an upload.
type UploadRequest struct {
	Tipo       string  `json:"tipo"`
	Categoria  string  `json:"categoria"`
	ClienteID  *string `json:"cliente_id,omitempty"`
	ProcessoID *string `json:"processo_id,omitempty"`
}

// Upload stores a file, persists its metadata and enqueues AI processing.
// An identical file (same SHA-256) already present in the tenant is a
// conflict.
func (s *DocumentoService) Upload(ctx context.Context, escritorioID, usuarioID string, file *multipart.FileHeader, req UploadRequest) (*models.Documento, error) {
	if file.Size > s.maxUploadBytes {
		return nil, apperrors.Validation("arquivo excede o limite de %d MB", s.maxUploadBytes/(1024*1024))
	}
	contentType := file.Header.Get("Content-Type")
	if !tiposPermitidos[contentType] {
		return nil, apperrors.Validation("tipo de arquivo não suportado: %s", contentType)
	}
	if req.Categoria != "" && !models.IsValidCategoria(req.Categoria) {
		return nil, apperrors.Validation("categoria inválida: %s", req.Categoria)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, src); err != nil {
		return nil, fmt.Errorf("failed to hash upload: %w", err)
	}
	hash := hex.EncodeToString(hasher.Sum(nil))
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	existente, err := s.repo.FindOne(ctx, escritorioID, map[string]interface{}{"hash_sha256": hash})
	if err == nil && existente != nil {
		return nil, apperrors.Conflict("documento idêntico já enviado: %s", existente.Nome)
	}
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	var key string
	switch {
	case req.ProcessoID != nil:
		key = GenerateProcessoDocumentKey(escritorioID, *req.ProcessoID, file.Filename)
	case req.ClienteID != nil:
		key = GenerateClienteDocumentKey(escritorioID, *req.ClienteID, file.Filename)
	default:
		key = GenerateAvulsoDocumentKey(escritorioID, file.Filename)
	}

	result, err := s.storage.UploadReader(ctx, src, key, contentType, file.Size)
	if err != nil {
		return nil, apperrors.Upstream("storage", err)
	}

	tipo := req.Tipo
	if tipo == "" {
		tipo = models.DocumentoOutros
	}
	categoria := req.Categoria
	if categoria == "" {
		categoria = models.CategoriaOutros
	}

	documento := &models.Documento{
		Nome:         result.FileName,
		NomeOriginal: file.Filename,
		Tipo:         tipo,
		Categoria:    categoria,
		StorageKey:   key,
		ContentType:  contentType,
		TamanhoBytes: file.Size,
		HashSHA256:   hash,
		StatusIA:     models.StatusIAPendente,
		ClienteID:    req.ClienteID,
		ProcessoID:   req.ProcessoID,
		EnviadoPorID: &usuarioID,
	}
	if err := s.repo.Create(ctx, escritorioID, documento); err != nil {
		// Upload already happened; best effort cleanup.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Warn("falha ao remover objeto órfão", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	if err := s.enqueuer.EnqueueDocumentoProcessamento(ctx, escritorioID, documento.ID); err != nil {
		// The upload stands; the document stays pendente until someone
		// re-enqueues it.
		s.log.Warn("falha ao enfileirar processamento de documento",
			zap.String("documento_id", documento.ID),
			zap.Error(err))
	}
	return documento, nil
}

// GetByID fetches one document's metadata.
func (s *DocumentoService) GetByID(ctx context.Context, escritorioID, id string) (*models.Documento, error) {
	return s.repo.GetByID(ctx, escritorioID, id)
}

// List pages through the tenant's documents, optionally filtered by client,
// case or AI status.
func (s *DocumentoService) List(ctx context.Context, escritorioID string, page, pageSize int, clienteID, processoID, statusIA string) ([]models.Documento, int64, error) {
	filters := map[string]interface{}{}
	if clienteID != "" {
		filters["cliente_id"] = clienteID
	}
	if processoID != "" {
		filters["processo_id"] = processoID
	}
	if statusIA != "" {
		if !models.IsValidStatusIA(statusIA) {
			return nil, 0, apperrors.Validation("status de processamento inválido: %s", statusIA)
		}
		filters["status_ia"] = statusIA
	}
	return s.repo.List(ctx, escritorioID, repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  filters,
		OrderBy:  "created_at DESC",
	})
}

// SignedURL returns a short-lived download link for a document.
func (s *DocumentoService) SignedURL(ctx context.Context, escritorioID, id string, validade time.Duration) (string, error) {
	documento, err := s.repo.GetByID(ctx, escritorioID, id)
	if err != nil {
		return "", err
	}
	if validade <= 0 {
		validade = 15 * time.Minute
	}
	url, err := s.storage.GetSignedURL(ctx, documento.StorageKey, validade)
	if err != nil {
		return "", apperrors.Upstream("storage", err)
	}
	return url, nil
}

// Conteudo streams a document's binary from storage.
func (s *DocumentoService) Conteudo(ctx context.Context, escritorioID, id string) (io.ReadCloser, string, error) {
	documento, err := s.repo.GetByID(ctx, escritorioID, id)
	if err != nil {
		return nil, "", err
	}
	reader, contentType, err := s.storage.Get(ctx, documento.StorageKey)
	if err != nil {
		return nil, "", apperrors.Upstream("storage", err)
	}
	return reader, contentType, nil
}

// Delete removes a document's row and its stored binary.
func (s *DocumentoService) Delete(ctx context.Context, escritorioID, id string) error {
	documento, err := s.repo.GetByID(ctx, escritorioID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, escritorioID, id); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, documento.StorageKey); err != nil {
		s.log.Warn("falha ao remover objeto do storage",
			zap.String("key", documento.StorageKey),
			zap.Error(err))
	}
	return nil
}

// MarcarProcessando flags a document as being worked on. Only pendente
// documents can start processing, so a retried task never clobbers a
// finished one.
func (s *DocumentoService) MarcarProcessando(ctx context.Context, escritorioID, id string) error {
	result := s.repo.DB().WithContext(ctx).
		Model(&models.Documento{}).
		Where("id = ? AND escritorio_id = ? AND status_ia = ?", id, escritorioID, models.StatusIAPendente).
		Update("status_ia", models.StatusIAProcessando)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("documento não está pendente de processamento")
	}
	return nil
}

// RegistrarExtracao stores a successful AI extraction result.
func (s *DocumentoService) RegistrarExtracao(ctx context.Context, escritorioID, id string, dadosExtraidos interface{}, resumo string) error {
	serializado, err := json.Marshal(dadosExtraidos)
	if err != nil {
		return err
	}
	dados := string(serializado)
	agora := time.Now()
	return s.repo.UpdateFields(ctx, escritorioID, id, map[string]interface{}{
		"status_ia":          models.StatusIAConcluido,
		"processado_ia":      true,
		"dados_extraidos":    dados,
		"resumo":             resumo,
		"erro_processamento": nil,
		"data_processamento": agora,
	})
}

// DevolverParaFila returns an in-flight document to pendente after a
// transient upstream failure, so the queue's next retry can claim it. The
// failure reason is kept for inspection.
func (s *DocumentoService) DevolverParaFila(ctx context.Context, escritorioID, id, motivo string) error {
	return s.repo.UpdateFields(ctx, escritorioID, id, map[string]interface{}{
		"status_ia":          models.StatusIAPendente,
		"erro_processamento": motivo,
	})
}

// Reprocessar re-queues a document whose extraction failed. Concluded and
// in-flight documents are never re-enqueued.
func (s *DocumentoService) Reprocessar(ctx context.Context, escritorioID, id string) error {
	documento, err := s.repo.GetByID(ctx, escritorioID, id)
	if err != nil {
		return err
	}
	if documento.StatusIA != models.StatusIAErro {
		return apperrors.Conflict("documento está %s, apenas erros podem ser reprocessados", documento.StatusIA)
	}

	err = s.repo.UpdateFields(ctx, escritorioID, id, map[string]interface{}{
		"status_ia":          models.StatusIAPendente,
		"erro_processamento": nil,
	})
	if err != nil {
		return err
	}
	if err := s.enqueuer.EnqueueDocumentoProcessamento(ctx, escritorioID, id); err != nil {
		// O documento fica pendente aguardando novo enfileiramento.
		s.log.Warn("falha ao reenfileirar processamento", zap.String("documento_id", id), zap.Error(err))
	}
	return nil
}

// RegistrarErroProcessamento stores a failed AI run. The document keeps
// processado_ia=false and never gets an embedding from this run.
func (s *DocumentoService) RegistrarErroProcessamento(ctx context.Context, escritorioID, id string, causaErro string) error {
	agora := time.Now()
	return s.repo.UpdateFields(ctx, escritorioID, id, map[string]interface{}{
		"status_ia":          models.StatusIAErro,
		"processado_ia":      false,
		"erro_processamento": causaErro,
		"data_processamento": agora,
	})
}

// RegistrarEmbedding stores the semantic search vector as JSON.
func (s *DocumentoService) RegistrarEmbedding(ctx context.Context, escritorioID, id string, vetor []float64) error {
	serializado, err := json.Marshal(vetor)
	if err != nil {
		return err
	}
	emb := string(serializado)
	return s.repo.UpdateFields(ctx, escritorioID, id, map[string]interface{}{
		"embedding": emb,
	})
}

// ResultadoBusca pairs a document with its semantic similarity score.
type ResultadoBusca struct {
	Documento models.Documento `json:"documento"`
	Score     float64          `json:"score"`
}

// BuscaSemantica ranks the tenant's embedded documents by cosine
// similarity against a query vector.
func (s *DocumentoService) BuscaSemantica(ctx context.Context, escritorioID string, queryVetor []float64, limite int) ([]ResultadoBusca, error) {
	if limite < 1 {
		limite = 10
	}

	var documentos []models.Documento
	err := s.repo.DB().WithContext(ctx).
		Where("escritorio_id = ? AND embedding IS NOT NULL", escritorioID).
		Find(&documentos).Error
	if err != nil {
		return nil, err
	}

	var resultados []ResultadoBusca
	for _, documento := range documentos {
		if !documento.TemEmbedding() {
			continue
		}
		var vetor []float64
		if err := json.Unmarshal([]byte(*documento.Embedding), &vetor); err != nil {
			s.log.Warn("embedding corrompido",
				zap.String("documento_id", documento.ID),
				zap.Error(err))
			continue
		}
		score, ok := SimilaridadeCosseno(queryVetor, vetor)
		if !ok {
			continue
		}
		resultados = append(resultados, ResultadoBusca{Documento: documento, Score: score})
	}

	sort.Slice(resultados, func(i, j int) bool {
		return resultados[i].Score > resultados[j].Score
	})
	if len(resultados) > limite {
		resultados = resultados[:limite]
	}
	return resultados, nil
}

// SimilaridadeCosseno computes cosine similarity for two vectors of equal
// dimension. ok is false on dimension mismatch or zero vectors.
func SimilaridadeCosseno(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
