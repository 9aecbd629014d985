package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
)

func criarFileHeader(t *testing.T, filename, contentType string, conteudo []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(conteudo)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func novoDocumentoService(t *testing.T, dbName string) (*DocumentoService, string) {
	t.Helper()
	database := setupTestDB(t, dbName)
	escritorio := criarEscritorioTeste(t, database, dbName)
	storage := NewLocalStorage(t.TempDir())
	service := NewDocumentoService(database, storage, nil, 50, zap.NewNop())
	return service, escritorio.ID
}

func TestUploadEDedupe(t *testing.T) {
	service, escritorioID := novoDocumentoService(t, "documento_upload")
	ctx := context.Background()

	conteudo := []byte("%PDF-1.4 conteudo do cnis")
	file := criarFileHeader(t, "cnis.pdf", "application/pdf", conteudo)

	documento, err := service.Upload(ctx, escritorioID, "usuario-1", file, UploadRequest{
		Tipo:      models.DocumentoCNIS,
		Categoria: models.CategoriaPrevidenciario,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusIAPendente, documento.StatusIA)
	assert.False(t, documento.ProcessadoIA)
	assert.Len(t, documento.HashSHA256, 64)

	// Mesmo conteúdo de novo, mesmo com outro nome, é conflito.
	duplicado := criarFileHeader(t, "cnis_copia.pdf", "application/pdf", conteudo)
	_, err = service.Upload(ctx, escritorioID, "usuario-1", duplicado, UploadRequest{})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUploadTipoNaoSuportado(t *testing.T) {
	service, escritorioID := novoDocumentoService(t, "documento_tipo")
	ctx := context.Background()

	file := criarFileHeader(t, "virus.exe", "application/x-msdownload", []byte("MZ"))
	_, err := service.Upload(ctx, escritorioID, "usuario-1", file, UploadRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRegistrarErroProcessamento(t *testing.T) {
	service, escritorioID := novoDocumentoService(t, "documento_erro")
	ctx := context.Background()

	file := criarFileHeader(t, "laudo.pdf", "application/pdf", []byte("%PDF laudo"))
	documento, err := service.Upload(ctx, escritorioID, "usuario-1", file, UploadRequest{})
	require.NoError(t, err)

	require.NoError(t, service.MarcarProcessando(ctx, escritorioID, documento.ID))
	require.NoError(t, service.RegistrarErroProcessamento(ctx, escritorioID, documento.ID, "resposta da IA não é JSON válido"))

	carregado, err := service.GetByID(ctx, escritorioID, documento.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIAErro, carregado.StatusIA)
	assert.False(t, carregado.ProcessadoIA)
	require.NotNil(t, carregado.ErroProcessamento)
	assert.Contains(t, *carregado.ErroProcessamento, "JSON")
	assert.False(t, carregado.TemEmbedding())

	// Documento com erro não volta a processando por engano.
	err = service.MarcarProcessando(ctx, escritorioID, documento.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestReprocessar(t *testing.T) {
	service, escritorioID := novoDocumentoService(t, "documento_reprocessar")
	ctx := context.Background()

	file := criarFileHeader(t, "carta.pdf", "application/pdf", []byte("%PDF carta de concessão"))
	documento, err := service.Upload(ctx, escritorioID, "usuario-1", file, UploadRequest{})
	require.NoError(t, err)

	// Pendente ainda está na fila, reprocessar não se aplica.
	err = service.Reprocessar(ctx, escritorioID, documento.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	require.NoError(t, service.MarcarProcessando(ctx, escritorioID, documento.ID))
	require.NoError(t, service.RegistrarErroProcessamento(ctx, escritorioID, documento.ID, "timeout na extração"))

	require.NoError(t, service.Reprocessar(ctx, escritorioID, documento.ID))

	carregado, err := service.GetByID(ctx, escritorioID, documento.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIAPendente, carregado.StatusIA)
	assert.Nil(t, carregado.ErroProcessamento)
}

func TestRegistrarExtracao(t *testing.T) {
	service, escritorioID := novoDocumentoService(t, "documento_extracao")
	ctx := context.Background()

	file := criarFileHeader(t, "rg.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	documento, err := service.Upload(ctx, escritorioID, "usuario-1", file, UploadRequest{
		Tipo: models.DocumentoRG,
	})
	require.NoError(t, err)

	require.NoError(t, service.MarcarProcessando(ctx, escritorioID, documento.ID))
	dados := map[string]interface{}{"nome": "JOÃO DA SILVA", "confidence": 0.9}
	require.NoError(t, service.RegistrarExtracao(ctx, escritorioID, documento.ID, dados, "Documento de identidade de João da Silva"))

	carregado, err := service.GetByID(ctx, escritorioID, documento.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIAConcluido, carregado.StatusIA)
	assert.True(t, carregado.ProcessadoIA)
	require.NotNil(t, carregado.DadosExtraidos)
	assert.Contains(t, *carregado.DadosExtraidos, "JOÃO DA SILVA")
	assert.Nil(t, carregado.ErroProcessamento)
}

func TestBuscaSemantica(t *testing.T) {
	service, escritorioID := novoDocumentoService(t, "documento_busca")
	ctx := context.Background()

	subir := func(nome string, conteudo []byte, vetor []float64) *models.Documento {
		file := criarFileHeader(t, nome, "application/pdf", conteudo)
		documento, err := service.Upload(ctx, escritorioID, "usuario-1", file, UploadRequest{})
		require.NoError(t, err)
		require.NoError(t, service.RegistrarEmbedding(ctx, escritorioID, documento.ID, vetor))
		return documento
	}

	perto := subir("ppp.pdf", []byte("%PDF ppp ruido"), []float64{1, 0, 0})
	longe := subir("contrato.pdf", []byte("%PDF contrato"), []float64{0, 1, 0})

	resultados, err := service.BuscaSemantica(ctx, escritorioID, []float64{0.9, 0.1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, resultados, 2)
	assert.Equal(t, perto.ID, resultados[0].Documento.ID)
	assert.Equal(t, longe.ID, resultados[1].Documento.ID)
	assert.Greater(t, resultados[0].Score, resultados[1].Score)
}

func TestSimilaridadeCosseno(t *testing.T) {
	score, ok := SimilaridadeCosseno([]float64{1, 0}, []float64{1, 0})
	require.True(t, ok)
	assert.InDelta(t, 1.0, score, 0.0001)

	score, ok = SimilaridadeCosseno([]float64{1, 0}, []float64{0, 1})
	require.True(t, ok)
	assert.InDelta(t, 0.0, score, 0.0001)

	_, ok = SimilaridadeCosseno([]float64{1, 0}, []float64{1, 0, 0})
	assert.False(t, ok)
	_, ok = SimilaridadeCosseno(nil, nil)
	assert.False(t, ok)
}
