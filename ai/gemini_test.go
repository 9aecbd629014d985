package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inss_crm_go/apperrors"
	"inss_crm_go/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		GeminiAPIKey:         "test-key",
		GeminiModel:          "gemini-1.5-pro",
		GeminiEmbeddingModel: "text-embedding-004",
		GeminiBaseURL:        server.URL,
	}
	return NewClient(cfg, zap.NewNop()), server
}

func respostaTexto(t *testing.T, w http.ResponseWriter, texto string) {
	t.Helper()
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": texto}},
			}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestExtractIdentityDocument(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respostaTexto(t, w, `{"nome":"JOÃO DA SILVA","cpf":"529.982.247-25","confidence":0.9,"fields_to_review":[]}`)
	})

	extraido, err := client.ExtractIdentityDocument(context.Background(), &Arquivo{
		MimeType: "application/pdf",
		Data:     []byte("%PDF-fake"),
	})
	require.NoError(t, err)
	require.NotNil(t, extraido.Nome)
	assert.Equal(t, "JOÃO DA SILVA", *extraido.Nome)
	assert.InDelta(t, 0.9, extraido.Confidence, 0.001)
}

func TestExtractIdentityDocumentRespostaInvalida(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respostaTexto(t, w, "desculpe, não consegui analisar o documento")
	})

	_, err := client.ExtractIdentityDocument(context.Background(), &Arquivo{
		MimeType: "image/png",
		Data:     []byte{0x89, 0x50},
	})
	assert.ErrorIs(t, err, ErrRespostaInvalida)
}

func TestGenerateComFencesMarkdown(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respostaTexto(t, w, "```json\n{\"tipo_documento\":\"CNIS\",\"confidence\":0.95}\n```")
	})

	classificacao, err := client.ClassifyDocument(context.Background(), &Arquivo{
		MimeType: "application/pdf",
		Data:     []byte("%PDF-fake"),
	})
	require.NoError(t, err)
	assert.Equal(t, "CNIS", classificacao.TipoDocumento)
}

func TestGenerateErroHTTP(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	})

	_, err := client.SummarizeDocument(context.Background(), &Arquivo{
		MimeType: "application/pdf",
		Data:     []byte("%PDF-fake"),
	})
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestGenerateSemChave(t *testing.T) {
	cfg := &config.Config{GeminiBaseURL: "http://localhost:1"}
	client := NewClient(cfg, zap.NewNop())

	_, err := client.SummarizeDocument(context.Background(), &Arquivo{MimeType: "application/pdf"})
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestGenerateEmbedding(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "text-embedding-004")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": map[string]interface{}{"values": []float64{0.1, 0.2, 0.3}},
		})
	})

	vetor, err := client.GenerateEmbedding(context.Background(), "aposentadoria especial ruído")
	require.NoError(t, err)
	assert.Len(t, vetor, 3)
}

func TestParseJSONRespostaComProsa(t *testing.T) {
	var out map[string]interface{}
	err := ParseJSONResposta("Aqui está o resultado: {\"ok\": true} como solicitado.", &out)
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])
}

func TestExtracaoEnviaGenerationConfigJSON(t *testing.T) {
	var recebido struct {
		GenerationConfig *struct {
			Temperature      float64 `json:"temperature"`
			ResponseMimeType string  `json:"response_mime_type"`
		} `json:"generationConfig"`
	}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&recebido))
		respostaTexto(t, w, `{"nome":"X","confidence":1,"fields_to_review":[]}`)
	})

	_, err := client.ExtractIdentityDocument(context.Background(), &Arquivo{
		MimeType: "image/png",
		Data:     []byte{1},
	})
	require.NoError(t, err)
	require.NotNil(t, recebido.GenerationConfig)
	assert.Equal(t, "application/json", recebido.GenerationConfig.ResponseMimeType)
	assert.InDelta(t, 0.1, recebido.GenerationConfig.Temperature, 0.001)

	// Resumo é texto livre, sem config.
	recebido.GenerationConfig = nil
	_, err = client.SummarizeDocument(context.Background(), &Arquivo{
		MimeType: "application/pdf",
		Data:     []byte{1},
	})
	require.NoError(t, err)
	assert.Nil(t, recebido.GenerationConfig)
}
