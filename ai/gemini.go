// Package ai contains the Gemini REST adapter used for document extraction,
// summarization, classification and embeddings.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"inss_crm_go/apperrors"
	"inss_crm_go/config"
)

// Client talks to the Gemini generateContent and embedContent endpoints.
type Client struct {
	httpClient     *http.Client
	apiKey         string
	model          string
	embeddingModel string
	baseURL        string
	log            *zap.Logger
}

// NewClient creates a Gemini client from configuration.
func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: 120 * time.Second},
		apiKey:         cfg.GeminiAPIKey,
		model:          cfg.GeminiModel,
		embeddingModel: cfg.GeminiEmbeddingModel,
		baseURL:        strings.TrimSuffix(cfg.GeminiBaseURL, "/"),
		log:            log,
	}
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Arquivo is a document payload sent inline with a prompt.
type Arquivo struct {
	MimeType string
	Data     []byte
}

// request/response wire types for generateContent

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *inlineDataPart `json:"inline_data,omitempty"`
}

type inlineDataPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"response_mime_type,omitempty"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

// configJSON constrains structured calls: near-deterministic sampling and a
// JSON response mime type, so extraction replies stay parseable.
var configJSON = &generationConfig{
	Temperature:      0.1,
	ResponseMimeType: "application/json",
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type embedRequest struct {
	Model   string          `json:"model"`
	Content generateContent `json:"content"`
	TaskType string         `json:"taskType,omitempty"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
	Error *apiError `json:"error,omitempty"`
}

// generate sends a free-text prompt (plus optional inline document) and
// returns the first candidate's text.
func (c *Client) generate(ctx context.Context, prompt string, arquivo *Arquivo) (string, error) {
	return c.generateWith(ctx, prompt, arquivo, nil)
}

// generateJSON is generate with the JSON generation config applied. Every
// call whose reply is parsed into a fixed-schema struct goes through here.
func (c *Client) generateJSON(ctx context.Context, prompt string, arquivo *Arquivo) (string, error) {
	return c.generateWith(ctx, prompt, arquivo, configJSON)
}

func (c *Client) generateWith(ctx context.Context, prompt string, arquivo *Arquivo, genCfg *generationConfig) (string, error) {
	if !c.IsConfigured() {
		return "", apperrors.Upstream("gemini", fmt.Errorf("GEMINI_API_KEY not configured"))
	}

	parts := []generatePart{{Text: prompt}}
	if arquivo != nil {
		parts = append(parts, generatePart{
			InlineData: &inlineDataPart{
				MimeType: arquivo.MimeType,
				Data:     base64.StdEncoding.EncodeToString(arquivo.Data),
			},
		})
	}

	body, err := json.Marshal(generateRequest{
		Contents:         []generateContent{{Parts: parts}},
		GenerationConfig: genCfg,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	resp, err := c.post(ctx, url, body)
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return "", apperrors.Upstream("gemini", err)
	}
	if parsed.Error != nil {
		return "", apperrors.Upstream("gemini", fmt.Errorf("%s: %s", parsed.Error.Status, parsed.Error.Message))
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.Upstream("gemini", fmt.Errorf("empty response"))
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("gemini", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Upstream("gemini", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Upstream("gemini", fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(data)))
	}
	return data, nil
}

func truncateBody(data []byte) string {
	const max = 300
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}

// embed requests one embedding vector for text.
func (c *Client) embed(ctx context.Context, text, taskType string) ([]float64, error) {
	if !c.IsConfigured() {
		return nil, apperrors.Upstream("gemini", fmt.Errorf("GEMINI_API_KEY not configured"))
	}

	body, err := json.Marshal(embedRequest{
		Model:    "models/" + c.embeddingModel,
		Content:  generateContent{Parts: []generatePart{{Text: text}}},
		TaskType: taskType,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, c.embeddingModel, c.apiKey)
	resp, err := c.post(ctx, url, body)
	if err != nil {
		return nil, err
	}

	var parsed embedResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, apperrors.Upstream("gemini", err)
	}
	if parsed.Error != nil {
		return nil, apperrors.Upstream("gemini", fmt.Errorf("%s: %s", parsed.Error.Status, parsed.Error.Message))
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, apperrors.Upstream("gemini", fmt.Errorf("empty embedding"))
	}
	return parsed.Embedding.Values, nil
}

// GenerateEmbedding produces a vector for document storage.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	return c.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

// GenerateQueryEmbedding produces a vector for search queries.
func (c *Client) GenerateQueryEmbedding(ctx context.Context, text string) ([]float64, error) {
	return c.embed(ctx, text, "RETRIEVAL_QUERY")
}

// ErrRespostaInvalida marks a model reply that could not be parsed as the
// JSON the prompt demanded. The document pipeline stores it as a
// processing error rather than retrying.
var ErrRespostaInvalida = fmt.Errorf("resposta da IA não é JSON válido")

// ParseJSONResposta extracts the JSON object from a model reply, tolerating
// markdown code fences, and unmarshals it into out.
func ParseJSONResposta(resposta string, out interface{}) error {
	limpo := strings.TrimSpace(resposta)
	limpo = strings.TrimPrefix(limpo, "```json")
	limpo = strings.TrimPrefix(limpo, "```")
	limpo = strings.TrimSuffix(limpo, "```")
	limpo = strings.TrimSpace(limpo)

	// Fall back to the outermost braces when the model added prose.
	if !strings.HasPrefix(limpo, "{") {
		inicio := strings.Index(limpo, "{")
		fim := strings.LastIndex(limpo, "}")
		if inicio == -1 || fim == -1 || fim < inicio {
			return fmt.Errorf("%w: %s", ErrRespostaInvalida, truncateBody([]byte(resposta)))
		}
		limpo = limpo[inicio : fim+1]
	}

	if err := json.Unmarshal([]byte(limpo), out); err != nil {
		return fmt.Errorf("%w: %v", ErrRespostaInvalida, err)
	}
	return nil
}
