package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"inss_crm_go/ai"
	"inss_crm_go/apperrors"
	"inss_crm_go/middleware"
	"inss_crm_go/services"
)

// DocumentoHandler serves document upload, retrieval and the semantic
// search endpoints backed by the AI adapter.
type DocumentoHandler struct {
	documentos *services.DocumentoService
	gemini     *ai.Client
}

func NewDocumentoHandler(documentos *services.DocumentoService, gemini *ai.Client) *DocumentoHandler {
	return &DocumentoHandler{documentos: documentos, gemini: gemini}
}

// Upload receives a multipart form with the file and its metadata fields.
func (h *DocumentoHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respondErr(c, apperrors.Validation("campo file ausente"))
	}

	req := services.UploadRequest{
		Tipo:      c.FormValue("tipo"),
		Categoria: c.FormValue("categoria"),
	}
	if v := c.FormValue("cliente_id"); v != "" {
		req.ClienteID = &v
	}
	if v := c.FormValue("processo_id"); v != "" {
		req.ProcessoID = &v
	}

	documento, err := h.documentos.Upload(c.Request().Context(), middleware.EscritorioID(c), middleware.UsuarioID(c), file, req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, documento)
}

func (h *DocumentoHandler) List(c echo.Context) error {
	page, pageSize := pagination(c)
	documentos, total, err := h.documentos.List(c.Request().Context(), middleware.EscritorioID(c),
		page, pageSize, c.QueryParam("cliente_id"), c.QueryParam("processo_id"), c.QueryParam("status_ia"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondPage(c, documentos, total, page, pageSize)
}

func (h *DocumentoHandler) Get(c echo.Context) error {
	documento, err := h.documentos.GetByID(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, documento)
}

// SignedURL issues a temporary download URL for the stored object.
func (h *DocumentoHandler) SignedURL(c echo.Context) error {
	validade := 15 * time.Minute
	if m, err := strconv.Atoi(c.QueryParam("validade_minutos")); err == nil && m > 0 && m <= 60 {
		validade = time.Duration(m) * time.Minute
	}
	url, err := h.documentos.SignedURL(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"), validade)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, map[string]string{"url": url})
}

// Download streams the file contents through the API.
func (h *DocumentoHandler) Download(c echo.Context) error {
	conteudo, contentType, err := h.documentos.Conteudo(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	defer conteudo.Close()
	return c.Stream(http.StatusOK, contentType, conteudo)
}

func (h *DocumentoHandler) Delete(c echo.Context) error {
	if err := h.documentos.Delete(c.Request().Context(), middleware.EscritorioID(c), c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return respondMessage(c, http.StatusOK, "documento removido")
}

func (h *DocumentoHandler) Reprocessar(c echo.Context) error {
	if err := h.documentos.Reprocessar(c.Request().Context(), middleware.EscritorioID(c), c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return respondMessage(c, http.StatusAccepted, "documento enviado para reprocessamento")
}

type buscaRequest struct {
	Pergunta string `json:"pergunta"`
	Limite   int    `json:"limite,omitempty"`
}

// BuscaSemantica embeds the query text and ranks the tenant's documents by
// cosine similarity.
func (h *DocumentoHandler) BuscaSemantica(c echo.Context) error {
	var req buscaRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	if req.Pergunta == "" {
		return respondErr(c, apperrors.Validation("pergunta é obrigatória"))
	}

	vetor, err := h.gemini.GenerateQueryEmbedding(c.Request().Context(), req.Pergunta)
	if err != nil {
		return respondErr(c, err)
	}
	resultados, err := h.documentos.BuscaSemantica(c.Request().Context(), middleware.EscritorioID(c), vetor, req.Limite)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, resultados)
}

// Pergunta answers a free-form question grounded on the most similar
// documents of the tenant.
func (h *DocumentoHandler) Pergunta(c echo.Context) error {
	var req buscaRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	if req.Pergunta == "" {
		return respondErr(c, apperrors.Validation("pergunta é obrigatória"))
	}

	ctx := c.Request().Context()
	vetor, err := h.gemini.GenerateQueryEmbedding(ctx, req.Pergunta)
	if err != nil {
		return respondErr(c, err)
	}
	resultados, err := h.documentos.BuscaSemantica(ctx, middleware.EscritorioID(c), vetor, 5)
	if err != nil {
		return respondErr(c, err)
	}

	var trechos []string
	for _, r := range resultados {
		switch {
		case r.Documento.Resumo != nil && *r.Documento.Resumo != "":
			trechos = append(trechos, *r.Documento.Resumo)
		case r.Documento.DadosExtraidos != nil && *r.Documento.DadosExtraidos != "":
			trechos = append(trechos, *r.Documento.DadosExtraidos)
		}
	}

	resposta, err := h.gemini.AnswerWithContext(ctx, req.Pergunta, trechos)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, map[string]interface{}{
		"resposta":   resposta,
		"documentos": resultados,
	})
}
