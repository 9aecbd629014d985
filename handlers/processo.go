package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inss_crm_go/ai"
	"inss_crm_go/middleware"
	"inss_crm_go/services"
)

// ProcessoHandler serves case, deadline and case-history endpoints.
type ProcessoHandler struct {
	processos  *services.ProcessoService
	documentos *services.DocumentoService
	gemini     *ai.Client
}

func NewProcessoHandler(processos *services.ProcessoService, documentos *services.DocumentoService, gemini *ai.Client) *ProcessoHandler {
	return &ProcessoHandler{processos: processos, documentos: documentos, gemini: gemini}
}

func (h *ProcessoHandler) Create(c echo.Context) error {
	var req services.CreateProcessoRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	processo, err := h.processos.Create(c.Request().Context(), middleware.EscritorioID(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, processo)
}

func (h *ProcessoHandler) List(c echo.Context) error {
	page, pageSize := pagination(c)
	processos, total, err := h.processos.List(c.Request().Context(), middleware.EscritorioID(c),
		page, pageSize, c.QueryParam("fase"), c.QueryParam("tipo_beneficio"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondPage(c, processos, total, page, pageSize)
}

func (h *ProcessoHandler) Get(c echo.Context) error {
	processo, err := h.processos.GetByID(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, processo)
}

type avancarFaseRequest struct {
	Fase string `json:"fase"`
}

// AvancarFase moves the case to a later phase. Moving backwards or staying
// put is a conflict.
func (h *ProcessoHandler) AvancarFase(c echo.Context) error {
	var req avancarFaseRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	processo, err := h.processos.AvancarFase(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"), req.Fase)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, processo)
}

func (h *ProcessoHandler) Archive(c echo.Context) error {
	if err := h.processos.Archive(c.Request().Context(), middleware.EscritorioID(c), c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return respondMessage(c, http.StatusOK, "processo arquivado")
}

// Viabilidade asks the AI adapter for a viability opinion on the case,
// grounded on the client's record and the summaries of the documents
// already processed for this case.
func (h *ProcessoHandler) Viabilidade(c echo.Context) error {
	ctx := c.Request().Context()
	escritorioID := middleware.EscritorioID(c)

	processo, err := h.processos.GetByID(ctx, escritorioID, c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}

	documentos, _, err := h.documentos.List(ctx, escritorioID, 1, 50, processo.ClienteID, processo.ID, "concluido")
	if err != nil {
		return respondErr(c, err)
	}
	var resumos []string
	for _, d := range documentos {
		if d.Resumo != nil && *d.Resumo != "" {
			resumos = append(resumos, *d.Resumo)
		}
	}

	dadosCliente := map[string]interface{}{
		"nome":  processo.Cliente.Nome,
		"idade": processo.Cliente.Idade(),
		"sexo":  processo.Cliente.Sexo,
	}
	analise, err := h.gemini.AnalisarViabilidade(ctx, dadosCliente, processo.TipoBeneficio, resumos)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, analise)
}

// Prazos

func (h *ProcessoHandler) CreatePrazo(c echo.Context) error {
	var req services.CreatePrazoRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	prazo, err := h.processos.CreatePrazo(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, prazo)
}

func (h *ProcessoHandler) ListPrazosPendentes(c echo.Context) error {
	page, pageSize := pagination(c)
	prazos, total, err := h.processos.ListPrazosPendentes(c.Request().Context(), middleware.EscritorioID(c), page, pageSize)
	if err != nil {
		return respondErr(c, err)
	}
	return respondPage(c, prazos, total, page, pageSize)
}

func (h *ProcessoHandler) CumprirPrazo(c echo.Context) error {
	prazo, err := h.processos.CumprirPrazo(c.Request().Context(), middleware.EscritorioID(c), c.Param("prazoId"), middleware.UsuarioID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, prazo)
}

type cancelarPrazoRequest struct {
	Motivo *string `json:"motivo,omitempty"`
}

func (h *ProcessoHandler) CancelarPrazo(c echo.Context) error {
	var req cancelarPrazoRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	prazo, err := h.processos.CancelarPrazo(c.Request().Context(), middleware.EscritorioID(c), c.Param("prazoId"), req.Motivo)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, prazo)
}

// Andamentos

func (h *ProcessoHandler) CreateAndamento(c echo.Context) error {
	var req services.CreateAndamentoRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	andamento, err := h.processos.CreateAndamento(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"), middleware.UsuarioID(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, andamento)
}

func (h *ProcessoHandler) ListAndamentos(c echo.Context) error {
	page, pageSize := pagination(c)
	andamentos, total, err := h.processos.ListAndamentos(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"), page, pageSize)
	if err != nil {
		return respondErr(c, err)
	}
	return respondPage(c, andamentos, total, page, pageSize)
}
