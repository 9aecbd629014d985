package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"inss_crm_go/apperrors"
	"inss_crm_go/middleware"
	"inss_crm_go/services"
)

// ClienteHandler serves the client CRUD, LGPD consent and the retirement
// simulation endpoints.
type ClienteHandler struct {
	clientes *services.ClienteService
}

func NewClienteHandler(clientes *services.ClienteService) *ClienteHandler {
	return &ClienteHandler{clientes: clientes}
}

func (h *ClienteHandler) Create(c echo.Context) error {
	var req services.CreateClienteRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	cliente, err := h.clientes.Create(c.Request().Context(), middleware.EscritorioID(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, cliente)
}

func (h *ClienteHandler) List(c echo.Context) error {
	page, pageSize := pagination(c)
	incluirInativos := c.QueryParam("incluir_inativos") == "true"
	clientes, total, err := h.clientes.List(c.Request().Context(), middleware.EscritorioID(c), page, pageSize, incluirInativos)
	if err != nil {
		return respondErr(c, err)
	}
	return respondPage(c, clientes, total, page, pageSize)
}

func (h *ClienteHandler) Search(c echo.Context) error {
	termo := c.QueryParam("q")
	if termo == "" {
		return respondErr(c, apperrors.Validation("parâmetro q é obrigatório"))
	}
	page, pageSize := pagination(c)
	clientes, total, err := h.clientes.Search(c.Request().Context(), middleware.EscritorioID(c), termo, page, pageSize)
	if err != nil {
		return respondErr(c, err)
	}
	return respondPage(c, clientes, total, page, pageSize)
}

func (h *ClienteHandler) Get(c echo.Context) error {
	cliente, err := h.clientes.GetByID(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, cliente)
}

func (h *ClienteHandler) Update(c echo.Context) error {
	var req services.UpdateClienteRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	cliente, err := h.clientes.Update(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, cliente)
}

// Consentimento records the client's LGPD consent. Repeated calls keep the
// original consent date.
func (h *ClienteHandler) Consentimento(c echo.Context) error {
	cliente, err := h.clientes.RegistrarConsentimento(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, cliente)
}

// Deactivate soft-deletes the client. The record stays for retention.
func (h *ClienteHandler) Deactivate(c echo.Context) error {
	if err := h.clientes.Deactivate(c.Request().Context(), middleware.EscritorioID(c), c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return respondMessage(c, http.StatusOK, "cliente desativado")
}

type simulacaoRequest struct {
	Vinculos      []services.Vinculo      `json:"vinculos"`
	Contribuicoes []services.Contribuicao `json:"contribuicoes"`
}

// Simulacao runs the retirement eligibility simulation for a client using
// the employment history supplied in the request body. Birth date and sex
// come from the client record.
func (h *ClienteHandler) Simulacao(c echo.Context) error {
	var req simulacaoRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	cliente, err := h.clientes.GetByID(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	if cliente.DataNascimento == nil || cliente.Sexo == nil {
		return respondErr(c, apperrors.Validation("cliente sem data de nascimento ou sexo cadastrados"))
	}
	simulacao := services.SimularAposentadoria(*cliente.DataNascimento, *cliente.Sexo, req.Vinculos, req.Contribuicoes, time.Now())
	return respond(c, http.StatusOK, simulacao)
}
