package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inss_crm_go/middleware"
	"inss_crm_go/services"
)

// HonorarioHandler serves fee contract and installment endpoints.
type HonorarioHandler struct {
	honorarios *services.HonorarioService
}

func NewHonorarioHandler(honorarios *services.HonorarioService) *HonorarioHandler {
	return &HonorarioHandler{honorarios: honorarios}
}

func (h *HonorarioHandler) Create(c echo.Context) error {
	var req services.CreateContratoRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	contrato, err := h.honorarios.Create(c.Request().Context(), middleware.EscritorioID(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, contrato)
}

func (h *HonorarioHandler) List(c echo.Context) error {
	page, pageSize := pagination(c)
	contratos, total, err := h.honorarios.List(c.Request().Context(), middleware.EscritorioID(c), page, pageSize)
	if err != nil {
		return respondErr(c, err)
	}
	return respondPage(c, contratos, total, page, pageSize)
}

func (h *HonorarioHandler) Get(c echo.Context) error {
	contrato, err := h.honorarios.GetByID(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, contrato)
}

func (h *HonorarioHandler) Cancelar(c echo.Context) error {
	if err := h.honorarios.Cancelar(c.Request().Context(), middleware.EscritorioID(c), c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return respondMessage(c, http.StatusOK, "contrato cancelado")
}

// ListParcelasAtrasadas lists the tenant's overdue installments.
func (h *HonorarioHandler) ListParcelasAtrasadas(c echo.Context) error {
	page, pageSize := pagination(c)
	parcelas, total, err := h.honorarios.ListParcelasAtrasadas(c.Request().Context(), middleware.EscritorioID(c), page, pageSize)
	if err != nil {
		return respondErr(c, err)
	}
	return respondPage(c, parcelas, total, page, pageSize)
}

// RegistrarPagamento settles one installment. Paying a settled or
// cancelled installment is a conflict.
func (h *HonorarioHandler) RegistrarPagamento(c echo.Context) error {
	var req services.RegistrarPagamentoRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	parcela, err := h.honorarios.RegistrarPagamento(c.Request().Context(), middleware.EscritorioID(c), c.Param("parcelaId"), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, parcela)
}

// Resumo aggregates the tenant's installment totals by status.
func (h *HonorarioHandler) Resumo(c echo.Context) error {
	resumo, err := h.honorarios.Resumo(c.Request().Context(), middleware.EscritorioID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, resumo)
}
