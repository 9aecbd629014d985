package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inss_crm_go/middleware"
	"inss_crm_go/services"
)

// NotificacaoHandler serves the caller's notification inbox.
type NotificacaoHandler struct {
	notificacoes *services.NotificacaoService
}

func NewNotificacaoHandler(notificacoes *services.NotificacaoService) *NotificacaoHandler {
	return &NotificacaoHandler{notificacoes: notificacoes}
}

func (h *NotificacaoHandler) List(c echo.Context) error {
	page, pageSize := pagination(c)
	somenteNaoLidas := c.QueryParam("nao_lidas") == "true"
	notificacoes, total, err := h.notificacoes.ListarPorUsuario(c.Request().Context(),
		middleware.EscritorioID(c), middleware.UsuarioID(c), page, pageSize, somenteNaoLidas)
	if err != nil {
		return respondErr(c, err)
	}
	return respondPage(c, notificacoes, total, page, pageSize)
}

func (h *NotificacaoHandler) ContarNaoLidas(c echo.Context) error {
	total, err := h.notificacoes.ContarNaoLidas(c.Request().Context(),
		middleware.EscritorioID(c), middleware.UsuarioID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, map[string]int64{"nao_lidas": total})
}

func (h *NotificacaoHandler) MarcarLida(c echo.Context) error {
	if err := h.notificacoes.MarcarLida(c.Request().Context(), middleware.EscritorioID(c), c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return respondMessage(c, http.StatusOK, "notificação lida")
}
