package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inss_crm_go/middleware"
	"inss_crm_go/services"
)

// EscritorioHandler serves tenant profile and user management. User
// management routes are admin-only, enforced at registration time.
type EscritorioHandler struct {
	escritorios *services.EscritorioService
}

func NewEscritorioHandler(escritorios *services.EscritorioService) *EscritorioHandler {
	return &EscritorioHandler{escritorios: escritorios}
}

func (h *EscritorioHandler) Get(c echo.Context) error {
	escritorio, err := h.escritorios.GetEscritorio(c.Request().Context(), middleware.EscritorioID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, escritorio)
}

func (h *EscritorioHandler) Update(c echo.Context) error {
	var req services.UpdateEscritorioRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	escritorio, err := h.escritorios.UpdateEscritorio(c.Request().Context(), middleware.EscritorioID(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, escritorio)
}

func (h *EscritorioHandler) CreateUsuario(c echo.Context) error {
	var req services.CreateUsuarioRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	usuario, err := h.escritorios.CreateUsuario(c.Request().Context(), middleware.EscritorioID(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, usuario)
}

func (h *EscritorioHandler) ListUsuarios(c echo.Context) error {
	usuarios, err := h.escritorios.ListUsuarios(c.Request().Context(), middleware.EscritorioID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, usuarios)
}

func (h *EscritorioHandler) GetUsuario(c echo.Context) error {
	usuario, err := h.escritorios.GetUsuario(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, usuario)
}

type setAtivoRequest struct {
	Ativo bool `json:"ativo"`
}

// SetAtivo suspends or reinstates the caller's own tenant. Suspension
// takes effect on the next login.
func (h *EscritorioHandler) SetAtivo(c echo.Context) error {
	var req setAtivoRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	if err := h.escritorios.SetAtivo(c.Request().Context(), middleware.EscritorioID(c), req.Ativo); err != nil {
		return respondErr(c, err)
	}
	return respondMessage(c, http.StatusOK, "escritório atualizado")
}

// SetUsuarioAtivo toggles a user. Deactivating the last active admin is a
// conflict.
func (h *EscritorioHandler) SetUsuarioAtivo(c echo.Context) error {
	var req setAtivoRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	if err := h.escritorios.SetUsuarioAtivo(c.Request().Context(), middleware.EscritorioID(c), c.Param("id"), req.Ativo); err != nil {
		return respondErr(c, err)
	}
	return respondMessage(c, http.StatusOK, "usuário atualizado")
}
