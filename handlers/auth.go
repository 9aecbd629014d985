package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inss_crm_go/middleware"
	"inss_crm_go/services"
)

// AuthHandler serves registration, login and session endpoints.
type AuthHandler struct {
	auth        *services.AuthService
	escritorios *services.EscritorioService
}

func NewAuthHandler(auth *services.AuthService, escritorios *services.EscritorioService) *AuthHandler {
	return &AuthHandler{auth: auth, escritorios: escritorios}
}

// Register creates a new escritório with its first admin user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req services.RegisterEscritorioRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	usuario, err := h.auth.RegisterEscritorio(c.Request().Context(), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, usuario)
}

// Login authenticates a user and returns a signed token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req services.LoginRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	resp, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, resp)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	usuario, err := h.escritorios.GetUsuario(c.Request().Context(), middleware.EscritorioID(c), middleware.UsuarioID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, usuario)
}

type changePasswordRequest struct {
	SenhaAtual string `json:"senha_atual"`
	SenhaNova  string `json:"senha_nova"`
}

// ChangePassword swaps the caller's own password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(c)
	}
	err := h.auth.ChangePassword(c.Request().Context(), middleware.EscritorioID(c), middleware.UsuarioID(c), req.SenhaAtual, req.SenhaNova)
	if err != nil {
		return respondErr(c, err)
	}
	return respondMessage(c, http.StatusOK, "senha alterada")
}
