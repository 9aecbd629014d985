package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"inss_crm_go/middleware"
	"inss_crm_go/models"
)

// Handlers groups every handler for route registration.
type Handlers struct {
	Auth         *AuthHandler
	Clientes     *ClienteHandler
	Processos    *ProcessoHandler
	Documentos   *DocumentoHandler
	Honorarios   *HonorarioHandler
	Notificacoes *NotificacaoHandler
	Escritorio   *EscritorioHandler
}

// RegisterRoutes mounts the API under /api/v1. Everything except
// registration, login and the health check requires a valid token.
func RegisterRoutes(e *echo.Echo, h *Handlers, validator middleware.TokenValidator, db *gorm.DB) {
	e.GET("/health", healthHandler(db))

	v1 := e.Group("/api/v1")
	v1.POST("/auth/register", h.Auth.Register)
	v1.POST("/auth/login", h.Auth.Login)

	api := v1.Group("", middleware.Auth(validator))

	api.GET("/auth/me", h.Auth.Me)
	api.POST("/auth/change-password", h.Auth.ChangePassword)

	clientes := api.Group("/clientes")
	clientes.POST("", h.Clientes.Create)
	clientes.GET("", h.Clientes.List)
	clientes.GET("/search", h.Clientes.Search)
	clientes.GET("/:id", h.Clientes.Get)
	clientes.PUT("/:id", h.Clientes.Update)
	clientes.POST("/:id/consentimento", h.Clientes.Consentimento)
	clientes.DELETE("/:id", h.Clientes.Deactivate)
	clientes.POST("/:id/simulacao", h.Clientes.Simulacao)

	processos := api.Group("/processos")
	processos.POST("", h.Processos.Create)
	processos.GET("", h.Processos.List)
	processos.GET("/:id", h.Processos.Get)
	processos.POST("/:id/fase", h.Processos.AvancarFase)
	processos.DELETE("/:id", h.Processos.Archive)
	processos.POST("/:id/viabilidade", h.Processos.Viabilidade)
	processos.POST("/:id/prazos", h.Processos.CreatePrazo)
	processos.POST("/:id/andamentos", h.Processos.CreateAndamento)
	processos.GET("/:id/andamentos", h.Processos.ListAndamentos)

	prazos := api.Group("/prazos")
	prazos.GET("/pendentes", h.Processos.ListPrazosPendentes)
	prazos.POST("/:prazoId/cumprir", h.Processos.CumprirPrazo)
	prazos.POST("/:prazoId/cancelar", h.Processos.CancelarPrazo)

	documentos := api.Group("/documentos")
	documentos.POST("", h.Documentos.Upload)
	documentos.GET("", h.Documentos.List)
	documentos.GET("/:id", h.Documentos.Get)
	documentos.GET("/:id/url", h.Documentos.SignedURL)
	documentos.GET("/:id/download", h.Documentos.Download)
	documentos.DELETE("/:id", h.Documentos.Delete)
	documentos.POST("/:id/reprocessar", h.Documentos.Reprocessar)
	documentos.POST("/busca", h.Documentos.BuscaSemantica)
	documentos.POST("/pergunta", h.Documentos.Pergunta)

	honorarios := api.Group("/honorarios")
	honorarios.POST("/contratos", h.Honorarios.Create)
	honorarios.GET("/contratos", h.Honorarios.List)
	honorarios.GET("/contratos/:id", h.Honorarios.Get)
	honorarios.DELETE("/contratos/:id", h.Honorarios.Cancelar)
	honorarios.GET("/parcelas/atrasadas", h.Honorarios.ListParcelasAtrasadas)
	honorarios.POST("/parcelas/:parcelaId/pagamento", h.Honorarios.RegistrarPagamento)
	honorarios.GET("/resumo", h.Honorarios.Resumo)

	notificacoes := api.Group("/notificacoes")
	notificacoes.GET("", h.Notificacoes.List)
	notificacoes.GET("/nao-lidas", h.Notificacoes.ContarNaoLidas)
	notificacoes.POST("/:id/lida", h.Notificacoes.MarcarLida)

	escritorio := api.Group("/escritorio")
	escritorio.GET("", h.Escritorio.Get)
	escritorio.PUT("", h.Escritorio.Update, middleware.RequireRole(models.RoleAdmin))
	escritorio.PUT("/ativo", h.Escritorio.SetAtivo, middleware.RequireRole(models.RoleAdmin))
	escritorio.POST("/usuarios", h.Escritorio.CreateUsuario, middleware.RequireRole(models.RoleAdmin))
	escritorio.GET("/usuarios", h.Escritorio.ListUsuarios)
	escritorio.GET("/usuarios/:id", h.Escritorio.GetUsuario)
	escritorio.PUT("/usuarios/:id/ativo", h.Escritorio.SetUsuarioAtivo, middleware.RequireRole(models.RoleAdmin))
}

// healthHandler reports process and database liveness.
func healthHandler(db *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := "ok"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]string{"status": status})
	}
}
