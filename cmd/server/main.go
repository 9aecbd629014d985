package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"inss_crm_go/ai"
	"inss_crm_go/config"
	"inss_crm_go/db"
	"inss_crm_go/handlers"
	"inss_crm_go/logger"
	"inss_crm_go/metrics"
	"inss_crm_go/models"
	"inss_crm_go/services"
	"inss_crm_go/workers"
)

func main() {
	cfg := config.Load()

	zapLog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zapLog.Sync()

	database, err := db.Connect(cfg.DatabaseURL, cfg.DBPath, cfg.Environment)
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close(database)

	if err := db.AutoMigrate(database,
		&models.Escritorio{},
		&models.Usuario{},
		&models.Cliente{},
		&models.Processo{},
		&models.Prazo{},
		&models.Andamento{},
		&models.Documento{},
		&models.ContratoHonorario{},
		&models.ParcelaHonorario{},
		&models.Notificacao{},
	); err != nil {
		zapLog.Fatal("failed to run migrations", zap.Error(err))
	}

	// Infrastructure adapters
	storage := services.NewStorage(cfg, zapLog)
	email := services.NewEmailService(cfg, zapLog)
	gemini := ai.NewClient(cfg, zapLog)

	var enqueuer services.TaskEnqueuer = services.NoopEnqueuer{}
	if cfg.RedisAddr != "" {
		redisEnqueuer := workers.NewEnqueuer(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisEnqueuer.Close()
		enqueuer = redisEnqueuer
	} else {
		zapLog.Warn("REDIS_ADDR not set, background tasks disabled")
	}

	// Services
	auth := services.NewAuthService(database, cfg.JWTSecret, cfg.TokenExpiryMinutes)
	clientes := services.NewClienteService(database)
	processos := services.NewProcessoService(database)
	documentos := services.NewDocumentoService(database, storage, enqueuer, cfg.MaxUploadSizeMB, zapLog)
	honorarios := services.NewHonorarioService(database)
	notificacoes := services.NewNotificacaoService(database, email, zapLog)
	escritorios := services.NewEscritorioService(database, email)

	h := &handlers.Handlers{
		Auth:         handlers.NewAuthHandler(auth, escritorios),
		Clientes:     handlers.NewClienteHandler(clientes),
		Processos:    handlers.NewProcessoHandler(processos, documentos, gemini),
		Documentos:   handlers.NewDocumentoHandler(documentos, gemini),
		Honorarios:   handlers.NewHonorarioHandler(honorarios),
		Notificacoes: handlers.NewNotificacaoHandler(notificacoes),
		Escritorio:   handlers.NewEscritorioHandler(escritorios),
	}

	m := metrics.New("inss_crm")

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.ErrorHandler
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))
	e.Use(logger.RequestLogger(zapLog))
	e.Use(m.Middleware)

	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	handlers.RegisterRoutes(e, h, auth, database)

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server stopped", zap.Error(err))
		}
	}()
	zapLog.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("server stopped")
}
