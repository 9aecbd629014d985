package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"inss_crm_go/ai"
	"inss_crm_go/config"
	"inss_crm_go/db"
	"inss_crm_go/logger"
	"inss_crm_go/metrics"
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

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	storage := services.NewStorage(cfg, zapLog)
	email := services.NewEmailService(cfg, zapLog)
	gemini := ai.NewClient(cfg, zapLog)

	// The worker enqueues follow-up tasks (embedding after extraction,
	// simulation after a CNIS), so it gets a real enqueuer.
	enqueuer := workers.NewEnqueuer(redisOpt)
	defer enqueuer.Close()

	clientes := services.NewClienteService(database)
	processos := services.NewProcessoService(database)
	documentos := services.NewDocumentoService(database, storage, enqueuer, cfg.MaxUploadSizeMB, zapLog)
	honorarios := services.NewHonorarioService(database)
	notificacoes := services.NewNotificacaoService(database, email, zapLog)

	m := metrics.New("inss_crm_worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	processor := workers.NewProcessor(documentos, clientes, processos, honorarios, notificacoes, gemini, enqueuer, m, zapLog)

	server := workers.NewServer(redisOpt, 0, m, zapLog)
	scheduler, err := workers.NewScheduler(redisOpt, zapLog)
	if err != nil {
		zapLog.Fatal("failed to build scheduler", zap.Error(err))
	}

	if err := server.Start(processor.NewMux()); err != nil {
		zapLog.Fatal("failed to start worker server", zap.Error(err))
	}
	if err := scheduler.Start(); err != nil {
		zapLog.Fatal("failed to start scheduler", zap.Error(err))
	}
	zapLog.Info("worker started", zap.String("redis", cfg.RedisAddr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	scheduler.Shutdown()
	server.Shutdown()
	zapLog.Info("worker stopped")
}
