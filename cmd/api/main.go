package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plastinin/schoolmigrate/internal/adapter/http/handler"
	"github.com/plastinin/schoolmigrate/internal/adapter/queue"
	"github.com/plastinin/schoolmigrate/internal/adapter/repository"
	"github.com/plastinin/schoolmigrate/internal/adapter/storage"
	"github.com/plastinin/schoolmigrate/internal/adapter/tabular"
	"github.com/plastinin/schoolmigrate/internal/config"
	"github.com/plastinin/schoolmigrate/internal/usecase"
	"github.com/plastinin/schoolmigrate/pkg/logger"
	"go.uber.org/zap"

	apphttp "github.com/plastinin/schoolmigrate/internal/adapter/http"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Инициализируем логгер
	log := logger.Must(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	log.Info("Starting schoolmigrate API",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	// Контекст с отменой для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Загружаем шаблоны импорта
	registry, err := config.LoadTemplates(cfg.Import.TemplatesPath)
	if err != nil {
		log.Fatal("Failed to load templates", zap.Error(err))
	}
	log.Info("Templates loaded", zap.Int("count", len(registry.Templates())))

	// Инициализируем PostgreSQL
	dbPool, err := repository.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()
	log.Info("Connected to PostgreSQL")

	if err := repository.Migrate(ctx, dbPool, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Инициализируем S3 Storage
	s3Storage, err := storage.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		log.Fatal("Failed to connect to S3", zap.Error(err))
	}
	log.Info("Connected to S3",
		zap.String("endpoint", cfg.S3.Endpoint),
		zap.String("bucket", cfg.S3.Bucket),
	)

	// Инициализируем Queue Producer
	queueProducer := queue.NewTaskProducer(cfg.Redis)
	defer queueProducer.Close()
	log.Info("Connected to Redis",
		zap.String("addr", cfg.Redis.Addr()),
	)

	// Инициализируем репозитории
	sessions := repository.NewSessionStore()
	runRepo := repository.NewImportRunRepository(dbPool)
	recordRepo := repository.NewRecordRepository(dbPool)

	// Инициализируем use cases
	backend := usecase.NewImportService(recordRepo, cfg.Import.ErrorSample, log)
	wizardUC := usecase.NewWizardUseCase(
		registry,
		sessions,
		s3Storage,
		tabular.NewReader(),
		tabular.NewTemplateWriter(),
		backend,
		runRepo,
		queueProducer,
		usecase.WizardOptions{
			PreviewRows:     cfg.Import.PreviewRows,
			MaxUploadSize:   cfg.Import.MaxUploadSize,
			UploadRetention: cfg.Import.UploadRetention,
		},
		log,
	)
	runUC := usecase.NewImportRunUseCase(runRepo)

	// Закрываем простаивающие мастера
	go sweepIdleSessions(ctx, wizardUC, cfg.Import.SweepInterval, cfg.Import.SessionTTL, log)

	// Инициализируем handlers
	sessionHandler := handler.NewSessionHandler(wizardUC, cfg.Import.MaxUploadSize, cfg.Import.DisplayWidth, log)
	templateHandler := handler.NewTemplateHandler(wizardUC, log)
	importRunHandler := handler.NewImportRunHandler(runUC, log)
	healthHandler := handler.NewHealthHandler()

	// Создаём роутер
	router := apphttp.NewRouter(sessionHandler, templateHandler, importRunHandler, healthHandler, cfg.Server.UploadsPerMinute, log)

	// Создаём HTTP сервер
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", cfg.Server.Addr()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}

func sweepIdleSessions(ctx context.Context, wizardUC *usecase.WizardUseCase, interval, ttl time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := wizardUC.ExpireIdle(ctx, ttl); err != nil {
				log.Error("Failed to expire idle sessions", zap.Error(err))
			}
		}
	}
}
