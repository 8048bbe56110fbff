package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/plastinin/schoolmigrate/internal/adapter/queue"
	"github.com/plastinin/schoolmigrate/internal/adapter/storage"
	"github.com/plastinin/schoolmigrate/internal/config"
	"github.com/plastinin/schoolmigrate/internal/usecase"
	"github.com/plastinin/schoolmigrate/pkg/logger"
	"go.uber.org/zap"
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

	log.Info("Starting schoolmigrate worker",
		zap.String("redis_addr", cfg.Redis.Addr()),
	)

	// Контекст для инициализации
	ctx := context.Background()

	// Инициализируем S3 Storage
	s3Storage, err := storage.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		log.Fatal("Failed to connect to S3", zap.Error(err))
	}
	log.Info("Connected to S3",
		zap.String("endpoint", cfg.S3.Endpoint),
		zap.String("bucket", cfg.S3.Bucket),
	)

	// Инициализируем use cases
	cleanupUC := usecase.NewCleanupUseCase(s3Storage, log)

	// Инициализируем consumer
	consumer := queue.NewTaskConsumer(cfg.Redis, cleanupUC, log)

	// Запускаем consumer в горутине
	go func() {
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start consumer", zap.Error(err))
		}
	}()

	log.Info("Worker started, waiting for tasks...")

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")

	// Останавливаем consumer
	consumer.Stop()

	log.Info("Worker stopped")
}
