package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/plastinin/schoolmigrate/internal/config"
	"go.uber.org/zap"
)

// FileDeleter удаляет загруженные файлы
type FileDeleter interface {
	DeleteFile(ctx context.Context, fileKey string) error
}

// TaskConsumer обрабатывает задачи из очереди
type TaskConsumer struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	deleter FileDeleter
	logger  *zap.Logger
}

// NewTaskConsumer создаёт новый экземпляр TaskConsumer
func NewTaskConsumer(
	cfg config.RedisConfig,
	deleter FileDeleter,
	logger *zap.Logger,
) *TaskConsumer {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				cleanupQueue: 10,
				"default":    1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	consumer := &TaskConsumer{
		server:  server,
		mux:     asynq.NewServeMux(),
		deleter: deleter,
		logger:  logger,
	}

	// Регистрируем обработчики
	consumer.mux.HandleFunc(TypeUploadCleanup, consumer.HandleUploadCleanup)

	return consumer
}

// Start запускает обработку задач
func (c *TaskConsumer) Start() error {
	c.logger.Info("Starting task consumer")
	return c.server.Start(c.mux)
}

// Stop останавливает обработку задач
func (c *TaskConsumer) Stop() {
	c.logger.Info("Stopping task consumer")
	c.server.Stop()
	c.server.Shutdown()
}

// HandleUploadCleanup удаляет файл закрытого мастера
func (c *TaskConsumer) HandleUploadCleanup(ctx context.Context, t *asynq.Task) error {
	var payload UploadCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		c.logger.Error("Failed to unmarshal payload",
			zap.Error(err),
			zap.ByteString("payload", t.Payload()),
		)
		// Повтор не поможет
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	c.logger.Info("Processing upload cleanup task",
		zap.String("file_key", payload.FileKey),
	)

	if err := c.deleter.DeleteFile(ctx, payload.FileKey); err != nil {
		c.logger.Error("Failed to delete uploaded file",
			zap.String("file_key", payload.FileKey),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// asynqLogger адаптер логгера для asynq
type asynqLogger struct {
	logger *zap.Logger
}

func newAsynqLogger(logger *zap.Logger) *asynqLogger {
	return &asynqLogger{logger: logger.Named("asynq")}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
