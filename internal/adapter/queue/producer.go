package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/plastinin/schoolmigrate/internal/config"
)

// Типы задач
const (
	TypeUploadCleanup = "upload:cleanup"
)

const cleanupQueue = "cleanup"

// UploadCleanupPayload данные задачи на удаление загруженного файла
type UploadCleanupPayload struct {
	FileKey string `json:"file_key"`
}

// TaskProducer отправляет задачи в очередь
type TaskProducer struct {
	client *asynq.Client
}

// NewTaskProducer создаёт новый экземпляр TaskProducer
func NewTaskProducer(cfg config.RedisConfig) *TaskProducer {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &TaskProducer{client: client}
}

// ScheduleCleanup ставит удаление файла в очередь с задержкой delay
func (p *TaskProducer) ScheduleCleanup(ctx context.Context, fileKey string, delay time.Duration) error {
	task, err := NewUploadCleanupTask(fileKey)
	if err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Queue(cleanupQueue),
	}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}

	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Close закрывает соединение
func (p *TaskProducer) Close() error {
	return p.client.Close()
}

// NewUploadCleanupTask создаёт задачу удаления файла
func NewUploadCleanupTask(fileKey string) (*asynq.Task, error) {
	payload, err := json.Marshal(UploadCleanupPayload{FileKey: fileKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeUploadCleanup, payload), nil
}
