package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CleanupUseCase удаление загруженных файлов после закрытия мастера
type CleanupUseCase struct {
	fileStorage FileStorage
	logger      *zap.Logger
}

// NewCleanupUseCase создаёт новый экземпляр CleanupUseCase
func NewCleanupUseCase(fileStorage FileStorage, logger *zap.Logger) *CleanupUseCase {
	return &CleanupUseCase{
		fileStorage: fileStorage,
		logger:      logger,
	}
}

// DeleteFile удаляет файл из хранилища
func (uc *CleanupUseCase) DeleteFile(ctx context.Context, fileKey string) error {
	if fileKey == "" {
		return fmt.Errorf("empty file key")
	}

	if err := uc.fileStorage.Delete(ctx, fileKey); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	uc.logger.Info("Uploaded file deleted",
		zap.String("file_key", fileKey),
	)
	return nil
}
