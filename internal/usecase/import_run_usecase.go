package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/domain"
)

// ImportRunUseCase чтение истории импорта
type ImportRunUseCase struct {
	runRepo ImportRunRepository
}

// NewImportRunUseCase создаёт новый экземпляр ImportRunUseCase
func NewImportRunUseCase(runRepo ImportRunRepository) *ImportRunUseCase {
	return &ImportRunUseCase{runRepo: runRepo}
}

// GetByID возвращает запуск по ID
func (uc *ImportRunUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	run, err := uc.runRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List возвращает историю импорта
func (uc *ImportRunUseCase) List(ctx context.Context, filter domain.ImportRunFilter, pagination domain.Pagination) (*domain.ImportRunListResult, error) {
	return uc.runRepo.List(ctx, filter, pagination)
}
