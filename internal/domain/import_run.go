package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportRun запись истории импорта
type ImportRun struct {
	ID          uuid.UUID  `json:"id"`
	SessionID   uuid.UUID  `json:"session_id"`
	SchoolID    uuid.UUID  `json:"school_id"`
	DataType    DataType   `json:"data_type"`
	FileName    string     `json:"file_name"`
	DryRun      bool       `json:"dry_run"`
	Status      RunStatus  `json:"status"`
	Total       int        `json:"total"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Errors      []RowError `json:"errors,omitempty"` // Выборка ошибок строк
	Error       string     `json:"error,omitempty"`  // Текст ошибки (если failed)
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewImportRun создаёт новый запуск
func NewImportRun(sessionID, schoolID uuid.UUID, dataType DataType, fileName string, dryRun bool) *ImportRun {
	now := time.Now()

	return &ImportRun{
		ID:        uuid.New(),
		SessionID: sessionID,
		SchoolID:  schoolID,
		DataType:  dataType,
		FileName:  fileName,
		DryRun:    dryRun,
		Status:    RunStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkProcessing переводит запуск в статус "в обработке"
func (r *ImportRun) MarkProcessing() error {
	if r.Status != RunStatusPending {
		return ErrInvalidImportRunStatus
	}
	r.Status = RunStatusProcessing
	r.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted сохраняет итог и завершает запуск
func (r *ImportRun) MarkCompleted(result *ImportResult) error {
	if r.Status != RunStatusProcessing {
		return ErrInvalidImportRunStatus
	}
	now := time.Now()
	r.Status = RunStatusCompleted
	r.Total = result.Total
	r.Succeeded = result.Succeeded
	r.Failed = result.Failed
	r.Errors = result.Errors
	r.UpdatedAt = now
	r.CompletedAt = &now
	return nil
}

// MarkFailed переводит запуск в статус "ошибка"
func (r *ImportRun) MarkFailed(errMsg string) error {
	if r.Status != RunStatusProcessing && r.Status != RunStatusPending {
		return ErrInvalidImportRunStatus
	}
	now := time.Now()
	r.Status = RunStatusFailed
	r.Error = errMsg
	r.UpdatedAt = now
	r.CompletedAt = &now
	return nil
}
