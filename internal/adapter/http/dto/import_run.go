package dto

import (
	"time"

	"github.com/plastinin/schoolmigrate/internal/domain"
)

// ImportRunResponse ответ с информацией о запуске импорта
type ImportRunResponse struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	SchoolID    string            `json:"school_id"`
	DataType    string            `json:"data_type"`
	FileName    string            `json:"file_name"`
	DryRun      bool              `json:"dry_run"`
	Status      string            `json:"status"`
	Total       int               `json:"total"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	Errors      []domain.RowError `json:"errors,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// ImportRunFromDomain конвертирует доменную модель в DTO
func ImportRunFromDomain(run *domain.ImportRun) *ImportRunResponse {
	return &ImportRunResponse{
		ID:          run.ID.String(),
		SessionID:   run.SessionID.String(),
		SchoolID:    run.SchoolID.String(),
		DataType:    run.DataType.String(),
		FileName:    run.FileName,
		DryRun:      run.DryRun,
		Status:      run.Status.String(),
		Total:       run.Total,
		Succeeded:   run.Succeeded,
		Failed:      run.Failed,
		Errors:      run.Errors,
		Error:       run.Error,
		CreatedAt:   run.CreatedAt,
		UpdatedAt:   run.UpdatedAt,
		CompletedAt: run.CompletedAt,
	}
}

// ImportRunListResponse ответ со списком запусков
type ImportRunListResponse struct {
	Runs       []*ImportRunResponse `json:"runs"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// ImportRunListFromDomain конвертирует результат списка в DTO
func ImportRunListFromDomain(result *domain.ImportRunListResult) *ImportRunListResponse {
	runs := make([]*ImportRunResponse, len(result.Runs))
	for i, run := range result.Runs {
		runs[i] = ImportRunFromDomain(run)
	}

	return &ImportRunListResponse{
		Runs:       runs,
		Total:      result.Total,
		Page:       result.Pagination.Page,
		PageSize:   result.Pagination.PageSize,
		TotalPages: result.TotalPages(),
	}
}
