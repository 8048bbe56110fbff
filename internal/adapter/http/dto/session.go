package dto

import (
	"time"

	"github.com/plastinin/schoolmigrate/internal/domain"
)

// OpenSessionRequest запрос на открытие мастера
type OpenSessionRequest struct {
	SchoolID string `json:"school_id"`
}

// SelectTypeRequest запрос выбора типа данных
type SelectTypeRequest struct {
	DataType string `json:"data_type"`
}

// MappingRequest изменения маппинга: колонка → поле ("" снимает выбор)
type MappingRequest struct {
	Mapping map[string]string `json:"mapping"`
}

// DryRunRequest переключение пробного прогона
type DryRunRequest struct {
	DryRun *bool `json:"dry_run"`
}

// ResultResponse итог импорта
type ResultResponse struct {
	DryRun    bool              `json:"dry_run"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Errors    []domain.RowError `json:"errors"`
	Truncated bool              `json:"errors_truncated"`
	Summary   string            `json:"summary"`
}

// ResultFromDomain конвертирует итог импорта в DTO
func ResultFromDomain(r *domain.ImportResult) *ResultResponse {
	if r == nil {
		return nil
	}
	return &ResultResponse{
		DryRun:    r.DryRun,
		Total:     r.Total,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Errors:    r.Errors,
		Truncated: r.Truncated(),
		Summary:   r.Summary(),
	}
}

// SessionResponse состояние мастера
type SessionResponse struct {
	ID          string              `json:"id"`
	SchoolID    string              `json:"school_id"`
	Stage       int                 `json:"stage"`
	StageName   string              `json:"stage_name"`
	CanAdvance  bool                `json:"can_advance"`
	CanFinish   bool                `json:"can_finish"`
	Finished    bool                `json:"finished"`
	DataType    string              `json:"data_type,omitempty"`
	Fields      []string            `json:"fields,omitempty"`
	FileName    string              `json:"file_name,omitempty"`
	Columns     []string            `json:"columns,omitempty"`
	Preview     []map[string]string `json:"preview,omitempty"`
	Mapping     []domain.MappingRow `json:"mapping,omitempty"`
	RecordCount string              `json:"record_count,omitempty"`
	DryRun      bool                `json:"dry_run"`
	Result      *ResultResponse     `json:"result,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// SessionFromSnapshot конвертирует состояние мастера в DTO.
// Значения превью обрезаются до width символов.
func SessionFromSnapshot(s domain.Snapshot, width int) *SessionResponse {
	resp := &SessionResponse{
		ID:         s.ID.String(),
		SchoolID:   s.SchoolID.String(),
		Stage:      int(s.Stage),
		StageName:  s.StageName,
		CanAdvance: s.CanAdvance,
		CanFinish:  s.CanFinish,
		Finished:   s.Finished,
		DataType:   s.DataType.String(),
		Fields:     s.Fields,
		FileName:   s.FileName,
		Columns:    s.Columns,
		Mapping:    s.Mapping,
		DryRun:     s.DryRun,
		Result:     ResultFromDomain(s.Result),
		UpdatedAt:  s.UpdatedAt,
	}

	if s.Stage == domain.StageReviewImport {
		resp.RecordCount = s.RecordCountLabel()
	}

	if len(s.Preview) > 0 {
		resp.Preview = make([]map[string]string, len(s.Preview))
		for i, row := range s.Preview {
			out := make(map[string]string, len(row))
			for col, v := range row {
				out[col] = domain.Truncate(v, width)
			}
			resp.Preview[i] = out
		}
	}

	return resp
}
