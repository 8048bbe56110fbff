package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Snapshot неизменяемый срез состояния мастера для отображения
type Snapshot struct {
	ID          uuid.UUID           `json:"id"`
	SchoolID    uuid.UUID           `json:"school_id"`
	Stage       Stage               `json:"stage"`
	StageName   string              `json:"stage_name"`
	CanAdvance  bool                `json:"can_advance"`
	CanFinish   bool                `json:"can_finish"`
	Finished    bool                `json:"finished"`
	DataType    DataType            `json:"data_type,omitempty"`
	Fields      []string            `json:"fields,omitempty"`
	FileName    string              `json:"file_name,omitempty"`
	Columns     []string            `json:"columns,omitempty"`
	Preview     []map[string]string `json:"preview,omitempty"`
	Mapping     []MappingRow        `json:"mapping,omitempty"`
	RecordCount *int                `json:"record_count,omitempty"`
	DryRun      bool                `json:"dry_run"`
	Result      *ImportResult       `json:"result,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Snapshot возвращает текущее состояние
func (w *Wizard) Snapshot() Snapshot {
	s := Snapshot{
		ID:         w.ID,
		SchoolID:   w.SchoolID,
		Stage:      w.Stage,
		StageName:  w.Stage.String(),
		CanAdvance: !w.Finished && w.CanAdvance(),
		CanFinish:  !w.Finished && w.CanFinish(),
		Finished:   w.Finished,
		DataType:   w.DataType,
		DryRun:     w.DryRun,
		Result:     w.Result,
		UpdatedAt:  w.UpdatedAt,
	}

	if w.template != nil {
		s.Fields = w.template.Fields()
	}
	if w.File != nil {
		s.FileName = w.File.Name
		s.Columns = append([]string(nil), w.File.Columns...)
		s.Preview = w.File.Preview
	}
	if w.Mapping != nil {
		s.Mapping = w.Mapping.Rows()
	}
	if n, ok := w.RecordCount(); ok {
		s.RecordCount = &n
	}

	return s
}

// RecordCountLabel количество записей для отображения: число или "Unknown"
func (s Snapshot) RecordCountLabel() string {
	if s.RecordCount == nil {
		return "Unknown"
	}
	return strconv.Itoa(*s.RecordCount)
}
