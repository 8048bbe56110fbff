package domain

import "fmt"

// RowError ошибка одной строки файла
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// ImportResult итог импорта (или пробного прогона)
type ImportResult struct {
	DryRun    bool       `json:"dry_run"`
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors"`
	// Ограничение выборки ошибок; Failed считает все
	sampleLimit int
}

// NewImportResult создаёт результат с ограниченной выборкой ошибок
func NewImportResult(dryRun bool, total, sampleLimit int) *ImportResult {
	return &ImportResult{
		DryRun:      dryRun,
		Total:       total,
		Errors:      make([]RowError, 0),
		sampleLimit: sampleLimit,
	}
}

// AddSuccess учитывает успешную строку
func (r *ImportResult) AddSuccess() {
	r.Succeeded++
}

// AddFailure учитывает неуспешную строку; в выборку попадают первые sampleLimit
func (r *ImportResult) AddFailure(row int, message string) {
	r.Failed++
	if len(r.Errors) < r.sampleLimit {
		r.Errors = append(r.Errors, RowError{Row: row, Message: message})
	}
}

// Truncated сообщает, что в выборку попали не все ошибки
func (r *ImportResult) Truncated() bool {
	return r.Failed > len(r.Errors)
}

// Summary текст итога для отображения
func (r *ImportResult) Summary() string {
	mode := ""
	if r.DryRun {
		mode = "(dry run) "
	}
	return fmt.Sprintf("Import %scompleted: %d processed, %d succeeded, %d failed",
		mode, r.Total, r.Succeeded, r.Failed)
}
