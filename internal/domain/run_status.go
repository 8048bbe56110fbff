package domain

// RunStatus статус запуска импорта
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"    // Запуск создан
	RunStatusProcessing RunStatus = "processing" // Записи проверяются / сохраняются
	RunStatusCompleted  RunStatus = "completed"  // Импорт завершён (возможно с ошибками строк)
	RunStatusFailed     RunStatus = "failed"     // Импорт прерван ошибкой инфраструктуры
)

// IsValid проверяет валидность статуса
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusPending, RunStatusProcessing, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}

// IsFinal проверяет, является ли статус финальным
func (s RunStatus) IsFinal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

func (s RunStatus) String() string {
	return string(s)
}
