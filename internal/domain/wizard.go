package domain

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Stage шаг мастера импорта
type Stage int

const (
	StageSelectType   Stage = iota + 1 // Выбор типа данных
	StageUploadFile                    // Загрузка файла
	StageMapFields                     // Сопоставление полей
	StageReviewImport                  // Проверка и импорт
)

var stageNames = map[Stage]string{
	StageSelectType:   "select_type",
	StageUploadFile:   "upload_file",
	StageMapFields:    "map_fields",
	StageReviewImport: "review_import",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

// Wizard состояние мастера импорта: линейный конечный автомат
// SelectType → UploadFile → MapFields → ReviewImport.
// Переход назад не очищает данные следующих шагов.
type Wizard struct {
	ID        uuid.UUID
	SchoolID  uuid.UUID
	Stage     Stage
	DataType  DataType
	File      *UploadedFile
	Mapping   *FieldMapping
	DryRun    bool
	Result    *ImportResult
	Finished  bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// nil, если количество записей неизвестно
	recordCount *int
	registry    *Registry
	template    *Template
}

// NewWizard создаёт мастер на первом шаге; пробный прогон включён по умолчанию
func NewWizard(registry *Registry, schoolID uuid.UUID) *Wizard {
	now := time.Now()
	return &Wizard{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		Stage:     StageSelectType,
		DryRun:    true,
		CreatedAt: now,
		UpdatedAt: now,
		registry:  registry,
	}
}

// Template возвращает шаблон выбранного типа или nil
func (w *Wizard) Template() *Template {
	return w.template
}

// SelectType выбирает тип данных. Смена типа сбрасывает файл, маппинг и результат.
func (w *Wizard) SelectType(dataType DataType) error {
	if err := w.Expect(StageSelectType); err != nil {
		return err
	}
	tmpl, err := w.registry.Get(dataType)
	if err != nil {
		return err
	}

	if w.DataType != dataType {
		w.resetFile()
	}
	w.DataType = dataType
	w.template = tmpl
	w.touch()
	return nil
}

// AttachFile прикрепляет разобранный файл. Отсутствие обязательных колонок —
// MissingFieldsError; в этом случае прежний файл тоже отбрасывается.
func (w *Wizard) AttachFile(file *UploadedFile) error {
	if err := w.Expect(StageUploadFile); err != nil {
		return err
	}

	w.resetFile()
	if missing := w.template.MissingColumns(file.Columns); len(missing) > 0 {
		return NewMissingFieldsError(missing)
	}

	w.File = file
	w.Mapping = NewFieldMapping(file.Columns, w.template)
	w.touch()
	return nil
}

// RejectFile отбрасывает текущий файл после неудачной загрузки
func (w *Wizard) RejectFile() {
	w.resetFile()
	w.touch()
}

// SetMapping назначает колонке поле системы (пустое поле снимает выбор)
func (w *Wizard) SetMapping(column, field string) error {
	return w.SetMappings(map[string]string{column: field})
}

// SetMappings применяет изменения маппинга целиком или не применяет ни одного
func (w *Wizard) SetMappings(changes map[string]string) error {
	if err := w.Expect(StageMapFields); err != nil {
		return err
	}

	columns := make([]string, 0, len(changes))
	for col := range changes {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	next := w.Mapping.clone()
	for _, col := range columns {
		if err := next.Set(w.template, col, changes[col]); err != nil {
			return err
		}
	}

	w.Mapping = next
	w.Result = nil
	w.touch()
	return nil
}

// SetDryRun переключает пробный прогон
func (w *Wizard) SetDryRun(dryRun bool) error {
	if err := w.Expect(StageReviewImport); err != nil {
		return err
	}
	w.DryRun = dryRun
	w.touch()
	return nil
}

// CanAdvance проверяет условие перехода текущего шага
func (w *Wizard) CanAdvance() bool {
	return w.guard() == nil
}

// Next переходит на следующий шаг, если выполнено условие текущего
func (w *Wizard) Next() error {
	if w.Stage == StageReviewImport {
		return errors.Wrap(ErrInvalidTransition, "review is the last stage")
	}
	if err := w.guard(); err != nil {
		return err
	}
	w.Stage++
	w.touch()
	return nil
}

// Back возвращает на предыдущий шаг без очистки данных
func (w *Wizard) Back() error {
	if w.Stage == StageSelectType {
		return errors.Wrap(ErrInvalidTransition, "already at the first stage")
	}
	if w.Finished {
		return errors.Wrap(ErrInvalidTransition, "wizard is finished")
	}
	w.Stage--
	w.touch()
	return nil
}

// SetRecordCount сохраняет количество записей; ошибка означает "неизвестно"
func (w *Wizard) SetRecordCount(n int, err error) {
	if err != nil {
		w.recordCount = nil
		return
	}
	w.recordCount = &n
}

// RecordCount возвращает количество записей и признак, что оно известно
func (w *Wizard) RecordCount() (int, bool) {
	if w.recordCount == nil {
		return 0, false
	}
	return *w.recordCount, true
}

// ReadyToImport проверяет, что импорт можно запускать
func (w *Wizard) ReadyToImport() error {
	if err := w.Expect(StageReviewImport); err != nil {
		return err
	}
	return w.Mapping.Validate(w.template)
}

// RecordResult сохраняет результат импорта и открывает Finish
func (w *Wizard) RecordResult(result *ImportResult) error {
	if err := w.Expect(StageReviewImport); err != nil {
		return err
	}
	w.Result = result
	w.touch()
	return nil
}

// CanFinish Finish доступен только после завершённого импорта
func (w *Wizard) CanFinish() bool {
	return w.Stage == StageReviewImport && w.Result != nil
}

// Finish завершает мастер
func (w *Wizard) Finish() error {
	if !w.CanFinish() {
		return errors.Wrap(ErrInvalidTransition, "run an import before finishing")
	}
	w.Finished = true
	w.touch()
	return nil
}

func (w *Wizard) guard() error {
	switch w.Stage {
	case StageSelectType:
		if w.template == nil {
			return errors.Wrap(ErrInvalidTransition, "select a data type first")
		}
	case StageUploadFile:
		if w.File == nil {
			return errors.Wrap(ErrInvalidTransition, "upload a valid file first")
		}
	case StageMapFields:
		return w.Mapping.Validate(w.template)
	case StageReviewImport:
		return errors.Wrap(ErrInvalidTransition, "review is the last stage")
	}
	return nil
}

// Expect проверяет, что мастер находится на шаге stage и не завершён
func (w *Wizard) Expect(stage Stage) error {
	if w.Finished {
		return errors.Wrap(ErrInvalidTransition, "wizard is finished")
	}
	if w.Stage != stage {
		return errors.Wrapf(ErrInvalidTransition, "operation belongs to stage %s, wizard is at %s", stage, w.Stage)
	}
	return nil
}

func (w *Wizard) resetFile() {
	w.File = nil
	w.Mapping = nil
	w.recordCount = nil
	w.Result = nil
}

func (w *Wizard) touch() {
	w.UpdatedAt = time.Now()
}
