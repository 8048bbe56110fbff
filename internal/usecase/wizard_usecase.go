package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"go.uber.org/zap"
)

// WizardUseCase бизнес-логика мастера импорта.
// Каждая операция выполняется синхронно под блокировкой своей сессии.
type WizardUseCase struct {
	registry     *domain.Registry
	sessions     SessionStore
	fileStorage  FileStorage
	tableReader  TableReader
	templates    TemplateWriter
	backend      ImportBackend
	runRepo      ImportRunRepository
	cleanupQueue CleanupQueue
	opts         WizardOptions
	logger       *zap.Logger
}

// NewWizardUseCase создаёт новый экземпляр WizardUseCase.
// При cleanupQueue == nil файлы удаляются сразу.
func NewWizardUseCase(
	registry *domain.Registry,
	sessions SessionStore,
	fileStorage FileStorage,
	tableReader TableReader,
	templates TemplateWriter,
	backend ImportBackend,
	runRepo ImportRunRepository,
	cleanupQueue CleanupQueue,
	opts WizardOptions,
	logger *zap.Logger,
) *WizardUseCase {
	return &WizardUseCase{
		registry:     registry,
		sessions:     sessions,
		fileStorage:  fileStorage,
		tableReader:  tableReader,
		templates:    templates,
		backend:      backend,
		runRepo:      runRepo,
		cleanupQueue: cleanupQueue,
		opts:         opts,
		logger:       logger,
	}
}

// Templates возвращает все шаблоны
func (uc *WizardUseCase) Templates() []*domain.Template {
	return uc.registry.Templates()
}

// WriteTemplate пишет файл шаблона для типа данных
func (uc *WizardUseCase) WriteTemplate(w io.Writer, dataType domain.DataType, format domain.FileFormat) error {
	tmpl, err := uc.registry.Get(dataType)
	if err != nil {
		return err
	}
	if err := uc.templates.Write(w, tmpl, format); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

// Open открывает новый мастер для школы
func (uc *WizardUseCase) Open(ctx context.Context, schoolID uuid.UUID) (domain.Snapshot, error) {
	wizard := domain.NewWizard(uc.registry, schoolID)
	if err := uc.sessions.Create(ctx, wizard); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to create session: %w", err)
	}

	uc.logger.Info("Wizard opened",
		zap.String("session_id", wizard.ID.String()),
		zap.String("school_id", schoolID.String()),
	)

	return wizard.Snapshot(), nil
}

// Get возвращает состояние мастера
func (uc *WizardUseCase) Get(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	return uc.update(ctx, id, func(w *domain.Wizard) error { return nil })
}

// Close закрывает мастер и планирует удаление загруженного файла
func (uc *WizardUseCase) Close(ctx context.Context, id uuid.UUID) error {
	wizard, err := uc.sessions.Delete(ctx, id)
	if err != nil {
		return err
	}

	if wizard.File != nil {
		uc.discardFile(ctx, wizard.File.Key, uc.opts.UploadRetention)
	}

	uc.logger.Info("Wizard closed",
		zap.String("session_id", id.String()),
		zap.Bool("finished", wizard.Finished),
	)
	return nil
}

// ExpireIdle закрывает сессии, простаивающие дольше maxIdle
func (uc *WizardUseCase) ExpireIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	expired, err := uc.sessions.DeleteIdle(ctx, maxIdle)
	if err != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", err)
	}

	for _, w := range expired {
		if w.File != nil {
			uc.discardFile(ctx, w.File.Key, 0)
		}
	}

	if len(expired) > 0 {
		uc.logger.Info("Idle wizards expired", zap.Int("count", len(expired)))
	}
	return len(expired), nil
}

// SelectType шаг 1: выбор типа данных
func (uc *WizardUseCase) SelectType(ctx context.Context, id uuid.UUID, dataType domain.DataType) (domain.Snapshot, error) {
	return uc.update(ctx, id, func(w *domain.Wizard) error {
		var oldKey string
		if w.File != nil && w.DataType != dataType {
			oldKey = w.File.Key
		}
		if err := w.SelectType(dataType); err != nil {
			return err
		}
		if oldKey != "" {
			uc.discardFile(ctx, oldKey, 0)
		}
		return nil
	})
}

// WriteSessionTemplate пишет шаблон выбранного в мастере типа данных
func (uc *WizardUseCase) WriteSessionTemplate(ctx context.Context, id uuid.UUID, out io.Writer, format domain.FileFormat) (domain.DataType, error) {
	var dataType domain.DataType
	_, err := uc.update(ctx, id, func(w *domain.Wizard) error {
		if w.Template() == nil {
			return fmt.Errorf("%w: select a data type first", domain.ErrInvalidTransition)
		}
		dataType = w.DataType
		return uc.templates.Write(out, w.Template(), format)
	})
	return dataType, err
}

// Upload шаг 2: загрузка и проверка файла.
// Ошибки чтения файла логируются и превращаются в ошибки для пользователя.
func (uc *WizardUseCase) Upload(ctx context.Context, id uuid.UUID, input UploadInput) (domain.Snapshot, error) {
	return uc.update(ctx, id, func(w *domain.Wizard) error {
		if err := w.Expect(domain.StageUploadFile); err != nil {
			return err
		}

		var oldKey string
		if w.File != nil {
			oldKey = w.File.Key
		}
		reject := func(err error) error {
			w.RejectFile()
			if oldKey != "" {
				uc.discardFile(ctx, oldKey, 0)
			}
			uc.logger.Warn("File rejected",
				zap.String("session_id", id.String()),
				zap.String("file_name", input.FileName),
				zap.Error(err),
			)
			return err
		}

		format, err := domain.FormatFromFileName(input.FileName)
		if err != nil {
			return reject(err)
		}

		data, err := readLimited(input.Reader, uc.opts.MaxUploadSize)
		if err != nil {
			return reject(fmt.Errorf("%w: %v", domain.ErrUnreadableFile, err))
		}

		table, err := uc.tableReader.Read(bytes.NewReader(data), format, uc.opts.PreviewRows)
		if err != nil {
			if !domain.IsUserError(err) {
				err = fmt.Errorf("%w: %v", domain.ErrUnreadableFile, err)
			}
			return reject(err)
		}

		if missing := w.Template().MissingColumns(table.Columns); len(missing) > 0 {
			return reject(domain.NewMissingFieldsError(missing))
		}

		fileName := filepath.Base(input.FileName)
		key, err := uc.fileStorage.Upload(ctx, fileName, format.ContentType(), bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return reject(fmt.Errorf("failed to store file: %w", err))
		}

		file := &domain.UploadedFile{
			Key:     key,
			Name:    fileName,
			Format:  format,
			Size:    int64(len(data)),
			Columns: table.Columns,
			Preview: table.Head(uc.opts.PreviewRows),
		}
		if err := w.AttachFile(file); err != nil {
			uc.discardFile(ctx, key, 0)
			return reject(err)
		}
		if oldKey != "" {
			uc.discardFile(ctx, oldKey, 0)
		}

		uc.logger.Info("File attached",
			zap.String("session_id", id.String()),
			zap.String("file_key", key),
			zap.String("format", format.String()),
			zap.Strings("columns", table.Columns),
		)
		return nil
	})
}

// SetMapping шаг 3: назначение полей колонкам (пустое значение снимает выбор).
// Ошибка в любой паре оставляет маппинг без изменений.
func (uc *WizardUseCase) SetMapping(ctx context.Context, id uuid.UUID, mapping map[string]string) (domain.Snapshot, error) {
	return uc.update(ctx, id, func(w *domain.Wizard) error {
		return w.SetMappings(mapping)
	})
}

// Next переход вперёд. При входе в шаг проверки считается количество записей.
func (uc *WizardUseCase) Next(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	return uc.update(ctx, id, func(w *domain.Wizard) error {
		if err := w.Next(); err != nil {
			return err
		}
		if w.Stage == domain.StageReviewImport {
			n, err := uc.countRecords(ctx, w.File)
			if err != nil {
				uc.logger.Warn("Record count unavailable",
					zap.String("session_id", id.String()),
					zap.Error(err),
				)
			}
			w.SetRecordCount(n, err)
		}
		return nil
	})
}

// Back переход назад без очистки данных
func (uc *WizardUseCase) Back(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	return uc.update(ctx, id, func(w *domain.Wizard) error {
		return w.Back()
	})
}

// SetDryRun шаг 4: переключение пробного прогона
func (uc *WizardUseCase) SetDryRun(ctx context.Context, id uuid.UUID, dryRun bool) (domain.Snapshot, error) {
	return uc.update(ctx, id, func(w *domain.Wizard) error {
		return w.SetDryRun(dryRun)
	})
}

// Import шаг 4: применяет маппинг ко всем строкам, проверяет и (если не пробный прогон) сохраняет
func (uc *WizardUseCase) Import(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	return uc.update(ctx, id, func(w *domain.Wizard) error {
		if err := w.ReadyToImport(); err != nil {
			return err
		}

		run := domain.NewImportRun(w.ID, w.SchoolID, w.DataType, w.File.Name, w.DryRun)
		if err := uc.runRepo.Create(ctx, run); err != nil {
			return fmt.Errorf("failed to save import run: %w", err)
		}
		if err := run.MarkProcessing(); err != nil {
			return fmt.Errorf("failed to mark run as processing: %w", err)
		}
		uc.saveRun(ctx, run)

		rows, err := uc.loadRows(ctx, w)
		if err != nil {
			uc.markRunFailed(ctx, run, fmt.Sprintf("failed to read file: %v", err))
			return fmt.Errorf("%w: %v", domain.ErrUnreadableFile, err)
		}

		result, err := uc.backend.Import(ctx, ImportRequest{
			SchoolID: w.SchoolID,
			RunID:    run.ID,
			Template: w.Template(),
			Rows:     rows,
			DryRun:   w.DryRun,
		})
		if err != nil {
			uc.markRunFailed(ctx, run, fmt.Sprintf("import failed: %v", err))
			return fmt.Errorf("import failed: %w", err)
		}

		if err := run.MarkCompleted(result); err != nil {
			return fmt.Errorf("failed to mark run as completed: %w", err)
		}
		uc.saveRun(ctx, run)

		if err := w.RecordResult(result); err != nil {
			return err
		}

		uc.logger.Info("Import completed",
			zap.String("session_id", id.String()),
			zap.String("run_id", run.ID.String()),
			zap.String("data_type", w.DataType.String()),
			zap.Bool("dry_run", result.DryRun),
			zap.Int("total", result.Total),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
		)
		return nil
	})
}

// Finish завершает мастер (доступно после импорта)
func (uc *WizardUseCase) Finish(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	return uc.update(ctx, id, func(w *domain.Wizard) error {
		return w.Finish()
	})
}

func (uc *WizardUseCase) update(ctx context.Context, id uuid.UUID, fn func(w *domain.Wizard) error) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	err := uc.sessions.Update(ctx, id, func(w *domain.Wizard) error {
		fnErr := fn(w)
		snapshot = w.Snapshot()
		return fnErr
	})
	return snapshot, err
}

func (uc *WizardUseCase) loadRows(ctx context.Context, w *domain.Wizard) ([]ImportRow, error) {
	reader, err := uc.fileStorage.Download(ctx, w.File.Key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	table, err := uc.tableReader.Read(reader, w.File.Format, AllRows)
	if err != nil {
		return nil, err
	}

	rows := make([]ImportRow, len(table.Rows))
	for i := range table.Rows {
		rows[i] = ImportRow{
			Line:   table.Line(i),
			Record: w.Mapping.Apply(table.RowMap(i)),
		}
	}
	return rows, nil
}

func (uc *WizardUseCase) countRecords(ctx context.Context, file *domain.UploadedFile) (int, error) {
	reader, err := uc.fileStorage.Download(ctx, file.Key)
	if err != nil {
		return 0, errors.Join(domain.ErrRecordCountUnavailable, err)
	}
	defer reader.Close()

	n, err := uc.tableReader.CountRecords(reader, file.Format)
	if err != nil {
		return 0, errors.Join(domain.ErrRecordCountUnavailable, err)
	}
	return n, nil
}

// discardFile удаляет файл через очередь или сразу
func (uc *WizardUseCase) discardFile(ctx context.Context, key string, delay time.Duration) {
	if uc.cleanupQueue != nil {
		err := uc.cleanupQueue.ScheduleCleanup(ctx, key, delay)
		if err == nil {
			return
		}
		uc.logger.Warn("Failed to schedule file cleanup, deleting now",
			zap.String("file_key", key),
			zap.Error(err),
		)
	}

	if err := uc.fileStorage.Delete(ctx, key); err != nil {
		uc.logger.Warn("Failed to delete file from storage",
			zap.String("file_key", key),
			zap.Error(err),
		)
	}
}

func (uc *WizardUseCase) saveRun(ctx context.Context, run *domain.ImportRun) {
	if err := uc.runRepo.Update(ctx, run); err != nil {
		uc.logger.Error("Failed to update import run",
			zap.String("run_id", run.ID.String()),
			zap.String("status", run.Status.String()),
			zap.Error(err),
		)
	}
}

// markRunFailed помечает запуск как неудачный
func (uc *WizardUseCase) markRunFailed(ctx context.Context, run *domain.ImportRun, errMsg string) {
	uc.logger.Error("Import run failed",
		zap.String("run_id", run.ID.String()),
		zap.String("error", errMsg),
	)

	if err := run.MarkFailed(errMsg); err != nil {
		uc.logger.Error("Failed to mark run as failed",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
		return
	}
	uc.saveRun(ctx, run)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}
