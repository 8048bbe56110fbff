package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/domain"
)

// SessionStore хранилище открытых мастеров импорта
type SessionStore interface {
	Create(ctx context.Context, wizard *domain.Wizard) error
	// Update выполняет fn под блокировкой сессии
	Update(ctx context.Context, id uuid.UUID, fn func(w *domain.Wizard) error) error
	Delete(ctx context.Context, id uuid.UUID) (*domain.Wizard, error)
	// DeleteIdle удаляет сессии, не менявшиеся дольше maxIdle
	DeleteIdle(ctx context.Context, maxIdle time.Duration) ([]*domain.Wizard, error)
}

// FileStorage интерфейс для работы с файловым хранилищем (S3 или локальный диск)
type FileStorage interface {
	Upload(ctx context.Context, fileName string, contentType string, reader io.Reader, size int64) (fileKey string, err error)
	Download(ctx context.Context, fileKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileKey string) error
}

// TableReader разбор CSV/XLSX
type TableReader interface {
	Read(src io.Reader, format domain.FileFormat, limit int) (*domain.Table, error)
	CountRecords(src io.Reader, format domain.FileFormat) (int, error)
}

// TemplateWriter выгрузка файла шаблона
type TemplateWriter interface {
	Write(w io.Writer, tmpl *domain.Template, format domain.FileFormat) error
}

// ImportBackend проверка и сохранение записей
type ImportBackend interface {
	Import(ctx context.Context, req ImportRequest) (*domain.ImportResult, error)
}

// RecordStore хранилище импортированных записей школы
type RecordStore interface {
	// ExistingKeys возвращает ключи из keys, уже сохранённые для школы и типа данных
	ExistingKeys(ctx context.Context, schoolID uuid.UUID, dataType domain.DataType, keys []string) (map[string]bool, error)
	// Save сохраняет записи в одной транзакции и возвращает индексы записей, ключ которых уже занят
	Save(ctx context.Context, schoolID, runID uuid.UUID, dataType domain.DataType, records []KeyedRecord) (conflicts []int, err error)
}

// ImportRunRepository история запусков импорта
type ImportRunRepository interface {
	Create(ctx context.Context, run *domain.ImportRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error)
	Update(ctx context.Context, run *domain.ImportRun) error
	List(ctx context.Context, filter domain.ImportRunFilter, pagination domain.Pagination) (*domain.ImportRunListResult, error)
}

// CleanupQueue отложенное удаление загруженных файлов
type CleanupQueue interface {
	ScheduleCleanup(ctx context.Context, fileKey string, delay time.Duration) error
}
