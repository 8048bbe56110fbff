package usecase

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/domain"
)

// UploadInput входные данные загрузки файла
type UploadInput struct {
	FileName string    // Имя файла
	FileSize int64     // Размер файла
	Reader   io.Reader // Содержимое файла
}

// ImportRow строка для импорта с номером строки исходного файла
type ImportRow struct {
	Line   int
	Record domain.Record
}

// ImportRequest запрос к бэкенду импорта
type ImportRequest struct {
	SchoolID uuid.UUID
	RunID    uuid.UUID
	Template *domain.Template
	Rows     []ImportRow
	DryRun   bool
}

// KeyedRecord запись с ключом уникальности (пустой ключ, если у типа его нет)
type KeyedRecord struct {
	Key    string
	Record domain.Record
}

// WizardOptions параметры мастера
type WizardOptions struct {
	PreviewRows     int
	MaxUploadSize   int64
	UploadRetention time.Duration
}

// AllRows читать файл целиком
const AllRows = -1
