package domain

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Ошибки домена
var (
	ErrUnsupportedFormat       = errors.New("unsupported file format")
	ErrMissingFields           = errors.New("missing required fields")
	ErrUnmappedRequiredFields  = errors.New("required fields are not mapped")
	ErrDuplicateMapping        = errors.New("system field mapped more than once")
	ErrRecordCountUnavailable  = errors.New("record count unavailable")
	ErrInvalidTransition       = errors.New("invalid wizard transition")
	ErrUnknownDataType         = errors.New("unknown data type")
	ErrUnknownColumn           = errors.New("unknown source column")
	ErrUnknownField            = errors.New("unknown system field")
	ErrDuplicateColumn         = errors.New("duplicate column name")
	ErrEmptyFile               = errors.New("file has no header row")
	ErrUnreadableFile          = errors.New("file could not be read")
	ErrSessionNotFound         = errors.New("session not found")
	ErrImportRunNotFound       = errors.New("import run not found")
	ErrInvalidImportRunStatus  = errors.New("invalid import run status")
	ErrInvalidTemplateRegistry = errors.New("invalid template registry")
)

// UnsupportedFormatError расширение файла не CSV и не таблица
type UnsupportedFormatError struct {
	FileName string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.FileName)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// NewUnsupportedFormatError создаёт ошибку формата с подсказкой для пользователя
func NewUnsupportedFormatError(fileName string) error {
	return errors.WithHint(&UnsupportedFormatError{FileName: fileName}, "upload a .csv, .xlsx or .xls file")
}

// MissingFieldsError в файле нет обязательных колонок шаблона
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}

func NewMissingFieldsError(fields []string) error {
	return errors.WithHint(&MissingFieldsError{Fields: fields},
		"download the template for this data type and compare the header row")
}

// UnmappedRequiredFieldsError обязательные поля не покрыты маппингом
type UnmappedRequiredFieldsError struct {
	Fields []string
}

func (e *UnmappedRequiredFieldsError) Error() string {
	return "the following required fields are not mapped: " + strings.Join(e.Fields, ", ")
}

func (e *UnmappedRequiredFieldsError) Is(target error) bool {
	return target == ErrUnmappedRequiredFields
}

func NewUnmappedRequiredFieldsError(fields []string) error {
	return errors.WithHint(&UnmappedRequiredFieldsError{Fields: fields},
		"select a file column for every required field")
}

// DuplicateMappingError несколько колонок указывают на одно поле
type DuplicateMappingError struct {
	Field   string
	Columns []string
}

func (e *DuplicateMappingError) Error() string {
	return fmt.Sprintf("field %q is mapped from several columns: %s", e.Field, strings.Join(e.Columns, ", "))
}

func (e *DuplicateMappingError) Is(target error) bool {
	return target == ErrDuplicateMapping
}

func NewDuplicateMappingError(field string, columns []string) error {
	return errors.WithHint(&DuplicateMappingError{Field: field, Columns: columns},
		"keep only one column for each system field")
}

// Hint возвращает подсказку для пользователя, если она есть
func Hint(err error) string {
	return errors.FlattenHints(err)
}

// IsUserError сообщает, что ошибку можно показать пользователю и исправить в текущем шаге
func IsUserError(err error) bool {
	for _, target := range userErrors {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}

var userErrors = []error{
	ErrUnsupportedFormat,
	ErrMissingFields,
	ErrUnmappedRequiredFields,
	ErrDuplicateMapping,
	ErrUnknownDataType,
	ErrUnknownColumn,
	ErrUnknownField,
	ErrDuplicateColumn,
	ErrEmptyFile,
	ErrUnreadableFile,
}
