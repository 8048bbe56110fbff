package domain

import (
	"path/filepath"
	"strings"
)

// FileFormat формат загружаемого файла
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
	// Старый двоичный формат Excel 97-2003, только для загрузки
	FormatXLS FileFormat = "xls"
)

// Маппинг расширений на форматы
var extToFormat = map[string]FileFormat{
	".csv":  FormatCSV,
	".xlsx": FormatXLSX,
	".xlsm": FormatXLSX,
	".xls":  FormatXLS,
}

var formatToContentType = map[FileFormat]string{
	FormatCSV:  "text/csv",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatXLS:  "application/vnd.ms-excel",
}

// FormatFromFileName определяет формат по расширению файла
func FormatFromFileName(fileName string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	f, ok := extToFormat[ext]
	if !ok {
		return "", NewUnsupportedFormatError(filepath.Base(fileName))
	}
	return f, nil
}

// ParseFileFormat разбирает формат из строки запроса (csv, xlsx) (по умолчанию CSV)
func ParseFileFormat(s string) (FileFormat, error) {
	switch FileFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", NewUnsupportedFormatError(s)
}

// ContentType возвращает MIME тип формата
func (f FileFormat) ContentType() string {
	return formatToContentType[f]
}

// Extension возвращает расширение с точкой
func (f FileFormat) Extension() string {
	return "." + string(f)
}

func (f FileFormat) String() string {
	return string(f)
}

// UploadedFile загруженный и разобранный файл.
// Заменяется целиком при повторной загрузке.
type UploadedFile struct {
	Key     string              `json:"key"`  // Ключ в хранилище
	Name    string              `json:"name"` // Оригинальное имя файла
	Format  FileFormat          `json:"format"`
	Size    int64               `json:"size"`
	Columns []string            `json:"columns"`
	Preview []map[string]string `json:"preview"`
}

// Table табличные данные: заголовок и строки, выровненные по колонкам
type Table struct {
	Columns []string
	Rows    [][]string
	// Номер строки в исходном файле для каждой строки Rows (заголовок в строке 1)
	Lines []int
}

// Line возвращает номер строки файла для строки i
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// RowMap возвращает строку i как column → value
func (t *Table) RowMap(i int) map[string]string {
	row := t.Rows[i]
	m := make(map[string]string, len(t.Columns))
	for j, col := range t.Columns {
		if j < len(row) {
			m[col] = row[j]
		} else {
			m[col] = ""
		}
	}
	return m
}

// Head возвращает первые n строк как column → value
func (t *Table) Head(n int) []map[string]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	rows := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, t.RowMap(i))
	}
	return rows
}

// Truncate обрезает значение для отображения до width символов.
// Используется только при выводе, хранимые данные не меняются.
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
