package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Без ограничения количества строк
const NoLimit = -1

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader читает CSV, XLSX и XLS в табличную структуру
type Reader struct{}

// NewReader создаёт новый Reader
func NewReader() *Reader {
	return &Reader{}
}

// Read читает заголовок и не более limit строк данных (NoLimit: все).
// Полностью пустые строки пропускаются.
func (r *Reader) Read(src io.Reader, format domain.FileFormat, limit int) (*domain.Table, error) {
	switch format {
	case domain.FormatCSV:
		return r.readCSV(src, limit)
	case domain.FormatXLSX:
		return r.readXLSX(src, limit)
	case domain.FormatXLS:
		return r.readXLS(src, limit)
	}
	return nil, domain.NewUnsupportedFormatError(format.String())
}

// CountRecords считает записи независимо от превью:
// CSV: строки файла минус заголовок; XLSX и XLS: непустые строки первого листа минус заголовок
func (r *Reader) CountRecords(src io.Reader, format domain.FileFormat) (int, error) {
	var (
		n   int
		err error
	)
	switch format {
	case domain.FormatCSV:
		n, err = countLines(src)
	case domain.FormatXLSX:
		n, err = countSheetRows(src)
	case domain.FormatXLS:
		n, err = countXLSRows(src)
	default:
		return 0, domain.NewUnsupportedFormatError(format.String())
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.ErrEmptyFile
	}
	return n - 1, nil
}

func (r *Reader) readCSV(src io.Reader, limit int) (*domain.Table, error) {
	br := bufio.NewReader(src)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns, err := normalizeHeader(header)
	if err != nil {
		return nil, err
	}

	table := &domain.Table{Columns: columns, Rows: make([][]string, 0)}
	for limit == NoLimit || len(table.Rows) < limit {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, record)
		table.Lines = append(table.Lines, line)
	}

	return table, nil
}

func (r *Reader) readXLSX(src io.Reader, limit int) (*domain.Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := firstSheetRows(f)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	b := sheetBuilder{limit: limit}
	line := 0
	for rows.Next() {
		line++
		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read spreadsheet row: %w", err)
		}
		more, err := b.add(line, cells)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate spreadsheet rows: %w", err)
	}

	return b.result()
}

func (r *Reader) readXLS(src io.Reader, limit int) (*domain.Table, error) {
	rows, err := xlsRows(src)
	if err != nil {
		return nil, err
	}
	return sheetTable(rows, limit)
}

// sheetTable собирает таблицу из строк листа, строка i находится в строке файла i+1
func sheetTable(rows [][]string, limit int) (*domain.Table, error) {
	b := sheetBuilder{limit: limit}
	for i, cells := range rows {
		more, err := b.add(i+1, cells)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return b.result()
}

// sheetBuilder собирает таблицу построчно.
// Первая непустая строка листа считается заголовком.
type sheetBuilder struct {
	limit int
	table *domain.Table
}

// add возвращает false, когда набрано limit строк данных
func (b *sheetBuilder) add(line int, cells []string) (bool, error) {
	if b.table == nil {
		if isBlank(cells) {
			return true, nil
		}
		columns, err := normalizeHeader(cells)
		if err != nil {
			return false, err
		}
		b.table = &domain.Table{Columns: columns, Rows: make([][]string, 0)}
		return true, nil
	}

	if b.limit != NoLimit && len(b.table.Rows) >= b.limit {
		return false, nil
	}
	if isBlank(cells) {
		return true, nil
	}
	b.table.Rows = append(b.table.Rows, cells)
	b.table.Lines = append(b.table.Lines, line)
	return true, nil
}

func (b *sheetBuilder) result() (*domain.Table, error) {
	if b.table == nil {
		return nil, domain.ErrEmptyFile
	}
	return b.table, nil
}

func firstSheetRows(f *excelize.File) (*excelize.Rows, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// countLines считает строки так же, как построчное чтение файла:
// последняя строка без перевода строки тоже учитывается
func countLines(src io.Reader) (int, error) {
	buf := make([]byte, 32*1024)
	count := 0
	last := byte('\n')
	for {
		n, err := src.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to count lines: %w", err)
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}

func countSheetRows(src io.Reader) (int, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := firstSheetRows(f)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return 0, fmt.Errorf("failed to read spreadsheet row: %w", err)
		}
		if !isBlank(cells) {
			count++
		}
	}
	if err := rows.Error(); err != nil {
		return 0, fmt.Errorf("failed to iterate spreadsheet rows: %w", err)
	}
	return count, nil
}

// xlsRows читает все строки первого листа книги Excel 97-2003.
// Отсутствующие строки листа возвращаются как nil.
func xlsRows(src io.Reader) (rows [][]string, err error) {
	rs, ok := src.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	// библиотека паникует на повреждённых BIFF записях
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("failed to parse spreadsheet: %v", p)
		}
	}()

	wb, err := xls.OpenReader(rs, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func countXLSRows(src io.Reader) (int, error) {
	rows, err := xlsRows(src)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, cells := range rows {
		if !isBlank(cells) {
			count++
		}
	}
	return count, nil
}

// normalizeHeader обрезает пробелы, даёт имена пустым колонкам и запрещает повторы
func normalizeHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateColumn, h)
		}
		seen[h] = true
		columns[i] = h
	}
	return columns, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
