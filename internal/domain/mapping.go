package domain

import (
	"github.com/cockroachdb/errors"
)

// MappingRow одна строка маппинга: колонка файла → поле системы (пустое поле: не выбрано)
type MappingRow struct {
	Column string `json:"column"`
	Field  string `json:"field"`
}

// FieldMapping соответствие колонок файла полям системы.
// Порядок строк совпадает с порядком колонок в файле.
type FieldMapping struct {
	rows  []MappingRow
	index map[string]int
}

// NewFieldMapping создаёт маппинг по колонкам файла.
// Поле выбирается автоматически только при точном совпадении имени (с учётом регистра).
func NewFieldMapping(columns []string, tmpl *Template) *FieldMapping {
	m := &FieldMapping{
		rows:  make([]MappingRow, len(columns)),
		index: make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		m.rows[i] = MappingRow{Column: col}
		if tmpl.IsField(col) {
			m.rows[i].Field = col
		}
		m.index[col] = i
	}
	return m
}

// Set назначает колонке поле; пустое поле снимает выбор
func (m *FieldMapping) Set(tmpl *Template, column, field string) error {
	i, ok := m.index[column]
	if !ok {
		return errors.Wrapf(ErrUnknownColumn, "%q", column)
	}
	if field != "" && !tmpl.IsField(field) {
		return errors.Wrapf(ErrUnknownField, "%q is not a %s field", field, tmpl.DataType)
	}
	m.rows[i].Field = field
	return nil
}

func (m *FieldMapping) clone() *FieldMapping {
	c := &FieldMapping{
		rows:  append([]MappingRow(nil), m.rows...),
		index: make(map[string]int, len(m.index)),
	}
	for col, i := range m.index {
		c.index[col] = i
	}
	return c
}

// Field возвращает поле, выбранное для колонки
func (m *FieldMapping) Field(column string) string {
	if i, ok := m.index[column]; ok {
		return m.rows[i].Field
	}
	return ""
}

// Rows возвращает копию строк маппинга
func (m *FieldMapping) Rows() []MappingRow {
	return append([]MappingRow(nil), m.rows...)
}

// Resolved возвращает только выбранные пары column → field
func (m *FieldMapping) Resolved() map[string]string {
	out := make(map[string]string, len(m.rows))
	for _, r := range m.rows {
		if r.Field != "" {
			out[r.Column] = r.Field
		}
	}
	return out
}

// Validate проверяет, что все обязательные поля покрыты и ни одно поле не выбрано дважды
func (m *FieldMapping) Validate(tmpl *Template) error {
	byField := make(map[string][]string)
	for _, r := range m.rows {
		if r.Field != "" {
			byField[r.Field] = append(byField[r.Field], r.Column)
		}
	}

	var missing []string
	for _, f := range tmpl.Required {
		if _, ok := byField[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return NewUnmappedRequiredFieldsError(missing)
	}

	for _, f := range sortedKeys(byField) {
		if cols := byField[f]; len(cols) > 1 {
			return NewDuplicateMappingError(f, cols)
		}
	}

	return nil
}

// Apply превращает строку файла (column → value) в запись с ключами полей системы.
// Колонки без выбранного поля отбрасываются.
func (m *FieldMapping) Apply(row map[string]string) Record {
	rec := make(Record, len(m.rows))
	for _, r := range m.rows {
		if r.Field == "" {
			continue
		}
		rec[r.Field] = row[r.Column]
	}
	return rec
}
