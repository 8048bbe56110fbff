package domain

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
)

// FieldKind базовый тип значения поля
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldDate   FieldKind = "date"   // YYYY-MM-DD
	FieldNumber FieldKind = "number" // десятичное число
	FieldPhone  FieldKind = "phone"  // 9-15 цифр, допускается ведущий +
	FieldEmail  FieldKind = "email"
)

// IsValid проверяет валидность типа поля
func (k FieldKind) IsValid() bool {
	switch k {
	case FieldText, FieldDate, FieldNumber, FieldPhone, FieldEmail:
		return true
	}
	return false
}

// Template схема одного типа данных
type Template struct {
	DataType DataType             `json:"data_type"`
	Required []string             `json:"required_fields"`
	Optional []string             `json:"optional_fields"`
	Sample   map[string]string    `json:"sample_data"`
	Kinds    map[string]FieldKind `json:"field_kinds,omitempty"`
	// KeyField уникален в пределах школы (номер зачисления, номер TSC)
	KeyField string `json:"key_field,omitempty"`
	// StudentRef поле со ссылкой на номер зачисления ученика
	StudentRef string `json:"student_ref,omitempty"`
}

// Fields возвращает обязательные, затем необязательные поля
func (t *Template) Fields() []string {
	fields := make([]string, 0, len(t.Required)+len(t.Optional))
	fields = append(fields, t.Required...)
	fields = append(fields, t.Optional...)
	return fields
}

func (t *Template) IsField(name string) bool {
	return t.IsRequired(name) || contains(t.Optional, name)
}

func (t *Template) IsRequired(name string) bool {
	return contains(t.Required, name)
}

// Kind возвращает тип поля; по умолчанию text
func (t *Template) Kind(field string) FieldKind {
	if k, ok := t.Kinds[field]; ok {
		return k
	}
	return FieldText
}

// MissingColumns возвращает обязательные поля, которых нет среди колонок, в порядке шаблона
func (t *Template) MissingColumns(columns []string) []string {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var missing []string
	for _, f := range t.Required {
		if _, ok := present[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// SampleRow строка примера в порядке Fields
func (t *Template) SampleRow() []string {
	fields := t.Fields()
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = t.Sample[f]
	}
	return row
}

func (t *Template) validate() error {
	if !t.DataType.IsValid() {
		return errors.Wrapf(ErrUnknownDataType, "template %q", t.DataType)
	}
	if len(t.Required) == 0 {
		return errors.Newf("template %s: no required fields", t.DataType)
	}

	seen := make(map[string]bool)
	for _, f := range t.Fields() {
		if f == "" {
			return errors.Newf("template %s: empty field name", t.DataType)
		}
		if seen[f] {
			return errors.Newf("template %s: field %q declared twice", t.DataType, f)
		}
		seen[f] = true
	}

	for f, k := range t.Kinds {
		if !seen[f] {
			return errors.Newf("template %s: kind for unknown field %q", t.DataType, f)
		}
		if !k.IsValid() {
			return errors.Newf("template %s: field %q has invalid kind %q", t.DataType, f, k)
		}
	}
	for f := range t.Sample {
		if !seen[f] {
			return errors.Newf("template %s: sample for unknown field %q", t.DataType, f)
		}
	}
	if t.KeyField != "" && !t.IsRequired(t.KeyField) {
		return errors.Newf("template %s: key field %q must be required", t.DataType, t.KeyField)
	}
	if t.StudentRef != "" && !t.IsRequired(t.StudentRef) {
		return errors.Newf("template %s: student reference %q must be required", t.DataType, t.StudentRef)
	}
	return nil
}

// Registry неизменяемая таблица шаблонов, создаётся один раз при старте
type Registry struct {
	templates map[DataType]*Template
}

// NewRegistry проверяет шаблоны и создаёт реестр
func NewRegistry(templates []Template) (*Registry, error) {
	r := &Registry{templates: make(map[DataType]*Template, len(templates))}

	for i := range templates {
		t := cloneTemplate(templates[i])
		if err := t.validate(); err != nil {
			return nil, invalidRegistry(err)
		}
		if _, dup := r.templates[t.DataType]; dup {
			return nil, invalidRegistry(errors.Newf("template %s declared twice", t.DataType))
		}
		r.templates[t.DataType] = t
	}

	if len(r.templates) == 0 {
		return nil, invalidRegistry(errors.New("no templates"))
	}

	return r, nil
}

// Get возвращает шаблон типа данных. Шаблон только для чтения.
func (r *Registry) Get(dataType DataType) (*Template, error) {
	t, ok := r.templates[dataType]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDataType, "%q", dataType)
	}
	return t, nil
}

// DataTypes возвращает зарегистрированные типы в порядке AllDataTypes
func (r *Registry) DataTypes() []DataType {
	types := make([]DataType, 0, len(r.templates))
	for _, dt := range AllDataTypes {
		if _, ok := r.templates[dt]; ok {
			types = append(types, dt)
		}
	}
	return types
}

// Templates возвращает все шаблоны в порядке DataTypes
func (r *Registry) Templates() []*Template {
	types := r.DataTypes()
	out := make([]*Template, len(types))
	for i, dt := range types {
		out[i] = r.templates[dt]
	}
	return out
}

func invalidRegistry(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidTemplateRegistry, err)
}

func cloneTemplate(t Template) *Template {
	c := t
	c.Required = append([]string(nil), t.Required...)
	c.Optional = append([]string(nil), t.Optional...)
	c.Sample = make(map[string]string, len(t.Sample))
	for k, v := range t.Sample {
		c.Sample[k] = v
	}
	c.Kinds = make(map[string]FieldKind, len(t.Kinds))
	for k, v := range t.Kinds {
		c.Kinds[k] = v
	}
	return &c
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// sortedKeys ключи map в алфавитном порядке
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
