package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateFields(t *testing.T) {
	tmpl := studentsTemplate()

	assert.Equal(t,
		[]string{"name", "birth_date", "gender", "admission_number", "current_grade"},
		tmpl.Fields(),
	)
	assert.Equal(t,
		[]string{"John Doe", "2015-05-15", "Male", "SCH2023001", "Grade 4"},
		tmpl.SampleRow(),
	)
	assert.True(t, tmpl.IsRequired("gender"))
	assert.False(t, tmpl.IsRequired("current_grade"))
	assert.True(t, tmpl.IsField("current_grade"))
	assert.False(t, tmpl.IsField("Name"))
	assert.Equal(t, FieldDate, tmpl.Kind("birth_date"))
	assert.Equal(t, FieldText, tmpl.Kind("name"))
}

func TestTemplateMissingColumns(t *testing.T) {
	tmpl := studentsTemplate()

	t.Run("all required present", func(t *testing.T) {
		missing := tmpl.MissingColumns([]string{"admission_number", "gender", "birth_date", "name", "extra"})
		assert.Empty(t, missing)
	})

	t.Run("reports missing in template order", func(t *testing.T) {
		missing := tmpl.MissingColumns([]string{"gender", "current_grade"})
		assert.Equal(t, []string{"name", "birth_date", "admission_number"}, missing)
	})

	t.Run("match is exact", func(t *testing.T) {
		missing := tmpl.MissingColumns([]string{"Name", "birth_date", "gender", "admission_number"})
		assert.Equal(t, []string{"name"}, missing)
	})
}

func TestNewRegistry(t *testing.T) {
	t.Run("keeps fixed data type order", func(t *testing.T) {
		r, err := NewRegistry([]Template{parentsTemplate(), studentsTemplate()})
		require.NoError(t, err)
		assert.Equal(t, []DataType{DataTypeStudents, DataTypeParents}, r.DataTypes())

		tmpl, err := r.Get(DataTypeParents)
		require.NoError(t, err)
		assert.Equal(t, "student_admission", tmpl.StudentRef)
	})

	t.Run("unknown data type", func(t *testing.T) {
		r := testRegistry(t)
		_, err := r.Get(DataTypeTeachers)
		assert.True(t, errors.Is(err, ErrUnknownDataType))
	})

	t.Run("registry owns its copy", func(t *testing.T) {
		src := studentsTemplate()
		r, err := NewRegistry([]Template{src})
		require.NoError(t, err)

		src.Required[0] = "changed"
		tmpl, err := r.Get(DataTypeStudents)
		require.NoError(t, err)
		assert.Equal(t, "name", tmpl.Required[0])
	})

	invalid := []struct {
		name   string
		mutate func(t *Template)
	}{
		{"field both required and optional", func(t *Template) { t.Optional = append(t.Optional, "name") }},
		{"empty field name", func(t *Template) { t.Optional = append(t.Optional, "") }},
		{"no required fields", func(t *Template) { t.Required = nil; t.KeyField = ""; t.Kinds = nil; t.Sample = nil }},
		{"unknown data type", func(t *Template) { t.DataType = "library_books" }},
		{"kind for unknown field", func(t *Template) { t.Kinds["age"] = FieldNumber }},
		{"invalid kind", func(t *Template) { t.Kinds["birth_date"] = "timestamp" }},
		{"sample for unknown field", func(t *Template) { t.Sample["age"] = "9" }},
		{"optional key field", func(t *Template) { t.KeyField = "current_grade" }},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := studentsTemplate()
			tc.mutate(&tmpl)

			_, err := NewRegistry([]Template{tmpl})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTemplateRegistry))
		})
	}

	t.Run("duplicate data type", func(t *testing.T) {
		_, err := NewRegistry([]Template{studentsTemplate(), studentsTemplate()})
		assert.True(t, errors.Is(err, ErrInvalidTemplateRegistry))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewRegistry(nil)
		assert.True(t, errors.Is(err, ErrInvalidTemplateRegistry))
	})
}
