package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func studentsTemplate() Template {
	return Template{
		DataType: DataTypeStudents,
		Required: []string{"name", "birth_date", "gender", "admission_number"},
		Optional: []string{"current_grade"},
		Kinds:    map[string]FieldKind{"birth_date": FieldDate},
		KeyField: "admission_number",
		Sample: map[string]string{
			"name":             "John Doe",
			"birth_date":       "2015-05-15",
			"gender":           "Male",
			"admission_number": "SCH2023001",
			"current_grade":    "Grade 4",
		},
	}
}

func parentsTemplate() Template {
	return Template{
		DataType:   DataTypeParents,
		Required:   []string{"student_admission", "name", "phone", "relationship"},
		Optional:   []string{"email"},
		Kinds:      map[string]FieldKind{"phone": FieldPhone, "email": FieldEmail},
		StudentRef: "student_admission",
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry([]Template{studentsTemplate(), parentsTemplate()})
	require.NoError(t, err)
	return r
}
