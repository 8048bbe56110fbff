package domain

import "strings"

// DataType тип импортируемых данных
type DataType string

const (
	DataTypeStudents    DataType = "students"
	DataTypeParents     DataType = "parents"
	DataTypeTeachers    DataType = "teachers"
	DataTypeAssessments DataType = "assessments"
	DataTypePayments    DataType = "payments"
)

// AllDataTypes фиксированный порядок типов для отображения
var AllDataTypes = []DataType{
	DataTypeStudents,
	DataTypeParents,
	DataTypeTeachers,
	DataTypeAssessments,
	DataTypePayments,
}

// IsValid проверяет валидность типа
func (t DataType) IsValid() bool {
	switch t {
	case DataTypeStudents, DataTypeParents, DataTypeTeachers, DataTypeAssessments, DataTypePayments:
		return true
	}
	return false
}

func (t DataType) String() string {
	return string(t)
}

// Title название для заголовков ("Students")
func (t DataType) Title() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}
