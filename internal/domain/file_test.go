package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromFileName(t *testing.T) {
	tests := []struct {
		name string
		want FileFormat
	}{
		{"students.csv", FormatCSV},
		{"Students.CSV", FormatCSV},
		{"fees.xlsx", FormatXLSX},
		{"/tmp/macro.xlsm", FormatXLSX},
		{"legacy.XLS", FormatXLS},
	}
	for _, tc := range tests {
		got, err := FormatFromFileName(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}

	for _, name := range []string{"legacy.ods", "notes.txt", "noext"} {
		_, err := FormatFromFileName(name)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), name)

		var unsupported *UnsupportedFormatError
		require.True(t, errors.As(err, &unsupported))
		assert.Equal(t, name, unsupported.FileName)
		assert.True(t, IsUserError(err))
	}
}

func TestParseFileFormat(t *testing.T) {
	f, err := ParseFileFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFileFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFileFormat("pdf")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	// шаблоны не выгружаются в старом формате
	_, err = ParseFileFormat("xls")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestTableRows(t *testing.T) {
	table := &Table{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1", "2"}, {"3"}, {"5", "6"}},
		Lines:   []int{2, 4, 5},
	}

	assert.Equal(t, map[string]string{"a": "3", "b": ""}, table.RowMap(1))
	assert.Equal(t, 4, table.Line(1))
	assert.Len(t, table.Head(2), 2)
	assert.Len(t, table.Head(10), 3)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 50))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "Жё", Truncate("Жёлтый", 2))
	assert.Equal(t, "abcdef", Truncate("abcdef", 0))
}
