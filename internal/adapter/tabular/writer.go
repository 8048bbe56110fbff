package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/xuri/excelize/v2"
)

// TemplateWriter пишет файл шаблона: заголовок из полей и одна строка примера
type TemplateWriter struct{}

// NewTemplateWriter создаёт новый TemplateWriter
func NewTemplateWriter() *TemplateWriter {
	return &TemplateWriter{}
}

// Write пишет шаблон в формате format
func (tw *TemplateWriter) Write(w io.Writer, tmpl *domain.Template, format domain.FileFormat) error {
	switch format {
	case domain.FormatCSV:
		return tw.writeCSV(w, tmpl)
	case domain.FormatXLSX:
		return tw.writeXLSX(w, tmpl)
	}
	return domain.NewUnsupportedFormatError(format.String())
}

func (tw *TemplateWriter) writeCSV(w io.Writer, tmpl *domain.Template) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tmpl.Fields()); err != nil {
		return fmt.Errorf("failed to write template header: %w", err)
	}
	if err := cw.Write(tmpl.SampleRow()); err != nil {
		return fmt.Errorf("failed to write template sample: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush template: %w", err)
	}
	return nil
}

func (tw *TemplateWriter) writeXLSX(w io.Writer, tmpl *domain.Template) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := tmpl.DataType.Title()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := tmpl.Fields()
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write template header: %w", err)
	}
	sample := tmpl.SampleRow()
	if err := f.SetSheetRow(sheet, "A2", &sample); err != nil {
		return fmt.Errorf("failed to write template sample: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}
