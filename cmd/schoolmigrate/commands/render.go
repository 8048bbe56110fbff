package commands

import (
	"fmt"

	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/pterm/pterm"
)

// PrintError выводит ошибку с подсказкой, если она есть
func PrintError(err error) {
	pterm.Error.Println(err.Error())
	if hint := domain.Hint(err); hint != "" {
		pterm.Info.Println(hint)
	}
}

func printStage(s domain.Snapshot) {
	pterm.DefaultSection.Printfln("Step %d of 4: %s", int(s.Stage), stageTitles[s.Stage])
}

var stageTitles = map[domain.Stage]string{
	domain.StageSelectType:   "Select data type",
	domain.StageUploadFile:   "Upload file",
	domain.StageMapFields:    "Map fields",
	domain.StageReviewImport: "Review & import",
}

// printPreview первые строки файла; значения обрезаются до width символов
func printPreview(s domain.Snapshot, width int) error {
	pterm.Info.Printfln("File: %s", s.FileName)
	if len(s.Preview) == 0 {
		pterm.Warning.Println("The file has a header row but no data rows")
		return nil
	}

	data := pterm.TableData{truncateAll(s.Columns, width)}
	for _, row := range s.Preview {
		cells := make([]string, len(s.Columns))
		for i, col := range s.Columns {
			cells[i] = domain.Truncate(row[col], width)
		}
		data = append(data, cells)
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printMapping(s domain.Snapshot, tmpl *domain.Template) error {
	data := pterm.TableData{{"File column", "System field", ""}}
	for _, row := range s.Mapping {
		field := row.Field
		mark := ""
		if field == "" {
			field = "-"
		} else if tmpl.IsRequired(field) {
			mark = "required"
		}
		data = append(data, []string{row.Column, field, mark})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printReview(s domain.Snapshot) {
	pterm.Info.Printfln("Data type: %s", s.DataType.Title())
	pterm.Info.Printfln("File: %s", s.FileName)
	pterm.Info.Printfln("Records: %s", s.RecordCountLabel())
	if s.DryRun {
		pterm.Warning.Println("DRY RUN MODE: records are validated but not saved")
	}
}

func printResult(r *domain.ImportResult) error {
	if r.Failed == 0 {
		pterm.Success.Println(r.Summary())
		return nil
	}
	pterm.Warning.Println(r.Summary())

	data := pterm.TableData{{"Row", "Error"}}
	for _, e := range r.Errors {
		data = append(data, []string{fmt.Sprintf("%d", e.Row), e.Message})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	if r.Truncated() {
		pterm.Info.Printfln("... and %d more errors", r.Failed-len(r.Errors))
	}
	return nil
}

func truncateAll(values []string, width int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = domain.Truncate(v, width)
	}
	return out
}
