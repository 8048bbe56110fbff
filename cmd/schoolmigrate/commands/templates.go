package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/plastinin/schoolmigrate/internal/adapter/tabular"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// TemplatesCmd список шаблонов
var TemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List importable data types and their fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		data := pterm.TableData{{"Data type", "Required fields", "Optional fields"}}
		for _, t := range a.registry.Templates() {
			data = append(data, []string{
				t.DataType.Title(),
				strings.Join(t.Required, ", "),
				strings.Join(t.Optional, ", "),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

// TemplateCmd выгрузка файла шаблона
var TemplateCmd = &cobra.Command{
	Use:   "template <data-type>",
	Short: "Write a template file with the header row and one sample row",
	Example: `  schoolmigrate template students -o students_template.csv
  schoolmigrate template payments --format xlsx -o payments.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		formatStr, _ := cmd.Flags().GetString("format")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		format, err := domain.ParseFileFormat(formatStr)
		if err != nil {
			return err
		}
		dataType := domain.DataType(args[0])
		tmpl, err := a.registry.Get(dataType)
		if err != nil {
			return err
		}
		if output == "" {
			output = fmt.Sprintf("%s_template%s", dataType, format.Extension())
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()

		if err := tabular.NewTemplateWriter().Write(f, tmpl, format); err != nil {
			return err
		}

		pterm.Success.Printfln("Template saved to %s", output)
		return nil
	},
}

func init() {
	TemplateCmd.Flags().StringP("output", "o", "", "Output file (default <type>_template.<ext>)")
	TemplateCmd.Flags().String("format", "csv", "Template format: csv or xlsx")
}
