package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/plastinin/schoolmigrate/internal/usecase"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ImportCmd проводит файл через все шаги мастера
var ImportCmd = &cobra.Command{
	Use:   "import <data-type> <file>",
	Short: "Validate and import a CSV or Excel file",
	Long: `Walks the file through the import wizard: the data type is selected, the file
is uploaded and previewed, columns are mapped to system fields, and the records
are validated. Without --commit the import is a dry run and nothing is saved.

Columns whose name exactly matches a system field are mapped automatically.
Use --map to map other columns or to unmap one ("--map Notes=").`,
	Example: `  schoolmigrate import students students.csv
  schoolmigrate import parents parents.xlsx --map "Parent Name=name" --map "Mobile=phone"
  schoolmigrate import payments fees.csv --commit --db --school 9f1c...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mappings, _ := cmd.Flags().GetStringArray("map")
		commit, _ := cmd.Flags().GetBool("commit")
		useDB, _ := cmd.Flags().GetBool("db")
		schoolStr, _ := cmd.Flags().GetString("school")

		schoolID, err := uuid.Parse(schoolStr)
		if err != nil {
			return fmt.Errorf("invalid school ID %q: %w", schoolStr, err)
		}
		overrides, err := parseMappings(mappings)
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		wizard, err := a.wizard(ctx, useDB)
		if err != nil {
			return err
		}
		if !useDB {
			pterm.Warning.Println("Running without --db: student references are not checked")
		}

		return runImport(ctx, wizard, importOptions{
			schoolID:     schoolID,
			dataType:     domain.DataType(args[0]),
			path:         args[1],
			mapping:      overrides,
			commit:       commit,
			displayWidth: a.cfg.Import.DisplayWidth,
			registry:     a.registry,
		})
	},
}

func init() {
	ImportCmd.Flags().StringArray("map", nil, `Map a file column to a system field: "Column=field" (repeatable)`)
	ImportCmd.Flags().Bool("commit", false, "Save valid records (default is a dry run)")
	ImportCmd.Flags().Bool("db", false, "Use PostgreSQL from the environment for records and history")
	ImportCmd.Flags().String("school", uuid.Nil.String(), "School ID the records belong to")
}

type importOptions struct {
	schoolID     uuid.UUID
	dataType     domain.DataType
	path         string
	mapping      map[string]string
	commit       bool
	displayWidth int
	registry     *domain.Registry
}

func runImport(ctx context.Context, wizard *usecase.WizardUseCase, opts importOptions) error {
	pterm.DefaultHeader.WithFullWidth().Printf("Data Import Wizard")
	pterm.Println()

	s, err := wizard.Open(ctx, opts.schoolID)
	if err != nil {
		return err
	}
	defer wizard.Close(ctx, s.ID)

	// Шаг 1
	printStage(s)
	if s, err = wizard.SelectType(ctx, s.ID, opts.dataType); err != nil {
		return err
	}
	pterm.Info.Printfln("Data type: %s", s.DataType.Title())
	if s, err = wizard.Next(ctx, s.ID); err != nil {
		return err
	}

	// Шаг 2
	printStage(s)
	if s, err = upload(ctx, wizard, s.ID, opts.path); err != nil {
		return err
	}
	if err := printPreview(s, opts.displayWidth); err != nil {
		return err
	}
	if s, err = wizard.Next(ctx, s.ID); err != nil {
		return err
	}

	// Шаг 3
	printStage(s)
	if len(opts.mapping) > 0 {
		if s, err = wizard.SetMapping(ctx, s.ID, opts.mapping); err != nil {
			return err
		}
	}
	tmpl, err := opts.registry.Get(s.DataType)
	if err != nil {
		return err
	}
	if err := printMapping(s, tmpl); err != nil {
		return err
	}
	if s, err = wizard.Next(ctx, s.ID); err != nil {
		return err
	}

	// Шаг 4
	printStage(s)
	if s, err = wizard.SetDryRun(ctx, s.ID, !opts.commit); err != nil {
		return err
	}
	printReview(s)

	spinner, _ := pterm.DefaultSpinner.Start("Importing records...")
	s, err = wizard.Import(ctx, s.ID)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return err
	}
	if err := printResult(s.Result); err != nil {
		return err
	}

	_, err = wizard.Finish(ctx, s.ID)
	return err
}

func upload(ctx context.Context, wizard *usecase.WizardUseCase, id uuid.UUID, path string) (domain.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return wizard.Upload(ctx, id, usecase.UploadInput{
		FileName: filepath.Base(path),
		FileSize: info.Size(),
		Reader:   f,
	})
}

// parseMappings разбирает значения --map вида "Column=field"
func parseMappings(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		col, field, ok := strings.Cut(v, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --map %q: expected Column=field", v)
		}
		out[col] = strings.TrimSpace(field)
	}
	return out, nil
}
