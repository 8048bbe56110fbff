package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/plastinin/schoolmigrate/internal/adapter/repository"
	"github.com/plastinin/schoolmigrate/internal/adapter/storage"
	"github.com/plastinin/schoolmigrate/internal/adapter/tabular"
	"github.com/plastinin/schoolmigrate/internal/config"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/plastinin/schoolmigrate/internal/usecase"
	"github.com/plastinin/schoolmigrate/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd корневая команда CLI
var RootCmd = &cobra.Command{
	Use:   "schoolmigrate",
	Short: "Import school data from CSV and Excel files",
	Long: `schoolmigrate imports students, parents, teachers, assessments and payments
from CSV or Excel files, walking through the same four steps as the web wizard:
select type, upload file, map fields, review and import.

Examples:
  schoolmigrate templates                              # List data types and their fields
  schoolmigrate template students -o students.csv      # Download a template
  schoolmigrate import students students.csv           # Dry run
  schoolmigrate import students data.xlsx --map "Full Name=name" --commit`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("templates", "", "Path to a templates YAML file (default: built-in)")

	RootCmd.AddCommand(TemplatesCmd)
	RootCmd.AddCommand(TemplateCmd)
	RootCmd.AddCommand(ImportCmd)
}

// app зависимости команды
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *domain.Registry
	closers  []func()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, _ := cmd.Flags().GetString("log-level")
	log, err := logger.NewWithOutput(level, "console", os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	path, _ := cmd.Flags().GetString("templates")
	if path == "" {
		path = cfg.Import.TemplatesPath
	}
	registry, err := config.LoadTemplates(path)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, registry: registry}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

// wizard собирает мастер импорта. С useDB записи и история пишутся в PostgreSQL,
// иначе хранятся в памяти до конца команды.
func (a *app) wizard(ctx context.Context, useDB bool) (*usecase.WizardUseCase, error) {
	files, err := storage.NewLocalStorage(a.cfg.Import.LocalStorageDir)
	if err != nil {
		return nil, err
	}

	var (
		records usecase.RecordStore
		runs    usecase.ImportRunRepository
	)
	if useDB {
		pool, err := repository.NewPostgresPool(ctx, a.cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)

		if err := repository.Migrate(ctx, pool, a.log); err != nil {
			return nil, err
		}
		records = repository.NewRecordRepository(pool)
		runs = repository.NewImportRunRepository(pool)
	} else {
		records = repository.NewMemoryRecordStore()
		runs = repository.NewMemoryImportRunRepository()
	}

	importer := usecase.NewImportService(records, a.cfg.Import.ErrorSample, a.log)
	if !useDB {
		// в памяти нет учеников школы, любая ссылка на ученика была бы ошибкой строки
		importer.SkipStudentRefs()
		a.log.Warn("Student references are not checked without --db")
	}

	return usecase.NewWizardUseCase(
		a.registry,
		repository.NewSessionStore(),
		files,
		tabular.NewReader(),
		tabular.NewTemplateWriter(),
		importer,
		runs,
		nil,
		usecase.WizardOptions{
			PreviewRows:     a.cfg.Import.PreviewRows,
			MaxUploadSize:   a.cfg.Import.MaxUploadSize,
			UploadRetention: 0,
		},
		a.log,
	), nil
}
