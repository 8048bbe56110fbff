package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plastinin/schoolmigrate/internal/domain"
)

const importRunColumns = `id, session_id, school_id, data_type, file_name, dry_run, status,
	total, succeeded, failed, errors, error, created_at, updated_at, completed_at`

// ImportRunRepository реализация истории импорта для PostgreSQL
type ImportRunRepository struct {
	pool *pgxpool.Pool
}

// NewImportRunRepository создаёт новый экземпляр ImportRunRepository
func NewImportRunRepository(pool *pgxpool.Pool) *ImportRunRepository {
	return &ImportRunRepository{pool: pool}
}

// Create сохраняет новый запуск
func (r *ImportRunRepository) Create(ctx context.Context, run *domain.ImportRun) error {
	query := `
		INSERT INTO import_runs (id, session_id, school_id, data_type, file_name, dry_run, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.SessionID,
		run.SchoolID,
		run.DataType,
		run.FileName,
		run.DryRun,
		run.Status,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}

	return nil
}

// GetByID возвращает запуск по ID
func (r *ImportRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	query := `SELECT ` + importRunColumns + ` FROM import_runs WHERE id = $1`

	run, err := scanImportRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrImportRunNotFound
		}
		return nil, fmt.Errorf("failed to get import run: %w", err)
	}

	return run, nil
}

// Update обновляет статус и итог запуска
func (r *ImportRunRepository) Update(ctx context.Context, run *domain.ImportRun) error {
	query := `
		UPDATE import_runs
		SET status = $2, total = $3, succeeded = $4, failed = $5, errors = $6, error = $7,
			updated_at = $8, completed_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.Total,
		run.Succeeded,
		run.Failed,
		run.Errors,
		nullString(run.Error),
		run.UpdatedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update import run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrImportRunNotFound
	}

	return nil
}

// List возвращает историю импорта с пагинацией и фильтрацией
func (r *ImportRunRepository) List(ctx context.Context, filter domain.ImportRunFilter, pagination domain.Pagination) (*domain.ImportRunListResult, error) {
	baseQuery := `FROM import_runs WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.DataType != nil {
		baseQuery += fmt.Sprintf(" AND data_type = $%d", argIndex)
		args = append(args, *filter.DataType)
		argIndex++
	}
	if filter.SchoolID != nil {
		baseQuery += fmt.Sprintf(" AND school_id = $%d", argIndex)
		args = append(args, *filter.SchoolID)
		argIndex++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count import runs: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, importRunColumns, baseQuery, argIndex, argIndex+1)

	args = append(args, pagination.Limit(), pagination.Offset())

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.ImportRun, 0)
	for rows.Next() {
		run, err := scanImportRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return &domain.ImportRunListResult{
		Runs:       runs,
		Total:      total,
		Pagination: pagination,
	}, nil
}

func scanImportRun(row pgx.Row) (*domain.ImportRun, error) {
	run := &domain.ImportRun{}
	var errorMsg *string // Указатель для NULL

	err := row.Scan(
		&run.ID,
		&run.SessionID,
		&run.SchoolID,
		&run.DataType,
		&run.FileName,
		&run.DryRun,
		&run.Status,
		&run.Total,
		&run.Succeeded,
		&run.Failed,
		&run.Errors,
		&errorMsg,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if errorMsg != nil {
		run.Error = *errorMsg
	}
	return run, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
