package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/plastinin/schoolmigrate/internal/usecase"
)

// RecordRepository импортированные записи школы в PostgreSQL
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository создаёт новый экземпляр RecordRepository
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// ExistingKeys возвращает ключи из keys, уже сохранённые для школы и типа данных
func (r *RecordRepository) ExistingKeys(ctx context.Context, schoolID uuid.UUID, dataType domain.DataType, keys []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(keys) == 0 {
		return existing, nil
	}

	query := `
		SELECT record_key
		FROM school_records
		WHERE school_id = $1 AND data_type = $2 AND record_key = ANY($3)
	`

	rows, err := r.pool.Query(ctx, query, schoolID, dataType, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to query record keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan record key: %w", err)
		}
		existing[key] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return existing, nil
}

// Save вставляет записи одним батчем в транзакции.
// Запись с занятым ключом не вставляется, её индекс возвращается в conflicts.
func (r *RecordRepository) Save(ctx context.Context, schoolID, runID uuid.UUID, dataType domain.DataType, records []usecase.KeyedRecord) ([]int, error) {
	query := `
		INSERT INTO school_records (id, school_id, data_type, record_key, payload, import_run_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (school_id, data_type, record_key) DO NOTHING
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			uuid.New(),
			schoolID,
			dataType,
			nullString(rec.Key),
			rec.Record,
			runID,
		)
	}

	conflicts, err := execBatch(ctx, tx, batch)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit records: %w", err)
	}

	return conflicts, nil
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) ([]int, error) {
	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	conflicts := make([]int, 0)
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return nil, fmt.Errorf("failed to insert record %d: %w", i, err)
		}
		if tag.RowsAffected() == 0 {
			conflicts = append(conflicts, i)
		}
	}

	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("failed to close batch: %w", err)
	}
	return conflicts, nil
}
