package usecase

import (
	"context"
	"fmt"

	"github.com/plastinin/schoolmigrate/internal/domain"
	"go.uber.org/zap"
)

// ImportService проверяет записи и сохраняет их в хранилище школы.
// Ошибки строк не прерывают импорт, ошибки инфраструктуры прерывают.
type ImportService struct {
	records         RecordStore
	sampleLimit     int
	skipStudentRefs bool
	logger          *zap.Logger
}

// NewImportService создаёт новый экземпляр ImportService
func NewImportService(records RecordStore, sampleLimit int, logger *zap.Logger) *ImportService {
	return &ImportService{
		records:     records,
		sampleLimit: sampleLimit,
		logger:      logger,
	}
}

// SkipStudentRefs отключает проверку ссылок на учеников.
// Нужен для хранилища, в котором нет учеников школы (CLI без базы).
func (s *ImportService) SkipStudentRefs() *ImportService {
	s.skipStudentRefs = true
	return s
}

// Import проверяет все строки и, если это не пробный прогон, сохраняет валидные
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*domain.ImportResult, error) {
	tmpl := req.Template
	failures := make([]string, len(req.Rows))
	records := make([]domain.Record, len(req.Rows))
	keys := make([]string, len(req.Rows))

	firstSeen := make(map[string]int)
	for i, row := range req.Rows {
		rec := row.Record.Normalized()
		records[i] = rec

		if reason := rec.Validate(tmpl); reason != "" {
			failures[i] = reason
			continue
		}

		key := rec.Key(tmpl)
		keys[i] = key
		if key == "" {
			continue
		}
		if line, ok := firstSeen[key]; ok {
			failures[i] = fmt.Sprintf("Duplicate %s '%s' (first seen on row %d)", tmpl.KeyField, key, line)
			continue
		}
		firstSeen[key] = row.Line
	}

	if err := s.checkExisting(ctx, req, keys, failures); err != nil {
		return nil, err
	}
	if err := s.checkStudentRefs(ctx, req, records, failures); err != nil {
		return nil, err
	}

	if !req.DryRun {
		if err := s.save(ctx, req, records, keys, failures); err != nil {
			return nil, err
		}
	}

	result := domain.NewImportResult(req.DryRun, len(req.Rows), s.sampleLimit)
	for i, row := range req.Rows {
		if failures[i] != "" {
			result.AddFailure(row.Line, failures[i])
			continue
		}
		result.AddSuccess()
	}

	s.logger.Debug("Records processed",
		zap.String("run_id", req.RunID.String()),
		zap.String("data_type", tmpl.DataType.String()),
		zap.Bool("dry_run", req.DryRun),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// checkExisting отклоняет строки, ключ которых уже сохранён для школы
func (s *ImportService) checkExisting(ctx context.Context, req ImportRequest, keys, failures []string) error {
	pending := pendingValues(keys, failures)
	if len(pending) == 0 {
		return nil
	}

	existing, err := s.records.ExistingKeys(ctx, req.SchoolID, req.Template.DataType, pending)
	if err != nil {
		return fmt.Errorf("failed to check existing records: %w", err)
	}

	for i, key := range keys {
		if failures[i] == "" && key != "" && existing[key] {
			failures[i] = fmt.Sprintf("%s '%s' already exists", req.Template.KeyField, key)
		}
	}
	return nil
}

// checkStudentRefs отклоняет строки, ссылающиеся на неизвестного ученика
func (s *ImportService) checkStudentRefs(ctx context.Context, req ImportRequest, records []domain.Record, failures []string) error {
	field := req.Template.StudentRef
	if field == "" || s.skipStudentRefs {
		return nil
	}

	refs := make([]string, len(records))
	for i, rec := range records {
		refs[i] = rec[field]
	}
	pending := pendingValues(refs, failures)
	if len(pending) == 0 {
		return nil
	}

	known, err := s.records.ExistingKeys(ctx, req.SchoolID, domain.DataTypeStudents, pending)
	if err != nil {
		return fmt.Errorf("failed to check student references: %w", err)
	}

	for i, ref := range refs {
		if failures[i] == "" && ref != "" && !known[ref] {
			failures[i] = fmt.Sprintf("Student with admission number '%s' not found", ref)
		}
	}
	return nil
}

func (s *ImportService) save(ctx context.Context, req ImportRequest, records []domain.Record, keys, failures []string) error {
	batch := make([]KeyedRecord, 0, len(records))
	index := make([]int, 0, len(records))
	for i, rec := range records {
		if failures[i] != "" {
			continue
		}
		batch = append(batch, KeyedRecord{Key: keys[i], Record: rec})
		index = append(index, i)
	}
	if len(batch) == 0 {
		return nil
	}

	conflicts, err := s.records.Save(ctx, req.SchoolID, req.RunID, req.Template.DataType, batch)
	if err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	// запись могла появиться между проверкой и сохранением
	for _, c := range conflicts {
		i := index[c]
		failures[i] = fmt.Sprintf("%s '%s' already exists", req.Template.KeyField, keys[i])
	}
	return nil
}

// pendingValues уникальные непустые значения строк без ошибок
func pendingValues(values, failures []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for i, v := range values {
		if failures[i] != "" || v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
