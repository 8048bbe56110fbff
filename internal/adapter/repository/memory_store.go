package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/plastinin/schoolmigrate/internal/usecase"
)

type recordKey struct {
	schoolID uuid.UUID
	dataType domain.DataType
	key      string
}

// MemoryRecordStore хранилище записей в памяти (CLI без базы данных)
type MemoryRecordStore struct {
	mu      sync.RWMutex
	keys    map[recordKey]bool
	records map[uuid.UUID][]usecase.KeyedRecord // по запуску импорта
}

// NewMemoryRecordStore создаёт пустое хранилище
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		keys:    make(map[recordKey]bool),
		records: make(map[uuid.UUID][]usecase.KeyedRecord),
	}
}

// ExistingKeys возвращает ключи из keys, уже сохранённые для школы и типа данных
func (s *MemoryRecordStore) ExistingKeys(ctx context.Context, schoolID uuid.UUID, dataType domain.DataType, keys []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := make(map[string]bool)
	for _, k := range keys {
		if s.keys[recordKey{schoolID, dataType, k}] {
			existing[k] = true
		}
	}
	return existing, nil
}

// Save сохраняет записи; записи с занятым ключом возвращаются в conflicts
func (s *MemoryRecordStore) Save(ctx context.Context, schoolID, runID uuid.UUID, dataType domain.DataType, records []usecase.KeyedRecord) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conflicts := make([]int, 0)
	for i, rec := range records {
		if rec.Key != "" {
			k := recordKey{schoolID, dataType, rec.Key}
			if s.keys[k] {
				conflicts = append(conflicts, i)
				continue
			}
			s.keys[k] = true
		}
		s.records[runID] = append(s.records[runID], rec)
	}
	return conflicts, nil
}

// Records возвращает записи, сохранённые запуском runID
func (s *MemoryRecordStore) Records(runID uuid.UUID) []usecase.KeyedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]usecase.KeyedRecord(nil), s.records[runID]...)
}

// MemoryImportRunRepository история импорта в памяти (CLI без базы данных)
type MemoryImportRunRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]domain.ImportRun
}

// NewMemoryImportRunRepository создаёт пустую историю
func NewMemoryImportRunRepository() *MemoryImportRunRepository {
	return &MemoryImportRunRepository{runs: make(map[uuid.UUID]domain.ImportRun)}
}

// Create сохраняет новый запуск
func (r *MemoryImportRunRepository) Create(ctx context.Context, run *domain.ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

// GetByID возвращает запуск по ID
func (r *MemoryImportRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrImportRunNotFound
	}
	return &run, nil
}

// Update обновляет запуск
func (r *MemoryImportRunRepository) Update(ctx context.Context, run *domain.ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return domain.ErrImportRunNotFound
	}
	r.runs[run.ID] = *run
	return nil
}

// List возвращает историю импорта, новые запуски первыми
func (r *MemoryImportRunRepository) List(ctx context.Context, filter domain.ImportRunFilter, pagination domain.Pagination) (*domain.ImportRunListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.ImportRun, 0, len(r.runs))
	for _, run := range r.runs {
		if filter.DataType != nil && run.DataType != *filter.DataType {
			continue
		}
		if filter.SchoolID != nil && run.SchoolID != *filter.SchoolID {
			continue
		}
		run := run
		matched = append(matched, &run)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(pagination.Offset(), total)
	end := min(start+pagination.Limit(), total)

	return &domain.ImportRunListResult{
		Runs:       matched[start:end],
		Total:      total,
		Pagination: pagination,
	}, nil
}
