package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/domain"
)

type fakeSessions struct {
	mu      sync.Mutex
	wizards map[uuid.UUID]*domain.Wizard
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{wizards: make(map[uuid.UUID]*domain.Wizard)}
}

func (s *fakeSessions) Create(ctx context.Context, w *domain.Wizard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[w.ID] = w
	return nil
}

func (s *fakeSessions) Update(ctx context.Context, id uuid.UUID, fn func(w *domain.Wizard) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wizards[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	return fn(w)
}

func (s *fakeSessions) Delete(ctx context.Context, id uuid.UUID) (*domain.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wizards[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(s.wizards, id)
	return w, nil
}

func (s *fakeSessions) DeleteIdle(ctx context.Context, maxIdle time.Duration) ([]*domain.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Wizard
	for id, w := range s.wizards {
		if time.Since(w.UpdatedAt) > maxIdle {
			delete(s.wizards, id)
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	files     map[string][]byte
	deleted   []string
	seq       int
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(ctx context.Context, fileName, contentType string, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.seq++
	key := fmt.Sprintf("%d/%s", s.seq, fileName)
	s.files[key] = data
	return key, nil
}

func (s *fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type fakeRecords struct {
	mu        sync.Mutex
	existing  map[domain.DataType]map[string]bool
	saved     []KeyedRecord
	saveCalls int
	conflicts []int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{existing: make(map[domain.DataType]map[string]bool)}
}

func (r *fakeRecords) seed(dt domain.DataType, keys ...string) {
	if r.existing[dt] == nil {
		r.existing[dt] = make(map[string]bool)
	}
	for _, k := range keys {
		r.existing[dt][k] = true
	}
}

func (r *fakeRecords) ExistingKeys(ctx context.Context, schoolID uuid.UUID, dt domain.DataType, keys []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, k := range keys {
		if r.existing[dt][k] {
			out[k] = true
		}
	}
	return out, nil
}

func (r *fakeRecords) Save(ctx context.Context, schoolID, runID uuid.UUID, dt domain.DataType, records []KeyedRecord) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	r.saved = append(r.saved, records...)
	return r.conflicts, nil
}

type fakeRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]domain.ImportRun
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: make(map[uuid.UUID]domain.ImportRun)}
}

func (r *fakeRuns) Create(ctx context.Context, run *domain.ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *fakeRuns) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrImportRunNotFound
	}
	return &run, nil
}

func (r *fakeRuns) Update(ctx context.Context, run *domain.ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *fakeRuns) List(ctx context.Context, filter domain.ImportRunFilter, p domain.Pagination) (*domain.ImportRunListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.ImportRun, 0, len(r.runs))
	for _, run := range r.runs {
		run := run
		out = append(out, &run)
	}
	return &domain.ImportRunListResult{Runs: out, Total: len(out), Pagination: p}, nil
}

type fakeCleanup struct {
	mu     sync.Mutex
	keys   []string
	delays []time.Duration
}

func (q *fakeCleanup) ScheduleCleanup(ctx context.Context, key string, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.keys = append(q.keys, key)
	q.delays = append(q.delays, delay)
	return nil
}
