package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/domain"
)

type session struct {
	mu     sync.Mutex
	wizard *domain.Wizard
	closed bool
}

// SessionStore открытые мастера импорта в памяти процесса.
// Операции над одной сессией выполняются последовательно.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// NewSessionStore создаёт пустое хранилище
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]*session)}
}

// Create регистрирует мастер
func (s *SessionStore) Create(ctx context.Context, wizard *domain.Wizard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[wizard.ID] = &session{wizard: wizard}
	return nil
}

// Update выполняет fn под блокировкой сессии
func (s *SessionStore) Update(ctx context.Context, id uuid.UUID, fn func(w *domain.Wizard) error) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// сессию могли закрыть, пока ждали блокировку
	if sess.closed {
		return domain.ErrSessionNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(sess.wizard)
}

// Delete удаляет сессию и возвращает её мастер
func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) (*domain.Wizard, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.closed = true
	return sess.wizard, nil
}

// DeleteIdle удаляет сессии, не менявшиеся дольше maxIdle.
// Занятые в данный момент сессии пропускаются.
func (s *SessionStore) DeleteIdle(ctx context.Context, maxIdle time.Duration) ([]*domain.Wizard, error) {
	deadline := time.Now().Add(-maxIdle)
	expired := make([]*domain.Wizard, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.wizard.UpdatedAt.Before(deadline) {
			sess.closed = true
			delete(s.sessions, id)
			expired = append(expired, sess.wizard)
		}
		sess.mu.Unlock()
	}

	return expired, nil
}

// Len количество открытых сессий
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) get(id uuid.UUID) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}
