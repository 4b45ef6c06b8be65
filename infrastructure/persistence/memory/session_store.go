// Package memory keeps questionnaire editing sessions in process memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"questionnaire-builder/domain/core/aggregates"
	pkgerrors "questionnaire-builder/pkg/errors"
)

type session struct {
	mu         sync.RWMutex
	q          *aggregates.Questionnaire
	lastAccess time.Time
}

// SessionStore is an in-memory QuestionnaireRepository with one lock per
// session. Sessions idle for longer than ttl are dropped by Cleanup; a zero
// ttl keeps them forever.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty session store
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a new questionnaire
func (s *SessionStore) Create(ctx context.Context, q *aggregates.Questionnaire) error {
	if q == nil || q.ID() == "" {
		return pkgerrors.NewValidationError("questionnaire id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[q.ID()]; exists {
		return pkgerrors.NewConflictError("questionnaire already exists").
			WithCode("QUESTIONNAIRE_EXISTS").
			WithDetail("questionnaire_id", q.ID())
	}
	s.sessions[q.ID()] = &session{q: q, lastAccess: s.now()}
	return nil
}

// Replace swaps q in under its id, waiting for any operation in flight on
// the previous session to finish.
func (s *SessionStore) Replace(ctx context.Context, q *aggregates.Questionnaire) error {
	if q == nil || q.ID() == "" {
		return pkgerrors.NewValidationError("questionnaire id cannot be empty")
	}

	s.mu.Lock()
	sess, exists := s.sessions[q.ID()]
	if !exists {
		s.sessions[q.ID()] = &session{q: q, lastAccess: s.now()}
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.q = q
	sess.lastAccess = s.now()

	// A Delete may have dropped the entry while we waited for the lock.
	s.mu.Lock()
	s.sessions[q.ID()] = sess
	s.mu.Unlock()
	return nil
}

// View runs fn under the session's read lock
func (s *SessionStore) View(ctx context.Context, id string, fn func(q *aggregates.Questionnaire) error) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return fn(sess.q)
}

// Update runs fn under the session's write lock
func (s *SessionStore) Update(ctx context.Context, id string, fn func(q *aggregates.Questionnaire) error) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastAccess = s.now()
	return fn(sess.q)
}

// Delete removes a session
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return pkgerrors.QuestionnaireNotFound(id)
	}
	delete(s.sessions, id)
	return nil
}

// List returns the stored ids in ascending order
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Cleanup drops sessions idle for longer than the ttl and returns how many
// were removed.
func (s *SessionStore) Cleanup(ctx context.Context) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		// Skip sessions that are busy right now.
		if !sess.mu.TryLock() {
			continue
		}
		idle := sess.lastAccess.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor calls Cleanup every interval until ctx is done.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration, onCleanup func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(ctx); n > 0 && onCleanup != nil {
				onCleanup(n)
			}
		}
	}
}

func (s *SessionStore) get(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, pkgerrors.QuestionnaireNotFound(id)
	}
	return sess, nil
}
