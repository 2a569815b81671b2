package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]domain.Attempt),
	}
}

func (s *AttemptStore) Create(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.attempts[attempt.ID]; exists {
		return domain.ErrPersistence
	}
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (s *AttemptStore) Get(_ context.Context, id, ownerID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[id]
	if !ok || attempt.OwnerID != ownerID {
		return domain.Attempt{}, domain.ErrNotFound
	}
	return cloneAttempt(attempt), nil
}

func (s *AttemptStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	out := make([]domain.Attempt, 0)
	for _, attempt := range s.attempts {
		if attempt.OwnerID == ownerID {
			out = append(out, cloneAttempt(attempt))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Finalize swaps in answers and score only while the attempt is open.
func (s *AttemptStore) Finalize(_ context.Context, id, ownerID string, answers domain.AnswerMap, score int, at time.Time) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok || attempt.OwnerID != ownerID {
		return domain.Attempt{}, domain.ErrNotFound
	}
	if attempt.Finalized() {
		return domain.Attempt{}, domain.ErrAlreadyFinalized
	}
	attempt.Answers = answers.Clone()
	attempt.Score = score
	attempt.FinalizedAt = &at
	s.attempts[id] = attempt
	return cloneAttempt(attempt), nil
}

func cloneAttempt(a domain.Attempt) domain.Attempt {
	out := a
	out.Questions = append([]domain.Question(nil), a.Questions...)
	out.Answers = a.Answers.Clone()
	if a.FinalizedAt != nil {
		at := *a.FinalizedAt
		out.FinalizedAt = &at
	}
	return out
}
