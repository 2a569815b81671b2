package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

func sampleAttempt(id, owner string, created time.Time) domain.Attempt {
	return domain.Attempt{
		ID:      id,
		OwnerID: owner,
		Questions: []domain.Question{
			{ID: 1, Text: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectOptionIndex: 1},
		},
		Answers:   domain.AnswerMap{},
		CreatedAt: created,
	}
}

func TestAttemptStoreOwnerScoping(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	if err := store.Create(ctx, sampleAttempt("a1", "alice", time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.Get(ctx, "a1", "alice"); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := store.Get(ctx, "a1", "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
	if _, err := store.Get(ctx, "missing", "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing id, got %v", err)
	}
	if _, err := store.Finalize(ctx, "a1", "bob", domain.AnswerMap{1: 1}, 1, time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on foreign finalize, got %v", err)
	}
}

func TestAttemptStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	_ = store.Create(ctx, sampleAttempt("old", "alice", base))
	_ = store.Create(ctx, sampleAttempt("new", "alice", base.Add(time.Hour)))
	_ = store.Create(ctx, sampleAttempt("other", "bob", base.Add(2*time.Hour)))

	list, err := store.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "old" {
		t.Fatalf("unexpected order %+v", list)
	}
}

func TestAttemptStoreFinalizeOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	_ = store.Create(ctx, sampleAttempt("a1", "alice", time.Now()))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Finalize(ctx, "a1", "alice", domain.AnswerMap{1: i % 2}, i%2, time.Now())
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrAlreadyFinalized) {
				t.Errorf("unexpected error %v", err)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one finalize to win, got %d", wins)
	}
}

func TestAttemptStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	_ = store.Create(ctx, sampleAttempt("a1", "alice", time.Now()))

	got, _ := store.Get(ctx, "a1", "alice")
	got.Answers[1] = 0
	got.Questions[0].Text = "changed"

	again, _ := store.Get(ctx, "a1", "alice")
	if len(again.Answers) != 0 {
		t.Fatalf("answers leaked into store: %+v", again.Answers)
	}
	if again.Questions[0].Text != "What is 2 + 2?" {
		t.Fatalf("question text leaked into store")
	}
}
