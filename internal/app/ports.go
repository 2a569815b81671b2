package app

import (
	"context"
	"time"

	"timed-quiz-service/internal/domain"
)

// AttemptRepository abstracts where attempts live (in-memory, Postgres).
// Get, ListByOwner and Finalize are owner-scoped: a foreign attempt is domain.ErrNotFound.
type AttemptRepository interface {
	Create(ctx context.Context, attempt domain.Attempt) error
	Get(ctx context.Context, id, ownerID string) (domain.Attempt, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Attempt, error)
	// Finalize stores answers and score only if the attempt is still open, in one
	// atomic write. It returns domain.ErrAlreadyFinalized when another finalize won.
	Finalize(ctx context.Context, id, ownerID string, answers domain.AnswerMap, score int, at time.Time) (domain.Attempt, error)
}

// TriviaSupplier fetches raw questions from the external source.
type TriviaSupplier interface {
	FetchTrivia(ctx context.Context, count int) ([]domain.RawTriviaItem, error)
}

// SummaryLoader computes an owner's history summary from the store.
type SummaryLoader interface {
	LoadSummary(ctx context.Context, ownerID string) (domain.Summary, error)
}

// SummaryCache fronts a SummaryLoader.
type SummaryCache interface {
	GetSummary(ctx context.Context, ownerID string) (domain.Summary, error)
	Invalidate(ctx context.Context, ownerID string) error
}

// SessionRegistry tracks which live connection currently edits an attempt.
// Claim by the current holder refreshes the claim.
type SessionRegistry interface {
	Claim(ctx context.Context, attemptID, holder string) (bool, error)
	Release(ctx context.Context, attemptID, holder string) error
}

// EventPublisher announces finalized attempts.
type EventPublisher interface {
	PublishFinalized(ctx context.Context, evt domain.AttemptFinalized) error
}

// Recorder receives use-case counters.
type Recorder interface {
	AttemptCreated()
	SupplyFailed()
}

type nopRecorder struct{}

func (nopRecorder) AttemptCreated() {}
func (nopRecorder) SupplyFailed()   {}
