package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/scoring"
	"timed-quiz-service/internal/session"
	"timed-quiz-service/internal/trivia"
)

// Settings are the quiz knobs taken from config.
type Settings struct {
	QuestionCount int
	Duration      time.Duration
	WarningAt     time.Duration
}

// StartedAttempt is returned when a new attempt is created.
type StartedAttempt struct {
	Attempt         domain.Attempt
	DurationSeconds int
	WarningSeconds  int
}

// Report is the scored view of an attempt.
type Report struct {
	Attempt domain.Attempt          `json:"attempt"`
	Result  domain.Result           `json:"result"`
	Badge   string                  `json:"badge"`
	Review  []domain.QuestionReview `json:"review,omitempty"`
}

// AttemptService contains the attempt use cases.
type AttemptService struct {
	attempts   AttemptRepository
	supply     TriviaSupplier
	normalizer *trivia.Normalizer
	summaries  SummaryCache
	history    SummaryLoader
	sessions   SessionRegistry
	events     EventPublisher
	recorder   Recorder
	settings   Settings
	log        *zap.Logger
	now        func() time.Time
	newID      func() string
}

// Option customizes an AttemptService.
type Option func(*AttemptService)

func WithSummaryCache(c SummaryCache) Option       { return func(s *AttemptService) { s.summaries = c } }
func WithSessionRegistry(r SessionRegistry) Option { return func(s *AttemptService) { s.sessions = r } }
func WithEvents(p EventPublisher) Option           { return func(s *AttemptService) { s.events = p } }
func WithRecorder(r Recorder) Option               { return func(s *AttemptService) { s.recorder = r } }
func WithLogger(l *zap.Logger) Option              { return func(s *AttemptService) { s.log = l } }

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(s *AttemptService) { s.now = now } }

func NewAttemptService(attempts AttemptRepository, supply TriviaSupplier, normalizer *trivia.Normalizer, settings Settings, opts ...Option) *AttemptService {
	s := &AttemptService{
		attempts:   attempts,
		supply:     supply,
		normalizer: normalizer,
		history:    NewHistoryLoader(attempts),
		recorder:   nopRecorder{},
		settings:   settings,
		log:        zap.NewNop(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start fetches and normalizes questions and persists a new open attempt.
func (s *AttemptService) Start(ctx context.Context, ownerID string) (StartedAttempt, error) {
	if ownerID == "" {
		return StartedAttempt{}, domain.ErrUnauthenticated
	}

	raw, err := s.supply.FetchTrivia(ctx, s.settings.QuestionCount)
	if err != nil {
		s.recorder.SupplyFailed()
		if !errors.Is(err, domain.ErrSupply) {
			err = fmt.Errorf("%w: %v", domain.ErrSupply, err)
		}
		return StartedAttempt{}, err
	}
	questions, err := s.normalizer.Normalize(raw, s.settings.QuestionCount)
	if err != nil {
		s.recorder.SupplyFailed()
		return StartedAttempt{}, err
	}

	attempt := domain.Attempt{
		ID:        s.newID(),
		OwnerID:   ownerID,
		Questions: questions,
		Answers:   domain.AnswerMap{},
		Score:     0,
		CreatedAt: s.now().UTC(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return StartedAttempt{}, persistenceErr("create attempt", err)
	}
	s.recorder.AttemptCreated()
	s.invalidate(ctx, ownerID)

	s.log.Info("attempt created",
		zap.String("attempt_id", attempt.ID),
		zap.String("owner_id", ownerID),
		zap.Int("questions", len(questions)))

	return StartedAttempt{
		Attempt:         attempt,
		DurationSeconds: int(s.settings.Duration / time.Second),
		WarningSeconds:  int(s.settings.WarningAt / time.Second),
	}, nil
}

// Get returns one attempt owned by ownerID.
func (s *AttemptService) Get(ctx context.Context, id, ownerID string) (domain.Attempt, error) {
	if ownerID == "" {
		return domain.Attempt{}, domain.ErrUnauthenticated
	}
	attempt, err := s.attempts.Get(ctx, id, ownerID)
	if err != nil {
		return domain.Attempt{}, persistenceErr("get attempt", err)
	}
	return attempt, nil
}

// List returns the owner's attempts, newest first.
func (s *AttemptService) List(ctx context.Context, ownerID string) ([]domain.Attempt, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	attempts, err := s.attempts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, persistenceErr("list attempts", err)
	}
	return attempts, nil
}

// Finalize scores answers against the attempt's stored questions and freezes the result.
// Finalizing an already finalized attempt returns the frozen record unchanged.
func (s *AttemptService) Finalize(ctx context.Context, id, ownerID string, answers domain.AnswerMap) (domain.Attempt, error) {
	if ownerID == "" {
		return domain.Attempt{}, domain.ErrUnauthenticated
	}
	attempt, err := s.attempts.Get(ctx, id, ownerID)
	if err != nil {
		return domain.Attempt{}, persistenceErr("get attempt", err)
	}
	if attempt.Finalized() {
		return attempt, nil
	}
	if answers == nil {
		answers = domain.AnswerMap{}
	}
	if err := checkAnswers(attempt.Questions, answers); err != nil {
		return domain.Attempt{}, err
	}

	result := scoring.Score(attempt.Questions, answers)
	finalized, err := s.attempts.Finalize(ctx, id, ownerID, answers, result.Correct, s.now().UTC())
	if errors.Is(err, domain.ErrAlreadyFinalized) {
		s.log.Info("finalize lost race, returning stored result", zap.String("attempt_id", id))
		return s.Get(ctx, id, ownerID)
	}
	if err != nil {
		return domain.Attempt{}, persistenceErr("finalize attempt", err)
	}

	s.invalidate(ctx, ownerID)
	s.log.Info("attempt finalized",
		zap.String("attempt_id", id),
		zap.String("owner_id", ownerID),
		zap.Int("score", finalized.Score),
		zap.Int("total", result.Total))

	if s.events != nil {
		evt := domain.AttemptFinalized{
			AttemptID:   finalized.ID,
			OwnerID:     ownerID,
			Score:       finalized.Score,
			Total:       result.Total,
			Percentage:  result.Percentage,
			FinalizedAt: *finalized.FinalizedAt,
		}
		if err := s.events.PublishFinalized(ctx, evt); err != nil {
			s.log.Warn("publish finalized event", zap.String("attempt_id", id), zap.Error(err))
		}
	}
	return finalized, nil
}

// checkAnswers rejects an option index past the end of its question's options.
// Unknown question ids and negative indices are left to scoring.
func checkAnswers(questions []domain.Question, answers domain.AnswerMap) error {
	for _, q := range questions {
		if idx, ok := answers[q.ID]; ok && idx >= len(q.Options) {
			return fmt.Errorf("%w: question %d has no option %d", domain.ErrInvalidAnswer, q.ID, idx)
		}
	}
	return nil
}

// Summary returns the owner's aggregate history, cached when a cache is configured.
func (s *AttemptService) Summary(ctx context.Context, ownerID string) (domain.Summary, error) {
	if ownerID == "" {
		return domain.Summary{}, domain.ErrUnauthenticated
	}
	var (
		summary domain.Summary
		err     error
	)
	if s.summaries != nil {
		summary, err = s.summaries.GetSummary(ctx, ownerID)
	} else {
		summary, err = s.history.LoadSummary(ctx, ownerID)
	}
	if err != nil {
		return domain.Summary{}, persistenceErr("load summary", err)
	}
	return summary, nil
}

// SessionLease is a live session's claim on an attempt. Claims may expire in the
// registry, so a long-lived connection renews it periodically.
type SessionLease struct {
	attemptID string
	holder    string
	registry  SessionRegistry
	log       *zap.Logger
}

// Renew extends the claim. It returns domain.ErrSessionBusy once another holder took over.
func (l *SessionLease) Renew(ctx context.Context) error {
	if l.registry == nil {
		return nil
	}
	ok, err := l.registry.Claim(ctx, l.attemptID, l.holder)
	if err != nil {
		return persistenceErr("renew session", err)
	}
	if !ok {
		return domain.ErrSessionBusy
	}
	return nil
}

// Release drops the claim; it must be called on teardown.
func (l *SessionLease) Release() {
	if l.registry == nil {
		return
	}
	if err := l.registry.Release(context.Background(), l.attemptID, l.holder); err != nil {
		l.log.Warn("release session", zap.String("attempt_id", l.attemptID), zap.Error(err))
	}
}

// OpenSession builds the live state machine for an open attempt. The clock restarts at
// the full duration on every open.
// For a finalized attempt it returns the attempt and domain.ErrAlreadyFinalized.
func (s *AttemptService) OpenSession(ctx context.Context, id, ownerID string) (*session.Session, domain.Attempt, *SessionLease, error) {
	attempt, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, domain.Attempt{}, nil, err
	}
	if attempt.Finalized() {
		return nil, attempt, nil, domain.ErrAlreadyFinalized
	}

	lease := &SessionLease{attemptID: id, holder: s.newID(), log: s.log}
	if s.sessions != nil {
		ok, err := s.sessions.Claim(ctx, id, lease.holder)
		if err != nil {
			return nil, domain.Attempt{}, nil, persistenceErr("claim session", err)
		}
		if !ok {
			return nil, domain.Attempt{}, nil, domain.ErrSessionBusy
		}
		lease.registry = s.sessions
	}

	sess := session.New(id, func(ctx context.Context, answers domain.AnswerMap) (domain.Attempt, error) {
		return s.Finalize(ctx, id, ownerID, answers)
	})
	sess.Start(attempt.Questions, int(s.settings.Duration/time.Second))
	return sess, attempt, lease, nil
}

// WarningSeconds is the remaining time at which clients are warned.
func (s *AttemptService) WarningSeconds() int {
	return int(s.settings.WarningAt / time.Second)
}

func (s *AttemptService) invalidate(ctx context.Context, ownerID string) {
	if s.summaries == nil {
		return
	}
	if err := s.summaries.Invalidate(ctx, ownerID); err != nil {
		s.log.Warn("invalidate summary", zap.String("owner_id", ownerID), zap.Error(err))
	}
}

// BuildReport scores an attempt for display. Open attempts report their current answers.
func BuildReport(attempt domain.Attempt, withReview bool) Report {
	result := scoring.Score(attempt.Questions, attempt.Answers)
	report := Report{
		Attempt: attempt,
		Result:  result,
		Badge:   scoring.Badge(result.Percentage),
	}
	if withReview {
		report.Review = scoring.Review(attempt.Questions, attempt.Answers)
	}
	return report
}

// HistoryLoader aggregates straight from the repository.
type HistoryLoader struct {
	attempts AttemptRepository
}

func NewHistoryLoader(attempts AttemptRepository) *HistoryLoader {
	return &HistoryLoader{attempts: attempts}
}

func (l *HistoryLoader) LoadSummary(ctx context.Context, ownerID string) (domain.Summary, error) {
	attempts, err := l.attempts.ListByOwner(ctx, ownerID)
	if err != nil {
		return domain.Summary{}, err
	}
	return scoring.Aggregate(attempts), nil
}

func persistenceErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPersistence) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}
