// Package session holds the live state of one quiz attempt while it is being taken.
package session

import (
	"context"
	"fmt"
	"sync"

	"timed-quiz-service/internal/domain"
)

// State is the lifecycle phase of a session.
type State int

const (
	Loading State = iota
	Active
	Submitting
	Submitted
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Active:
		return "active"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st := Loading; st <= Submitted; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

// FinalizeFunc persists the final answers and returns the scored attempt.
type FinalizeFunc func(ctx context.Context, answers domain.AnswerMap) (domain.Attempt, error)

// Session is the in-memory state machine for one attempt. Mutating calls outside
// Active are no-ops and report false.
type Session struct {
	attemptID string
	finalize  FinalizeFunc

	mu        sync.Mutex
	state     State
	questions []domain.Question
	current   int
	answers   domain.AnswerMap
	marks     domain.ReviewMarks
	duration  int
	remaining int
	result    *domain.Attempt
}

func New(attemptID string, finalize FinalizeFunc) *Session {
	return &Session{
		attemptID: attemptID,
		finalize:  finalize,
		state:     Loading,
		answers:   domain.AnswerMap{},
		marks:     domain.ReviewMarks{},
	}
}

// Start moves Loading to Active with a fresh clock and empty answers.
func (s *Session) Start(questions []domain.Question, durationSeconds int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loading {
		return false
	}
	s.questions = questions
	s.current = 0
	s.answers = domain.AnswerMap{}
	s.marks = domain.ReviewMarks{}
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	s.duration = durationSeconds
	s.remaining = durationSeconds
	s.state = Active
	return true
}

// SelectAnswer records optionIndex for questionId, replacing any earlier choice.
func (s *Session) SelectAnswer(questionID int64, optionIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return false
	}
	s.answers[questionID] = optionIndex
	return true
}

// ClearAnswer drops the answer for questionId if present.
func (s *Session) ClearAnswer(questionID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return false
	}
	delete(s.answers, questionID)
	return true
}

// ToggleMark flips the review mark for questionId.
func (s *Session) ToggleMark(questionID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return false
	}
	if s.marks.Has(questionID) {
		delete(s.marks, questionID)
	} else {
		s.marks[questionID] = struct{}{}
	}
	return true
}

// Navigate moves the question pointer, clamped to the question range.
func (s *Session) Navigate(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return false
	}
	if index > len(s.questions)-1 {
		index = len(s.questions) - 1
	}
	if index < 0 {
		index = 0
	}
	s.current = index
	return true
}

// Tick takes one second off the clock, floored at zero. It never submits;
// the caller checks for zero and calls Submit.
func (s *Session) Tick() (remaining int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return s.remaining, false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	return s.remaining, true
}

// Submit finalizes the current answers. While the round-trip runs the session is
// Submitting and rejects every mutation. On failure it returns to Active so the
// user can retry; there is no automatic retry. submitted is false when the call
// was a no-op because the session was not Active.
func (s *Session) Submit(ctx context.Context) (attempt domain.Attempt, submitted bool, err error) {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return domain.Attempt{}, false, nil
	}
	s.state = Submitting
	answers := s.answers.Clone()
	s.mu.Unlock()

	attempt, err = s.finalize(ctx, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Active
		return domain.Attempt{}, false, err
	}
	s.state = Submitted
	s.result = &attempt
	return attempt, true, nil
}

// State reports the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AttemptID returns the attempt this session edits.
func (s *Session) AttemptID() string {
	return s.attemptID
}

// Result returns the finalized attempt once Submitted.
func (s *Session) Result() (domain.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.Attempt{}, false
	}
	return *s.result, true
}
