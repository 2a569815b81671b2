package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timed-quiz-service/internal/domain"
)

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 11, Text: "first", Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 1},
		{ID: 22, Text: "second", Options: []string{"a", "b"}, CorrectOptionIndex: 0},
		{ID: 33, Text: "third", Options: []string{"True", "False"}, CorrectOptionIndex: 1},
	}
}

type fakeFinalizer struct {
	mu    sync.Mutex
	calls int
	got   domain.AnswerMap
	err   error
	block chan struct{}
}

func (f *fakeFinalizer) finalize(ctx context.Context, answers domain.AnswerMap) (domain.Attempt, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = answers
	if f.err != nil {
		return domain.Attempt{}, f.err
	}
	now := time.Now()
	return domain.Attempt{ID: "att-1", Answers: answers, Score: 1, FinalizedAt: &now}, nil
}

func startedSession(t *testing.T, f *fakeFinalizer, duration int) *Session {
	t.Helper()
	s := New("att-1", f.finalize)
	require.Equal(t, Loading, s.State())
	require.True(t, s.Start(sampleQuestions(), duration))
	require.Equal(t, Active, s.State())
	return s
}

func TestMutationsIgnoredWhileLoading(t *testing.T) {
	s := New("att-1", (&fakeFinalizer{}).finalize)

	require.False(t, s.SelectAnswer(11, 1))
	require.False(t, s.ToggleMark(11))
	require.False(t, s.Navigate(2))
	_, ok := s.Tick()
	require.False(t, ok)
	_, submitted, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.False(t, submitted)
	require.Equal(t, Loading, s.State())
}

func TestStartResetsState(t *testing.T) {
	s := startedSession(t, &fakeFinalizer{}, 1800)
	snap := s.Snapshot()

	require.Equal(t, 0, snap.CurrentIndex)
	require.Equal(t, 1800, snap.SecondsRemaining)
	require.Equal(t, "30:00", snap.Clock)
	require.Empty(t, snap.Answers)
	require.Empty(t, snap.Marked)
	require.False(t, s.Start(sampleQuestions(), 10), "start is only valid from Loading")
}

func TestSelectClearAndMark(t *testing.T) {
	s := startedSession(t, &fakeFinalizer{}, 60)

	require.True(t, s.SelectAnswer(11, 2))
	require.True(t, s.SelectAnswer(11, 1))
	require.True(t, s.SelectAnswer(22, 0))
	require.True(t, s.ClearAnswer(22))
	require.True(t, s.ClearAnswer(22), "clearing an absent answer is a no-op")
	require.True(t, s.ToggleMark(11))
	require.True(t, s.ToggleMark(33))
	require.True(t, s.ToggleMark(33))
	require.True(t, s.ToggleMark(22))

	snap := s.Snapshot()
	require.Equal(t, domain.AnswerMap{11: 1}, snap.Answers)
	require.Equal(t, []int64{11, 22}, snap.Marked)
	require.Equal(t, []QuestionStatus{StatusMarkedAnswered, StatusMarked, StatusUnanswered}, snap.Statuses)
	require.Equal(t, Legend{Unanswered: 1, Marked: 1, MarkedAnswered: 1}, snap.Legend)
}

func TestNavigateClamps(t *testing.T) {
	s := startedSession(t, &fakeFinalizer{}, 60)

	s.Navigate(1)
	require.Equal(t, 1, s.Snapshot().CurrentIndex)
	s.Navigate(99)
	require.Equal(t, 2, s.Snapshot().CurrentIndex)
	s.Navigate(-4)
	require.Equal(t, 0, s.Snapshot().CurrentIndex)
}

func TestTickFloorsAtZero(t *testing.T) {
	s := startedSession(t, &fakeFinalizer{}, 1800)

	for i := 0; i < 1800; i++ {
		s.Tick()
	}
	require.Equal(t, 0, s.Snapshot().SecondsRemaining)
	require.Equal(t, Active, s.State(), "ticking never submits on its own")

	remaining, ok := s.Tick()
	require.True(t, ok)
	require.Equal(t, 0, remaining)
}

func TestSubmitFinalizesOnce(t *testing.T) {
	f := &fakeFinalizer{}
	s := startedSession(t, f, 60)
	s.SelectAnswer(11, 1)

	attempt, submitted, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, submitted)
	require.Equal(t, "att-1", attempt.ID)
	require.Equal(t, Submitted, s.State())
	require.Equal(t, domain.AnswerMap{11: 1}, f.got)

	result, ok := s.Result()
	require.True(t, ok)
	require.Equal(t, attempt.ID, result.ID)

	_, submitted, err = s.Submit(context.Background())
	require.NoError(t, err)
	require.False(t, submitted)
	require.Equal(t, 1, f.calls)
}

func TestSubmittedSessionIsFrozen(t *testing.T) {
	s := startedSession(t, &fakeFinalizer{}, 60)
	s.SelectAnswer(11, 0)
	_, _, err := s.Submit(context.Background())
	require.NoError(t, err)

	before := s.Snapshot()
	require.False(t, s.SelectAnswer(22, 1))
	require.False(t, s.ClearAnswer(11))
	require.False(t, s.ToggleMark(11))
	require.False(t, s.Navigate(2))
	_, ok := s.Tick()
	require.False(t, ok)
	require.Equal(t, before, s.Snapshot())
}

func TestSubmitFailureReturnsToActive(t *testing.T) {
	f := &fakeFinalizer{err: domain.ErrPersistence}
	s := startedSession(t, f, 60)
	s.SelectAnswer(22, 0)

	_, submitted, err := s.Submit(context.Background())
	require.True(t, errors.Is(err, domain.ErrPersistence))
	require.False(t, submitted)
	require.Equal(t, Active, s.State())
	require.True(t, s.SelectAnswer(33, 1), "user can keep editing before retrying")

	f.err = nil
	_, submitted, err = s.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, submitted)
	require.Equal(t, domain.AnswerMap{22: 0, 33: 1}, f.got)
}

func TestMutationsBlockedWhileSubmitting(t *testing.T) {
	f := &fakeFinalizer{block: make(chan struct{})}
	s := startedSession(t, f, 60)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = s.Submit(context.Background())
	}()
	require.Eventually(t, func() bool { return s.State() == Submitting }, time.Second, time.Millisecond)

	require.False(t, s.SelectAnswer(11, 1))
	_, ok := s.Tick()
	require.False(t, ok)
	_, submitted, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.False(t, submitted)

	close(f.block)
	<-done
	require.Equal(t, Submitted, s.State())
	require.Empty(t, f.got)
}

func TestRunCountdownReportsExpiry(t *testing.T) {
	s := startedSession(t, &fakeFinalizer{}, 2)
	clock := NewManualClock()

	var seen []int
	expired := make(chan bool, 1)
	go func() {
		expired <- RunCountdown(context.Background(), s, clock, func(rem int) { seen = append(seen, rem) })
	}()

	require.True(t, clock.Advance())
	require.True(t, clock.Advance())
	require.True(t, <-expired)
	require.Equal(t, []int{1, 0}, seen)
	require.Equal(t, Active, s.State(), "the caller decides to submit")
}

func TestRunCountdownStopsOnCancel(t *testing.T) {
	s := startedSession(t, &fakeFinalizer{}, 60)
	ctx, cancel := context.WithCancel(context.Background())

	expired := make(chan bool, 1)
	go func() { expired <- RunCountdown(ctx, s, NewManualClock(), nil) }()
	cancel()
	require.False(t, <-expired)
}

func TestRunCountdownStopsAfterSubmit(t *testing.T) {
	s := startedSession(t, &fakeFinalizer{}, 60)
	clock := NewManualClock()

	expired := make(chan bool, 1)
	go func() { expired <- RunCountdown(context.Background(), s, clock, nil) }()
	require.True(t, clock.Advance())
	require.Eventually(t, func() bool { return s.Snapshot().SecondsRemaining == 59 }, time.Second, time.Millisecond)

	_, _, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, clock.Advance())
	require.False(t, <-expired)
	require.Equal(t, 59, s.Snapshot().SecondsRemaining)
}

func TestFormatClock(t *testing.T) {
	require.Equal(t, "00:00", FormatClock(0))
	require.Equal(t, "05:00", FormatClock(300))
	require.Equal(t, "01:05", FormatClock(65))
	require.Equal(t, "00:00", FormatClock(-3))
}
