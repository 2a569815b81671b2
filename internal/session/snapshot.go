package session

import (
	"fmt"

	"timed-quiz-service/internal/domain"
)

// QuestionStatus drives the question palette.
type QuestionStatus string

const (
	StatusUnanswered     QuestionStatus = "unanswered"
	StatusAnswered       QuestionStatus = "answered"
	StatusMarked         QuestionStatus = "marked"
	StatusMarkedAnswered QuestionStatus = "marked-answered"
)

// Legend counts questions per status.
type Legend struct {
	Unanswered     int `json:"unanswered"`
	Answered       int `json:"answered"`
	Marked         int `json:"marked"`
	MarkedAnswered int `json:"markedAnswered"`
}

// Snapshot is a copy of the session state safe to hand to other goroutines.
type Snapshot struct {
	AttemptID        string            `json:"attemptId"`
	State            State             `json:"state"`
	Questions        []domain.Question `json:"questions"`
	CurrentIndex     int               `json:"currentIndex"`
	Answers          domain.AnswerMap  `json:"answers"`
	Marked           []int64           `json:"marked"`
	Statuses         []QuestionStatus  `json:"statuses"`
	Legend           Legend            `json:"legend"`
	SecondsRemaining int               `json:"secondsRemaining"`
	Clock            string            `json:"clock"`
	Submitted        bool              `json:"submitted"`
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		AttemptID:        s.attemptID,
		State:            s.state,
		Questions:        s.questions,
		CurrentIndex:     s.current,
		Answers:          s.answers.Clone(),
		Marked:           make([]int64, 0, len(s.marks)),
		Statuses:         make([]QuestionStatus, 0, len(s.questions)),
		SecondsRemaining: s.remaining,
		Clock:            FormatClock(s.remaining),
		Submitted:        s.state == Submitted,
	}
	for _, q := range s.questions {
		status := s.statusLocked(q.ID)
		snap.Statuses = append(snap.Statuses, status)
		switch status {
		case StatusAnswered:
			snap.Legend.Answered++
		case StatusMarked:
			snap.Legend.Marked++
		case StatusMarkedAnswered:
			snap.Legend.MarkedAnswered++
		default:
			snap.Legend.Unanswered++
		}
		if s.marks.Has(q.ID) {
			snap.Marked = append(snap.Marked, q.ID)
		}
	}
	return snap
}

func (s *Session) statusLocked(id int64) QuestionStatus {
	_, answered := s.answers[id]
	marked := s.marks.Has(id)
	switch {
	case marked && answered:
		return StatusMarkedAnswered
	case marked:
		return StatusMarked
	case answered:
		return StatusAnswered
	default:
		return StatusUnanswered
	}
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
