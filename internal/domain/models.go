package domain

import "time"

// TriviaKind is the upstream item type.
type TriviaKind string

const (
	KindMultiple TriviaKind = "multiple"
	KindBoolean  TriviaKind = "boolean"
)

// RawTriviaItem is a question as delivered by the external supply, text still HTML-escaped.
type RawTriviaItem struct {
	Kind             TriviaKind `json:"type"`
	Category         string     `json:"category"`
	Difficulty       string     `json:"difficulty"`
	Text             string     `json:"question"`
	CorrectAnswer    string     `json:"correct_answer"`
	IncorrectAnswers []string   `json:"incorrect_answers"`
}

// Question models an MCQ question. Option order is fixed when the attempt is created.
type Question struct {
	ID                 int64    `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
}

// AnswerMap maps question id to the selected option index. Absent keys are unanswered.
type AnswerMap map[int64]int

// Clone returns an independent copy.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ReviewMarks is the set of question ids flagged for revisit.
type ReviewMarks map[int64]struct{}

// Has reports membership.
func (m ReviewMarks) Has(id int64) bool {
	_, ok := m[id]
	return ok
}

// AttemptStatus is derived from FinalizedAt.
type AttemptStatus string

const (
	StatusOpen      AttemptStatus = "open"
	StatusFinalized AttemptStatus = "finalized"
)

// Attempt is one user's instance of taking a quiz.
type Attempt struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	Questions   []Question `json:"questions"`
	Answers     AnswerMap  `json:"answers"`
	Score       int        `json:"score"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
}

// Status reports whether the attempt is still open.
func (a Attempt) Status() AttemptStatus {
	if a.FinalizedAt != nil {
		return StatusFinalized
	}
	return StatusOpen
}

// Finalized is a shorthand for Status() == StatusFinalized.
func (a Attempt) Finalized() bool {
	return a.FinalizedAt != nil
}

// Result is the score breakdown of one attempt.
type Result struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
	Attempted  int `json:"attempted"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Outcome classifies a single question in a report.
type Outcome string

const (
	OutcomeCorrect    Outcome = "correct"
	OutcomeIncorrect  Outcome = "incorrect"
	OutcomeUnanswered Outcome = "unanswered"
)

// QuestionReview is one row of a per-question report.
type QuestionReview struct {
	QuestionID         int64    `json:"questionId"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	Selected           *int     `json:"selected,omitempty"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Outcome            Outcome  `json:"outcome"`
}

// Summary aggregates one owner's attempt history.
type Summary struct {
	TotalAttempts     int `json:"totalAttempts"`
	OpenAttempts      int `json:"openAttempts"`
	TotalCorrect      int `json:"totalCorrect"`
	TotalAttempted    int `json:"totalAttempted"`
	TotalQuestions    int `json:"totalQuestions"`
	AverageCorrect    int `json:"averageCorrect"`
	AveragePercentage int `json:"averagePercentage"`
	BestPercentage    int `json:"bestPercentage"`
}

// AttemptFinalized is published once an attempt's score is frozen.
type AttemptFinalized struct {
	AttemptID   string    `json:"attemptId"`
	OwnerID     string    `json:"ownerId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  int       `json:"percentage"`
	FinalizedAt time.Time `json:"finalizedAt"`
}
