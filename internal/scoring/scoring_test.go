package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timed-quiz-service/internal/domain"
)

func buildQuestions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			ID:                 int64(100 + i),
			Text:               fmt.Sprintf("question %d", i),
			Options:            []string{"a", "b", "c", "d"},
			CorrectOptionIndex: i % 4,
		}
	}
	return qs
}

// answerPattern answers the first `correct` questions right, the next `incorrect` wrong and leaves the rest blank.
func answerPattern(qs []domain.Question, correct, incorrect int) domain.AnswerMap {
	answers := domain.AnswerMap{}
	for i, q := range qs {
		switch {
		case i < correct:
			answers[q.ID] = q.CorrectOptionIndex
		case i < correct+incorrect:
			answers[q.ID] = (q.CorrectOptionIndex + 1) % len(q.Options)
		}
	}
	return answers
}

func finalizedAttempt(qs []domain.Question, answers domain.AnswerMap) domain.Attempt {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return domain.Attempt{ID: "a", OwnerID: "u1", Questions: qs, Answers: answers, FinalizedAt: &at}
}

func TestScoreScenarioA(t *testing.T) {
	qs := buildQuestions(15)
	got := Score(qs, answerPattern(qs, 10, 3))

	require.Equal(t, domain.Result{
		Correct:    10,
		Incorrect:  3,
		Unanswered: 2,
		Attempted:  13,
		Total:      15,
		Percentage: 67,
	}, got)
}

func TestScoreCountsAlwaysAddUp(t *testing.T) {
	qs := buildQuestions(7)
	for correct := 0; correct <= 7; correct++ {
		for incorrect := 0; correct+incorrect <= 7; incorrect++ {
			r := Score(qs, answerPattern(qs, correct, incorrect))
			require.Equal(t, r.Total, r.Correct+r.Incorrect+r.Unanswered)
		}
	}
}

func TestScoreEmptyAnswersIsZero(t *testing.T) {
	r := Score(buildQuestions(3), domain.AnswerMap{})
	require.Equal(t, 0, r.Percentage)
	require.Equal(t, 3, r.Unanswered)

	require.Equal(t, domain.Result{}, Score(nil, nil))
}

func TestScoreIgnoresUnrelatedKeys(t *testing.T) {
	qs := buildQuestions(4)
	answers := answerPattern(qs, 2, 1)
	extra := answers.Clone()
	extra[999] = 2
	extra[-5] = 0

	require.Equal(t, Score(qs, answers).Correct, Score(qs, extra).Correct)
}

func TestScoreNegativeIndexIsUnanswered(t *testing.T) {
	qs := buildQuestions(1)
	r := Score(qs, domain.AnswerMap{qs[0].ID: -1})
	require.Equal(t, 1, r.Unanswered)
}

func TestPercentageRoundsHalfUp(t *testing.T) {
	require.Equal(t, 67, Percentage(10, 15))
	require.Equal(t, 50, Percentage(1, 2))
	require.Equal(t, 13, Percentage(1, 8)) // 12.5
	require.Equal(t, 0, Percentage(3, 0))
}

func TestAggregateScenarioB(t *testing.T) {
	first := buildQuestions(15)
	second := buildQuestions(10)
	summary := Aggregate([]domain.Attempt{
		finalizedAttempt(first, answerPattern(first, 10, 0)),
		finalizedAttempt(second, answerPattern(second, 5, 5)),
	})

	require.Equal(t, 2, summary.TotalAttempts)
	require.Equal(t, 15, summary.TotalCorrect)
	require.Equal(t, 25, summary.TotalQuestions)
	require.Equal(t, 60, summary.AveragePercentage)
	require.Equal(t, 67, summary.BestPercentage)
	require.Equal(t, 20, summary.TotalAttempted)
	require.Equal(t, 8, summary.AverageCorrect) // 7.5 rounds up
}

func TestAggregateCountsOpenAttemptsAsUnscored(t *testing.T) {
	qs := buildQuestions(2)
	open := domain.Attempt{ID: "open", Questions: buildQuestions(2), Answers: domain.AnswerMap{}}
	summary := Aggregate([]domain.Attempt{open, finalizedAttempt(qs, answerPattern(qs, 2, 0))})

	require.Equal(t, domain.Summary{
		TotalAttempts:     2,
		OpenAttempts:      1,
		TotalCorrect:      2,
		TotalAttempted:    2,
		TotalQuestions:    4,
		AverageCorrect:    1,
		AveragePercentage: 50,
		BestPercentage:    100,
	}, summary)
}

func TestAggregateOnlyOpenAttempts(t *testing.T) {
	qs := buildQuestions(5)
	summary := Aggregate([]domain.Attempt{{ID: "open", Questions: qs, Answers: domain.AnswerMap{}}})

	require.Equal(t, domain.Summary{TotalAttempts: 1, OpenAttempts: 1, TotalQuestions: 5}, summary)
}

func TestAggregateEmpty(t *testing.T) {
	require.Equal(t, domain.Summary{}, Aggregate(nil))
}

func TestReviewRows(t *testing.T) {
	qs := buildQuestions(3)
	rows := Review(qs, answerPattern(qs, 1, 1))

	require.Len(t, rows, 3)
	require.Equal(t, domain.OutcomeCorrect, rows[0].Outcome)
	require.Equal(t, domain.OutcomeIncorrect, rows[1].Outcome)
	require.Equal(t, domain.OutcomeUnanswered, rows[2].Outcome)
	require.NotNil(t, rows[0].Selected)
	require.Equal(t, qs[0].CorrectOptionIndex, *rows[0].Selected)
	require.Nil(t, rows[2].Selected)
}

func TestBadge(t *testing.T) {
	cases := map[int]string{
		100: "Outstanding",
		90:  "Outstanding",
		85:  "Excellent",
		70:  "Good",
		60:  "Fair",
		59:  "Keep Practicing",
		0:   "Keep Practicing",
	}
	for pct, want := range cases {
		require.Equal(t, want, Badge(pct), "percentage %d", pct)
	}
}
