// Package scoring computes per-attempt results and cross-attempt summaries.
//
// Two rounding rules coexist and are not reconcilable arithmetically:
// a single attempt's percentage is rounded half-up with integer math, while
// the history average is rounded with math.Round over a float64 ratio.
package scoring

import (
	"math"

	"timed-quiz-service/internal/domain"
)

// Score classifies every question as correct, incorrect or unanswered.
// Answers for ids outside questions are ignored; a negative index counts as unanswered.
func Score(questions []domain.Question, answers domain.AnswerMap) domain.Result {
	var r domain.Result
	for _, q := range questions {
		switch outcome(q, answers) {
		case domain.OutcomeCorrect:
			r.Correct++
		case domain.OutcomeIncorrect:
			r.Incorrect++
		default:
			r.Unanswered++
		}
	}
	r.Total = len(questions)
	r.Attempted = r.Correct + r.Incorrect
	r.Percentage = Percentage(r.Correct, r.Total)
	return r
}

// Percentage returns round-half-up(100*correct/total), or 0 when total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// Review builds the per-question report rows in question order.
func Review(questions []domain.Question, answers domain.AnswerMap) []domain.QuestionReview {
	rows := make([]domain.QuestionReview, 0, len(questions))
	for _, q := range questions {
		row := domain.QuestionReview{
			QuestionID:         q.ID,
			Text:               q.Text,
			Options:            q.Options,
			CorrectOptionIndex: q.CorrectOptionIndex,
			Outcome:            outcome(q, answers),
		}
		if selected, ok := answers[q.ID]; ok && selected >= 0 {
			selected := selected
			row.Selected = &selected
		}
		rows = append(rows, row)
	}
	return rows
}

// Aggregate folds every attempt into a summary. An open attempt has no answers on
// record yet, so it contributes its questions with nothing correct.
// The average is weighted by question count, not a mean of per-attempt percentages.
func Aggregate(attempts []domain.Attempt) domain.Summary {
	var s domain.Summary
	for _, a := range attempts {
		s.TotalAttempts++
		if !a.Finalized() {
			s.OpenAttempts++
			s.TotalQuestions += len(a.Questions)
			continue
		}
		r := Score(a.Questions, a.Answers)
		s.TotalCorrect += r.Correct
		s.TotalAttempted += r.Attempted
		s.TotalQuestions += r.Total
		if r.Percentage > s.BestPercentage {
			s.BestPercentage = r.Percentage
		}
	}
	if s.TotalQuestions > 0 {
		s.AveragePercentage = int(math.Round(100 * float64(s.TotalCorrect) / float64(s.TotalQuestions)))
	}
	if s.TotalAttempts > 0 {
		s.AverageCorrect = int(math.Round(float64(s.TotalCorrect) / float64(s.TotalAttempts)))
	}
	return s
}

// Badge labels a percentage for report headers.
func Badge(percentage int) string {
	switch {
	case percentage >= 90:
		return "Outstanding"
	case percentage >= 80:
		return "Excellent"
	case percentage >= 70:
		return "Good"
	case percentage >= 60:
		return "Fair"
	default:
		return "Keep Practicing"
	}
}

func outcome(q domain.Question, answers domain.AnswerMap) domain.Outcome {
	selected, ok := answers[q.ID]
	if !ok || selected < 0 {
		return domain.OutcomeUnanswered
	}
	if selected == q.CorrectOptionIndex {
		return domain.OutcomeCorrect
	}
	return domain.OutcomeIncorrect
}
