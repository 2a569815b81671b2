package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/scoring"
)

const (
	AttemptsSheet = "Attempts"
	SummarySheet  = "Summary"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var attemptHeader = []interface{}{
	"Attempt ID", "Started", "Finalized", "Status",
	"Correct", "Incorrect", "Unanswered", "Total", "Percentage", "Badge",
}

// WriteHistory renders an owner's attempts (newest first) and summary as an xlsx workbook.
func WriteHistory(w io.Writer, attempts []domain.Attempt, summary domain.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AttemptsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(AttemptsSheet, "A1", &attemptHeader); err != nil {
		return err
	}
	for i, attempt := range attempts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := attemptRow(attempt)
		if err := f.SetSheetRow(AttemptsSheet, cell, &row); err != nil {
			return fmt.Errorf("write attempt %s: %w", attempt.ID, err)
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	summaryRows := [][]interface{}{
		{"Attempts", summary.TotalAttempts},
		{"Open attempts", summary.OpenAttempts},
		{"Total correct", summary.TotalCorrect},
		{"Total attempted", summary.TotalAttempted},
		{"Total questions", summary.TotalQuestions},
		{"Average correct", summary.AverageCorrect},
		{"Average percentage", summary.AveragePercentage},
		{"Best percentage", summary.BestPercentage},
	}
	for i, row := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := row
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func attemptRow(attempt domain.Attempt) []interface{} {
	result := scoring.Score(attempt.Questions, attempt.Answers)
	finalized := ""
	badge := ""
	if attempt.FinalizedAt != nil {
		finalized = attempt.FinalizedAt.UTC().Format(time.RFC3339)
		badge = scoring.Badge(result.Percentage)
	}
	return []interface{}{
		attempt.ID,
		attempt.CreatedAt.UTC().Format(time.RFC3339),
		finalized,
		string(attempt.Status()),
		result.Correct,
		result.Incorrect,
		result.Unanswered,
		result.Total,
		result.Percentage,
		badge,
	}
}
