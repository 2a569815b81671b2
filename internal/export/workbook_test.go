package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"timed-quiz-service/internal/domain"
)

func TestWriteHistory(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	finalized := created.Add(10 * time.Minute)
	questions := []domain.Question{
		{ID: 1, Text: "2 + 2?", Options: []string{"3", "4"}, CorrectOptionIndex: 1},
		{ID: 2, Text: "3 + 3?", Options: []string{"6", "7"}, CorrectOptionIndex: 0},
	}
	attempts := []domain.Attempt{
		{ID: "a2", OwnerID: "alice", Questions: questions, Answers: domain.AnswerMap{}, CreatedAt: created.Add(time.Hour)},
		{ID: "a1", OwnerID: "alice", Questions: questions, Answers: domain.AnswerMap{1: 1, 2: 0}, Score: 2, CreatedAt: created, FinalizedAt: &finalized},
	}
	summary := domain.Summary{TotalAttempts: 2, OpenAttempts: 1, TotalCorrect: 2, TotalQuestions: 4, AveragePercentage: 50, BestPercentage: 100}

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, attempts, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(AttemptsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Attempt ID", rows[0][0])
	require.Equal(t, "a2", rows[1][0])
	require.Equal(t, "open", rows[1][3])
	require.Equal(t, []string{"a1", "2024-06-01T12:00:00Z", "2024-06-01T12:10:00Z", "finalized", "2", "0", "0", "2", "100", "Outstanding"}, rows[2])

	unanswered, err := f.GetCellValue(AttemptsSheet, "G2")
	require.NoError(t, err)
	require.Equal(t, "2", unanswered)
	finalizedAt, err := f.GetCellValue(AttemptsSheet, "C2")
	require.NoError(t, err)
	require.Empty(t, finalizedAt)

	best, err := f.GetCellValue(SummarySheet, "B8")
	require.NoError(t, err)
	require.Equal(t, "100", best)
}
