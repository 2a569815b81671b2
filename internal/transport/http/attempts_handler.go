package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/export"
)

type startResponse struct {
	AttemptID       string            `json:"attemptId"`
	Questions       []domain.Question `json:"questions"`
	DurationSeconds int               `json:"durationSeconds"`
	WarningSeconds  int               `json:"warningSeconds"`
}

type listResponse struct {
	Attempts []app.Report `json:"attempts"`
}

// answersRequest keys answers by decimal question id, the same encoding the store uses.
type answersRequest struct {
	Answers map[string]int `json:"answers"`
}

func (h *Handler) startAttempt(c *gin.Context) {
	started, err := h.service.Start(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, startResponse{
		AttemptID:       started.Attempt.ID,
		Questions:       started.Attempt.Questions,
		DurationSeconds: started.DurationSeconds,
		WarningSeconds:  started.WarningSeconds,
	})
}

func (h *Handler) listAttempts(c *gin.Context) {
	attempts, err := h.service.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := listResponse{Attempts: make([]app.Report, 0, len(attempts))}
	for _, attempt := range attempts {
		resp.Attempts = append(resp.Attempts, app.BuildReport(attempt, false))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) stats(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) exportHistory(c *gin.Context) {
	ctx := c.Request.Context()
	owner := currentUserID(c)
	attempts, err := h.service.List(ctx, owner)
	if err != nil {
		h.writeError(c, err)
		return
	}
	summary, err := h.service.Summary(ctx, owner)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteHistory(&buf, attempts, summary); err != nil {
		h.writeError(c, fmt.Errorf("render workbook: %w", err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="quiz-history.xlsx"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *Handler) getAttempt(c *gin.Context) {
	attempt, err := h.service.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.BuildReport(attempt, true))
}

func (h *Handler) submitAnswers(c *gin.Context) {
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid answers payload")
		return
	}
	answers, err := parseAnswers(req.Answers)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	attempt, err := h.service.Finalize(c.Request.Context(), c.Param("id"), currentUserID(c), answers)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.BuildReport(attempt, true))
}

func parseAnswers(raw map[string]int) (domain.AnswerMap, error) {
	answers := make(domain.AnswerMap, len(raw))
	for key, idx := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid question id %q", key)
		}
		answers[id] = idx
	}
	return answers, nil
}
