package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timed-quiz-service/internal/domain"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// errorStatus maps a use-case error to its HTTP status and client-facing body.
// Foreign and missing attempts share one message.
func errorStatus(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "access denied"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "quiz not found"}
	case errors.Is(err, domain.ErrSupply):
		return http.StatusServiceUnavailable, errorResponse{Error: "failed to fetch questions", Retryable: true}
	case errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest, errorResponse{Error: "option out of range"}
	case errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict, errorResponse{Error: "attempt is open in another session"}
	case errors.Is(err, domain.ErrAlreadyFinalized):
		return http.StatusConflict, errorResponse{Error: "attempt already finalized"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorResponse{Error: "request timed out", Retryable: true}
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, errorResponse{Error: "failed to save quiz data", Retryable: true}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("owner_id", currentUserID(c)),
			zap.Error(err))
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
