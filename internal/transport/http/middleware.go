package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"timed-quiz-service/internal/domain"
)

const userIDKey = "userID"

// authenticate accepts "Authorization: Bearer <token>" or, for browsers opening a
// websocket, a token query parameter.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		if token == "" {
			token = c.Query("token")
		}

		userID, err := h.verifier.Verify(token)
		if err != nil {
			h.writeError(c, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID is empty when the request was not authenticated.
func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
