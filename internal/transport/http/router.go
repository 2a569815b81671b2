package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/metrics"
	"timed-quiz-service/internal/session"
)

// TokenVerifier resolves a bearer token to the current user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Handler serves the attempt API and the live session socket.
type Handler struct {
	service  *app.AttemptService
	verifier TokenVerifier
	metrics  *metrics.Metrics
	log      *zap.Logger
	clock    session.Clock
	upgrader websocket.Upgrader

	// renewEvery is how often a live socket renews its session claim.
	renewEvery time.Duration
}

// Option customizes a Handler.
type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option { return func(h *Handler) { h.metrics = m } }
func WithLogger(l *zap.Logger) Option       { return func(h *Handler) { h.log = l } }

// WithClock replaces the countdown clock, used by tests.
func WithClock(c session.Clock) Option { return func(h *Handler) { h.clock = c } }

// WithLeaseRenewal sets the session claim renewal interval; 0 disables renewal.
func WithLeaseRenewal(every time.Duration) Option { return func(h *Handler) { h.renewEvery = every } }

func NewHandler(service *app.AttemptService, verifier TokenVerifier, opts ...Option) *Handler {
	h := &Handler{
		service:    service,
		verifier:   verifier,
		log:        zap.NewNop(),
		clock:      session.SystemClock{},
		renewEvery: time.Minute,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router wires every route onto a fresh gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	if h.metrics != nil {
		r.Use(h.metrics.Middleware())
		r.GET("/metrics", h.metrics.Handler())
	}
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api", h.authenticate())
	attempts := api.Group("/attempts")
	attempts.POST("", h.startAttempt)
	attempts.GET("", h.listAttempts)
	attempts.GET("/stats", h.stats)
	attempts.GET("/export", h.exportHistory)
	attempts.GET("/:id", h.getAttempt)
	attempts.PUT("/:id/answers", h.submitAnswers)
	attempts.GET("/:id/live", h.live)
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
